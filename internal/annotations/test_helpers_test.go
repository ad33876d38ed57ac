package annotations

import (
	"context"
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"gorm.io/gorm"

	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/ids"
)

// staticResolver maps uuid+owner pairs to internal ids the way the
// documents service does, returning not-found on any other combination.
type staticResolver struct {
	owned map[string]string
}

func (r *staticResolver) ResolveOwned(_ context.Context, documentUUID, ownerID string) (string, error) {
	if id, ok := r.owned[documentUUID+"|"+ownerID]; ok {
		return id, nil
	}
	return "", apperror.NotFound("documents.resolve", "not_found", nil)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	databasePath := filepath.Join(t.TempDir(), "annotations.db")
	db, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		t.Fatalf("failed to open sqlite: %v", err)
	}
	if err := db.AutoMigrate(&Highlight{}, &Drawing{}); err != nil {
		t.Fatalf("failed to migrate schema: %v", err)
	}
	return db
}

func newTestHighlightService(t *testing.T, resolver DocumentResolver) *HighlightService {
	t.Helper()
	service, err := NewHighlightService(HighlightServiceConfig{
		Database:   newTestDB(t),
		Documents:  resolver,
		IDProvider: ids.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build highlight service: %v", err)
	}
	return service
}

func newTestDrawingService(t *testing.T, resolver DocumentResolver) *DrawingService {
	t.Helper()
	service, err := NewDrawingService(DrawingServiceConfig{
		Database:   newTestDB(t),
		Documents:  resolver,
		IDProvider: ids.NewUUIDProvider(),
	})
	if err != nil {
		t.Fatalf("failed to build drawing service: %v", err)
	}
	return service
}

func ownedResolver() *staticResolver {
	return &staticResolver{owned: map[string]string{
		"doc-uuid-1|user-1": "doc-1",
	}}
}
