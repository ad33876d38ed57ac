package database

import (
	"path/filepath"
	"testing"

	sqlite "github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagemark/annotate/backend/internal/annotations"
)

func TestApplyMigrationsBackfillsHighlightIntensity(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "migration.db")

	database, err := gorm.Open(sqlite.Open(databasePath), &gorm.Config{})
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	if err := database.AutoMigrate(&annotations.Highlight{}, &migrationRecord{}); err != nil {
		testContext.Fatalf("failed to migrate schema: %v", err)
	}

	highlight := annotations.Highlight{
		ID:         "h-1",
		DocumentID: "doc-1",
		OwnerID:    "user-1",
		PageNumber: 1,
		Text:       "legacy",
		Rects:      annotations.RectList{{X: 1, Y: 1, Width: 1, Height: 1}},
		Color:      "#ff0",
	}
	if err := database.Create(&highlight).Error; err != nil {
		testContext.Fatalf("failed to insert highlight: %v", err)
	}
	if err := database.Model(&annotations.Highlight{}).Where("id = ?", "h-1").Update("intensity", 0).Error; err != nil {
		testContext.Fatalf("failed to zero intensity: %v", err)
	}

	if err := applyMigrations(database, zap.NewNop()); err != nil {
		testContext.Fatalf("failed to apply migrations: %v", err)
	}

	var stored annotations.Highlight
	if err := database.Where("id = ?", "h-1").Take(&stored).Error; err != nil {
		testContext.Fatalf("failed to reload highlight: %v", err)
	}
	if stored.Intensity != 1 {
		testContext.Fatalf("expected intensity backfilled to 1, got %d", stored.Intensity)
	}

	var record migrationRecord
	if err := database.Where("name = ?", migrationBackfillHighlightIntensity).Take(&record).Error; err != nil {
		testContext.Fatalf("expected migration record to be created: %v", err)
	}
	if record.AppliedAtSeconds == 0 {
		testContext.Fatalf("expected migration timestamp to be set")
	}
}

func TestOpenSQLiteMigratesSchema(testContext *testing.T) {
	tempDir := testContext.TempDir()
	databasePath := filepath.Join(tempDir, "open.db")

	database, err := OpenSQLite(databasePath, zap.NewNop())
	if err != nil {
		testContext.Fatalf("failed to open sqlite: %v", err)
	}

	for _, table := range []string{"users", "documents", "highlights", "drawings", "db_migrations"} {
		if !database.Migrator().HasTable(table) {
			testContext.Fatalf("expected table %s to exist", table)
		}
	}
}
