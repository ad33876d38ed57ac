package annotations

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/ids"
)

const (
	opHighlightServiceNew = "highlights.service.new"
	opHighlightCreate     = "highlights.create"
	opHighlightList       = "highlights.list"
	opHighlightUpdate     = "highlights.update"
	opHighlightDelete     = "highlights.delete"
	opHighlightIntensity  = "highlights.bump_intensity"
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingResolver   = errors.New("document resolver is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingText       = errors.New("highlight text is required")
	errMissingRects      = errors.New("at least one position rectangle is required")
	errInvalidPage       = errors.New("page number must be 1 or greater")
	errHighlightMissing  = errors.New("highlight not found")
	noOpLogger           = zap.NewNop()
)

// HighlightServiceConfig describes the dependencies of the highlight store.
type HighlightServiceConfig struct {
	Database   *gorm.DB
	Documents  DocumentResolver
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// HighlightService manages ownership-scoped highlight CRUD.
type HighlightService struct {
	db         *gorm.DB
	documents  DocumentResolver
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewHighlightService constructs the highlight service.
func NewHighlightService(cfg HighlightServiceConfig) (*HighlightService, error) {
	if cfg.Database == nil {
		return nil, apperror.Internal(opHighlightServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Documents == nil {
		return nil, apperror.Internal(opHighlightServiceNew, "missing_document_resolver", errMissingResolver)
	}
	if cfg.IDProvider == nil {
		return nil, apperror.Internal(opHighlightServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &HighlightService{
		db:         cfg.Database,
		documents:  cfg.Documents,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateHighlightRequest carries validated-at-the-boundary highlight input.
type CreateHighlightRequest struct {
	DocumentUUID string
	OwnerID      string
	PageNumber   int
	Text         string
	Rects        RectList
	Color        string
}

// Create persists a highlight after the document ownership check.
func (s *HighlightService) Create(ctx context.Context, req CreateHighlightRequest) (Highlight, error) {
	if req.PageNumber < 1 {
		return Highlight{}, apperror.Validation(opHighlightCreate, "invalid_page", errInvalidPage)
	}
	if strings.TrimSpace(req.Text) == "" {
		return Highlight{}, apperror.Validation(opHighlightCreate, "missing_text", errMissingText)
	}
	if len(req.Rects) == 0 {
		return Highlight{}, apperror.Validation(opHighlightCreate, "missing_position", errMissingRects)
	}

	documentID, err := s.documents.ResolveOwned(ctx, req.DocumentUUID, req.OwnerID)
	if err != nil {
		return Highlight{}, err
	}

	highlightID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opHighlightCreate, "id_generation_failed", err)
		return Highlight{}, apperror.Internal(opHighlightCreate, "id_generation_failed", err)
	}

	color := req.Color
	if strings.TrimSpace(color) == "" {
		color = defaultHighlightColor
	}

	now := s.clock().UTC()
	highlight := Highlight{
		ID:         highlightID,
		DocumentID: documentID,
		OwnerID:    req.OwnerID,
		PageNumber: req.PageNumber,
		Text:       req.Text,
		Rects:      req.Rects,
		Color:      color,
		Intensity:  minIntensity,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.db.WithContext(ctx).Create(&highlight).Error; err != nil {
		s.logError(opHighlightCreate, "insert_failed", err, zap.String("document_id", documentID))
		return Highlight{}, apperror.Internal(opHighlightCreate, "insert_failed", err)
	}

	return highlight, nil
}

// ListForDocument returns the caller's highlights for one document,
// ordered by page then creation time.
func (s *HighlightService) ListForDocument(ctx context.Context, documentUUID, ownerID string) ([]Highlight, error) {
	documentID, err := s.documents.ResolveOwned(ctx, documentUUID, ownerID)
	if err != nil {
		return nil, err
	}

	var highlights []Highlight
	err = s.db.WithContext(ctx).
		Where("document_id = ? AND owner_id = ?", documentID, ownerID).
		Order("page_number ASC, created_at ASC").
		Find(&highlights).Error
	if err != nil {
		s.logError(opHighlightList, "query_failed", err, zap.String("document_id", documentID))
		return nil, apperror.Internal(opHighlightList, "query_failed", err)
	}

	return highlights, nil
}

// HighlightPatch carries the optional fields of a partial update.
type HighlightPatch struct {
	Color *string
	Note  *string
	Text  *string
}

// Update applies a partial update to an owned highlight.
func (s *HighlightService) Update(ctx context.Context, highlightID, ownerID string, patch HighlightPatch) (Highlight, error) {
	highlight, err := s.getOwned(ctx, opHighlightUpdate, highlightID, ownerID)
	if err != nil {
		return Highlight{}, err
	}

	updates := map[string]interface{}{}
	if patch.Color != nil && strings.TrimSpace(*patch.Color) != "" {
		updates["color"] = *patch.Color
	}
	if patch.Note != nil {
		updates["note"] = *patch.Note
	}
	if patch.Text != nil && strings.TrimSpace(*patch.Text) != "" {
		updates["text"] = *patch.Text
	}
	if len(updates) == 0 {
		return highlight, nil
	}
	updates["updated_at"] = s.clock().UTC()

	err = s.db.WithContext(ctx).Model(&Highlight{}).
		Where("id = ? AND owner_id = ?", highlightID, ownerID).
		Updates(updates).Error
	if err != nil {
		s.logError(opHighlightUpdate, "update_failed", err, zap.String("highlight_id", highlightID))
		return Highlight{}, apperror.Internal(opHighlightUpdate, "update_failed", err)
	}

	return s.getOwned(ctx, opHighlightUpdate, highlightID, ownerID)
}

// Delete removes an owned highlight.
func (s *HighlightService) Delete(ctx context.Context, highlightID, ownerID string) error {
	if _, err := s.getOwned(ctx, opHighlightDelete, highlightID, ownerID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", highlightID, ownerID).
		Delete(&Highlight{}).Error
	if err != nil {
		s.logError(opHighlightDelete, "delete_failed", err, zap.String("highlight_id", highlightID))
		return apperror.Internal(opHighlightDelete, "delete_failed", err)
	}

	return nil
}

// BumpIntensity increments the bounded intensity counter. At the cap the
// call is a no-op that still returns the record.
func (s *HighlightService) BumpIntensity(ctx context.Context, highlightID, ownerID string) (Highlight, error) {
	highlight, err := s.getOwned(ctx, opHighlightIntensity, highlightID, ownerID)
	if err != nil {
		return Highlight{}, err
	}

	if highlight.Intensity >= MaxIntensity {
		return highlight, nil
	}

	err = s.db.WithContext(ctx).Model(&Highlight{}).
		Where("id = ? AND owner_id = ? AND intensity < ?", highlightID, ownerID, MaxIntensity).
		Updates(map[string]interface{}{
			"intensity":  gorm.Expr("intensity + 1"),
			"updated_at": s.clock().UTC(),
		}).Error
	if err != nil {
		s.logError(opHighlightIntensity, "update_failed", err, zap.String("highlight_id", highlightID))
		return Highlight{}, apperror.Internal(opHighlightIntensity, "update_failed", err)
	}

	return s.getOwned(ctx, opHighlightIntensity, highlightID, ownerID)
}

func (s *HighlightService) getOwned(ctx context.Context, operation, highlightID, ownerID string) (Highlight, error) {
	var highlight Highlight
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", highlightID, ownerID).
		Take(&highlight).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Highlight{}, apperror.NotFound(operation, "not_found", errHighlightMissing)
	}
	if err != nil {
		s.logError(operation, "lookup_failed", err, zap.String("highlight_id", highlightID))
		return Highlight{}, apperror.Internal(operation, "lookup_failed", err)
	}
	return highlight, nil
}

func (s *HighlightService) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("highlight service error", attrs...)
}
