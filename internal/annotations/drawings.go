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
	opDrawingServiceNew = "drawings.service.new"
	opDrawingCreate     = "drawings.create"
	opDrawingList       = "drawings.list"
	opDrawingUpdate     = "drawings.update"
	opDrawingDelete     = "drawings.delete"
)

var (
	errMissingGeometry = errors.New("drawing geometry is required")
	errDrawingMissing  = errors.New("drawing not found")
)

// DrawingServiceConfig describes the dependencies of the drawing store.
type DrawingServiceConfig struct {
	Database   *gorm.DB
	Documents  DocumentResolver
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// DrawingService manages ownership-scoped drawing CRUD.
type DrawingService struct {
	db         *gorm.DB
	documents  DocumentResolver
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewDrawingService constructs the drawing service.
func NewDrawingService(cfg DrawingServiceConfig) (*DrawingService, error) {
	if cfg.Database == nil {
		return nil, apperror.Internal(opDrawingServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Documents == nil {
		return nil, apperror.Internal(opDrawingServiceNew, "missing_document_resolver", errMissingResolver)
	}
	if cfg.IDProvider == nil {
		return nil, apperror.Internal(opDrawingServiceNew, "missing_id_provider", errMissingIDProvider)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &DrawingService{
		db:         cfg.Database,
		documents:  cfg.Documents,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// CreateDrawingRequest carries validated-at-the-boundary drawing input.
type CreateDrawingRequest struct {
	DocumentUUID string
	OwnerID      string
	PageNumber   int
	Shape        ShapeKind
	Geometry     Geometry
	Color        string
	LineWidth    float64
}

// Create persists a drawing after the document ownership check. The
// geometry variant must match the tagged shape kind.
func (s *DrawingService) Create(ctx context.Context, req CreateDrawingRequest) (Drawing, error) {
	if req.PageNumber < 1 {
		return Drawing{}, apperror.Validation(opDrawingCreate, "invalid_page", errInvalidPage)
	}
	if req.Geometry == nil {
		return Drawing{}, apperror.Validation(opDrawingCreate, "missing_geometry", errMissingGeometry)
	}

	documentID, err := s.documents.ResolveOwned(ctx, req.DocumentUUID, req.OwnerID)
	if err != nil {
		return Drawing{}, err
	}

	drawingID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opDrawingCreate, "id_generation_failed", err)
		return Drawing{}, apperror.Internal(opDrawingCreate, "id_generation_failed", err)
	}

	color := req.Color
	if strings.TrimSpace(color) == "" {
		color = defaultDrawingColor
	}
	lineWidth := req.LineWidth
	if lineWidth <= 0 {
		lineWidth = defaultLineWidth
	}

	now := s.clock().UTC()
	drawing := Drawing{
		ID:         drawingID,
		DocumentID: documentID,
		OwnerID:    req.OwnerID,
		PageNumber: req.PageNumber,
		Shape:      req.Shape,
		Color:      color,
		LineWidth:  lineWidth,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := req.Geometry.applyTo(req.Shape, &drawing); err != nil {
		return Drawing{}, apperror.Validation(opDrawingCreate, "invalid_geometry", err)
	}

	if err := s.db.WithContext(ctx).Create(&drawing).Error; err != nil {
		s.logError(opDrawingCreate, "insert_failed", err, zap.String("document_id", documentID))
		return Drawing{}, apperror.Internal(opDrawingCreate, "insert_failed", err)
	}

	return drawing, nil
}

// ListForDocument returns the caller's drawings for one document.
func (s *DrawingService) ListForDocument(ctx context.Context, documentUUID, ownerID string) ([]Drawing, error) {
	documentID, err := s.documents.ResolveOwned(ctx, documentUUID, ownerID)
	if err != nil {
		return nil, err
	}

	var drawings []Drawing
	err = s.db.WithContext(ctx).
		Where("document_id = ? AND owner_id = ?", documentID, ownerID).
		Order("created_at ASC").
		Find(&drawings).Error
	if err != nil {
		s.logError(opDrawingList, "query_failed", err, zap.String("document_id", documentID))
		return nil, apperror.Internal(opDrawingList, "query_failed", err)
	}

	return drawings, nil
}

// UpdateGeometry overwrites the geometry of an owned drawing wholesale,
// supporting the client-side move interaction. The replacement must match
// the stored shape kind.
func (s *DrawingService) UpdateGeometry(ctx context.Context, drawingID, ownerID string, replacement Geometry) (Drawing, error) {
	if replacement == nil {
		return Drawing{}, apperror.Validation(opDrawingUpdate, "missing_geometry", errMissingGeometry)
	}

	drawing, err := s.getOwned(ctx, opDrawingUpdate, drawingID, ownerID)
	if err != nil {
		return Drawing{}, err
	}

	if err := replacement.applyTo(drawing.Shape, &drawing); err != nil {
		return Drawing{}, apperror.Validation(opDrawingUpdate, "invalid_geometry", err)
	}
	drawing.UpdatedAt = s.clock().UTC()

	err = s.db.WithContext(ctx).Model(&Drawing{}).
		Where("id = ? AND owner_id = ?", drawingID, ownerID).
		Updates(map[string]interface{}{
			"path":       drawing.Path,
			"start_x":    drawing.StartX,
			"start_y":    drawing.StartY,
			"end_x":      drawing.EndX,
			"end_y":      drawing.EndY,
			"updated_at": drawing.UpdatedAt,
		}).Error
	if err != nil {
		s.logError(opDrawingUpdate, "update_failed", err, zap.String("drawing_id", drawingID))
		return Drawing{}, apperror.Internal(opDrawingUpdate, "update_failed", err)
	}

	return s.getOwned(ctx, opDrawingUpdate, drawingID, ownerID)
}

// Delete removes an owned drawing.
func (s *DrawingService) Delete(ctx context.Context, drawingID, ownerID string) error {
	if _, err := s.getOwned(ctx, opDrawingDelete, drawingID, ownerID); err != nil {
		return err
	}

	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", drawingID, ownerID).
		Delete(&Drawing{}).Error
	if err != nil {
		s.logError(opDrawingDelete, "delete_failed", err, zap.String("drawing_id", drawingID))
		return apperror.Internal(opDrawingDelete, "delete_failed", err)
	}

	return nil
}

func (s *DrawingService) getOwned(ctx context.Context, operation, drawingID, ownerID string) (Drawing, error) {
	var drawing Drawing
	err := s.db.WithContext(ctx).
		Where("id = ? AND owner_id = ?", drawingID, ownerID).
		Take(&drawing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Drawing{}, apperror.NotFound(operation, "not_found", errDrawingMissing)
	}
	if err != nil {
		s.logError(operation, "lookup_failed", err, zap.String("drawing_id", drawingID))
		return Drawing{}, apperror.Internal(operation, "lookup_failed", err)
	}
	return drawing, nil
}

func (s *DrawingService) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("drawing service error", attrs...)
}
