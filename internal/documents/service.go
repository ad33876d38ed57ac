package documents

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagemark/annotate/backend/internal/annotations"
	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/ids"
)

const (
	opServiceNew = "documents.service.new"
	opUpload     = "documents.upload"
	opList       = "documents.list"
	opGet        = "documents.get"
	opResolve    = "documents.resolve"
	opRename     = "documents.rename"
	opDelete     = "documents.delete"

	// PublicPathPrefix is where stored blobs are served as static content.
	PublicPathPrefix = "/uploads/"

	storedExtension = ".pdf"
	defaultName     = "document.pdf"
)

var (
	errMissingDatabase  = errors.New("database handle is required")
	errMissingStorage   = errors.New("blob store is required")
	errMissingInspector = errors.New("pdf inspector is required")
	errMissingIDs       = errors.New("id provider is required")
	errMissingOwner     = errors.New("owner id is required")
	errEmptyPayload     = errors.New("no file provided")
	errEmptyName        = errors.New("new name is required")
	errDocumentMissing  = errors.New("pdf not found")
	noOpLogger          = zap.NewNop()
)

// ServiceConfig describes the dependencies of the document store.
type ServiceConfig struct {
	Database   *gorm.DB
	Storage    BlobStore
	Inspector  Inspector
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// Service manages uploaded PDF metadata and the backing blobs.
type Service struct {
	db         *gorm.DB
	storage    BlobStore
	inspector  Inspector
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewService constructs the document service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, apperror.Internal(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.Storage == nil {
		return nil, apperror.Internal(opServiceNew, "missing_storage", errMissingStorage)
	}
	if cfg.Inspector == nil {
		return nil, apperror.Internal(opServiceNew, "missing_inspector", errMissingInspector)
	}
	if cfg.IDProvider == nil {
		return nil, apperror.Internal(opServiceNew, "missing_id_provider", errMissingIDs)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{
		db:         cfg.Database,
		storage:    cfg.Storage,
		inspector:  cfg.Inspector,
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Upload validates the payload as a PDF, writes the blob under a generated
// name, and persists the metadata record. Validation failures happen before
// any side effect.
func (s *Service) Upload(ctx context.Context, ownerID, originalName string, payload []byte) (Document, error) {
	if strings.TrimSpace(ownerID) == "" {
		return Document{}, apperror.Internal(opUpload, "missing_owner", errMissingOwner)
	}
	if len(payload) == 0 {
		return Document{}, apperror.Validation(opUpload, "missing_file", errEmptyPayload)
	}

	pageCount, err := s.inspector.PageCount(payload)
	if err != nil {
		return Document{}, apperror.Validation(opUpload, "not_a_pdf", err)
	}

	originalName = strings.TrimSpace(originalName)
	if originalName == "" {
		originalName = defaultName
	}

	recordID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opUpload, "id_generation_failed", err)
		return Document{}, apperror.Internal(opUpload, "id_generation_failed", err)
	}

	externalUUID := uuid.NewString()
	storedName := uuid.NewString() + storedExtension

	if err := s.storage.Save(storedName, payload); err != nil {
		s.logError(opUpload, "blob_write_failed", err, zap.String("stored_name", storedName))
		return Document{}, apperror.Internal(opUpload, "blob_write_failed", err)
	}

	now := s.clock().UTC()
	document := Document{
		ID:           recordID,
		UUID:         externalUUID,
		OwnerID:      ownerID,
		OriginalName: originalName,
		StoredName:   storedName,
		Path:         PublicPathPrefix + storedName,
		SizeBytes:    int64(len(payload)),
		PageCount:    pageCount,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.db.WithContext(ctx).Create(&document).Error; err != nil {
		// compensate: the blob must not outlive a failed metadata insert
		if removeErr := s.storage.Remove(storedName); removeErr != nil {
			s.logError(opUpload, "blob_cleanup_failed", removeErr, zap.String("stored_name", storedName))
		}
		s.logError(opUpload, "insert_failed", err, zap.String("uuid", externalUUID))
		return Document{}, apperror.Internal(opUpload, "insert_failed", err)
	}

	return document, nil
}

// List returns the caller's documents, newest first.
func (s *Service) List(ctx context.Context, ownerID string) ([]Document, error) {
	var documents []Document
	err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at DESC").
		Find(&documents).Error
	if err != nil {
		s.logError(opList, "query_failed", err, zap.String("owner_id", ownerID))
		return nil, apperror.Internal(opList, "query_failed", err)
	}
	return documents, nil
}

// Get returns one owned document. A uuid belonging to another user is
// indistinguishable from a missing one.
func (s *Service) Get(ctx context.Context, documentUUID, ownerID string) (Document, error) {
	return s.getOwned(ctx, opGet, documentUUID, ownerID)
}

// ResolveOwned maps an external uuid to the internal record id, enforcing
// ownership. It backs the annotation services' document checks.
func (s *Service) ResolveOwned(ctx context.Context, documentUUID, ownerID string) (string, error) {
	document, err := s.getOwned(ctx, opResolve, documentUUID, ownerID)
	if err != nil {
		return "", err
	}
	return document.ID, nil
}

// Rename updates the display name of an owned document.
func (s *Service) Rename(ctx context.Context, documentUUID, ownerID, newName string) (Document, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return Document{}, apperror.Validation(opRename, "missing_name", errEmptyName)
	}

	document, err := s.getOwned(ctx, opRename, documentUUID, ownerID)
	if err != nil {
		return Document{}, err
	}

	err = s.db.WithContext(ctx).Model(&Document{}).
		Where("uuid = ? AND owner_id = ?", documentUUID, ownerID).
		Updates(map[string]interface{}{
			"original_name": newName,
			"updated_at":    s.clock().UTC(),
		}).Error
	if err != nil {
		s.logError(opRename, "update_failed", err, zap.String("uuid", documentUUID))
		return Document{}, apperror.Internal(opRename, "update_failed", err)
	}

	document.OriginalName = newName
	return document, nil
}

// Delete removes an owned document: the highlight and drawing cascade plus
// the metadata row commit in one transaction, then the blob is unlinked
// best-effort so a crash can orphan a file but never a database reference.
func (s *Service) Delete(ctx context.Context, documentUUID, ownerID string) error {
	document, err := s.getOwned(ctx, opDelete, documentUUID, ownerID)
	if err != nil {
		return err
	}

	txErr := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("document_id = ?", document.ID).Delete(&annotations.Highlight{}).Error; err != nil {
			return err
		}
		if err := tx.Where("document_id = ?", document.ID).Delete(&annotations.Drawing{}).Error; err != nil {
			return err
		}
		return tx.Where("id = ?", document.ID).Delete(&Document{}).Error
	})
	if txErr != nil {
		s.logError(opDelete, "cascade_failed", txErr, zap.String("uuid", documentUUID))
		return apperror.Internal(opDelete, "cascade_failed", txErr)
	}

	if err := s.storage.Remove(document.StoredName); err != nil {
		s.logger.Warn("orphaned blob left behind",
			zap.String("operation", opDelete),
			zap.String("stored_name", document.StoredName),
			zap.Error(err))
	}

	return nil
}

func (s *Service) getOwned(ctx context.Context, operation, documentUUID, ownerID string) (Document, error) {
	var document Document
	err := s.db.WithContext(ctx).
		Where("uuid = ? AND owner_id = ?", documentUUID, ownerID).
		Take(&document).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Document{}, apperror.NotFound(operation, "not_found", errDocumentMissing)
	}
	if err != nil {
		s.logError(operation, "lookup_failed", err, zap.String("uuid", documentUUID))
		return Document{}, apperror.Internal(operation, "lookup_failed", err)
	}
	return document, nil
}

func (s *Service) logError(operation, reason string, err error, fields ...zap.Field) {
	attrs := []zap.Field{
		zap.String("operation", operation),
		zap.String("reason", reason),
	}
	if err != nil {
		attrs = append(attrs, zap.Error(err))
	}
	attrs = append(attrs, fields...)
	s.logger.Error("document service error", attrs...)
}
