package users

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/auth"
	"github.com/pagemark/annotate/backend/internal/ids"
)

const (
	opServiceNew   = "users.service.new"
	opRegister     = "users.register"
	opAuthenticate = "users.authenticate"
	opGetByID      = "users.get_by_id"
	maxEmailLength = 320
	maxNameLength  = 320
)

var (
	errMissingDatabase   = errors.New("database handle is required")
	errMissingIDProvider = errors.New("id provider is required")
	errMissingField      = errors.New("name, email and password are required")
	errEmailTooLong      = errors.New("email exceeds storage bounds")
	errNameTooLong       = errors.New("name exceeds storage bounds")
	errEmailTaken        = errors.New("email already registered")
	errBadCredentials    = errors.New("invalid credentials")
	noOpLogger           = zap.NewNop()
)

// ServiceConfig describes the dependencies required for account management.
type ServiceConfig struct {
	Database   *gorm.DB
	Clock      func() time.Time
	IDProvider ids.Provider
	Logger     *zap.Logger
}

// Service manages account registration and credential checks.
type Service struct {
	db         *gorm.DB
	clock      func() time.Time
	idProvider ids.Provider
	logger     *zap.Logger
}

// NewService constructs the account service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, apperror.Internal(opServiceNew, "missing_database", errMissingDatabase)
	}
	if cfg.IDProvider == nil {
		return nil, apperror.Internal(opServiceNew, "missing_id_provider", errMissingIDProvider)
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
		clock:      clock,
		idProvider: cfg.IDProvider,
		logger:     logger,
	}, nil
}

// Register creates an account after validating input and hashing the password.
func (s *Service) Register(ctx context.Context, name, email, password string) (User, error) {
	name = strings.TrimSpace(name)
	email = normalizeEmail(email)
	if name == "" || email == "" || password == "" {
		return User{}, apperror.Validation(opRegister, "missing_field", errMissingField)
	}
	if len(email) > maxEmailLength {
		return User{}, apperror.Validation(opRegister, "email_too_long", errEmailTooLong)
	}
	if len(name) > maxNameLength {
		return User{}, apperror.Validation(opRegister, "name_too_long", errNameTooLong)
	}

	var existing User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&existing).Error
	if err == nil {
		return User{}, apperror.Validation(opRegister, "email_taken", errEmailTaken)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logError(opRegister, "email_lookup_failed", err, zap.String("email", email))
		return User{}, apperror.Internal(opRegister, "email_lookup_failed", err)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return User{}, err
	}

	userID, err := s.idProvider.NewID()
	if err != nil {
		s.logError(opRegister, "id_generation_failed", err)
		return User{}, apperror.Internal(opRegister, "id_generation_failed", err)
	}

	user := User{
		ID:           userID,
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		CreatedAt:    s.clock().UTC(),
		UpdatedAt:    s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		s.logError(opRegister, "insert_failed", err, zap.String("email", email))
		return User{}, apperror.Internal(opRegister, "insert_failed", err)
	}

	return user, nil
}

// Authenticate resolves an account by email and checks the password.
// Unknown emails and wrong passwords are deliberately indistinguishable.
func (s *Service) Authenticate(ctx context.Context, email, password string) (User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return User{}, apperror.Auth(opAuthenticate, "invalid_credentials", errBadCredentials)
	}

	var user User
	err := s.db.WithContext(ctx).Where("email = ?", email).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperror.Auth(opAuthenticate, "invalid_credentials", errBadCredentials)
	}
	if err != nil {
		s.logError(opAuthenticate, "email_lookup_failed", err, zap.String("email", email))
		return User{}, apperror.Internal(opAuthenticate, "email_lookup_failed", err)
	}

	if !auth.CheckPassword(user.PasswordHash, password) {
		return User{}, apperror.Auth(opAuthenticate, "invalid_credentials", errBadCredentials)
	}

	return user, nil
}

// GetByID loads the account behind a validated bearer token.
func (s *Service) GetByID(ctx context.Context, userID string) (User, error) {
	if strings.TrimSpace(userID) == "" {
		return User{}, apperror.Auth(opGetByID, "missing_user_id", errBadCredentials)
	}

	var user User
	err := s.db.WithContext(ctx).Where("id = ?", userID).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, apperror.Auth(opGetByID, "unknown_user", errBadCredentials)
	}
	if err != nil {
		s.logError(opGetByID, "lookup_failed", err, zap.String("user_id", userID))
		return User{}, apperror.Internal(opGetByID, "lookup_failed", err)
	}

	return user, nil
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
	s.logger.Error("users service error", attrs...)
}
