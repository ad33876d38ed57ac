package server

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"go.uber.org/zap"

	"github.com/pagemark/annotate/backend/internal/annotations"
	"github.com/pagemark/annotate/backend/internal/apperror"
	"github.com/pagemark/annotate/backend/internal/documents"
	"github.com/pagemark/annotate/backend/internal/users"
)

const userIDContextKey = "annotate_user_id"

const defaultUploadMaxBytes = 20 << 20

var (
	errMissingTokenManager  = errors.New("token manager dependency required")
	errMissingUsersService  = errors.New("users service dependency required")
	errMissingDocsService   = errors.New("documents service dependency required")
	errMissingHighlights    = errors.New("highlight service dependency required")
	errMissingDrawings      = errors.New("drawing service dependency required")
	errInvalidAuthorization = errors.New("authorization header missing or invalid")
)

// TokenManager issues and validates the bearer tokens carried in the
// Authorization header.
type TokenManager interface {
	Issue(userID string) (string, int64, error)
	Validate(token string) (string, error)
}

// Dependencies wires the HTTP layer to the domain services.
type Dependencies struct {
	TokenManager   TokenManager
	Users          *users.Service
	Documents      *documents.Service
	Highlights     *annotations.HighlightService
	Drawings       *annotations.DrawingService
	StorageDir     string
	UploadMaxBytes int64
	Logger         *zap.Logger
}

// NewHTTPHandler builds the gin router for the annotation API.
func NewHTTPHandler(deps Dependencies) (http.Handler, error) {
	if deps.TokenManager == nil {
		return nil, errMissingTokenManager
	}
	if deps.Users == nil {
		return nil, errMissingUsersService
	}
	if deps.Documents == nil {
		return nil, errMissingDocsService
	}
	if deps.Highlights == nil {
		return nil, errMissingHighlights
	}
	if deps.Drawings == nil {
		return nil, errMissingDrawings
	}

	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	uploadMaxBytes := deps.UploadMaxBytes
	if uploadMaxBytes <= 0 {
		uploadMaxBytes = defaultUploadMaxBytes
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{"Authorization", "Content-Type"},
		MaxAge:       12 * time.Hour,
	}))

	handler := &httpHandler{
		tokens:         deps.TokenManager,
		users:          deps.Users,
		documents:      deps.Documents,
		highlights:     deps.Highlights,
		drawings:       deps.Drawings,
		uploadMaxBytes: uploadMaxBytes,
		logger:         logger,
	}

	router.POST("/auth/register", handler.handleRegister)
	router.POST("/auth/login", handler.handleLogin)

	if deps.StorageDir != "" {
		router.Static(strings.TrimSuffix(documents.PublicPathPrefix, "/"), deps.StorageDir)
	}

	protected := router.Group("/")
	protected.Use(handler.authorizeRequest)
	protected.GET("/auth/me", handler.handleMe)

	protected.POST("/pdfs/upload", handler.handleUpload)
	protected.GET("/pdfs/my-pdfs", handler.handleListDocuments)
	protected.GET("/pdfs/:uuid", handler.handleGetDocument)
	protected.PUT("/pdfs/:uuid/rename", handler.handleRenameDocument)
	protected.DELETE("/pdfs/:uuid", handler.handleDeleteDocument)

	protected.POST("/highlights", handler.handleCreateHighlight)
	protected.GET("/highlights/:pdfUuid", handler.handleListHighlights)
	protected.PUT("/highlights/:id", handler.handleUpdateHighlight)
	protected.PUT("/highlights/:id/intensity", handler.handleBumpIntensity)
	protected.DELETE("/highlights/:id", handler.handleDeleteHighlight)

	protected.POST("/drawings", handler.handleCreateDrawing)
	protected.GET("/drawings/:pdfUuid", handler.handleListDrawings)
	protected.PUT("/drawings/:id", handler.handleUpdateDrawing)
	protected.DELETE("/drawings/:id", handler.handleDeleteDrawing)

	return router, nil
}

type httpHandler struct {
	tokens         TokenManager
	users          *users.Service
	documents      *documents.Service
	highlights     *annotations.HighlightService
	drawings       *annotations.DrawingService
	uploadMaxBytes int64
	logger         *zap.Logger
}

func (h *httpHandler) authorizeRequest(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, failureBody(errInvalidAuthorization.Error()))
		return
	}
	token := strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	if token == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, failureBody(errInvalidAuthorization.Error()))
		return
	}
	userID, err := h.tokens.Validate(token)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Info("token validation failed", zap.Error(err))
		} else {
			h.logger.Warn("token validation failed", zap.Error(err))
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, failureBody("unauthorized"))
		return
	}
	c.Set(userIDContextKey, userID)
	c.Next()
}

func (h *httpHandler) actingUser(c *gin.Context) (string, bool) {
	userID := c.GetString(userIDContextKey)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, failureBody("unauthorized"))
		return "", false
	}
	return userID, true
}

func failureBody(message string) gin.H {
	return gin.H{"success": false, "message": message}
}

// respondError maps the service error taxonomy onto transport statuses.
// Internal failures never leak their cause to the caller.
func (h *httpHandler) respondError(c *gin.Context, err error) {
	kind := apperror.KindOf(err)
	switch kind {
	case apperror.KindValidation:
		c.JSON(http.StatusBadRequest, failureBody(causeMessage(err)))
	case apperror.KindAuth:
		c.JSON(http.StatusUnauthorized, failureBody(causeMessage(err)))
	case apperror.KindNotFound:
		c.JSON(http.StatusNotFound, failureBody(causeMessage(err)))
	default:
		h.logger.Error("request failed", zap.String("code", apperror.CodeOf(err)), zap.Error(err))
		c.JSON(http.StatusInternalServerError, failureBody("Server error"))
	}
}

func causeMessage(err error) string {
	var appErr *apperror.Error
	if errors.As(err, &appErr) {
		if cause := appErr.Unwrap(); cause != nil {
			return cause.Error()
		}
		return appErr.Code()
	}
	return err.Error()
}
