package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagemark/annotate/backend/internal/users"
)

type registerRequestPayload struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginRequestPayload struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type tokenResponsePayload struct {
	Success   bool        `json:"success"`
	Token     string      `json:"token"`
	ExpiresIn int64       `json:"expiresIn"`
	User      *users.User `json:"user,omitempty"`
}

func (h *httpHandler) handleRegister(c *gin.Context) {
	var request registerRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	user, err := h.users.Register(c.Request.Context(), request.Name, request.Email, request.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, tokenResponsePayload{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
	})
}

func (h *httpHandler) handleLogin(c *gin.Context) {
	var request loginRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	user, err := h.users.Authenticate(c.Request.Context(), request.Email, request.Password)
	if err != nil {
		h.respondError(c, err)
		return
	}

	token, expiresIn, err := h.tokens.Issue(user.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, tokenResponsePayload{
		Success:   true,
		Token:     token,
		ExpiresIn: expiresIn,
		User:      &user,
	})
}

func (h *httpHandler) handleMe(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	user, err := h.users.GetByID(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "user": user})
}
