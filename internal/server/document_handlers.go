package server

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type renameRequestPayload struct {
	OriginalName string `json:"originalName"`
}

func (h *httpHandler) handleUpload(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.uploadMaxBytes)

	fileHeader, err := c.FormFile("pdf")
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			c.JSON(http.StatusBadRequest, failureBody("file exceeds the upload size limit"))
			return
		}
		c.JSON(http.StatusBadRequest, failureBody("Please upload a PDF file"))
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		h.logger.Error("failed to open multipart file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, failureBody("Server error"))
		return
	}
	defer file.Close()

	payload, err := io.ReadAll(file)
	if err != nil {
		h.logger.Error("failed to read multipart file", zap.Error(err))
		c.JSON(http.StatusInternalServerError, failureBody("Server error"))
		return
	}

	document, err := h.documents.Upload(c.Request.Context(), userID, fileHeader.Filename, payload)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "pdf": document})
}

func (h *httpHandler) handleListDocuments(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	documents, err := h.documents.List(c.Request.Context(), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pdfs": documents, "count": len(documents)})
}

func (h *httpHandler) handleGetDocument(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	document, err := h.documents.Get(c.Request.Context(), c.Param("uuid"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pdf": document})
}

func (h *httpHandler) handleRenameDocument(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	var request renameRequestPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	document, err := h.documents.Rename(c.Request.Context(), c.Param("uuid"), userID, request.OriginalName)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "pdf": document})
}

func (h *httpHandler) handleDeleteDocument(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	if err := h.documents.Delete(c.Request.Context(), c.Param("uuid"), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "PDF deleted successfully"})
}
