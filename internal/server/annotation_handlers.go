package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pagemark/annotate/backend/internal/annotations"
	"github.com/pagemark/annotate/backend/internal/geometry"
)

type createHighlightPayload struct {
	PdfUUID    string               `json:"pdfUuid"`
	PageNumber int                  `json:"pageNumber"`
	Text       string               `json:"text"`
	Position   annotations.RectList `json:"position"`
	Color      string               `json:"color"`
}

type updateHighlightPayload struct {
	Color *string `json:"color"`
	Note  *string `json:"note"`
	Text  *string `json:"text"`
}

type drawingGeometryPayload struct {
	Path   annotations.PointList `json:"path"`
	StartX *float64              `json:"startX"`
	StartY *float64              `json:"startY"`
	EndX   *float64              `json:"endX"`
	EndY   *float64              `json:"endY"`
}

type createDrawingPayload struct {
	PdfUUID    string  `json:"pdfUuid"`
	PageNumber int     `json:"pageNumber"`
	Shape      string  `json:"shape"`
	Color      string  `json:"color"`
	LineWidth  float64 `json:"lineWidth"`
	drawingGeometryPayload
}

var (
	errConflictingGeometry = errors.New("a drawing carries either a path or endpoints, not both")
	errNoGeometry          = errors.New("drawing geometry is required")
)

// parseGeometry builds the tagged geometry variant from the raw payload
// fields. The shape-kind match is enforced by the service.
func parseGeometry(payload drawingGeometryPayload) (annotations.Geometry, error) {
	hasEndpoints := payload.StartX != nil && payload.StartY != nil && payload.EndX != nil && payload.EndY != nil
	anyEndpoint := payload.StartX != nil || payload.StartY != nil || payload.EndX != nil || payload.EndY != nil

	switch {
	case len(payload.Path) > 0 && anyEndpoint:
		return nil, errConflictingGeometry
	case len(payload.Path) > 0:
		return annotations.Freehand{Points: payload.Path}, nil
	case hasEndpoints:
		return annotations.Endpoints{
			Start: geometry.DocPoint{X: *payload.StartX, Y: *payload.StartY},
			End:   geometry.DocPoint{X: *payload.EndX, Y: *payload.EndY},
		}, nil
	default:
		return nil, errNoGeometry
	}
}

func (h *httpHandler) handleCreateHighlight(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	var request createHighlightPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	highlight, err := h.highlights.Create(c.Request.Context(), annotations.CreateHighlightRequest{
		DocumentUUID: request.PdfUUID,
		OwnerID:      userID,
		PageNumber:   request.PageNumber,
		Text:         request.Text,
		Rects:        request.Position,
		Color:        request.Color,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "highlight": highlight})
}

func (h *httpHandler) handleListHighlights(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	highlights, err := h.highlights.ListForDocument(c.Request.Context(), c.Param("pdfUuid"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "highlights": highlights})
}

func (h *httpHandler) handleUpdateHighlight(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	var request updateHighlightPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	highlight, err := h.highlights.Update(c.Request.Context(), c.Param("id"), userID, annotations.HighlightPatch{
		Color: request.Color,
		Note:  request.Note,
		Text:  request.Text,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "highlight": highlight})
}

func (h *httpHandler) handleBumpIntensity(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	highlight, err := h.highlights.BumpIntensity(c.Request.Context(), c.Param("id"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "highlight": highlight})
}

func (h *httpHandler) handleDeleteHighlight(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	if err := h.highlights.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Highlight deleted"})
}

func (h *httpHandler) handleCreateDrawing(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	var request createDrawingPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	shape, err := annotations.ParseShapeKind(request.Shape)
	if err != nil {
		c.JSON(http.StatusBadRequest, failureBody(err.Error()))
		return
	}

	drawingGeometry, err := parseGeometry(request.drawingGeometryPayload)
	if err != nil {
		c.JSON(http.StatusBadRequest, failureBody(err.Error()))
		return
	}

	drawing, err := h.drawings.Create(c.Request.Context(), annotations.CreateDrawingRequest{
		DocumentUUID: request.PdfUUID,
		OwnerID:      userID,
		PageNumber:   request.PageNumber,
		Shape:        shape,
		Geometry:     drawingGeometry,
		Color:        request.Color,
		LineWidth:    request.LineWidth,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"success": true, "drawing": drawing})
}

func (h *httpHandler) handleListDrawings(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	drawings, err := h.drawings.ListForDocument(c.Request.Context(), c.Param("pdfUuid"), userID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "drawings": drawings})
}

func (h *httpHandler) handleUpdateDrawing(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	var request drawingGeometryPayload
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, failureBody("invalid request body"))
		return
	}

	drawingGeometry, err := parseGeometry(request)
	if err != nil {
		c.JSON(http.StatusBadRequest, failureBody(err.Error()))
		return
	}

	drawing, err := h.drawings.UpdateGeometry(c.Request.Context(), c.Param("id"), userID, drawingGeometry)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "drawing": drawing})
}

func (h *httpHandler) handleDeleteDrawing(c *gin.Context) {
	userID, ok := h.actingUser(c)
	if !ok {
		return
	}

	if err := h.drawings.Delete(c.Request.Context(), c.Param("id"), userID); err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Drawing deleted"})
}
