package handler

import (
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
)

// CorrectionHandler handles manual stock corrections
type CorrectionHandler struct {
	BaseHandler
	corrections *appinv.CorrectionService
}

// NewCorrectionHandler creates a new CorrectionHandler
func NewCorrectionHandler(corrections *appinv.CorrectionService) *CorrectionHandler {
	return &CorrectionHandler{corrections: corrections}
}

// Create handles POST /corrections
func (h *CorrectionHandler) Create(c *gin.Context) {
	var req appinv.CreateCorrectionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	correction, err := h.corrections.Create(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, correction)
}

// Get handles GET /corrections/:id
func (h *CorrectionHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	correction, err := h.corrections.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, correction)
}

// List handles GET /corrections
func (h *CorrectionHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.corrections.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Approve handles POST /corrections/:id/approve
func (h *CorrectionHandler) Approve(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	correction, err := h.corrections.Approve(c.Request.Context(), id, actor(c))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, correction)
}

// Reject handles POST /corrections/:id/reject
func (h *CorrectionHandler) Reject(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinv.RejectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	correction, err := h.corrections.Reject(c.Request.Context(), id, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, correction)
}
