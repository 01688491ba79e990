package handler

import (
	"context"

	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// HoldingHandler handles stock holdings issued to individuals
type HoldingHandler struct {
	BaseHandler
	holdings *appinv.HoldingService
}

// NewHoldingHandler creates a new HoldingHandler
func NewHoldingHandler(holdings *appinv.HoldingService) *HoldingHandler {
	return &HoldingHandler{holdings: holdings}
}

// ListActive handles GET /holdings?holder_id=; without holder_id it lists the caller's own
func (h *HoldingHandler) ListActive(c *gin.Context) {
	holder, ok := h.uuidQuery(c, "holder_id")
	if !ok {
		return
	}
	holderID := actor(c)
	if holder != nil {
		holderID = *holder
	}
	holdings, err := h.holdings.ListActiveByHolder(c.Request.Context(), holderID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, holdings)
}

// Get handles GET /holdings/:id
func (h *HoldingHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	holding, err := h.holdings.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, holding)
}

// Reconcile handles GET /holdings/:id/reconcile
func (h *HoldingHandler) Reconcile(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	rec, err := h.holdings.Reconcile(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, rec)
}

// MarkReturned handles POST /holdings/items/:itemId/return
func (h *HoldingHandler) MarkReturned(c *gin.Context) {
	h.resolve(c, h.holdings.MarkReturned)
}

// MarkLost handles POST /holdings/items/:itemId/lost
func (h *HoldingHandler) MarkLost(c *gin.Context) {
	h.resolve(c, h.holdings.MarkLost)
}

type resolveFunc func(ctx context.Context, itemID, actorID uuid.UUID, req appinv.ResolveHoldingItemRequest) (*appinv.HoldingResponse, error)

func (h *HoldingHandler) resolve(c *gin.Context, fn resolveFunc) {
	itemID, ok := h.uuidParam(c, "itemId")
	if !ok {
		return
	}
	var req appinv.ResolveHoldingItemRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	holding, err := fn(c.Request.Context(), itemID, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, holding)
}
