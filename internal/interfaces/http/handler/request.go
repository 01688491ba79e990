package handler

import (
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/gin-gonic/gin"
)

// RequestHandler handles inventory, withdrawal and purchase requests
type RequestHandler struct {
	BaseHandler
	requests *appinv.RequestService
}

// NewRequestHandler creates a new RequestHandler
func NewRequestHandler(requests *appinv.RequestService) *RequestHandler {
	return &RequestHandler{requests: requests}
}

// RequestListQuery filters the request listing
type RequestListQuery struct {
	Kind        string `form:"kind" binding:"omitempty,oneof=INVENTORY WITHDRAWAL PURCHASE"`
	Status      string `form:"status" binding:"omitempty,oneof=PENDING APPROVED REJECTED ISSUED"`
	RequesterID string `form:"requester_id" binding:"omitempty,uuid"`
}

// CreateInventory handles POST /requests/inventory
func (h *RequestHandler) CreateInventory(c *gin.Context) {
	var req appinv.CreateInventoryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	r, err := h.requests.CreateInventory(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// CreateWithdrawal handles POST /requests/withdrawal
func (h *RequestHandler) CreateWithdrawal(c *gin.Context) {
	var req appinv.CreateWithdrawalRequest
	if !h.bindJSON(c, &req) {
		return
	}
	r, err := h.requests.CreateWithdrawal(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// CreatePurchase handles POST /requests/purchase
func (h *RequestHandler) CreatePurchase(c *gin.Context) {
	var req appinv.CreatePurchaseRequest
	if !h.bindJSON(c, &req) {
		return
	}
	r, err := h.requests.CreatePurchase(c.Request.Context(), actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, r)
}

// Get handles GET /requests/:id
func (h *RequestHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	r, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// List handles GET /requests?kind=&status=&requester_id=.
// kind with status=PENDING and no paging answers the oldest-first pending queue.
func (h *RequestHandler) List(c *gin.Context) {
	var q RequestListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleValidation(c, err)
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	kind := inventory.RequestKind(q.Kind)
	status := inventory.ApprovalStatus(q.Status)

	if kind != "" && status == inventory.ApprovalPending && q.RequesterID == "" && c.Query("page") == "" {
		pending, err := h.requests.ListPending(c.Request.Context(), kind)
		if err != nil {
			h.HandleError(c, err)
			return
		}
		h.Success(c, pending)
		return
	}

	rf := inventory.RequestFilter{Filter: filter, Kind: kind, Status: status}
	if rf.RequesterID, ok = h.uuidQuery(c, "requester_id"); !ok {
		return
	}
	page, err := h.requests.List(c.Request.Context(), rf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Approve handles POST /requests/:id/approve
func (h *RequestHandler) Approve(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinv.TransitionRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	r, err := h.requests.Approve(c.Request.Context(), id, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Reject handles POST /requests/:id/reject
func (h *RequestHandler) Reject(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinv.RejectRequest
	if !h.bindJSON(c, &req) {
		return
	}
	r, err := h.requests.Reject(c.Request.Context(), id, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}

// Issue handles POST /requests/:id/issue
func (h *RequestHandler) Issue(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appinv.TransitionRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	r, err := h.requests.Issue(c.Request.Context(), id, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, r)
}
