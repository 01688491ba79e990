package handler

import (
	appinv "github.com/clinicstock/backend/internal/application/inventory"
	"github.com/clinicstock/backend/internal/domain/inventory"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// StockHandler answers ledger queries
type StockHandler struct {
	BaseHandler
	stock *appinv.StockService
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(stock *appinv.StockService) *StockHandler {
	return &StockHandler{stock: stock}
}

// QuantityQuery names a single ledger line
type QuantityQuery struct {
	Pool      string `form:"pool" binding:"required,oneof=MAIN LOCATION PERSONAL"`
	OwnerID   string `form:"owner_id" binding:"omitempty,uuid"`
	ProductID string `form:"product_id" binding:"required,uuid"`
	BatchID   string `form:"batch_id" binding:"required,uuid"`
	Status    string `form:"status" binding:"omitempty,oneof=ACTIVE DAMAGED RESERVED RETURNED LOST"`
}

// LinesQuery filters ledger lines
type LinesQuery struct {
	Pool     string `form:"pool" binding:"omitempty,oneof=MAIN LOCATION PERSONAL"`
	Status   string `form:"status" binding:"omitempty,oneof=ACTIVE DAMAGED RESERVED RETURNED LOST"`
	NonZero  bool   `form:"non_zero"`
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=500"`
	OrderBy  string `form:"order_by"`
	OrderDir string `form:"order_dir" binding:"omitempty,oneof=asc desc"`
}

// Quantity handles GET /stock
func (h *StockHandler) Quantity(c *gin.Context) {
	var q QuantityQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleValidation(c, err)
		return
	}
	key := inventory.StockKey{
		Pool:      inventory.PoolKind(q.Pool),
		ProductID: uuid.MustParse(q.ProductID),
		BatchID:   uuid.MustParse(q.BatchID),
		Status:    inventory.StockStatus(q.Status),
	}
	if q.OwnerID != "" {
		key.OwnerID = uuid.MustParse(q.OwnerID)
	}
	resp, err := h.stock.Quantity(c.Request.Context(), key)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

// ListLines handles GET /stock/lines
func (h *StockHandler) ListLines(c *gin.Context) {
	var q LinesQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.HandleValidation(c, err)
		return
	}
	filter := inventory.LineFilter{
		Pool:     inventory.PoolKind(q.Pool),
		Status:   inventory.StockStatus(q.Status),
		NonZero:  q.NonZero,
		Page:     q.Page,
		PageSize: q.PageSize,
		OrderBy:  q.OrderBy,
		OrderDir: q.OrderDir,
	}
	var ok bool
	if filter.OwnerID, ok = h.uuidQuery(c, "owner_id"); !ok {
		return
	}
	if filter.ProductID, ok = h.uuidQuery(c, "product_id"); !ok {
		return
	}
	if filter.BatchID, ok = h.uuidQuery(c, "batch_id"); !ok {
		return
	}
	lines, err := h.stock.ListLines(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, lines)
}

// Movements handles GET /stock/movements?reference_id=
func (h *StockHandler) Movements(c *gin.Context) {
	ref, ok := h.uuidQuery(c, "reference_id")
	if !ok {
		return
	}
	if ref == nil {
		h.BadRequest(c, "reference_id is required")
		return
	}
	movements, err := h.stock.Movements(c.Request.Context(), *ref)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movements)
}
