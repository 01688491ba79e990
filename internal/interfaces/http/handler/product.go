package handler

import (
	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
)

// ProductHandler handles product and unit endpoints
type ProductHandler struct {
	BaseHandler
	products *appcatalog.ProductService
	units    *appcatalog.UnitService
}

// NewProductHandler creates a new ProductHandler
func NewProductHandler(products *appcatalog.ProductService, units *appcatalog.UnitService) *ProductHandler {
	return &ProductHandler{
		products: products,
		units:    units,
	}
}

// Create handles POST /products
func (h *ProductHandler) Create(c *gin.Context) {
	var req appcatalog.CreateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.products.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, product)
}

// Get handles GET /products/:id
func (h *ProductHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	product, err := h.products.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// List handles GET /products
func (h *ProductHandler) List(c *gin.Context) {
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	page, err := h.products.List(c.Request.Context(), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, page.Items, page.Total, page.Page, page.PageSize)
}

// Update handles PUT /products/:id
func (h *ProductHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateProductRequest
	if !h.bindJSON(c, &req) {
		return
	}
	product, err := h.products.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, product)
}

// ListUnits handles GET /products/:id/units
func (h *ProductHandler) ListUnits(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	units, err := h.units.ListByProduct(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, units)
}

// CreateUnit handles POST /products/:id/units
func (h *ProductHandler) CreateUnit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.CreateUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	unit, err := h.units.Create(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, unit)
}

// UpdateUnit handles PUT /units/:id
func (h *ProductHandler) UpdateUnit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	unit, err := h.units.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// DeleteUnit handles DELETE /units/:id
func (h *ProductHandler) DeleteUnit(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.units.Delete(c.Request.Context(), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Convert handles GET /products/:id/units/:unitId/convert?quantity= or ?base_quantity=
func (h *ProductHandler) Convert(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	unitID, ok := h.uuidParam(c, "unitId")
	if !ok {
		return
	}
	qty, ok := h.decimalQuery(c, "quantity")
	if !ok {
		return
	}
	baseQty, ok := h.decimalQuery(c, "base_quantity")
	if !ok {
		return
	}
	resp, err := h.units.Convert(c.Request.Context(), productID, unitID, qty, baseQty)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, resp)
}

func (h *ProductHandler) decimalQuery(c *gin.Context, name string) (*decimal.Decimal, bool) {
	raw := c.Query(name)
	if raw == "" {
		return nil, true
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		h.BadRequest(c, name+" must be a decimal number")
		return nil, false
	}
	return &d, true
}
