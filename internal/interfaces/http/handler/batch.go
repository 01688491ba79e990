package handler

import (
	"bytes"
	"fmt"
	"net/http"
	"time"

	appcatalog "github.com/clinicstock/backend/internal/application/catalog"
	"github.com/gin-gonic/gin"
)

// BatchHandler handles batch catalogue and expiry endpoints
type BatchHandler struct {
	BaseHandler
	batches *appcatalog.BatchService
}

// NewBatchHandler creates a new BatchHandler
func NewBatchHandler(batches *appcatalog.BatchService) *BatchHandler {
	return &BatchHandler{batches: batches}
}

// Create handles POST /batches
func (h *BatchHandler) Create(c *gin.Context) {
	var req appcatalog.CreateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	batch, err := h.batches.Create(c.Request.Context(), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, batch)
}

// Get handles GET /batches/:id
func (h *BatchHandler) Get(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	batch, err := h.batches.Get(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// ListByProduct handles GET /products/:id/batches
func (h *BatchHandler) ListByProduct(c *gin.Context) {
	productID, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	filter, ok := h.listFilter(c)
	if !ok {
		return
	}
	batches, err := h.batches.ListByProduct(c.Request.Context(), productID, filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batches)
}

// Update handles PUT /batches/:id
func (h *BatchHandler) Update(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.UpdateBatchRequest
	if !h.bindJSON(c, &req) {
		return
	}
	batch, err := h.batches.Update(c.Request.Context(), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// CorrectExpiry handles PATCH /batches/:id/expiry
func (h *BatchHandler) CorrectExpiry(c *gin.Context) {
	id, ok := h.uuidParam(c, "id")
	if !ok {
		return
	}
	var req appcatalog.CorrectExpiryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	batch, err := h.batches.CorrectExpiry(c.Request.Context(), id, actor(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, batch)
}

// ListExpiring handles GET /batches/expiring?days=
func (h *BatchHandler) ListExpiring(c *gin.Context) {
	horizon, ok := h.horizon(c)
	if !ok {
		return
	}
	report, err := h.batches.ListExpiring(c.Request.Context(), horizon)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, report)
}

// ExportExpiring handles GET /batches/expiring/export?days=
func (h *BatchHandler) ExportExpiring(c *gin.Context) {
	horizon, ok := h.horizon(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	contentType, err := h.batches.ExportExpiring(c.Request.Context(), horizon, &buf)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	filename := fmt.Sprintf("expiring-batches-%s.xlsx", time.Now().UTC().Format("20060102"))
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, contentType, buf.Bytes())
}

// ArchiveExpiring handles POST /batches/expiring/archive?days=
func (h *BatchHandler) ArchiveExpiring(c *gin.Context) {
	horizon, ok := h.horizon(c)
	if !ok {
		return
	}
	archived, err := h.batches.ArchiveExpiring(c.Request.Context(), horizon)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, archived)
}

// horizon reads ?days=; zero leaves the configured default in place
func (h *BatchHandler) horizon(c *gin.Context) (time.Duration, bool) {
	days, ok := h.intQuery(c, "days", 0)
	if !ok {
		return 0, false
	}
	return time.Duration(days) * 24 * time.Hour, true
}
