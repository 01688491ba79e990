package catalog

import (
	"time"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CreateProductRequest represents a request to register a product
type CreateProductRequest struct {
	Code        string `json:"code" binding:"required,min=1,max=50"`
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Category    string `json:"category" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`

	// BaseUnit creates the product's first unit with factor 1
	BaseUnit *CreateUnitRequest `json:"base_unit"`
}

// UpdateProductRequest represents a request to update descriptive product fields
type UpdateProductRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=200"`
	Category    string `json:"category" binding:"max=100"`
	Description string `json:"description" binding:"max=2000"`
}

// ProductResponse represents a product in API responses
type ProductResponse struct {
	ID          uuid.UUID      `json:"id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Category    string         `json:"category"`
	Description string         `json:"description"`
	Units       []UnitResponse `json:"units,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	Version     int            `json:"version"`
}

// ToProductResponse converts a domain Product to ProductResponse
func ToProductResponse(p *catalog.Product, units []catalog.Unit) ProductResponse {
	resp := ProductResponse{
		ID:          p.ID,
		Code:        p.Code,
		Name:        p.Name,
		Category:    p.Category,
		Description: p.Description,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
		Version:     p.Version,
	}
	if len(units) > 0 {
		resp.Units = make([]UnitResponse, len(units))
		for i := range units {
			resp.Units[i] = ToUnitResponse(&units[i])
		}
	}
	return resp
}

// CreateUnitRequest represents a request to add a unit to a product
type CreateUnitRequest struct {
	Symbol           string          `json:"symbol" binding:"required,min=1,max=20"`
	Name             string          `json:"name" binding:"required,min=1,max=50"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base" binding:"decimal_gt0"`
	IsDefault        bool            `json:"is_default"`
	SortOrder        int             `json:"sort_order"`
}

// UpdateUnitRequest represents a request to change a unit.
// A nil IsDefault keeps the current flag.
type UpdateUnitRequest struct {
	Name             string          `json:"name" binding:"required,min=1,max=50"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base" binding:"decimal_gt0"`
	IsDefault        *bool           `json:"is_default"`
	SortOrder        *int            `json:"sort_order"`
}

// UnitResponse represents a unit in API responses
type UnitResponse struct {
	ID               uuid.UUID       `json:"id"`
	ProductID        uuid.UUID       `json:"product_id"`
	Symbol           string          `json:"symbol"`
	Name             string          `json:"name"`
	ConversionToBase decimal.Decimal `json:"conversion_to_base"`
	IsDefault        bool            `json:"is_default"`
	SortOrder        int             `json:"sort_order"`
}

// ToUnitResponse converts a domain Unit to UnitResponse
func ToUnitResponse(u *catalog.Unit) UnitResponse {
	return UnitResponse{
		ID:               u.ID,
		ProductID:        u.ProductID,
		Symbol:           u.Symbol,
		Name:             u.Name,
		ConversionToBase: u.ConversionToBase,
		IsDefault:        u.IsDefault,
		SortOrder:        u.SortOrder,
	}
}

// ConversionResponse reports a quantity in a unit and in base units
type ConversionResponse struct {
	ProductID    uuid.UUID       `json:"product_id"`
	UnitID       uuid.UUID       `json:"unit_id"`
	Quantity     decimal.Decimal `json:"quantity"`
	BaseQuantity decimal.Decimal `json:"base_quantity"`
	Tolerance    decimal.Decimal `json:"round_trip_tolerance"`
}

// CreateBatchRequest represents a request to catalogue a batch
type CreateBatchRequest struct {
	ProductID      uuid.UUID       `json:"product_id" binding:"required"`
	BatchNumber    string          `json:"batch_number" binding:"required,min=1,max=64"`
	ProductionDate *time.Time      `json:"production_date"`
	ExpiryDate     *time.Time      `json:"expiry_date"`
	UnitCost       decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	Source         string          `json:"source" binding:"max=200"`
}

// UpdateBatchRequest represents a request to change a batch's identity details
type UpdateBatchRequest struct {
	BatchNumber string          `json:"batch_number" binding:"required,min=1,max=64"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
	Source      string          `json:"source" binding:"max=200"`
}

// CorrectExpiryRequest represents a request to fix a batch's dates
type CorrectExpiryRequest struct {
	ProductionDate *time.Time `json:"production_date"`
	ExpiryDate     *time.Time `json:"expiry_date"`
}

// BatchResponse represents a batch in API responses
type BatchResponse struct {
	ID              uuid.UUID       `json:"id"`
	ProductID       uuid.UUID       `json:"product_id"`
	BatchNumber     string          `json:"batch_number"`
	ProductionDate  *time.Time      `json:"production_date,omitempty"`
	ExpiryDate      *time.Time      `json:"expiry_date,omitempty"`
	UnitCost        decimal.Decimal `json:"unit_cost"`
	Source          string          `json:"source,omitempty"`
	Posted          bool            `json:"posted"`
	PostedAt        *time.Time      `json:"posted_at,omitempty"`
	Expired         bool            `json:"expired"`
	DaysUntilExpiry int             `json:"days_until_expiry"`
	Version         int             `json:"version"`
}

// ToBatchResponse converts a domain Batch to BatchResponse
func ToBatchResponse(b *catalog.Batch) BatchResponse {
	return BatchResponse{
		ID:              b.ID,
		ProductID:       b.ProductID,
		BatchNumber:     b.BatchNumber,
		ProductionDate:  b.ProductionDate,
		ExpiryDate:      b.ExpiryDate,
		UnitCost:        b.UnitCost,
		Source:          b.Source,
		Posted:          b.Posted,
		PostedAt:        b.PostedAt,
		Expired:         b.IsExpired(),
		DaysUntilExpiry: b.DaysUntilExpiry(),
		Version:         b.Version,
	}
}

// ExpiringBatch is one row of the expiring-batch listing
type ExpiringBatch struct {
	BatchResponse
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	OnHand      decimal.Decimal `json:"on_hand"`
	Reserved    decimal.Decimal `json:"reserved"`
}

// ExpiringReport is the expiring-batch listing for a horizon
type ExpiringReport struct {
	GeneratedAt time.Time       `json:"generated_at"`
	Horizon     time.Duration   `json:"-"`
	HorizonDays int             `json:"horizon_days"`
	Batches     []ExpiringBatch `json:"batches"`
	TotalOnHand decimal.Decimal `json:"total_on_hand"`
}

// ArchivedReportResponse points at a report kept in the archive
type ArchivedReportResponse struct {
	Key         string    `json:"key"`
	URL         string    `json:"url"`
	ExpiresAt   time.Time `json:"expires_at"`
	GeneratedAt time.Time `json:"generated_at"`
	BatchCount  int       `json:"batch_count"`
	Size        int       `json:"size"`
}
