package catalog

import (
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ConversionService converts quantities between a product's units and its base unit.
// Results are rounded to QuantityScale so stored base quantities never carry drift.
type ConversionService struct{}

// NewConversionService creates a new conversion service
func NewConversionService() *ConversionService {
	return &ConversionService{}
}

// ToBase converts qty expressed in unit to base units: qty * factor
func (s *ConversionService) ToBase(productID uuid.UUID, unit *Unit, qty decimal.Decimal) (decimal.Decimal, error) {
	if err := s.check(productID, unit, qty); err != nil {
		return decimal.Zero, err
	}
	return qty.Mul(unit.ConversionToBase).Round(QuantityScale), nil
}

// FromBase converts a base quantity into unit: base / factor
func (s *ConversionService) FromBase(productID uuid.UUID, unit *Unit, base decimal.Decimal) (decimal.Decimal, error) {
	if err := s.check(productID, unit, base); err != nil {
		return decimal.Zero, err
	}
	return base.Div(unit.ConversionToBase).Round(QuantityScale), nil
}

func (s *ConversionService) check(productID uuid.UUID, unit *Unit, qty decimal.Decimal) error {
	if unit == nil || unit.ProductID != productID {
		err := shared.ErrUnknownUnit.WithDetail("product_id", productID.String())
		if unit != nil {
			err = err.WithDetail("unit_id", unit.ID.String())
		}
		return err
	}
	if !unit.ConversionToBase.IsPositive() {
		return shared.ErrInvalidConversion.
			WithDetail("unit_id", unit.ID.String()).
			WithDetail("conversion_to_base", unit.ConversionToBase.String())
	}
	if qty.IsNegative() {
		return shared.NewDomainError(shared.CodeInvalidQuantity, "Quantity cannot be negative")
	}
	return nil
}
