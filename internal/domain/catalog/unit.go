package catalog

import (
	"strings"
	"time"

	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Precision of stored quantities and factors
const (
	// QuantityScale is the number of fractional digits kept for base quantities
	QuantityScale int32 = 4
	// FactorScale is the number of fractional digits kept for conversion factors
	FactorScale int32 = 6
)

// Unit is an alternate unit of measure for a product.
// 1 of this unit equals ConversionToBase base units; the base unit has factor 1.
type Unit struct {
	ID               uuid.UUID
	ProductID        uuid.UUID
	Symbol           string
	Name             string
	ConversionToBase decimal.Decimal
	IsDefault        bool
	SortOrder        int
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewUnit creates a unit for the given product
func NewUnit(productID uuid.UUID, symbol, name string, factor decimal.Decimal) (*Unit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Product ID cannot be empty")
	}
	if err := validateUnitSymbol(symbol); err != nil {
		return nil, err
	}
	if err := validateUnitName(name); err != nil {
		return nil, err
	}
	if err := ValidateConversionFactor(factor); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	return &Unit{
		ID:               uuid.New(),
		ProductID:        productID,
		Symbol:           strings.TrimSpace(symbol),
		Name:             strings.TrimSpace(name),
		ConversionToBase: factor.Round(FactorScale),
		CreatedAt:        now,
		UpdatedAt:        now,
	}, nil
}

// Update changes the name and conversion factor
func (u *Unit) Update(name string, factor decimal.Decimal) error {
	if err := validateUnitName(name); err != nil {
		return err
	}
	if err := ValidateConversionFactor(factor); err != nil {
		return err
	}
	u.Name = strings.TrimSpace(name)
	u.ConversionToBase = factor.Round(FactorScale)
	u.UpdatedAt = time.Now().UTC()
	return nil
}

// SetDefault flips the default flag
func (u *Unit) SetDefault(isDefault bool) {
	u.IsDefault = isDefault
	u.UpdatedAt = time.Now().UTC()
}

// IsBaseUnit reports whether the unit is the canonical base unit
func (u *Unit) IsBaseUnit() bool {
	return u.ConversionToBase.Equal(decimal.NewFromInt(1))
}

// RoundTripTolerance bounds |fromBase(toBase(q)) - q| for q at QuantityScale.
// It is one quantum of QuantityScale, widened by 1/factor for units smaller than the base unit.
// Integral factors round-trip exactly.
func (u *Unit) RoundTripTolerance() decimal.Decimal {
	quantum := decimal.New(1, -QuantityScale)
	one := decimal.NewFromInt(1)
	if u.ConversionToBase.GreaterThanOrEqual(one) {
		return quantum
	}
	return quantum.Div(u.ConversionToBase)
}

// ValidateConversionFactor rejects non-positive factors
func ValidateConversionFactor(factor decimal.Decimal) error {
	if !factor.IsPositive() {
		return shared.ErrInvalidConversion.WithDetail("conversion_to_base", factor.String())
	}
	if factor.Round(FactorScale).IsZero() {
		return shared.ErrInvalidConversion.WithDetail("conversion_to_base", factor.String())
	}
	return nil
}

func validateUnitSymbol(symbol string) error {
	symbol = strings.TrimSpace(symbol)
	if symbol == "" {
		return shared.NewDomainError("INVALID_UNIT_SYMBOL", "Unit symbol cannot be empty")
	}
	if len(symbol) > 20 {
		return shared.NewDomainError("INVALID_UNIT_SYMBOL", "Unit symbol cannot exceed 20 characters")
	}
	return nil
}

func validateUnitName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_UNIT_NAME", "Unit name cannot be empty")
	}
	if len(name) > 50 {
		return shared.NewDomainError("INVALID_UNIT_NAME", "Unit name cannot exceed 50 characters")
	}
	return nil
}
