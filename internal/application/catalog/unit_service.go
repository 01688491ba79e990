package catalog

import (
	"context"
	"strings"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// UnitService maintains a product's units and converts quantities to and from base units.
// Every write locks the product's unit rows so the single-default rule holds under concurrency.
type UnitService struct {
	scope      TransactionScope
	units      catalog.UnitRepository
	conversion *catalog.ConversionService
}

// NewUnitService creates a new UnitService
func NewUnitService(scope TransactionScope, units catalog.UnitRepository) *UnitService {
	return &UnitService{
		scope:      scope,
		units:      units,
		conversion: catalog.NewConversionService(),
	}
}

// Create adds a unit. The first unit of a product becomes its default.
func (s *UnitService) Create(ctx context.Context, productID uuid.UUID, req CreateUnitRequest) (*UnitResponse, error) {
	unit, err := catalog.NewUnit(productID, req.Symbol, req.Name, req.ConversionToBase)
	if err != nil {
		return nil, err
	}
	unit.SortOrder = req.SortOrder

	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		if _, err := repos.Products().FindByID(ctx, productID); err != nil {
			return err
		}
		siblings, err := repos.Units().FindByProductForUpdate(ctx, productID)
		if err != nil {
			return err
		}
		for _, u := range siblings {
			if strings.EqualFold(u.Symbol, unit.Symbol) {
				return shared.ErrAlreadyExists.WithDetail("symbol", unit.Symbol)
			}
		}
		change, err := catalog.ApplyDefault(siblings, unit, req.IsDefault)
		if err != nil {
			return err
		}
		return s.persist(ctx, repos.Units(), unit, change)
	})
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// Update changes a unit's name, factor, default flag and order.
// The factor of a unit referenced by request lines is frozen.
func (s *UnitService) Update(ctx context.Context, unitID uuid.UUID, req UpdateUnitRequest) (*UnitResponse, error) {
	var updated *catalog.Unit
	err := s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByID(ctx, unitID)
		if err != nil {
			return err
		}
		siblings, err := repos.Units().FindByProductForUpdate(ctx, unit.ProductID)
		if err != nil {
			return err
		}

		if !req.ConversionToBase.Round(catalog.FactorScale).Equal(unit.ConversionToBase) {
			inUse, err := repos.Units().IsReferenced(ctx, unit.ID)
			if err != nil {
				return err
			}
			if inUse {
				return shared.ErrUnitInUse.WithDetail("unit_id", unit.ID.String())
			}
		}
		if err := unit.Update(req.Name, req.ConversionToBase); err != nil {
			return err
		}
		if req.SortOrder != nil {
			unit.SortOrder = *req.SortOrder
		}

		wantDefault := unit.IsDefault
		if req.IsDefault != nil {
			wantDefault = *req.IsDefault
		}
		change, err := catalog.ApplyDefault(siblings, unit, wantDefault)
		if err != nil {
			return err
		}
		updated = unit
		return s.persist(ctx, repos.Units(), unit, change)
	})
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(updated)
	return &resp, nil
}

// Delete removes a unit that is neither referenced nor the default of a product with other units
func (s *UnitService) Delete(ctx context.Context, unitID uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		unit, err := repos.Units().FindByID(ctx, unitID)
		if err != nil {
			return err
		}
		siblings, err := repos.Units().FindByProductForUpdate(ctx, unit.ProductID)
		if err != nil {
			return err
		}
		if err := catalog.CanDelete(siblings, unit); err != nil {
			return err
		}
		inUse, err := repos.Units().IsReferenced(ctx, unit.ID)
		if err != nil {
			return err
		}
		if inUse {
			return shared.ErrUnitInUse.WithDetail("unit_id", unit.ID.String())
		}
		return repos.Units().Delete(ctx, unit.ID)
	})
}

func (s *UnitService) persist(ctx context.Context, repo catalog.UnitRepository, unit *catalog.Unit, change *catalog.DefaultUnitChange) error {
	// clear first: the partial unique index allows one default per product at any instant
	if len(change.Cleared) > 0 {
		if err := repo.ClearDefault(ctx, unit.ProductID, change.Cleared); err != nil {
			return err
		}
	}
	return repo.Save(ctx, unit)
}

// ListByProduct returns a product's units ordered by sort order
func (s *UnitService) ListByProduct(ctx context.Context, productID uuid.UUID) ([]UnitResponse, error) {
	units, err := s.units.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	if len(units) > 0 {
		if _, err := catalog.DefaultOf(productID, units); err != nil {
			return nil, err
		}
	}
	out := make([]UnitResponse, len(units))
	for i := range units {
		out[i] = ToUnitResponse(&units[i])
	}
	return out, nil
}

// DefaultUnit returns the product's default unit
func (s *UnitService) DefaultUnit(ctx context.Context, productID uuid.UUID) (*UnitResponse, error) {
	units, err := s.units.FindByProduct(ctx, productID)
	if err != nil {
		return nil, err
	}
	unit, err := catalog.DefaultOf(productID, units)
	if err != nil {
		return nil, err
	}
	resp := ToUnitResponse(unit)
	return &resp, nil
}

// ResolveToBase converts qty of unitID into the product's base unit
func (s *UnitService) ResolveToBase(ctx context.Context, productID, unitID uuid.UUID, qty decimal.Decimal) (decimal.Decimal, error) {
	unit, err := s.lookup(ctx, productID, unitID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.conversion.ToBase(productID, unit, qty)
}

// ResolveFromBase converts a base quantity into unitID
func (s *UnitService) ResolveFromBase(ctx context.Context, productID, unitID uuid.UUID, baseQty decimal.Decimal) (decimal.Decimal, error) {
	unit, err := s.lookup(ctx, productID, unitID)
	if err != nil {
		return decimal.Zero, err
	}
	return s.conversion.FromBase(productID, unit, baseQty)
}

// Convert answers the conversion endpoint: quantity in the unit or in base units, whichever is given
func (s *UnitService) Convert(ctx context.Context, productID, unitID uuid.UUID, qty *decimal.Decimal, baseQty *decimal.Decimal) (*ConversionResponse, error) {
	unit, err := s.lookup(ctx, productID, unitID)
	if err != nil {
		return nil, err
	}
	resp := &ConversionResponse{ProductID: productID, UnitID: unitID, Tolerance: unit.RoundTripTolerance()}
	switch {
	case qty != nil:
		base, err := s.conversion.ToBase(productID, unit, *qty)
		if err != nil {
			return nil, err
		}
		resp.Quantity, resp.BaseQuantity = qty.Round(catalog.QuantityScale), base
	case baseQty != nil:
		q, err := s.conversion.FromBase(productID, unit, *baseQty)
		if err != nil {
			return nil, err
		}
		resp.Quantity, resp.BaseQuantity = q, baseQty.Round(catalog.QuantityScale)
	default:
		return nil, shared.NewDomainError(shared.CodeInvalidInput, "Either quantity or base_quantity is required")
	}
	return resp, nil
}

// lookup maps a missing unit or a unit of another product to UNKNOWN_UNIT
func (s *UnitService) lookup(ctx context.Context, productID, unitID uuid.UUID) (*catalog.Unit, error) {
	unit, err := s.units.FindByID(ctx, unitID)
	if err != nil {
		if shared.IsDomainError(err, shared.CodeNotFound) {
			return nil, shared.ErrUnknownUnit.
				WithDetail("product_id", productID.String()).
				WithDetail("unit_id", unitID.String())
		}
		return nil, err
	}
	if unit.ProductID != productID {
		return nil, shared.ErrUnknownUnit.
			WithDetail("product_id", productID.String()).
			WithDetail("unit_id", unitID.String())
	}
	return unit, nil
}
