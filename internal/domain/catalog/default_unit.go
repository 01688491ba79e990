package catalog

import (
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// DefaultUnitChange describes what has to be persisted to keep one default unit per product
type DefaultUnitChange struct {
	// Cleared lists units that lose the default flag
	Cleared []uuid.UUID
}

// ApplyDefault decides the default flag of candidate against the product's other units.
// siblings must hold every unit of the product except candidate.
//   - wantDefault=true: candidate becomes default and any previous default is cleared.
//   - wantDefault=false on the current default: rejected, the product would lose its default.
//   - no default among siblings: candidate is promoted regardless of wantDefault.
func ApplyDefault(siblings []Unit, candidate *Unit, wantDefault bool) (*DefaultUnitChange, error) {
	var defaults []uuid.UUID
	for _, u := range siblings {
		if u.ID == candidate.ID {
			continue
		}
		if u.IsDefault {
			defaults = append(defaults, u.ID)
		}
	}
	if len(defaults) > 1 {
		return nil, shared.ErrDataIntegrity.
			WithDetail("product_id", candidate.ProductID.String()).
			WithDetail("default_units", len(defaults))
	}

	change := &DefaultUnitChange{}
	switch {
	case wantDefault:
		candidate.SetDefault(true)
		change.Cleared = defaults
	case candidate.IsDefault:
		return nil, shared.ErrDefaultUnitRequired.WithDetail("unit_id", candidate.ID.String())
	case len(defaults) == 0:
		candidate.SetDefault(true)
	}
	return change, nil
}

// CanDelete reports whether unit may be removed without breaking the single-default rule.
// The default unit can only go when it is the last unit of the product.
func CanDelete(siblings []Unit, unit *Unit) error {
	if !unit.IsDefault {
		return nil
	}
	for _, u := range siblings {
		if u.ID != unit.ID {
			return shared.ErrDefaultUnitRequired.WithDetail("unit_id", unit.ID.String())
		}
	}
	return nil
}

// DefaultOf returns the default unit among units, failing if the invariant is broken
func DefaultOf(productID uuid.UUID, units []Unit) (*Unit, error) {
	var found *Unit
	for i := range units {
		if !units[i].IsDefault {
			continue
		}
		if found != nil {
			return nil, shared.ErrDataIntegrity.
				WithDetail("product_id", productID.String()).
				WithDetail("reason", "multiple default units")
		}
		found = &units[i]
	}
	if found == nil {
		return nil, shared.ErrDefaultUnitRequired.WithDetail("product_id", productID.String())
	}
	return found, nil
}
