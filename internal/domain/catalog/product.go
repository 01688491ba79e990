package catalog

import (
	"strings"

	"github.com/clinicstock/backend/internal/domain/shared"
)

// Product is a consumable tracked by the inventory.
// It owns its unit definitions and is referenced by every batch and stock line.
type Product struct {
	shared.BaseAggregateRoot
	Code        string
	Name        string
	Category    string
	Description string
}

// NewProduct creates a new product
func NewProduct(code, name, category string) (*Product, error) {
	if err := validateProductCode(code); err != nil {
		return nil, err
	}
	if err := validateProductName(name); err != nil {
		return nil, err
	}

	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Code:              strings.ToUpper(strings.TrimSpace(code)),
		Name:              strings.TrimSpace(name),
		Category:          strings.TrimSpace(category),
	}
	p.AddDomainEvent(NewProductCreatedEvent(p))
	return p, nil
}

// Update changes descriptive fields
func (p *Product) Update(name, category, description string) error {
	if err := validateProductName(name); err != nil {
		return err
	}
	p.Name = strings.TrimSpace(name)
	p.Category = strings.TrimSpace(category)
	p.Description = description
	p.IncrementVersion()
	return nil
}

func validateProductCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot be empty")
	}
	if len(code) > 50 {
		return shared.NewDomainError("INVALID_PRODUCT_CODE", "Product code cannot exceed 50 characters")
	}
	return nil
}

func validateProductName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_PRODUCT_NAME", "Product name cannot exceed 200 characters")
	}
	return nil
}
