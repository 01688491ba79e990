package catalog

import (
	"context"

	"github.com/clinicstock/backend/internal/domain/catalog"
	"github.com/clinicstock/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// ProductService handles product registration and lookup
type ProductService struct {
	scope     TransactionScope
	products  catalog.ProductRepository
	units     catalog.UnitRepository
	publisher shared.EventPublisher
	logger    *zap.Logger
}

// NewProductService creates a new ProductService
func NewProductService(
	scope TransactionScope,
	products catalog.ProductRepository,
	units catalog.UnitRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ProductService {
	return &ProductService{
		scope:     scope,
		products:  products,
		units:     units,
		publisher: publisher,
		logger:    logger,
	}
}

// Create registers a product and, when given, its base unit
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Code, req.Name, req.Category)
	if err != nil {
		return nil, err
	}
	product.Description = req.Description

	var units []catalog.Unit
	err = s.scope.Execute(ctx, func(repos TransactionalRepositories) error {
		exists, err := repos.Products().ExistsByCode(ctx, product.Code)
		if err != nil {
			return err
		}
		if exists {
			return shared.ErrAlreadyExists.WithDetail("code", product.Code)
		}
		if err := repos.Products().Save(ctx, product); err != nil {
			return err
		}
		if req.BaseUnit == nil {
			return nil
		}
		base, err := catalog.NewUnit(product.ID, req.BaseUnit.Symbol, req.BaseUnit.Name, decimal.NewFromInt(1))
		if err != nil {
			return err
		}
		base.SetDefault(true)
		base.SortOrder = req.BaseUnit.SortOrder
		if err := repos.Units().Save(ctx, base); err != nil {
			return err
		}
		units = append(units, *base)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, product.GetDomainEvents()...)
	product.ClearDomainEvents()
	resp := ToProductResponse(product, units)
	return &resp, nil
}

// Get returns a product with its units
func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	units, err := s.units.FindByProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(units) > 0 {
		if _, err := catalog.DefaultOf(id, units); err != nil {
			return nil, err
		}
	}
	resp := ToProductResponse(product, units)
	return &resp, nil
}

// List returns products matching the filter
func (s *ProductService) List(ctx context.Context, filter shared.Filter) (shared.Paginated[ProductResponse], error) {
	products, total, err := s.products.FindAll(ctx, filter)
	if err != nil {
		return shared.Paginated[ProductResponse]{}, err
	}
	items := make([]ProductResponse, len(products))
	for i := range products {
		items[i] = ToProductResponse(&products[i], nil)
	}
	return shared.NewPaginated(items, total, filter.Page, filter.PageSize), nil
}

// Update changes a product's descriptive fields
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.products.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Update(req.Name, req.Category, req.Description); err != nil {
		return nil, err
	}
	if err := s.products.Save(ctx, product); err != nil {
		return nil, err
	}
	resp := ToProductResponse(product, nil)
	return &resp, nil
}

func (s *ProductService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if s.publisher == nil || len(events) == 0 {
		return
	}
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("Failed to publish catalog events", zap.Error(err))
	}
}
