package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// ProductIndex is the external full-text index. It is optional; the catalog
// keeps working on SQL alone when it is nil or failing.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uint) error
	Search(ctx context.Context, query string, from, size int) (int64, []models.Product, error)
}

type CatalogService struct {
	Repo   *repo.GormRepo
	Index  ProductIndex
	Events events.Publisher
}

func (s *CatalogService) GetProduct(ctx context.Context, id uint) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, notFound(err, "product")
	}
	return p, nil
}

func (s *CatalogService) GetProducts(ctx context.Context, offset, limit int) (int64, []models.Product, error) {
	return s.Repo.GetProducts(ctx, offset, limit)
}

func (s *CatalogService) CreateProduct(ctx context.Context, p *models.Product) (*models.Product, error) {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return nil, fmt.Errorf("name required: %w", ErrValidation)
	}
	if err := validatePriceStock(&p.Price, &p.Stock); err != nil {
		return nil, err
	}

	p, err := s.Repo.CreateProduct(ctx, p)
	if err != nil {
		return nil, err
	}
	s.index(ctx, p)
	return p, nil
}

func (s *CatalogService) PatchProduct(ctx context.Context, id uint, req repo.ProductPatch) (*models.Product, error) {
	if req.Name != nil && strings.TrimSpace(*req.Name) == "" {
		return nil, fmt.Errorf("name cannot be empty: %w", ErrValidation)
	}
	if err := validatePriceStock(req.Price, req.Stock); err != nil {
		return nil, err
	}

	p, err := s.Repo.PatchProduct(ctx, id, req)
	if err != nil {
		return nil, notFound(err, "product")
	}
	s.index(ctx, p)
	return p, nil
}

// DeleteProduct removes the product together with every order item, cart
// line and wishlist entry that references it.
func (s *CatalogService) DeleteProduct(ctx context.Context, id uint) error {
	l := logging.FromContext(ctx).With("svc", "catalog.delete")

	if err := s.Repo.DeleteProductCascade(ctx, id); err != nil {
		return notFound(err, "product")
	}

	if s.Index != nil {
		if err := s.Index.DeleteProduct(ctx, id); err != nil {
			l.Error("search_delete_error", "product_id", id, "error", err)
		}
	}
	events.Emit(ctx, s.Events, events.TopicProducts, strconv.FormatUint(uint64(id), 10), map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	return nil
}

// SearchProducts asks the index first and falls back to SQL matching.
func (s *CatalogService) SearchProducts(ctx context.Context, q string, offset, limit int) (int64, []models.Product, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return 0, nil, fmt.Errorf("query required: %w", ErrValidation)
	}

	if s.Index != nil {
		total, items, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			return total, items, nil
		}
		logging.FromContext(ctx).Warn("search_index_error", "fallback", "sql", "error", err)
	}
	return s.Repo.SearchProducts(ctx, q, offset, limit)
}

func (s *CatalogService) index(ctx context.Context, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Error("search_index_error", "product_id", p.ID, "error", err)
	}
}

func validatePriceStock(price *decimal.Decimal, stock *int) error {
	if price != nil && price.IsNegative() {
		return fmt.Errorf("price cannot be negative: %w", ErrValidation)
	}
	if stock != nil && *stock < 0 {
		return fmt.Errorf("stock cannot be negative: %w", ErrValidation)
	}
	return nil
}
