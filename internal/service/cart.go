package service

import (
	"context"
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type CartService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
}

type CartSummary struct {
	Items []models.CartItem `json:"items"`
	Count int               `json:"count"`
	Total decimal.Decimal   `json:"total"`
}

// CartTotal sums line subtotals at current product prices.
func CartTotal(items []models.CartItem) decimal.Decimal {
	total := decimal.Zero
	for i := range items {
		total = total.Add(items[i].Subtotal())
	}
	return total
}

func (s *CartService) GetCart(ctx context.Context, userID uint) (*CartSummary, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &CartSummary{Items: items, Count: len(items), Total: CartTotal(items)}, nil
}

func (s *CartService) AddToCart(ctx context.Context, userID, productID, quantity uint) (*models.CartItem, error) {
	if productID == 0 {
		return nil, fmt.Errorf("product_id required: %w", ErrValidation)
	}
	if quantity == 0 {
		return nil, fmt.Errorf("quantity must be more than zero: %w", ErrValidation)
	}

	item := models.CartItem{UserID: userID, ProductID: productID, Quantity: quantity}
	if err := s.Repo.AddToCart(ctx, &item); err != nil {
		return nil, notFound(err, "product")
	}
	return &item, nil
}

// UpdateQuantity sets the quantity of a cart line; zero or less removes it.
func (s *CartService) UpdateQuantity(ctx context.Context, userID, itemID uint, quantity int) (bool, *models.CartItem, error) {
	if itemID == 0 {
		return false, nil, fmt.Errorf("cart item id required: %w", ErrValidation)
	}
	deleted, item, err := s.Repo.UpdateCartQuantity(ctx, userID, itemID, quantity)
	if err != nil {
		return false, nil, notFound(err, "cart item")
	}
	return deleted, item, nil
}

func (s *CartService) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	if productID == 0 {
		return fmt.Errorf("product_id required: %w", ErrValidation)
	}
	return notFound(s.Repo.RemoveFromCart(ctx, userID, productID), "cart item")
}

func (s *CartService) ClearCart(ctx context.Context, userID uint) error {
	if err := s.Repo.ClearCart(ctx, userID); err != nil {
		return err
	}
	events.Emit(ctx, s.Events, events.TopicCart, strconv.FormatUint(uint64(userID), 10), map[string]any{
		"type":   "cart_cleared",
		"userID": userID,
	})
	return nil
}

func (s *CartService) Count(ctx context.Context, userID uint) (int64, error) {
	return s.Repo.CountCart(ctx, userID)
}

func (s *CartService) Total(ctx context.Context, userID uint) (decimal.Decimal, error) {
	items, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return decimal.Zero, err
	}
	return CartTotal(items), nil
}

func (s *CartService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	return s.Repo.CartContains(ctx, userID, productID)
}
