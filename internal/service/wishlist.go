package service

import (
	"context"
	"fmt"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
)

type WishlistService struct {
	Repo *repo.GormRepo
}

func (s *WishlistService) List(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	return s.Repo.GetWishlist(ctx, userID)
}

// Add returns the existing entry if the product is already on the list;
// created reports whether a new one was written.
func (s *WishlistService) Add(ctx context.Context, userID, productID uint) (*models.WishlistItem, bool, error) {
	if productID == 0 {
		return nil, false, fmt.Errorf("product_id required: %w", ErrValidation)
	}
	item := models.WishlistItem{UserID: userID, ProductID: productID}
	created, err := s.Repo.AddToWishlist(ctx, &item)
	if err != nil {
		return nil, false, notFound(err, "product")
	}
	return &item, created, nil
}

func (s *WishlistService) Remove(ctx context.Context, userID, productID uint) error {
	if productID == 0 {
		return fmt.Errorf("product_id required: %w", ErrValidation)
	}
	return notFound(s.Repo.RemoveFromWishlist(ctx, userID, productID), "wishlist item")
}

func (s *WishlistService) Clear(ctx context.Context, userID uint) error {
	return s.Repo.ClearWishlist(ctx, userID)
}

func (s *WishlistService) Count(ctx context.Context, userID uint) (int64, error) {
	return s.Repo.CountWishlist(ctx, userID)
}

func (s *WishlistService) Contains(ctx context.Context, userID, productID uint) (bool, error) {
	return s.Repo.WishlistContains(ctx, userID, productID)
}
