package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) GetWishlist(ctx context.Context, userID uint) ([]models.WishlistItem, error) {
	var items []models.WishlistItem
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("added_at DESC, id DESC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

// AddToWishlist returns the existing entry unchanged if the product is
// already there; created is true only for the call that inserted it.
func (r *GormRepo) AddToWishlist(ctx context.Context, item *models.WishlistItem) (bool, error) {
	created := false
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return err
		}

		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now().UTC()
		}
		res := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns:   userProductColumns,
			DoNothing: true,
		}).Create(item)
		if res.Error != nil {
			return res.Error
		}
		created = res.RowsAffected > 0

		var entry models.WishlistItem
		if err := tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(&entry).Error; err != nil {
			return err
		}
		entry.Product = &product
		*item = entry
		return nil
	})
	return created, err
}

func (r *GormRepo) RemoveFromWishlist(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.WishlistItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearWishlist(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.WishlistItem{}).Error
}

func (r *GormRepo) CountWishlist(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.WishlistItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) WishlistContains(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.WishlistItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}
