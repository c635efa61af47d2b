package repo

import (
	"context"
	"time"

	"github.com/Skotchmaster/storefront/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

func (r *GormRepo) GetCart(ctx context.Context, userID uint) ([]models.CartItem, error) {
	var items []models.CartItem
	if err := r.DB.WithContext(ctx).
		Preload("Product").
		Where("user_id = ?", userID).
		Order("added_at ASC, id ASC").
		Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

var userProductColumns = []clause.Column{{Name: "user_id"}, {Name: "product_id"}}

// AddToCart merges into the existing (user, product) line when there is one.
// The merge is a single upsert so concurrent adds of the same product sum up
// instead of racing on the unique index.
// Returns gorm.ErrRecordNotFound if the product does not exist.
func (r *GormRepo) AddToCart(ctx context.Context, item *models.CartItem) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var product models.Product
		if err := tx.First(&product, item.ProductID).Error; err != nil {
			return err
		}

		if item.AddedAt.IsZero() {
			item.AddedAt = time.Now().UTC()
		}
		if err := tx.Omit(clause.Associations).Clauses(clause.OnConflict{
			Columns: userProductColumns,
			DoUpdates: clause.Assignments(map[string]any{
				"quantity": gorm.Expr("cart_items.quantity + excluded.quantity"),
			}),
		}).Create(item).Error; err != nil {
			return err
		}

		var line models.CartItem
		if err := tx.Where("user_id = ? AND product_id = ?", item.UserID, item.ProductID).First(&line).Error; err != nil {
			return err
		}
		line.Product = &product
		*item = line
		return nil
	})
}

// UpdateCartQuantity sets the quantity of one of the user's lines; a quantity
// of zero or less removes the line.
func (r *GormRepo) UpdateCartQuantity(ctx context.Context, userID, itemID uint, quantity int) (bool, *models.CartItem, error) {
	var item models.CartItem
	deleted := false

	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ? AND user_id = ?", itemID, userID).
			First(&item).Error; err != nil {
			return err
		}
		if quantity <= 0 {
			deleted = true
			return tx.Delete(&item).Error
		}
		if err := tx.Model(&item).Update("quantity", uint(quantity)).Error; err != nil {
			return err
		}
		return tx.Preload("Product").First(&item, item.ID).Error
	}); err != nil {
		return false, nil, err
	}
	return deleted, &item, nil
}

func (r *GormRepo) RemoveFromCart(ctx context.Context, userID, productID uint) error {
	res := r.DB.WithContext(ctx).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Delete(&models.CartItem{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *GormRepo) ClearCart(ctx context.Context, userID uint) error {
	return r.DB.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.CartItem{}).Error
}

func (r *GormRepo) CountCart(ctx context.Context, userID uint) (int64, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.CartItem{}).Where("user_id = ?", userID).Count(&n).Error
	return n, err
}

func (r *GormRepo) CartContains(ctx context.Context, userID, productID uint) (bool, error) {
	var n int64
	err := r.DB.WithContext(ctx).Model(&models.CartItem{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&n).Error
	return n > 0, err
}
