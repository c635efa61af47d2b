package repo

import (
	"context"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CreateOrder writes the order row and all of its items in one transaction.
func (r *GormRepo) CreateOrder(ctx context.Context, order *models.Order) (*models.Order, error) {
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		items := order.Items
		if err := tx.Omit(clause.Associations).Create(order).Error; err != nil {
			return err
		}
		for i := range items {
			items[i].OrderID = order.ID
		}
		if err := tx.Omit(clause.Associations).Create(&items).Error; err != nil {
			return err
		}
		order.Items = items
		return nil
	}); err != nil {
		return nil, err
	}
	return order, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uint) (*models.Order, error) {
	var order models.Order
	if err := r.DB.WithContext(ctx).Preload("Items.Product").First(&order, id).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

// UpdateOrderStatus overwrites the status of a locked order row. allow, when
// set, sees the current status first and can veto the change.
func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uint, to models.OrderStatus, allow func(from models.OrderStatus) error) (*models.Order, models.OrderStatus, error) {
	var order models.Order
	var from models.OrderStatus
	if err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&order, id).Error; err != nil {
			return err
		}
		from = order.Status
		if allow != nil {
			if err := allow(from); err != nil {
				return err
			}
		}
		if err := tx.Model(&order).Update("status", to).Error; err != nil {
			return err
		}
		return tx.Preload("Items.Product").First(&order, id).Error
	}); err != nil {
		return nil, from, err
	}
	return &order, from, nil
}

func (r *GormRepo) ListOrdersByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items.Product").
		Where("user_id = ?", userID).
		Order("order_date DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *GormRepo) ListOrders(ctx context.Context) ([]models.Order, error) {
	var orders []models.Order
	if err := r.DB.WithContext(ctx).
		Preload("Items.Product").
		Order("order_date DESC, id DESC").
		Find(&orders).Error; err != nil {
		return nil, err
	}
	return orders, nil
}

// OrderTotals returns total_amount of every order in status, optionally
// restricted to one user (userID 0 means all users).
func (r *GormRepo) OrderTotals(ctx context.Context, status models.OrderStatus, userID uint) ([]decimal.Decimal, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{}).Where("status = ?", status)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	var totals []decimal.Decimal
	if err := q.Pluck("total_amount", &totals).Error; err != nil {
		return nil, err
	}
	return totals, nil
}

// CountOrdersByStatus returns the number of the user's orders per status.
func (r *GormRepo) CountOrdersByStatus(ctx context.Context, userID uint) (map[models.OrderStatus]int64, error) {
	var rows []struct {
		Status models.OrderStatus
		N      int64
	}
	if err := r.DB.WithContext(ctx).Model(&models.Order{}).
		Select("status, COUNT(*) AS n").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	out := make(map[models.OrderStatus]int64, len(rows))
	for _, row := range rows {
		out[row.Status] = row.N
	}
	return out, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uint) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var order models.Order
		if err := tx.Select("id").First(&order, id).Error; err != nil {
			return err
		}
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Order{}, id).Error
	})
}
