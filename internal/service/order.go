package service

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Skotchmaster/storefront/internal/events"
	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

// OrderService owns the order state machine. By default any enumerated
// status can be set; with Strict only the forward edges and cancellation of
// a non-terminal order are accepted.
type OrderService struct {
	Repo   *repo.GormRepo
	Events events.Publisher
	Strict bool
	Now    func() time.Time
}

type OrderStats struct {
	Shipped    int64           `json:"shipped"`
	Processing int64           `json:"processing"`
	Delivered  int64           `json:"delivered"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

var nextStatus = map[models.OrderStatus]models.OrderStatus{
	models.StatusPending:    models.StatusProcessing,
	models.StatusProcessing: models.StatusShipped,
	models.StatusShipped:    models.StatusDelivered,
}

// CanTransition reports whether from -> to is an edge of the strict table.
func CanTransition(from, to models.OrderStatus) bool {
	if from.Terminal() {
		return false
	}
	if to == models.StatusCancelled {
		return true
	}
	return nextStatus[from] == to
}

func (s *OrderService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now().UTC()
}

// CreateOrder persists a PENDING order with its item snapshots atomically.
func (s *OrderService) CreateOrder(ctx context.Context, userID uint, items []models.OrderItem, total decimal.Decimal) (*models.Order, error) {
	if len(items) == 0 {
		return nil, fmt.Errorf("items required: %w", ErrValidation)
	}
	for i := range items {
		if items[i].ProductID == 0 {
			return nil, fmt.Errorf("product_id required: %w", ErrValidation)
		}
		if items[i].Quantity == 0 {
			return nil, fmt.Errorf("quantity must be > 0: %w", ErrValidation)
		}
		if items[i].Price.IsNegative() {
			return nil, fmt.Errorf("price must be >= 0: %w", ErrValidation)
		}
	}
	if total.IsNegative() {
		return nil, fmt.Errorf("total must be >= 0: %w", ErrValidation)
	}

	order := &models.Order{
		UserID:      userID,
		OrderDate:   s.now(),
		TotalAmount: total,
		Status:      models.StatusPending,
		Items:       items,
	}
	order, err := s.Repo.CreateOrder(ctx, order)
	if err != nil {
		return nil, err
	}

	events.Emit(ctx, s.Events, events.TopicOrders, orderKey(order.ID), map[string]any{
		"type":    "order_created",
		"orderID": order.ID,
		"userID":  userID,
		"total":   total.StringFixed(2),
		"items":   len(items),
	})
	return order, nil
}

func (s *OrderService) SetStatus(ctx context.Context, orderID uint, status models.OrderStatus) (*models.Order, error) {
	if !status.Valid() {
		return nil, fmt.Errorf("unknown status %q: %w", status, ErrValidation)
	}

	var allow func(models.OrderStatus) error
	if s.Strict {
		allow = func(from models.OrderStatus) error {
			if !CanTransition(from, status) {
				return fmt.Errorf("cannot move order from %s to %s: %w", from, status, ErrConflict)
			}
			return nil
		}
	}

	order, from, err := s.Repo.UpdateOrderStatus(ctx, orderID, status, allow)
	if err != nil {
		return nil, notFound(err, "order")
	}

	events.Emit(ctx, s.Events, events.TopicOrders, orderKey(order.ID), map[string]any{
		"type":    "order_status_changed",
		"orderID": order.ID,
		"from":    string(from),
		"to":      string(status),
	})
	return order, nil
}

// TotalRevenue sums the totals of DELIVERED orders only.
func (s *OrderService) TotalRevenue(ctx context.Context) (decimal.Decimal, error) {
	totals, err := s.Repo.OrderTotals(ctx, models.StatusDelivered, 0)
	if err != nil {
		return decimal.Zero, err
	}
	return decimal.Sum(decimal.Zero, totals...), nil
}

func (s *OrderService) ListByUser(ctx context.Context, userID uint) ([]models.Order, error) {
	return s.Repo.ListOrdersByUser(ctx, userID)
}

func (s *OrderService) ListAll(ctx context.Context) ([]models.Order, error) {
	return s.Repo.ListOrders(ctx)
}

func (s *OrderService) GetByID(ctx context.Context, orderID uint) (*models.Order, error) {
	order, err := s.Repo.GetOrder(ctx, orderID)
	if err != nil {
		return nil, notFound(err, "order")
	}
	return order, nil
}

// GetForUser hides orders of other users behind ErrNotFound.
func (s *OrderService) GetForUser(ctx context.Context, userID, orderID uint) (*models.Order, error) {
	order, err := s.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.UserID != userID {
		return nil, fmt.Errorf("order: %w", ErrNotFound)
	}
	return order, nil
}

func (s *OrderService) Stats(ctx context.Context, userID uint) (*OrderStats, error) {
	counts, err := s.Repo.CountOrdersByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	totals, err := s.Repo.OrderTotals(ctx, models.StatusDelivered, userID)
	if err != nil {
		return nil, err
	}
	return &OrderStats{
		Shipped:    counts[models.StatusShipped],
		Processing: counts[models.StatusProcessing],
		Delivered:  counts[models.StatusDelivered],
		TotalSpent: decimal.Sum(decimal.Zero, totals...),
	}, nil
}

func (s *OrderService) Delete(ctx context.Context, orderID uint) error {
	if err := s.Repo.DeleteOrder(ctx, orderID); err != nil {
		return notFound(err, "order")
	}
	logging.FromContext(ctx).Info("order_deleted", "order_id", orderID)
	return nil
}

func orderKey(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
