package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/payment"
	"github.com/Skotchmaster/storefront/internal/repo"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CheckoutRequest struct {
	Method   string            `json:"payment_method"`
	Card     payment.Card      `json:"card"`
	Shipping repo.ShippingInfo `json:"shipping"`
}

type CheckoutService struct {
	Repo   *repo.GormRepo
	Cart   *CartService
	Orders *OrderService
}

// Checkout turns the user's cart into a PROCESSING order. Nothing is written
// until payment is approved; once the order exists, failing to clear the cart
// or to save shipping details is logged and does not fail the call.
func (s *CheckoutService) Checkout(ctx context.Context, userID uint, req CheckoutRequest) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "checkout", "user_id", userID)

	method, ok := payment.ParseMethod(strings.TrimSpace(req.Method))
	if !ok {
		return nil, fmt.Errorf("unknown payment method %q: %w", req.Method, ErrValidation)
	}
	if method == payment.CARD && (strings.TrimSpace(req.Card.Number) == "" || strings.TrimSpace(req.Card.CVV) == "") {
		return nil, fmt.Errorf("card number and cvv required: %w", ErrValidation)
	}

	lines, err := s.Repo.GetCart(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, fmt.Errorf("cart is empty: %w", ErrValidation)
	}

	total := CartTotal(lines)
	if !payment.Authorize(method, total, &req.Card) {
		l.Warn("payment_rejected", "method", string(method), "total", total.StringFixed(2))
		return nil, fmt.Errorf("%s payment declined: %w", method, ErrPaymentRejected)
	}

	items := make([]models.OrderItem, 0, len(lines))
	for _, line := range lines {
		if line.Product == nil {
			return nil, fmt.Errorf("product %d: %w", line.ProductID, ErrNotFound)
		}
		items = append(items, models.OrderItem{
			ProductID: line.ProductID,
			Quantity:  line.Quantity,
			Price:     line.Product.Price,
		})
	}

	order, err := s.Orders.CreateOrder(ctx, userID, items, total)
	if err != nil {
		return nil, err
	}

	if processing, err := s.Orders.SetStatus(ctx, order.ID, models.StatusProcessing); err != nil {
		l.Error("checkout_status_error", "order_id", order.ID, "error", err)
	} else {
		order = processing
	}

	if err := s.Cart.ClearCart(ctx, userID); err != nil {
		l.Error("checkout_clear_cart_error", "order_id", order.ID, "error", err)
	}

	if !req.Shipping.Empty() {
		if err := s.Repo.UpdateShipping(ctx, userID, req.Shipping); err != nil {
			l.Error("checkout_shipping_error", "order_id", order.ID, "error", err)
		}
	}

	l.Info("order_placed", "order_id", order.ID, "method", string(method), "total", total.StringFixed(2))
	return order, nil
}
