package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type OrderHTTP struct {
	Orders   *service.OrderService
	Checkout *service.CheckoutService
}

func (h *OrderHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.checkout")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "checkout_error", err)
	}

	var req service.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "checkout_error", "invalid body", err)
	}

	order, err := h.Checkout.Checkout(ctx, userID, req)
	if err != nil {
		return fail(l, "checkout_error", err)
	}

	l.Info("checkout_success", "order_id", order.ID, "total", order.TotalAmount.StringFixed(2))
	return c.JSON(http.StatusCreated, order)
}

func (h *OrderHTTP) ListMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.list")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "list_orders_error", err)
	}

	orders, err := h.Orders.ListByUser(ctx, userID)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) GetMine(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.get")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "get_order_error", err)
	}
	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "get_order_error", err.Error(), err)
	}

	order, err := h.Orders.GetForUser(ctx, userID, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Stats(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "order.stats")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "order_stats_error", err)
	}

	stats, err := h.Orders.Stats(ctx, userID)
	if err != nil {
		return fail(l, "order_stats_error", err)
	}
	return c.JSON(http.StatusOK, stats)
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.orders")

	orders, err := h.Orders.ListAll(ctx)
	if err != nil {
		return fail(l, "admin_list_orders_error", err)
	}
	return c.JSON(http.StatusOK, orders)
}

func (h *OrderHTTP) SetStatus(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_status")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "order_status_error", err.Error(), err)
	}

	var req struct {
		Status string `json:"status"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "order_status_error", "invalid body", err)
	}

	order, err := h.Orders.SetStatus(ctx, id, models.OrderStatus(req.Status))
	if err != nil {
		return fail(l, "order_status_error", err)
	}

	l.Info("order_status_success", "order_id", id, "status", order.Status)
	return c.JSON(http.StatusOK, order)
}

func (h *OrderHTTP) Delete(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.order_delete")

	id, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "order_delete_error", err.Error(), err)
	}
	if err := h.Orders.Delete(ctx, id); err != nil {
		return fail(l, "order_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *OrderHTTP) Revenue(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.revenue")

	total, err := h.Orders.TotalRevenue(ctx)
	if err != nil {
		return fail(l, "revenue_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"revenue": total.StringFixed(2)})
}
