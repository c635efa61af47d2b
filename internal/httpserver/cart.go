package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "get_cart_error", err)
	}

	cart, err := h.Svc.GetCart(ctx, userID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return c.JSON(http.StatusOK, cart)
}

func (h *CartHTTP) AddToCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "add_to_cart_error", err)
	}

	var req struct {
		ProductID uint `json:"product_id"`
		Quantity  uint `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_to_cart_error", "invalid body", err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}

	item, err := h.Svc.AddToCart(ctx, userID, req.ProductID, req.Quantity)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}

	l.Info("item added to cart", "product_id", req.ProductID, "quantity", item.Quantity)
	return c.JSON(http.StatusCreated, item)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "update_cart_error", err)
	}
	itemID, err := parseID(c, "id")
	if err != nil {
		return badRequest(l, "update_cart_error", err.Error(), err)
	}

	var req struct {
		Quantity int `json:"quantity"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_error", "invalid body", err)
	}

	deleted, item, err := h.Svc.UpdateQuantity(ctx, userID, itemID, req.Quantity)
	if err != nil {
		return fail(l, "update_cart_error", err)
	}
	if deleted {
		return c.JSON(http.StatusOK, echo.Map{"deleted": true, "id": itemID})
	}
	return c.JSON(http.StatusOK, item)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "remove_from_cart_error", err)
	}
	productID, err := parseID(c, "productID")
	if err != nil {
		return badRequest(l, "remove_from_cart_error", err.Error(), err)
	}

	if err := h.Svc.RemoveFromCart(ctx, userID, productID); err != nil {
		return fail(l, "remove_from_cart_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *CartHTTP) ClearCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "clear_cart_error", err)
	}

	if err := h.Svc.ClearCart(ctx, userID); err != nil {
		return fail(l, "clear_cart_error", err)
	}

	l.Info("cart cleared")
	return c.NoContent(http.StatusNoContent)
}
