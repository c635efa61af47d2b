package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/pkg/logging"
)

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "wishlist_list_error", err)
	}

	items, err := h.Svc.List(ctx, userID)
	if err != nil {
		return fail(l, "wishlist_list_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items, "count": len(items)})
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "wishlist_add_error", err)
	}

	var req struct {
		ProductID uint `json:"product_id"`
	}
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "wishlist_add_error", "invalid body", err)
	}

	item, created, err := h.Svc.Add(ctx, userID, req.ProductID)
	if err != nil {
		return fail(l, "wishlist_add_error", err)
	}
	if created {
		return c.JSON(http.StatusCreated, item)
	}
	return c.JSON(http.StatusOK, item)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "wishlist_remove_error", err)
	}
	productID, err := parseID(c, "productID")
	if err != nil {
		return badRequest(l, "wishlist_remove_error", err.Error(), err)
	}

	if err := h.Svc.Remove(ctx, userID, productID); err != nil {
		return fail(l, "wishlist_remove_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *WishlistHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.clear")

	userID, err := getUserID(c)
	if err != nil {
		return unauthorized(l, "wishlist_clear_error", err)
	}
	if err := h.Svc.Clear(ctx, userID); err != nil {
		return fail(l, "wishlist_clear_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}
