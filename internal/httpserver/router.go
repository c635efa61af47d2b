package httpserver

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	middleware "github.com/Skotchmaster/storefront/pkg/middleware/auth"
)

type Deps struct {
	Auth      *AuthHTTP
	OTP       *OTPHTTP
	Catalog   *CatalogHTTP
	Cart      *CartHTTP
	Wishlist  *WishlistHTTP
	Orders    *OrderHTTP
	JWTSecret []byte
	// Ready reports whether backing stores are reachable. Nil means always ready.
	Ready func(ctx context.Context) error
}

func Register(e *echo.Echo, d *Deps) {
	mw := middleware.NewAuthMiddleware(d.JWTSecret)

	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		if d.Ready != nil {
			if err := d.Ready(c.Request().Context()); err != nil {
				return c.NoContent(http.StatusServiceUnavailable)
			}
		}
		return c.NoContent(http.StatusOK)
	})

	auth := e.Group("/auth")
	auth.POST("/signup", d.Auth.Signup)
	auth.POST("/login", d.Auth.Login)
	auth.POST("/logout", d.Auth.Logout)

	otp := e.Group("/otp")
	otp.POST("/email", d.OTP.SendEmail)
	otp.POST("/phone", d.OTP.SendPhone)
	otp.POST("/verify", d.OTP.Verify)
	otp.GET("/status", d.OTP.Status)
	otp.DELETE("", d.OTP.Reset)

	catalog := e.Group("/catalog")
	catalog.GET("/products", d.Catalog.GetProducts)
	catalog.GET("/products/search", d.Catalog.SearchProducts)
	catalog.GET("/products/:id", d.Catalog.GetProduct)

	cart := e.Group("/cart", mw.RequireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.POST("", d.Cart.AddToCart)
	cart.PATCH("/:id", d.Cart.UpdateItem)
	cart.DELETE("/items/:productID", d.Cart.RemoveItem)
	cart.DELETE("", d.Cart.ClearCart)

	wishlist := e.Group("/wishlist", mw.RequireAuth)
	wishlist.GET("", d.Wishlist.List)
	wishlist.POST("", d.Wishlist.Add)
	wishlist.DELETE("/:productID", d.Wishlist.Remove)
	wishlist.DELETE("", d.Wishlist.Clear)

	e.POST("/checkout", d.Orders.PlaceOrder, mw.RequireAuth)

	orders := e.Group("/orders", mw.RequireAuth)
	orders.GET("", d.Orders.ListMine)
	orders.GET("/stats", d.Orders.Stats)
	orders.GET("/:id", d.Orders.GetMine)

	admin := e.Group("/admin", mw.RequireAdmin)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.PatchProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/orders", d.Orders.ListAll)
	admin.PATCH("/orders/:id/status", d.Orders.SetStatus)
	admin.DELETE("/orders/:id", d.Orders.Delete)
	admin.GET("/revenue", d.Orders.Revenue)
}
