package httpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/middleware/metrics"
)

// ReadyCheck reports whether a backing service is reachable.
type ReadyCheck func(ctx context.Context) error

type Deps struct {
	Auth     *AuthHTTP
	Users    *UserHTTP
	Catalog  *CatalogHTTP
	Cart     *CartHTTP
	Wishlist *WishlistHTTP
	Comments *CommentHTTP
	Tickets  *TicketHTTP
	Orders   *OrderHTTP
	Checkout *CheckoutHTTP

	Bearer *auth.BearerAuth
	Ready  map[string]ReadyCheck
}

func Register(e *echo.Echo, d *Deps) {
	e.HTTPErrorHandler = ErrorHandler

	e.GET("/health/live", func(c echo.Context) error { return respond(c, http.StatusOK, nil) })
	e.GET("/health/ready", d.ready)
	e.GET("/metrics", echo.WrapHandler(metrics.Handler()))

	requireAuth := d.Bearer.RequireAuth

	a := e.Group("/auth")
	a.POST("/otp", d.Auth.SendOTP)
	a.POST("/otp/verify", d.Auth.VerifyOTP)
	a.POST("/refresh", d.Auth.Refresh)
	a.POST("/logout", d.Auth.Logout)
	a.GET("/me", d.Auth.Me, requireAuth)

	u := e.Group("/users/me", requireAuth)
	u.GET("", d.Auth.Me)
	u.PATCH("", d.Users.UpdateProfile)
	u.GET("/addresses", d.Users.ListAddresses)
	u.POST("/addresses", d.Users.CreateAddress)
	u.PATCH("/addresses/:id", d.Users.UpdateAddress)
	u.DELETE("/addresses/:id", d.Users.DeleteAddress)

	e.GET("/categories", d.Catalog.CategoryTree)
	e.GET("/products", d.Catalog.ListProducts)
	e.GET("/products/search", d.Catalog.SearchProducts)
	e.GET("/products/:id", d.Catalog.GetProduct)
	e.GET("/products/:id/comments", d.Comments.List)
	e.POST("/products/:id/comments", d.Comments.Create, requireAuth)
	e.DELETE("/comments/:id", d.Comments.Delete, requireAuth)

	cart := e.Group("/cart", requireAuth)
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items/:product_id", d.Cart.UpdateItem)
	cart.DELETE("/items/:product_id", d.Cart.RemoveItem)

	w := e.Group("/wishlist", requireAuth)
	w.GET("", d.Wishlist.List)
	w.POST("/:product_id", d.Wishlist.Add)
	w.DELETE("/:product_id", d.Wishlist.Remove)

	t := e.Group("/tickets", requireAuth)
	t.POST("", d.Tickets.Create)
	t.GET("", d.Tickets.ListOwn)
	t.GET("/:id", d.Tickets.Get)
	t.POST("/:id/messages", d.Tickets.Reply)

	o := e.Group("/orders", requireAuth)
	o.GET("", d.Orders.ListOwn)
	o.GET("/:id", d.Orders.Get)

	co := e.Group("/checkout", requireAuth)
	co.POST("", d.Checkout.Start)
	co.GET("/verify", d.Checkout.Verify)

	admin := e.Group("/admin", requireAuth, auth.RequireAdmin)
	admin.GET("/users", d.Users.ListUsers)
	admin.PATCH("/users/:id/role", d.Users.SetRole)
	admin.POST("/categories", d.Catalog.CreateCategory)
	admin.PATCH("/categories/:id", d.Catalog.UpdateCategory)
	admin.DELETE("/categories/:id", d.Catalog.DeleteCategory)
	admin.POST("/products", d.Catalog.CreateProduct)
	admin.PATCH("/products/:id", d.Catalog.UpdateProduct)
	admin.DELETE("/products/:id", d.Catalog.DeleteProduct)
	admin.GET("/comments", d.Comments.ListPending)
	admin.PATCH("/comments/:id/approve", d.Comments.Approve)
	admin.GET("/tickets", d.Tickets.ListAll)
	admin.PATCH("/tickets/:id/close", d.Tickets.Close)
	admin.GET("/orders", d.Orders.ListAll)
	admin.PATCH("/orders/:id", d.Orders.Update)
}

func (d *Deps) ready(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	failed := map[string]string{}
	for name, check := range d.Ready {
		if err := check(ctx); err != nil {
			failed[name] = err.Error()
		}
	}
	if len(failed) > 0 {
		return respondError(c, http.StatusServiceUnavailable, "not ready", failed)
	}
	return respond(c, http.StatusOK, nil)
}
