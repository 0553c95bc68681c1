package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CartHTTP struct {
	Svc *service.CartService
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.get")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	cart, err := h.Svc.GetCart(ctx, caller.ID)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "add_to_cart_error", badBody(err))
	}

	cart, err := h.Svc.AddItem(ctx, caller.ID, req)
	if err != nil {
		return fail(l, "add_to_cart_error", err)
	}
	l.Info("item added to cart", "product_id", req.ProductID)
	return respond(c, http.StatusCreated, cart)
}

func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	productID, err := paramID(c, "product_id")
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_cart_item_error", badBody(err))
	}

	cart, err := h.Svc.UpdateItem(ctx, caller.ID, productID, req)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	productID, err := paramID(c, "product_id")
	if err != nil {
		return fail(l, "remove_cart_item_error", err)
	}

	cart, err := h.Svc.RemoveItem(ctx, caller.ID, productID)
	if err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	return respond(c, http.StatusOK, cart)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}
	if err := h.Svc.Clear(ctx, caller.ID); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	l.Info("cart cleared")
	return respond(c, http.StatusOK, nil)
}

type WishlistHTTP struct {
	Svc *service.WishlistService
}

func (h *WishlistHTTP) List(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.list")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "list_wishlist_error", err)
	}
	items, err := h.Svc.List(ctx, caller.ID)
	if err != nil {
		return fail(l, "list_wishlist_error", err)
	}
	return respond(c, http.StatusOK, items)
}

func (h *WishlistHTTP) Add(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.add")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	productID, err := paramID(c, "product_id")
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	item, err := h.Svc.Add(ctx, caller.ID, productID)
	if err != nil {
		return fail(l, "add_wishlist_error", err)
	}
	return respond(c, http.StatusOK, item)
}

func (h *WishlistHTTP) Remove(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "wishlist.remove")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	productID, err := paramID(c, "product_id")
	if err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	if err := h.Svc.Remove(ctx, caller.ID, productID); err != nil {
		return fail(l, "remove_wishlist_error", err)
	}
	return respond(c, http.StatusOK, nil)
}
