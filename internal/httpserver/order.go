package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type OrderHTTP struct {
	Svc *service.OrderService
}

func (h *OrderHTTP) ListOwn(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.list_own")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	p := pageOf(c)
	total, items, err := h.Svc.ListOwn(ctx, caller.ID, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *OrderHTTP) ListAll(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	p := pageOf(c)
	total, items, err := h.Svc.ListAll(ctx, c.QueryParam("status"), p.offset, p.limit)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(items, total))
}

func (h *OrderHTTP) Get(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "orders.get")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	o, err := h.Svc.Get(ctx, caller, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return respond(c, http.StatusOK, o)
}

func (h *OrderHTTP) Update(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.update_order")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_order_error", err)
	}
	var req transport.PatchOrderRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_order_error", badBody(err))
	}
	o, err := h.Svc.Update(ctx, id, req)
	if err != nil {
		return fail(l, "update_order_error", err)
	}
	l.Info("order updated", "order_id", id, "status", o.Status)
	return respond(c, http.StatusOK, o)
}
