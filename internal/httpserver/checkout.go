package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type CheckoutHTTP struct {
	Svc *service.CheckoutService
}

func (h *CheckoutHTTP) Start(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.start")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "start_checkout_error", err)
	}
	var req transport.StartCheckoutRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "start_checkout_error", badBody(err))
	}
	if err := req.Validate(); err != nil {
		return fail(l, "start_checkout_error", err)
	}

	session, url, err := h.Svc.StartCheckout(ctx, caller.ID, req.ShippingAddressID)
	if err != nil {
		return fail(l, "start_checkout_error", err)
	}

	l.Info("checkout started", "authority", session.GatewayAuthority)
	return respond(c, http.StatusCreated, transport.StartCheckoutResponse{Checkout: session, PaymentURL: url})
}

// Verify is the gateway's return URL; Authority identifies the payment.
func (h *CheckoutHTTP) Verify(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.verify")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "verify_checkout_error", err)
	}
	authority := c.QueryParam("Authority")
	if authority == "" {
		fe := transport.FieldErrors{}
		fe.Add("Authority", "required")
		return fail(l, "verify_checkout_error", fe)
	}

	order, err := h.Svc.ConfirmCheckout(ctx, caller, authority)
	if err != nil {
		return fail(l, "verify_checkout_error", err)
	}

	l.Info("order created", "order_id", order.ID, "authority", authority)
	return respond(c, http.StatusOK, map[string]any{"order": order})
}
