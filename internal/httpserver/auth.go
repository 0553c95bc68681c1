package httpserver

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type AuthHTTP struct {
	Svc *service.AuthService
}

func tokenResponse(res *service.LoginResult) transport.TokenResponse {
	return transport.TokenResponse{
		AccessToken:  res.AccessToken,
		RefreshToken: res.RefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(time.Until(res.AccessExp).Seconds()),
	}
}

func (h *AuthHTTP) SendOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.send_otp")

	var req transport.SendOTPRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "send_otp_error", badBody(err))
	}
	if err := req.Validate(); err != nil {
		return fail(l, "send_otp_error", err)
	}

	ttl, err := h.Svc.RequestOTP(ctx, req.Phone)
	if errors.Is(err, service.ErrOTPAlreadySent) {
		l.Warn("send_otp_error", "status", http.StatusTooManyRequests, "reason", "already sent")
		return respondError(c, http.StatusTooManyRequests, "code already sent", map[string]any{
			"retry_after": int64(ttl.Seconds()),
		})
	}
	if err != nil {
		return fail(l, "send_otp_error", err)
	}

	l.Info("otp sent")
	return respond(c, http.StatusOK, map[string]any{"expires_in": int64(ttl.Seconds())})
}

func (h *AuthHTTP) VerifyOTP(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.verify_otp")

	var req transport.VerifyOTPRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "verify_otp_error", badBody(err))
	}
	if err := req.Validate(); err != nil {
		return fail(l, "verify_otp_error", err)
	}

	res, err := h.Svc.VerifyOTP(ctx, req.Phone, req.Code)
	if err != nil {
		return fail(l, "verify_otp_error", err)
	}

	l.Info("user logged in", "user_id", res.User.ID)
	return respond(c, http.StatusOK, map[string]any{
		"tokens": tokenResponse(res),
		"user":   res.User,
	})
}

func (h *AuthHTTP) Refresh(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.refresh")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "refresh_error", badBody(err))
	}
	if req.RefreshToken == "" {
		return fail(l, "refresh_error", echo.NewHTTPError(http.StatusUnauthorized, "missing refresh token"))
	}

	res, err := h.Svc.Refresh(ctx, req.RefreshToken)
	if err != nil {
		return fail(l, "refresh_error", err)
	}
	return respond(c, http.StatusOK, tokenResponse(res))
}

func (h *AuthHTTP) Logout(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.logout")

	var req transport.RefreshRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "logout_error", badBody(err))
	}
	if err := h.Svc.Logout(ctx, req.RefreshToken); err != nil {
		return fail(l, "logout_error", err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *AuthHTTP) Me(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "auth.me")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "me_error", err)
	}
	u, err := h.Svc.Me(ctx, caller.ID)
	if err != nil {
		return fail(l, "me_error", err)
	}
	return respond(c, http.StatusOK, u)
}
