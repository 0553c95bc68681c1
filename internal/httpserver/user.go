package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/logging"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
)

type UserHTTP struct {
	Svc *service.UserService
}

func (h *UserHTTP) UpdateProfile(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_profile")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	var req transport.UpdateProfileRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_profile_error", badBody(err))
	}

	u, err := h.Svc.UpdateProfile(ctx, caller.ID, req)
	if err != nil {
		return fail(l, "update_profile_error", err)
	}
	return respond(c, http.StatusOK, u)
}

func (h *UserHTTP) ListAddresses(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.list_addresses")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "list_addresses_error", err)
	}
	items, err := h.Svc.ListAddresses(ctx, caller.ID)
	if err != nil {
		return fail(l, "list_addresses_error", err)
	}
	return respond(c, http.StatusOK, items)
}

func (h *UserHTTP) CreateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.create_address")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "create_address_error", err)
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "create_address_error", badBody(err))
	}

	a, err := h.Svc.CreateAddress(ctx, caller.ID, req)
	if err != nil {
		return fail(l, "create_address_error", err)
	}
	return respond(c, http.StatusCreated, a)
}

func (h *UserHTTP) UpdateAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.update_address")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	var req transport.AddressRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "update_address_error", badBody(err))
	}

	a, err := h.Svc.UpdateAddress(ctx, caller.ID, id, req)
	if err != nil {
		return fail(l, "update_address_error", err)
	}
	return respond(c, http.StatusOK, a)
}

func (h *UserHTTP) DeleteAddress(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "users.delete_address")

	caller, err := callerOf(c)
	if err != nil {
		return fail(l, "delete_address_error", err)
	}
	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "delete_address_error", err)
	}
	if err := h.Svc.DeleteAddress(ctx, caller.ID, id); err != nil {
		return fail(l, "delete_address_error", err)
	}
	return respond(c, http.StatusOK, nil)
}

func (h *UserHTTP) ListUsers(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_users")

	p := pageOf(c)
	total, users, err := h.Svc.ListUsers(ctx, p.offset, p.limit)
	if err != nil {
		return fail(l, "list_users_error", err)
	}
	return respond(c, http.StatusOK, p.wrap(users, total))
}

func (h *UserHTTP) SetRole(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.set_role")

	id, err := paramID(c, "id")
	if err != nil {
		return fail(l, "set_role_error", err)
	}
	var req transport.SetRoleRequest
	if err := c.Bind(&req); err != nil {
		return fail(l, "set_role_error", badBody(err))
	}

	u, err := h.Svc.SetRole(ctx, id, req)
	if err != nil {
		return fail(l, "set_role_error", err)
	}
	l.Info("role changed", "user_id", id, "role", u.Role)
	return respond(c, http.StatusOK, u)
}
