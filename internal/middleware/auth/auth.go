package auth

import (
	"errors"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/models"
	"github.com/Skotchmaster/storefront/internal/tokens"
)

const (
	CtxUserID = "user_id"
	CtxRole   = "role"
)

var ErrNoSubject = errors.New("unauthorized")

type BearerAuth struct {
	AccessSecret []byte
}

func NewBearerAuth(secret []byte) *BearerAuth {
	return &BearerAuth{AccessSecret: secret}
}

func (m *BearerAuth) RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get(echo.HeaderAuthorization)
		scheme, token, ok := strings.Cut(header, " ")
		if !ok || !strings.EqualFold(scheme, "Bearer") || strings.TrimSpace(token) == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "missing access token")
		}

		claims, err := tokens.AccessClaimsFromToken(strings.TrimSpace(token), m.AccessSecret)
		if err != nil || claims == nil {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		if claims.Subject == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "token has no subject")
		}

		c.Set(CtxUserID, claims.Subject)
		c.Set(CtxRole, claims.Role)
		return next(c)
	}
}

// RequireAdmin must run after RequireAuth.
func RequireAdmin(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		role, _ := c.Get(CtxRole).(string)
		if role == "" {
			return echo.NewHTTPError(http.StatusUnauthorized, "invalid or missing role")
		}
		if role != models.RoleAdmin {
			return echo.NewHTTPError(http.StatusForbidden, "admin access required")
		}
		return next(c)
	}
}

// Subject returns the id and role RequireAuth stored on c.
func Subject(c echo.Context) (uuid.UUID, string, error) {
	s, ok := c.Get(CtxUserID).(string)
	if !ok || s == "" {
		return uuid.Nil, "", ErrNoSubject
	}
	id, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, "", ErrNoSubject
	}
	role, _ := c.Get(CtxRole).(string)
	return id, role, nil
}
