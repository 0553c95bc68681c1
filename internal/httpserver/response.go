package httpserver

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/storefront/internal/middleware/auth"
	"github.com/Skotchmaster/storefront/internal/service"
	"github.com/Skotchmaster/storefront/internal/transport"
	"github.com/Skotchmaster/storefront/internal/util"
)

// Envelope wraps every response body.
type Envelope struct {
	Status  int    `json:"status"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

type Page struct {
	Items any            `json:"items"`
	Meta  map[string]any `json:"meta"`
}

func respond(c echo.Context, status int, data any) error {
	return c.JSON(status, Envelope{Status: status, Success: true, Data: data})
}

func respondError(c echo.Context, status int, msg string, data any) error {
	return c.JSON(status, Envelope{Status: status, Success: false, Error: msg, Data: data})
}

type errorClass struct {
	target error
	status int
	msg    string
}

// Order matters: specific sentinels come before the classes they wrap.
var errorClasses = []errorClass{
	{service.ErrAlreadyProcessed, http.StatusBadRequest, "payment already processed"},
	{service.ErrEmptyCart, http.StatusBadRequest, "cart is empty"},
	{service.ErrPaymentRejected, http.StatusBadRequest, "payment was not accepted"},
	{service.ErrPaymentInitFailed, http.StatusBadGateway, "could not start payment"},
	{service.ErrGatewayUnavailable, http.StatusServiceUnavailable, "payment gateway unavailable"},
	{service.ErrInsufficientStock, http.StatusConflict, "insufficient stock"},
	{service.ErrConfirmInProgress, http.StatusConflict, "payment confirmation already in progress"},
	{service.ErrTicketClosed, http.StatusConflict, "ticket is closed"},
	{service.ErrSessionNotFound, http.StatusNotFound, "checkout session not found or expired"},
	{service.ErrInvalidAddress, http.StatusNotFound, "shipping address not found"},
	{service.ErrOTPAlreadySent, http.StatusTooManyRequests, "code already sent"},
	{service.ErrValidation, http.StatusBadRequest, ""},
	{service.ErrNotFound, http.StatusNotFound, "not found"},
	{service.ErrConflict, http.StatusConflict, "conflict"},
	{service.ErrForbidden, http.StatusForbidden, "forbidden"},
	{service.ErrUnauthorized, http.StatusUnauthorized, "unauthorized"},
}

// classify turns err into a status and a message safe to show to clients.
func classify(err error) (int, string) {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		return he.Code, fmt.Sprint(he.Message)
	}
	var fe transport.FieldErrors
	if errors.As(err, &fe) {
		return http.StatusBadRequest, "validation failed"
	}
	for _, ec := range errorClasses {
		if !errors.Is(err, ec.target) {
			continue
		}
		if ec.msg == "" {
			return ec.status, err.Error()
		}
		return ec.status, ec.msg
	}
	return http.StatusInternalServerError, "internal server error"
}

// ErrorHandler renders any handler error into the failure envelope.
func ErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	status, msg := classify(err)

	var data any
	var fe transport.FieldErrors
	if errors.As(err, &fe) {
		data = fe
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(status)
		return
	}
	_ = respondError(c, status, msg, data)
}

// fail logs err at a level matching its status and hands it to the error
// handler.
func fail(l *slog.Logger, event string, err error) error {
	status, _ := classify(err)
	if status >= http.StatusInternalServerError {
		l.Error(event, "status", status, "error", err)
	} else {
		l.Warn(event, "status", status, "error", err)
	}
	return err
}

func badBody(err error) error {
	return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
}

func callerOf(c echo.Context) (service.Caller, error) {
	id, role, err := auth.Subject(c)
	if err != nil {
		return service.Caller{}, echo.NewHTTPError(http.StatusUnauthorized, "unauthorized")
	}
	return service.Caller{ID: id, Role: role}, nil
}

func paramID(c echo.Context, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		fe := transport.FieldErrors{}
		fe.Add(name, "must be a uuid")
		return uuid.Nil, fe
	}
	return id, nil
}

type pageQuery struct {
	page, offset, limit int
}

func pageOf(c echo.Context) pageQuery {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	offset, limit := util.Calculate(page, size)
	if page < 1 {
		page = 1
	}
	return pageQuery{page: page, offset: offset, limit: limit}
}

func (p pageQuery) wrap(items any, total int64) Page {
	return Page{Items: items, Meta: util.Meta(p.page, p.offset, p.limit, total)}
}
