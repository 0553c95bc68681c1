package service

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Skotchmaster/storefront/internal/models"
)

var (
	ErrValidation   = errors.New("validation failed")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrForbidden    = errors.New("forbidden")
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrEmptyCart          = fmt.Errorf("%w: cart is empty", ErrValidation)
	ErrInvalidAddress     = fmt.Errorf("%w: shipping address not found", ErrNotFound)
	ErrPaymentInitFailed  = errors.New("payment initialization failed")
	ErrSessionNotFound    = fmt.Errorf("%w: checkout session not found", ErrNotFound)
	ErrPaymentRejected    = fmt.Errorf("%w: payment rejected by gateway", ErrValidation)
	ErrAlreadyProcessed   = fmt.Errorf("%w: payment already processed", ErrConflict)
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInsufficientStock  = fmt.Errorf("%w: insufficient stock", ErrConflict)
	ErrConfirmInProgress  = fmt.Errorf("%w: confirmation already in progress", ErrConflict)
)

// Caller is the authenticated subject of a request.
type Caller struct {
	ID   uuid.UUID
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CanAccess reports whether a caller holding roles may act on a resource
// owned by ownerID. Admins may act on anything.
func CanAccess(roles []string, ownerID, callerID uuid.UUID) bool {
	for _, r := range roles {
		if r == models.RoleAdmin {
			return true
		}
	}
	return callerID != uuid.Nil && ownerID == callerID
}

func (c Caller) CanAccess(ownerID uuid.UUID) bool {
	return CanAccess([]string{c.Role}, ownerID, c.ID)
}

func invalid(err error) error {
	return fmt.Errorf("%w: %w", ErrValidation, err)
}

// notFound translates a missing row into ErrNotFound and leaves other
// errors alone.
func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", what, ErrNotFound)
	}
	return err
}

func conflict(err error, what string) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return fmt.Errorf("%s: %w", what, ErrConflict)
	}
	return err
}
