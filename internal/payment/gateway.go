package payment

import (
	"context"
	"encoding/json"
	"errors"
)

var (
	ErrGatewayUnavailable = errors.New("payment gateway unavailable")
	ErrInvalidMerchant    = errors.New("payment gateway rejected merchant")
	ErrAuthorizeRejected  = errors.New("payment authorization rejected")
)

// Result codes returned by verify. Only these two mean the money was taken.
const (
	CodeSuccess         = 100
	CodeAlreadyVerified = 101
)

func Accepted(code int) bool {
	return code == CodeSuccess || code == CodeAlreadyVerified
}

type Authorization struct {
	Authority   string
	RedirectURL string
}

type Verification struct {
	Code    int
	RefID   string
	CardPAN string
	Raw     json.RawMessage
}

// Gateway is the external payment provider. Amounts are integers in the
// smallest currency unit.
type Gateway interface {
	Authorize(ctx context.Context, amount int64, description, contact string) (*Authorization, error)
	Verify(ctx context.Context, authority string, amount int64) (*Verification, error)
}
