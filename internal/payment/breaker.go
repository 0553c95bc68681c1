package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"
)

// BreakerGateway trips after consecutive transport failures and then fails
// fast with ErrGatewayUnavailable until the provider recovers. Business
// rejections do not count as failures. Calls are never retried.
type BreakerGateway struct {
	next   Gateway
	auth   *gobreaker.CircuitBreaker[*Authorization]
	verify *gobreaker.CircuitBreaker[*Verification]
}

type BreakerSettings struct {
	Name                string
	ConsecutiveFailures uint32
	OpenTimeout         time.Duration
	// Logger receives state transitions. Defaults to slog.Default().
	Logger *slog.Logger
}

func NewBreakerGateway(next Gateway, s BreakerSettings) *BreakerGateway {
	if s.ConsecutiveFailures == 0 {
		s.ConsecutiveFailures = 5
	}
	if s.OpenTimeout <= 0 {
		s.OpenTimeout = 30 * time.Second
	}
	if s.Logger == nil {
		s.Logger = slog.Default()
	}

	settings := func(op string) gobreaker.Settings {
		return gobreaker.Settings{
			Name:        s.Name + "." + op,
			MaxRequests: 1,
			Interval:    time.Minute,
			Timeout:     s.OpenTimeout,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= s.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil || !errors.Is(err, ErrGatewayUnavailable)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				s.Logger.Warn("payment_breaker_state", "breaker", name, "from", from.String(), "to", to.String())
			},
		}
	}

	return &BreakerGateway{
		next:   next,
		auth:   gobreaker.NewCircuitBreaker[*Authorization](settings("authorize")),
		verify: gobreaker.NewCircuitBreaker[*Verification](settings("verify")),
	}
}

func (b *BreakerGateway) Authorize(ctx context.Context, amount int64, description, contact string) (*Authorization, error) {
	res, err := b.auth.Execute(func() (*Authorization, error) {
		return b.next.Authorize(ctx, amount, description, contact)
	})
	return res, breakerErr(err)
}

func (b *BreakerGateway) Verify(ctx context.Context, authority string, amount int64) (*Verification, error) {
	res, err := b.verify.Execute(func() (*Verification, error) {
		return b.next.Verify(ctx, authority, amount)
	})
	return res, breakerErr(err)
}

func breakerErr(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
	}
	return err
}
