package payment

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubGateway struct {
	calls     int
	authErr   error
	verifyRes *Verification
}

func (s *stubGateway) Authorize(ctx context.Context, amount int64, description, contact string) (*Authorization, error) {
	s.calls++
	if s.authErr != nil {
		return nil, s.authErr
	}
	return &Authorization{Authority: "A1", RedirectURL: "https://pay/A1"}, nil
}

func (s *stubGateway) Verify(ctx context.Context, authority string, amount int64) (*Verification, error) {
	s.calls++
	return s.verifyRes, nil
}

func TestBreakerGateway_OpensOnTransportFailures(t *testing.T) {
	t.Parallel()

	stub := &stubGateway{authErr: fmt.Errorf("%w: dial tcp: refused", ErrGatewayUnavailable)}
	gw := NewBreakerGateway(stub, BreakerSettings{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := gw.Authorize(ctx, 1000, "d", "0912")
		require.ErrorIs(t, err, ErrGatewayUnavailable)
	}
	require.Equal(t, 2, stub.calls)

	_, err := gw.Authorize(ctx, 1000, "d", "0912")
	require.ErrorIs(t, err, ErrGatewayUnavailable)
	assert.Equal(t, 2, stub.calls, "open breaker must not reach the gateway")
}

func TestBreakerGateway_BusinessErrorsDoNotTrip(t *testing.T) {
	t.Parallel()

	stub := &stubGateway{authErr: fmt.Errorf("%w: code -9", ErrAuthorizeRejected)}
	gw := NewBreakerGateway(stub, BreakerSettings{Name: "test", ConsecutiveFailures: 2, OpenTimeout: time.Hour})
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := gw.Authorize(ctx, 1000, "d", "0912")
		require.True(t, errors.Is(err, ErrAuthorizeRejected))
	}
	assert.Equal(t, 5, stub.calls)
}

func TestBreakerGateway_VerifyPassesResult(t *testing.T) {
	t.Parallel()

	stub := &stubGateway{verifyRes: &Verification{Code: CodeAlreadyVerified, RefID: "9"}}
	gw := NewBreakerGateway(stub, BreakerSettings{Name: "test"})

	v, err := gw.Verify(context.Background(), "A1", 1000)
	require.NoError(t, err)
	assert.Equal(t, CodeAlreadyVerified, v.Code)
}

func TestBreakerGateway_LogsStateChanges(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	stub := &stubGateway{authErr: fmt.Errorf("%w: timeout", ErrGatewayUnavailable)}
	gw := NewBreakerGateway(stub, BreakerSettings{Name: "test", ConsecutiveFailures: 1, OpenTimeout: time.Hour, Logger: logger})

	_, err := gw.Authorize(context.Background(), 1000, "d", "0912")
	require.ErrorIs(t, err, ErrGatewayUnavailable)

	out := buf.String()
	assert.Contains(t, out, `"msg":"payment_breaker_state"`)
	assert.Contains(t, out, `"breaker":"test.authorize"`)
	assert.Contains(t, out, `"to":"open"`)
}
