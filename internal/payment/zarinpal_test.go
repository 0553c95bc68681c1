package payment

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.HandlerFunc) *ZarinpalClient {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewZarinpalClient(ZarinpalConfig{
		MerchantID:  "merchant-1",
		APIURL:      srv.URL,
		StartPayURL: "https://pay.example/StartPay/",
		CallbackURL: "https://shop.example/checkout/verify",
	})
}

func TestZarinpal_Authorize(t *testing.T) {
	t.Parallel()

	var got map[string]any
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/request.json", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Write([]byte(`{"data":{"code":100,"message":"Success","authority":"A00000000000000000000000000000012345"},"errors":[]}`))
	})

	auth, err := c.Authorize(context.Background(), 100000, "order for 0912", "09120000000")
	require.NoError(t, err)
	assert.Equal(t, "A00000000000000000000000000000012345", auth.Authority)
	assert.Equal(t, "https://pay.example/StartPay/A00000000000000000000000000000012345", auth.RedirectURL)

	assert.Equal(t, "merchant-1", got["merchant_id"])
	assert.EqualValues(t, 100000, got["amount"])
	assert.Equal(t, "https://shop.example/checkout/verify", got["callback_url"])
}

func TestZarinpal_Authorize_InvalidMerchant(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"data":[],"errors":{"code":-10,"message":"Terminal is not valid","validations":[]}}`))
	})

	_, err := c.Authorize(context.Background(), 1000, "d", "0912")
	assert.ErrorIs(t, err, ErrInvalidMerchant)
}

func TestZarinpal_Authorize_ServerDown(t *testing.T) {
	t.Parallel()

	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})

	_, err := c.Authorize(context.Background(), 1000, "d", "0912")
	assert.ErrorIs(t, err, ErrGatewayUnavailable)
}

func TestZarinpal_Verify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		body     string
		code     int
		refID    string
		accepted bool
	}{
		{
			name:     "success",
			body:     `{"data":{"code":100,"message":"Verified","card_pan":"502229******5995","ref_id":201},"errors":[]}`,
			code:     100,
			refID:    "201",
			accepted: true,
		},
		{
			name:     "already verified",
			body:     `{"data":{"code":101,"message":"Verified","ref_id":201},"errors":[]}`,
			code:     101,
			refID:    "201",
			accepted: true,
		},
		{
			name:     "payment failed",
			body:     `{"data":[],"errors":{"code":-51,"message":"Session is not valid"}}`,
			code:     -51,
			accepted: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/verify.json", r.URL.Path)
				w.Write([]byte(tt.body))
			})

			v, err := c.Verify(context.Background(), "A1", 1000)
			require.NoError(t, err)
			assert.Equal(t, tt.code, v.Code)
			assert.Equal(t, tt.refID, v.RefID)
			assert.Equal(t, tt.accepted, Accepted(v.Code))
			assert.NotEmpty(t, v.Raw)
		})
	}
}
