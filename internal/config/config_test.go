package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 30*time.Minute, cfg.Checkout.SessionTTL)
	assert.Equal(t, "reject", cfg.Checkout.StockPolicy)
	assert.Equal(t, 5, cfg.OTP.Length)
	assert.Equal(t, ":8080", cfg.Addr())
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yml := []byte("server:\n  port: 9000\ncheckout:\n  session_ttl: 10m\n  stock_policy: skip\nkafka:\n  brokers: [\"file:9092\"]\n")
	require.NoError(t, os.WriteFile(path, yml, 0o600))

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SHOP_SERVER__PORT", "9100")
	t.Setenv("SHOP_DATABASE__URL", "postgres://shop@localhost/shop")
	t.Setenv("SHOP_KAFKA__BROKERS", "k1:9092, k2:9092")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9100, cfg.Server.Port)
	assert.Equal(t, 10*time.Minute, cfg.Checkout.SessionTTL)
	assert.Equal(t, "skip", cfg.Checkout.StockPolicy)
	assert.Equal(t, "postgres://shop@localhost/shop", cfg.Database.URL)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
}

func TestLoad_InvalidStockPolicy(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("SHOP_CHECKOUT__STOCK_POLICY", "partial")

	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "stock_policy")
}

func TestCSV(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want []string
	}{
		{name: "empty", in: "", want: nil},
		{name: "single", in: "a:1", want: []string{"a:1"}},
		{name: "spaces and blanks", in: " a:1, ,b:2 ", want: []string{"a:1", "b:2"}},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, CSV(tt.in))
		})
	}
}
