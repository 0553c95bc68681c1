package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const envPrefix = "SHOP_"

type Config struct {
	ServiceName string `koanf:"service_name"`

	Server struct {
		Port         int           `koanf:"port"`
		ReadTimeout  time.Duration `koanf:"read_timeout"`
		WriteTimeout time.Duration `koanf:"write_timeout"`
		IdleTimeout  time.Duration `koanf:"idle_timeout"`
	} `koanf:"server"`

	Log struct {
		Level string `koanf:"level"`
		File  string `koanf:"file"`
	} `koanf:"log"`

	Database struct {
		URL string `koanf:"url"`
	} `koanf:"database"`

	JWT struct {
		AccessSecret  string        `koanf:"access_secret"`
		RefreshSecret string        `koanf:"refresh_secret"`
		AccessTTL     time.Duration `koanf:"access_ttl"`
		RefreshTTL    time.Duration `koanf:"refresh_ttl"`
	} `koanf:"jwt"`

	Redis struct {
		Addr     string `koanf:"addr"`
		Password string `koanf:"password"`
		DB       int    `koanf:"db"`
	} `koanf:"redis"`

	Kafka struct {
		Brokers []string `koanf:"brokers"`
	} `koanf:"kafka"`

	Elastic struct {
		URL      string `koanf:"url"`
		User     string `koanf:"user"`
		Password string `koanf:"password"`
		Index    string `koanf:"index"`
	} `koanf:"elastic"`

	Mongo struct {
		URI      string `koanf:"uri"`
		Database string `koanf:"database"`
	} `koanf:"mongo"`

	Payment struct {
		MerchantID  string        `koanf:"merchant_id"`
		APIURL      string        `koanf:"api_url"`
		StartPayURL string        `koanf:"start_pay_url"`
		CallbackURL string        `koanf:"callback_url"`
		Timeout     time.Duration `koanf:"timeout"`
	} `koanf:"payment"`

	SMS struct {
		APIURL string `koanf:"api_url"`
		APIKey string `koanf:"api_key"`
		Sender string `koanf:"sender"`
	} `koanf:"sms"`

	OTP struct {
		TTL         time.Duration `koanf:"ttl"`
		Length      int           `koanf:"length"`
		MaxAttempts int           `koanf:"max_attempts"`
	} `koanf:"otp"`

	Checkout struct {
		SessionTTL    time.Duration `koanf:"session_ttl"`
		StockPolicy   string        `koanf:"stock_policy"`
		SweepInterval time.Duration `koanf:"sweep_interval"`
	} `koanf:"checkout"`
}

func defaults() Config {
	var c Config
	c.ServiceName = "storefront"
	c.Server.Port = 8080
	c.Server.ReadTimeout = 10 * time.Second
	c.Server.WriteTimeout = 15 * time.Second
	c.Server.IdleTimeout = 60 * time.Second
	c.Log.Level = "info"
	c.JWT.AccessTTL = 15 * time.Minute
	c.JWT.RefreshTTL = 7 * 24 * time.Hour
	c.Redis.Addr = "localhost:6379"
	c.Elastic.Index = "products"
	c.Mongo.Database = "storefront"
	c.Payment.APIURL = "https://api.zarinpal.com/pg/v4/payment"
	c.Payment.StartPayURL = "https://www.zarinpal.com/pg/StartPay/"
	c.Payment.Timeout = 15 * time.Second
	c.OTP.TTL = 2 * time.Minute
	c.OTP.Length = 5
	c.OTP.MaxAttempts = 5
	c.Checkout.SessionTTL = 30 * time.Minute
	c.Checkout.StockPolicy = "reject"
	c.Checkout.SweepInterval = time.Minute
	return c
}

// Load reads .env (if present), then an optional YAML file named by
// CONFIG_FILE, then SHOP_* environment variables. Nested keys use "__",
// e.g. SHOP_DATABASE__URL or SHOP_CHECKOUT__SESSION_TTL.
func Load() (Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("notice: .env file not found, using system environment variables")
	}

	k := koanf.New(".")

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return Config{}, fmt.Errorf("load %s: %w", path, err)
		}
	}

	if err := k.Load(env.ProviderWithValue(envPrefix, ".", envKey), nil); err != nil {
		return Config{}, fmt.Errorf("env overlay: %w", err)
	}

	cfg := defaults()
	if err := k.Unmarshal("", &cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envKey(key, value string) (string, any) {
	key = strings.TrimPrefix(key, envPrefix)
	key = strings.ToLower(strings.ReplaceAll(key, "__", "."))
	if key == "kafka.brokers" {
		return key, CSV(value)
	}
	return key, value
}

func (c Config) Validate() error {
	switch c.Checkout.StockPolicy {
	case "reject", "skip":
	default:
		return fmt.Errorf("checkout.stock_policy must be reject or skip, got %q", c.Checkout.StockPolicy)
	}
	if c.Checkout.SessionTTL <= 0 {
		return fmt.Errorf("checkout.session_ttl must be positive")
	}
	if c.OTP.Length < 4 || c.OTP.Length > 8 {
		return fmt.Errorf("otp.length must be between 4 and 8")
	}
	return nil
}

func (c Config) Addr() string {
	return ":" + strconv.Itoa(c.Server.Port)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}
