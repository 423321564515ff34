package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

var ErrEmptyJWTSecret = errors.New(
	"error getting BW_JWT_SECRET: variable not specified or contains an empty string",
)

const envLocal = "local"

type Config struct {
	Env         string // Env is the current environment: local, development, production.
	StoragePath string
	HTTPAddr    string
	Catalog     Catalog
	Scorer      Scorer
	Cache       Cache
	JWT         JWT
	Tg          Telegram
}

// Catalog describes the third-party product catalog API.
type Catalog struct {
	BaseURL    string
	APIKey     string
	APIHost    string
	Country    string
	Timeout    time.Duration // Timeout bounds one call including the limiter wait.
	RatePerSec float64
	Burst      int
}

// Scorer describes the external analysis collaborator.
type Scorer struct {
	Enabled bool
	URL     string
	Timeout time.Duration
}

type Cache struct {
	TTL           time.Duration // TTL is used by the analyze and search pipelines.
	DirectTTL     time.Duration // DirectTTL is used by direct cache writes.
	SweepInterval time.Duration // SweepInterval of zero disables the sweeper.
}

type JWT struct {
	Secret string
	Issuer string
}

type Telegram struct {
	Token   string        // Token is an unique telgram bot token. Empty disables alerts.
	Timeout time.Duration // Timeout is a poller timeout duration.
}

// MustLoad loads the configuration from environment variables and returns a Config struct.
func MustLoad() *Config {
	// Automatically binds environment variables to config keys
	viper.SetEnvPrefix("BW")
	viper.AutomaticEnv()

	// optional args
	viper.SetDefault("ENV", "production")
	viper.SetDefault("STORAGE_PATH", "./storage/buywise.db")
	viper.SetDefault("HTTP_ADDR", ":8080")
	viper.SetDefault("CATALOG_BASE_URL", "https://real-time-amazon-data.p.rapidapi.com")
	viper.SetDefault("CATALOG_API_HOST", "real-time-amazon-data.p.rapidapi.com")
	viper.SetDefault("CATALOG_COUNTRY", "IN")
	viper.SetDefault("CATALOG_TIMEOUT", "15s")
	viper.SetDefault("CATALOG_RATE_PER_SEC", 1.0)
	viper.SetDefault("CATALOG_BURST", 3)
	viper.SetDefault("SCORER_ENABLED", false)
	viper.SetDefault("SCORER_URL", "http://localhost:8000/analyze")
	viper.SetDefault("SCORER_TIMEOUT", "30s")
	viper.SetDefault("CACHE_TTL", "12h")
	viper.SetDefault("CACHE_DIRECT_TTL", "24h")
	viper.SetDefault("CACHE_SWEEP_INTERVAL", "1h")
	viper.SetDefault("JWT_ISSUER", "buywise")
	viper.SetDefault("TELEGRAM_TIMEOUT", "15s")

	env := viper.GetString("ENV")
	if env != envLocal && viper.GetString("JWT_SECRET") == "" {
		panic(ErrEmptyJWTSecret)
	}

	return &Config{
		Env:         env,
		StoragePath: viper.GetString("STORAGE_PATH"),
		HTTPAddr:    viper.GetString("HTTP_ADDR"),
		Catalog: Catalog{
			BaseURL:    viper.GetString("CATALOG_BASE_URL"),
			APIKey:     viper.GetString("CATALOG_API_KEY"),
			APIHost:    viper.GetString("CATALOG_API_HOST"),
			Country:    viper.GetString("CATALOG_COUNTRY"),
			Timeout:    viper.GetDuration("CATALOG_TIMEOUT"),
			RatePerSec: viper.GetFloat64("CATALOG_RATE_PER_SEC"),
			Burst:      viper.GetInt("CATALOG_BURST"),
		},
		Scorer: Scorer{
			Enabled: viper.GetBool("SCORER_ENABLED"),
			URL:     viper.GetString("SCORER_URL"),
			Timeout: viper.GetDuration("SCORER_TIMEOUT"),
		},
		Cache: Cache{
			TTL:           viper.GetDuration("CACHE_TTL"),
			DirectTTL:     viper.GetDuration("CACHE_DIRECT_TTL"),
			SweepInterval: viper.GetDuration("CACHE_SWEEP_INTERVAL"),
		},
		JWT: JWT{
			Secret: viper.GetString("JWT_SECRET"),
			Issuer: viper.GetString("JWT_ISSUER"),
		},
		Tg: Telegram{
			Token:   viper.GetString("TELEGRAM_TOKEN"),
			Timeout: viper.GetDuration("TELEGRAM_TIMEOUT"),
		},
	}
}
