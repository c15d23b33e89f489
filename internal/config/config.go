package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

type Config struct {
	LogLevel string        `env:"LOG_LEVEL" envDefault:"info"`
	Server   ServerConfig  `envPrefix:"SERVER_"`
	Shopify  ShopifyConfig `envPrefix:"SHOPIFY_"`
	Listing  ListingConfig `envPrefix:"LISTING_"`
	Quota    QuotaConfig   `envPrefix:"QUOTA_"`
	Upload   UploadConfig  `envPrefix:"UPLOAD_"`
	CORS     CORSConfig    `envPrefix:"CORS_"`
	Kafka    KafkaConfig   `envPrefix:"KAFKA_"`
	Redis    RedisConfig   `envPrefix:"REDIS_"`
}

type ServerConfig struct {
	Port  string `env:"PORT" envDefault:"5000"`
	Host  string `env:"HOST" envDefault:"0.0.0.0"`
	Addr  string `env:"ADDR"`
	Pprof bool   `env:"PPROF" envDefault:"false"`
	// StatsdAddr enables per route timings when set, e.g. 127.0.0.1:8125.
	StatsdAddr string `env:"STATSD_ADDR"`
	Service    string `env:"SERVICE" envDefault:"listing-proxy"`
}

type ShopifyConfig struct {
	Store       string `env:"STORE"`
	AccessToken string `env:"ACCESS_TOKEN,required,notEmpty"`
	APIVersion  string `env:"API_VERSION" envDefault:"2023-10"`
	// BaseURL overrides https://<store>.myshopify.com/admin/api/<version>.
	BaseURL    string        `env:"BASE_URL"`
	Timeout    time.Duration `env:"TIMEOUT" envDefault:"30s"`
	MaxRetries int           `env:"MAX_RETRIES" envDefault:"0"`
	RateLimit  float64       `env:"RATE_LIMIT" envDefault:"2"`
	RateBurst  int           `env:"RATE_BURST" envDefault:"10"`
	PageSize   int           `env:"PAGE_SIZE" envDefault:"250"`
}

type ListingConfig struct {
	// OwnershipMatch is either "exact" or "substring".
	OwnershipMatch     string `env:"OWNERSHIP_MATCH" envDefault:"exact"`
	Compensate         bool   `env:"COMPENSATE" envDefault:"true"`
	MetafieldWorkers   int    `env:"METAFIELD_WORKERS" envDefault:"8"`
	MetafieldNamespace string `env:"METAFIELD_NAMESPACE" envDefault:"custom"`
}

type QuotaConfig struct {
	// Zero means unlimited.
	PrivateLimit int `env:"PRIVATE_LIMIT" envDefault:"2"`
	PublicLimit  int `env:"PUBLIC_LIMIT" envDefault:"0"`
	// Lock is one of "none", "local" or "redis".
	Lock    string        `env:"LOCK" envDefault:"local"`
	LockTTL time.Duration `env:"LOCK_TTL" envDefault:"30s"`
}

type UploadConfig struct {
	Dir         string `env:"DIR" envDefault:"uploads"`
	MaxFiles    int    `env:"MAX_FILES" envDefault:"5"`
	MaxFileSize int64  `env:"MAX_FILE_SIZE" envDefault:"20971520"` // 20MB
}

type CORSConfig struct {
	AllowOrigin string `env:"ALLOW_ORIGIN" envDefault:"^(http://127\\.0\\.0\\.1:9292|http://localhost:9292|https://[a-z0-9-]+\\.myshopify\\.com)$"`
}

type KafkaConfig struct {
	Enabled bool     `env:"ENABLED" envDefault:"false"`
	Brokers []string `env:"BROKERS" envSeparator:","`
	Topic   string   `env:"TOPIC" envDefault:"storefront.listing.events"`
}

type RedisConfig struct {
	URL string `env:"URL"`
}

func (c *Config) normalize() error {
	if c.Server.Addr == "" {
		c.Server.Addr = fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
	}
	if c.Shopify.BaseURL == "" {
		if c.Shopify.Store == "" {
			return fmt.Errorf("either SHOPIFY_STORE or SHOPIFY_BASE_URL is required")
		}
		c.Shopify.BaseURL = fmt.Sprintf("https://%s.myshopify.com/admin/api/%s", c.Shopify.Store, c.Shopify.APIVersion)
	}
	switch c.Listing.OwnershipMatch {
	case "exact", "substring":
	default:
		return fmt.Errorf("invalid LISTING_OWNERSHIP_MATCH %q", c.Listing.OwnershipMatch)
	}
	switch c.Quota.Lock {
	case "none", "local":
	case "redis":
		if c.Redis.URL == "" {
			return fmt.Errorf("QUOTA_LOCK=redis requires REDIS_URL")
		}
	default:
		return fmt.Errorf("invalid QUOTA_LOCK %q", c.Quota.Lock)
	}
	return nil
}

func Load() (*Config, error) {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, err
	}
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(fmt.Errorf("load config: %w", err))
	}
	return cfg
}
