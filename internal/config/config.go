package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	pkgconfig "github.com/brandcart/storefront/pkg/config"
)

// Config holds all configuration for the storefront.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`
	HTTPPort    int    `env:"STOREFRONT_HTTP_PORT" envDefault:"3000"`

	// Marketplace API and public site
	APIBaseURL     string        `env:"STOREFRONT_API_BASE_URL" envDefault:"http://localhost:8000"`
	APITimeout     time.Duration `env:"STOREFRONT_API_TIMEOUT" envDefault:"15s"`
	SiteURL        string        `env:"STOREFRONT_SITE_URL" envDefault:"https://brandcart.in"`
	RevalidateKey  string        `env:"STOREFRONT_REVALIDATE_KEY" envDefault:""`
	RequestTimeout time.Duration `env:"STOREFRONT_REQUEST_TIMEOUT" envDefault:"20s"`

	// Sessions
	SessionTTL   time.Duration `env:"SESSION_TTL" envDefault:"720h"`
	SessionIdle  time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"30m"`
	CookieSecure bool          `env:"COOKIE_SECURE" envDefault:"false"`

	// Redis (cart/wishlist mirror, response cache). Disabled falls back to
	// an in-process store.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisHost     string `env:"REDIS_HOST" envDefault:"localhost"`
	RedisPort     int    `env:"REDIS_PORT" envDefault:"6379"`
	RedisPassword string `env:"REDIS_PASSWORD" envDefault:""`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// OpenTelemetry
	OTELEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTELEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTELSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// /metrics and /debug/pprof allowlist in CIDR notation
	OpsAllowedCIDRs []string `env:"OPS_ALLOWED_CIDRS" envDefault:"10.0.0.0/8,172.16.0.0/12,192.168.0.0/16,127.0.0.0/8,::1/128" envSeparator:","`

	// Rate limiting
	RateLimitRPS   int `env:"RATE_LIMIT_RPS" envDefault:"50"`
	RateLimitBurst int `env:"RATE_LIMIT_BURST" envDefault:"100"`
	OTPPerMinute   int `env:"OTP_RATE_PER_MINUTE" envDefault:"3"`
}

// Load reads an optional .env file and then the environment.
func Load() (*Config, error) {
	if err := pkgconfig.LoadDotEnv(".env"); err != nil {
		return nil, fmt.Errorf("load storefront dotenv: %w", err)
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load storefront config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	cfg.APIBaseURL = strings.TrimRight(cfg.APIBaseURL, "/")
	cfg.SiteURL = strings.TrimRight(cfg.SiteURL, "/")
	return cfg, nil
}

func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	for name, raw := range map[string]string{
		"STOREFRONT_API_BASE_URL": c.APIBaseURL,
		"STOREFRONT_SITE_URL":     c.SiteURL,
	} {
		u, err := url.Parse(raw)
		if err != nil || u.Scheme == "" || u.Host == "" {
			return fmt.Errorf("%s must be an absolute URL, got %q", name, raw)
		}
	}
	if c.KafkaEnabled && len(c.KafkaBrokers) == 0 {
		return fmt.Errorf("KAFKA_BROKERS is required when KAFKA_ENABLED is set")
	}
	if c.OTELSampleRate < 0 || c.OTELSampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.OTELSampleRate)
	}
	if c.SessionIdle <= 0 {
		return fmt.Errorf("SESSION_IDLE_TIMEOUT must be positive")
	}
	if c.OTPPerMinute < 1 {
		return fmt.Errorf("OTP_RATE_PER_MINUTE must be at least 1")
	}
	if c.Environment == "production" && !c.CookieSecure {
		return fmt.Errorf("COOKIE_SECURE must be enabled in production")
	}
	return nil
}

// IsProduction reports whether the storefront runs in production.
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
