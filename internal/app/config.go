package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
)

// Config holds the complete application configuration, loadable from
// environment variables (VARAHA_ prefix), flags, or YAML config files.
type Config struct {
	Addr    string `default:"0.0.0.0:8080" usage:"API server listen address"`
	SiteURL string `default:"http://localhost:3000" usage:"Public storefront URL used for payment callbacks" flag:"site-url"`

	Storage   StorageConfig
	Razorpay  RazorpayConfig
	Invoice   InvoiceConfig
	Kafka     KafkaConfig
	RateLimit RateLimitConfig
	CORS      CORSConfig
	Graceful  GracefulConfig
}

// StorageConfig selects and configures the order ledger backend.
type StorageConfig struct {
	Driver      string `default:"jsonfile" usage:"Order storage driver (jsonfile or postgres)"`
	DataDir     string `default:"data" usage:"Directory for JSON collection files" flag:"data-dir"`
	DatabaseURL string `usage:"PostgreSQL connection URL (postgres driver only)" flag:"database-url"`
}

// RazorpayConfig holds the hosted payment gateway credentials.
type RazorpayConfig struct {
	KeyID     string        `usage:"Razorpay key id (VARAHA_RAZORPAY_KEY_ID or RAZORPAY_KEY_ID)" flag:"razorpay-key-id"`
	KeySecret string        `usage:"Razorpay key secret" flag:"razorpay-key-secret"`
	BaseURL   string        `default:"https://api.razorpay.com" usage:"Gateway API base URL" flag:"razorpay-base-url"`
	Timeout   time.Duration `default:"10s" usage:"Gateway request timeout" flag:"razorpay-timeout"`
}

// InvoiceConfig controls PDF invoice output.
type InvoiceConfig struct {
	Dir string `default:"invoices" usage:"Directory for generated invoice PDFs" flag:"invoice-dir"`
}

// KafkaConfig controls the optional order event stream. Publishing is
// disabled when no brokers are configured.
type KafkaConfig struct {
	Brokers []string `usage:"Kafka seed brokers for order events (empty disables publishing)"`
	Topic   string   `default:"storefront.orders" usage:"Topic for order events"`
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "VARAHA",
		Files:     []string{"config.yaml", "/etc/varaha/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.Storage.Driver == "postgres" && cfg.Storage.DatabaseURL == "" {
		return nil, errors.New("database URL is required for the postgres driver: set VARAHA_STORAGE_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables
// (Railway, Render, etc.) and the gateway's conventional variable names onto
// the VARAHA_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.Storage.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.Storage.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
	if c.Razorpay.KeyID == "" {
		c.Razorpay.KeyID = os.Getenv("RAZORPAY_KEY_ID")
	}
	if c.Razorpay.KeySecret == "" {
		c.Razorpay.KeySecret = os.Getenv("RAZORPAY_KEY_SECRET")
	}
}
