package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server        ServerConfig        `mapstructure:"server"`
	Checkout      CheckoutConfig      `mapstructure:"checkout"`
	Webhooks      WebhookConfig       `mapstructure:"webhooks"`
	Retrieval     RetrievalConfig     `mapstructure:"retrieval"`
	Portal        PortalConfig        `mapstructure:"portal"`
	Session       SessionConfig       `mapstructure:"session"`
	Observability ObservabilityConfig `mapstructure:"observability"`
	InstanceID    string              `mapstructure:"instance_id"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	IdleTimeout     time.Duration `mapstructure:"idle_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimitPerMin int           `mapstructure:"rate_limit_per_min"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
}

// CheckoutConfig configures the hosted payment widget. The public key is a
// publishable key, safe to hand to the page.
type CheckoutConfig struct {
	PublicKey      string `mapstructure:"public_key"`
	Currency       string `mapstructure:"currency"`
	DefaultCountry string `mapstructure:"default_country"`
}

// WebhookConfig holds the externally-owned endpoints this service calls.
// CodeManualURL falls back to CodeAutoURL when left empty; the upstream
// workflow currently serves both from one address.
type WebhookConfig struct {
	CodeAutoURL    string        `mapstructure:"code_auto_url"`
	CodeManualURL  string        `mapstructure:"code_manual_url"`
	PersistenceURL string        `mapstructure:"persistence_url"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

type RetrievalConfig struct {
	MaxAttempts int           `mapstructure:"max_attempts"`
	RetryDelay  time.Duration `mapstructure:"retry_delay"`
}

// PortalConfig carries the captive-portal handoff and the support contacts
// shown next to a resolved code.
type PortalConfig struct {
	URL             string `mapstructure:"url"`
	NetworkName     string `mapstructure:"network_name"`
	SupportEmail    string `mapstructure:"support_email"`
	SupportWhatsApp string `mapstructure:"support_whatsapp"`
}

type SessionConfig struct {
	TTL           time.Duration `mapstructure:"ttl"`
	SweepInterval time.Duration `mapstructure:"sweep_interval"`
}

type ObservabilityConfig struct {
	LogLevel       string `mapstructure:"log_level"`
	JaegerEndpoint string `mapstructure:"jaeger_endpoint"`
	EnableMetrics  bool   `mapstructure:"enable_metrics"`
	EnableTracing  bool   `mapstructure:"enable_tracing"`
}

func Load() (*Config, error) {
	v := viper.New()

	setDefaults(v)

	v.SetEnvPrefix("WIFIPASS")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("/etc/wifipass")

	// Config file is optional
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if cfg.Webhooks.CodeManualURL == "" {
		cfg.Webhooks.CodeManualURL = cfg.Webhooks.CodeAutoURL
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.ReadTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.read_timeout must be positive"))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("server.write_timeout must be positive"))
	}
	if c.Checkout.PublicKey == "" {
		errs = append(errs, fmt.Errorf("checkout.public_key is required"))
	}
	if err := validateURL("webhooks.code_auto_url", c.Webhooks.CodeAutoURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("webhooks.code_manual_url", c.Webhooks.CodeManualURL); err != nil {
		errs = append(errs, err)
	}
	if err := validateURL("webhooks.persistence_url", c.Webhooks.PersistenceURL); err != nil {
		errs = append(errs, err)
	}
	if c.Webhooks.RequestTimeout <= 0 {
		errs = append(errs, fmt.Errorf("webhooks.request_timeout must be positive"))
	}
	if c.Retrieval.MaxAttempts <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.max_attempts must be positive"))
	}
	if c.Retrieval.RetryDelay <= 0 {
		errs = append(errs, fmt.Errorf("retrieval.retry_delay must be positive"))
	}
	if c.Session.TTL <= 0 {
		errs = append(errs, fmt.Errorf("session.ttl must be positive"))
	}

	return errors.Join(errs...)
}

func validateURL(key, raw string) error {
	if raw == "" {
		return fmt.Errorf("%s is required", key)
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s must be an absolute URL, got %q", key, raw)
	}
	return nil
}

func setDefaults(v *viper.Viper) {
	// Server defaults
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "15s")
	v.SetDefault("server.idle_timeout", "120s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.rate_limit_per_min", 60)
	v.SetDefault("server.cors.allowed_origins", []string{"*"})
	v.SetDefault("server.cors.allow_credentials", false)

	// Checkout defaults. Empty-string defaults register the keys so
	// environment-only values survive Unmarshal.
	v.SetDefault("checkout.public_key", "")
	v.SetDefault("checkout.currency", "XOF")
	v.SetDefault("checkout.default_country", "BJ")

	// Webhook defaults
	v.SetDefault("webhooks.code_auto_url", "")
	v.SetDefault("webhooks.code_manual_url", "")
	v.SetDefault("webhooks.persistence_url", "")
	v.SetDefault("webhooks.request_timeout", "10s")

	// Retrieval defaults. Three attempts spaced three seconds apart covers
	// the upstream workflow's usual code-generation latency.
	v.SetDefault("retrieval.max_attempts", 3)
	v.SetDefault("retrieval.retry_delay", "3s")

	// Portal defaults
	v.SetDefault("portal.url", "http://fina.spot/")
	v.SetDefault("portal.network_name", "Fina Digital Spot")
	v.SetDefault("portal.support_email", "finadigitalzone1@gmail.com")
	v.SetDefault("portal.support_whatsapp", "+22997197316")

	// Session defaults
	v.SetDefault("session.ttl", "30m")
	v.SetDefault("session.sweep_interval", "5m")

	// Observability defaults
	v.SetDefault("observability.log_level", "info")
	v.SetDefault("observability.jaeger_endpoint", "http://localhost:14268/api/traces")
	v.SetDefault("observability.enable_metrics", true)
	v.SetDefault("observability.enable_tracing", false)

	// Instance ID
	v.SetDefault("instance_id", "wifipass-1")
}
