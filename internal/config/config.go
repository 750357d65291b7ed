// Package config loads gateway configuration from a YAML file with
// TENANTGATE_ environment overrides.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

// Config is the full gateway configuration.
type Config struct {
	LogLevel  string          `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
	Server    ServerConfig    `mapstructure:"server"`
	Upstream  UpstreamConfig  `mapstructure:"upstream"`
	Redis     RedisConfig     `mapstructure:"redis"`
	Policy    PolicyConfig    `mapstructure:"policy"`
	Session   SessionConfig   `mapstructure:"session"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Routes    RoutesConfig    `mapstructure:"routes"`
}

// ServerConfig controls the listening HTTP server.
type ServerConfig struct {
	Addr              string        `mapstructure:"addr" validate:"required"`
	ReadTimeout       time.Duration `mapstructure:"read_timeout" validate:"gt=0"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" validate:"gt=0"`
	WriteTimeout      time.Duration `mapstructure:"write_timeout" validate:"gt=0"`
	IdleTimeout       time.Duration `mapstructure:"idle_timeout" validate:"gt=0"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" validate:"gt=0"`
}

// UpstreamConfig points at the downstream application the gateway fronts.
type UpstreamConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// RedisConfig selects the distributed rate-limit store. With an empty Addr
// the gateway falls back to the in-process store.
type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db" validate:"min=0"`
}

// PolicyConfig points at the internal policy service.
type PolicyConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// SessionConfig holds the shared session-token secret.
type SessionConfig struct {
	Secret     string `mapstructure:"secret" validate:"required"`
	CookieName string `mapstructure:"cookie_name" validate:"required"`
}

// RateLimitConfig is the sensitive-route rule.
type RateLimitConfig struct {
	KeyPrefix string        `mapstructure:"key_prefix" validate:"required"`
	Max       int           `mapstructure:"max" validate:"gt=0"`
	Window    time.Duration `mapstructure:"window" validate:"gt=0"`
}

// RoutesConfig is the static route classification the pipeline consults.
// All entries are path prefixes except FeatureMap, which maps a prefix to
// the feature key gating it.
type RoutesConfig struct {
	Public        []string          `mapstructure:"public"`
	Sensitive     []string          `mapstructure:"sensitive"`
	BillingExempt []string          `mapstructure:"billing_exempt"`
	Auth          []string          `mapstructure:"auth"`
	BackOffice    []string          `mapstructure:"back_office"`
	Field         []string          `mapstructure:"field"`
	FeatureMap    map[string]string `mapstructure:"feature_map"`
	SignInPath    string            `mapstructure:"sign_in_path" validate:"required"`
	AppHomePath   string            `mapstructure:"app_home_path" validate:"required"`
	BillingPath   string            `mapstructure:"billing_path" validate:"required"`
}

// Load reads configuration from the given file (optional) and environment.
func Load(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")
	v.SetEnvPrefix("TENANTGATE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("log_level", "info")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 30*time.Second)
	v.SetDefault("server.read_header_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 30*time.Second)
	v.SetDefault("server.idle_timeout", 90*time.Second)
	v.SetDefault("server.shutdown_timeout", 15*time.Second)

	v.SetDefault("upstream.url", "http://127.0.0.1:3000")

	// Empty defaults keep env-only keys visible to Unmarshal.
	v.SetDefault("redis.addr", "")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)

	v.SetDefault("policy.base_url", "http://127.0.0.1:3000/api")
	v.SetDefault("policy.timeout", 1500*time.Millisecond)

	v.SetDefault("session.secret", "")
	v.SetDefault("session.cookie_name", "session")

	v.SetDefault("rate_limit.key_prefix", "ip-sensitive")
	v.SetDefault("rate_limit.max", 30)
	v.SetDefault("rate_limit.window", time.Minute)

	v.SetDefault("routes.public", []string{
		"/sign-in",
		"/api/auth",
		"/api/enforcement",
		"/health",
		"/metrics",
		"/_assets",
		"/favicon.ico",
	})
	v.SetDefault("routes.sensitive", []string{
		"/api/auth",
		"/api/messages",
		"/api/location",
		"/api/sales",
	})
	v.SetDefault("routes.billing_exempt", []string{
		"/api/payments",
		"/dashboard/settings",
	})
	v.SetDefault("routes.auth", []string{
		"/api/auth",
	})
	v.SetDefault("routes.back_office", []string{
		"/dashboard/hr",
		"/dashboard/inventory",
		"/dashboard/reports",
		"/api/staff",
		"/api/inventory",
	})
	v.SetDefault("routes.field", []string{
		"/field",
		"/api/location",
		"/api/pos",
	})
	v.SetDefault("routes.feature_map", map[string]string{
		"/dashboard/messaging": "messaging",
		"/api/messages":        "messaging",
		"/dashboard/pos":       "pos",
		"/api/pos":             "pos",
		"/dashboard/inventory": "inventory",
		"/api/inventory":       "inventory",
	})
	v.SetDefault("routes.sign_in_path", "/sign-in")
	v.SetDefault("routes.app_home_path", "/dashboard")
	v.SetDefault("routes.billing_path", "/dashboard/settings/billing")
}

func validate(cfg *Config) error {
	if err := validator.New().Struct(cfg); err != nil {
		return fmt.Errorf("config validation failed: %w", err)
	}
	return validateRoutes(&cfg.Routes)
}

// validateRoutes enforces cross-field rules the struct tags cannot express.
// A path in both role areas would admit nobody, since the role groups are
// disjoint.
func validateRoutes(routes *RoutesConfig) error {
	for _, b := range routes.BackOffice {
		for _, f := range routes.Field {
			if b == f {
				return fmt.Errorf("routes: %q is listed in both back_office and field", b)
			}
		}
	}
	return nil
}
