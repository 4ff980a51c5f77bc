// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// WSAddr is the address the websocket gateway listens on (e.g. :8080).
	WSAddr string `mapstructure:"WS_ADDR"`
	// DatabaseURL is the Postgres DSN for the session status and audit stores.
	// Empty means in-memory stores (dev and tests only).
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AllowOrigins is a comma-separated list of origin patterns accepted for
	// cross-origin websocket connections. Empty means same-origin only.
	AllowOrigins string `mapstructure:"ALLOW_ORIGINS"`
	// JWTPublicKey is the PEM-encoded public key or path to file. When set,
	// register frames must carry a token signed by the matching private key.
	JWTPublicKey string `mapstructure:"JWT_PUBLIC_KEY"`
	// JWTIssuer is the expected iss claim; required when JWTPublicKey is set.
	JWTIssuer string `mapstructure:"JWT_ISSUER"`
	// JWTAudience is the expected aud claim; required when JWTPublicKey is set.
	JWTAudience string `mapstructure:"JWT_AUDIENCE"`
	// ArbitrationTimeout is how long a session may stay pending_approval before
	// it is auto-denied (e.g. "60s"). "0" disables the timeout.
	ArbitrationTimeout string `mapstructure:"ARBITRATION_TIMEOUT"`
	// OTLPEndpoint is the OTLP gRPC collector endpoint for telemetry
	// (e.g. http://localhost:4317). Empty disables telemetry export.
	OTLPEndpoint string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	// OTLPInsecure forces plaintext OTLP export even for https endpoints
	// (standard OTEL_EXPORTER_OTLP_INSECURE behavior).
	OTLPInsecure bool `mapstructure:"OTEL_EXPORTER_OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("WS_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ALLOW_ORIGINS", "")
	v.SetDefault("JWT_PUBLIC_KEY", "")
	v.SetDefault("JWT_ISSUER", "asg-auth")
	v.SetDefault("JWT_AUDIENCE", "asg-gateway")
	v.SetDefault("ARBITRATION_TIMEOUT", "0")
	v.SetDefault("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	v.SetDefault("OTEL_EXPORTER_OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.WSAddr == "" {
		return nil, errors.New("config: WS_ADDR must be set")
	}

	if cfg.ArbitrationTimeout != "" && cfg.ArbitrationTimeout != "0" {
		d, err := time.ParseDuration(cfg.ArbitrationTimeout)
		if err != nil {
			return nil, errors.New("config: ARBITRATION_TIMEOUT must be a duration (e.g. 60s) or 0")
		}
		if d < 0 {
			return nil, errors.New("config: ARBITRATION_TIMEOUT must not be negative")
		}
	}

	return &cfg, nil
}

// ArbitrationTimeoutDuration parses ArbitrationTimeout as a time.Duration.
// Returns 0 (disabled) if unset, "0", or invalid.
func (c *Config) ArbitrationTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.ArbitrationTimeout)
	if err != nil || d <= 0 {
		return 0
	}
	return d
}

// AllowOriginsList returns origin patterns from the comma-separated config.
// Empty list means same-origin only.
func (c *Config) AllowOriginsList() []string {
	if c == nil || c.AllowOrigins == "" {
		return nil
	}
	parts := strings.Split(c.AllowOrigins, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
