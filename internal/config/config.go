// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"encoding/hex"
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// BackendBaseURL is the base URL of the marketplace API (e.g. https://api.example.com). Required.
	BackendBaseURL string `mapstructure:"BACKEND_BASE_URL"`
	// HTTPTimeout is the per-request timeout for backend calls (e.g. "15s").
	HTTPTimeout string `mapstructure:"HTTP_TIMEOUT"`
	// OTLPEndpoint is the OTLP gRPC endpoint for telemetry (e.g. localhost:4317). Empty disables telemetry.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// OTLPInsecure disables TLS on the OTLP connection; for local collectors.
	OTLPInsecure bool `mapstructure:"OTLP_INSECURE"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
	// SessionFile is the path where the sealed session is stored across restarts.
	SessionFile string `mapstructure:"SESSION_FILE"`
	// SessionSealKey is the hex-encoded 32-byte key sealing the session file. Empty disables persistence.
	SessionSealKey string `mapstructure:"SESSION_SEAL_KEY"`
	// ResendSeconds is the OTP resend countdown in seconds.
	ResendSeconds int `mapstructure:"RESEND_SECONDS"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("BACKEND_BASE_URL", "")
	v.SetDefault("HTTP_TIMEOUT", "15s")
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("OTLP_INSECURE", false)
	v.SetDefault("APP_ENV", "")
	v.SetDefault("SESSION_FILE", ".session")
	v.SetDefault("SESSION_SEAL_KEY", "")
	v.SetDefault("RESEND_SECONDS", 30)

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.BackendBaseURL == "" {
		return nil, errors.New("config: BACKEND_BASE_URL must be set")
	}

	if cfg.ResendSeconds <= 0 {
		cfg.ResendSeconds = 30
	}

	if _, err := cfg.SealKey(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// HTTPTimeoutDuration parses HTTPTimeout as a time.Duration. Returns 15s if unset or invalid.
func (c *Config) HTTPTimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.HTTPTimeout)
	if err != nil || d <= 0 {
		return 15 * time.Second
	}
	return d
}

// SealKey decodes SessionSealKey. Returns (nil, nil) when unset, meaning
// session persistence is disabled.
func (c *Config) SealKey() ([]byte, error) {
	if c.SessionSealKey == "" {
		return nil, nil
	}
	key, err := hex.DecodeString(c.SessionSealKey)
	if err != nil {
		return nil, errors.New("config: SESSION_SEAL_KEY must be hex-encoded")
	}
	if len(key) != 32 {
		return nil, errors.New("config: SESSION_SEAL_KEY must decode to 32 bytes")
	}
	return key, nil
}
