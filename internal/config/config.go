// Package config provides configuration loading for voicetask.
//
// Configuration is read from an optional YAML file and overridden by
// environment variables. See LoadWithFile for precedence rules.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete voicetask configuration.
type Config struct {
	Server     ServerConfig     `koanf:"server"`
	Auth       AuthConfig       `koanf:"auth"`
	Throttle   ThrottleConfig   `koanf:"throttle"`
	RateLimit  RateLimitConfig  `koanf:"ratelimit"`
	Capture    CaptureConfig    `koanf:"capture"`
	Validation ValidationConfig `koanf:"validation"`
	Extraction ExtractionConfig `koanf:"extraction"`
	Store      StoreConfig      `koanf:"store"`
	Logging    LoggingConfig    `koanf:"logging"`
	Telemetry  TelemetryConfig  `koanf:"telemetry"`
}

// ServerConfig holds HTTP server configuration.
type ServerConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"http_port"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	RequestTimeout  time.Duration `koanf:"request_timeout"`
}

// AuthConfig maps user IDs to the bearer tokens they authenticate with.
type AuthConfig struct {
	Tokens map[string]Secret `koanf:"tokens"`
}

// ThrottleConfig controls the minimum interval between submissions.
type ThrottleConfig struct {
	Window time.Duration `koanf:"window"`
}

// RateLimitConfig controls the server-side per-user token bucket.
type RateLimitConfig struct {
	Enabled bool    `koanf:"enabled"`
	RPS     float64 `koanf:"rps"`
	Burst   int     `koanf:"burst"`
}

// CaptureConfig controls voice capture sessions.
type CaptureConfig struct {
	MaxDuration time.Duration `koanf:"max_duration"`
}

// ValidationConfig holds input length bounds.
type ValidationConfig struct {
	MinLength int `koanf:"min_length"`
	MaxLength int `koanf:"max_length"`
}

// ExtractionConfig configures the intent extraction engine.
type ExtractionConfig struct {
	GazetteerPath  string `koanf:"gazetteer_path"`
	WatchGazetteer bool   `koanf:"watch_gazetteer"`
}

// StoreConfig selects where assembled drafts are handed off.
type StoreConfig struct {
	Driver      string        `koanf:"driver"` // "memory", "sqlite", "nats"
	SQLitePath  string        `koanf:"sqlite_path"`
	NATSURL     string        `koanf:"nats_url"`
	NATSSubject string        `koanf:"nats_subject"`
	NATSTimeout time.Duration `koanf:"nats_timeout"`
}

// LoggingConfig selects log level and encoding. The logging package owns
// the full logger configuration; these are the knobs exposed to operators.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
}

// TelemetryConfig holds the OpenTelemetry exporter settings.
type TelemetryConfig struct {
	Enabled     bool   `koanf:"enabled"`
	Endpoint    string `koanf:"endpoint"`
	Protocol    string `koanf:"protocol"` // "grpc" or "http/protobuf"
	Insecure    bool   `koanf:"insecure"`
	ServiceName string `koanf:"service_name"`
}

// Store drivers.
const (
	StoreMemory = "memory"
	StoreSQLite = "sqlite"
	StoreNATS   = "nats"
)

// Default returns a configuration populated with defaults.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Server port is not between 1 and 65535
//   - Shutdown timeout is not positive
//   - Validation bounds are inverted
//   - Store driver is unknown or missing its connection settings
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d (must be 1-65535)", c.Server.Port)
	}
	if c.Server.ShutdownTimeout <= 0 {
		return errors.New("shutdown timeout must be positive")
	}
	if c.Throttle.Window < 0 {
		return errors.New("throttle window cannot be negative")
	}
	if c.Capture.MaxDuration <= 0 {
		return errors.New("capture max duration must be positive")
	}
	if c.Validation.MinLength < 1 {
		return fmt.Errorf("validation min length must be >= 1, got %d", c.Validation.MinLength)
	}
	if c.Validation.MaxLength < c.Validation.MinLength {
		return fmt.Errorf("validation max length %d is below min length %d",
			c.Validation.MaxLength, c.Validation.MinLength)
	}
	if c.RateLimit.Enabled && (c.RateLimit.RPS <= 0 || c.RateLimit.Burst < 1) {
		return errors.New("rate limit requires rps > 0 and burst >= 1 when enabled")
	}
	for user, tok := range c.Auth.Tokens {
		if user == "" {
			return errors.New("auth token user id cannot be empty")
		}
		if !tok.IsSet() {
			return fmt.Errorf("auth token for user %q is empty", user)
		}
	}

	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("logging format must be 'json' or 'console', got %q", c.Logging.Format)
	}
	if c.Telemetry.Enabled && c.Telemetry.Endpoint == "" {
		return errors.New("telemetry endpoint is required when telemetry is enabled")
	}

	switch c.Store.Driver {
	case StoreMemory:
	case StoreSQLite:
		if c.Store.SQLitePath == "" {
			return errors.New("store.sqlite_path is required for the sqlite driver")
		}
	case StoreNATS:
		if c.Store.NATSURL == "" || c.Store.NATSSubject == "" {
			return errors.New("store.nats_url and store.nats_subject are required for the nats driver")
		}
	default:
		return fmt.Errorf("unknown store driver %q", c.Store.Driver)
	}

	return nil
}
