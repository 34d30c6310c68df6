// Package config loads the pipeline runtime configuration from YAML:
// storage backend, event bus sizing and alert rules. The risk formula
// itself takes no configuration — its weights are fixed on purpose.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the pipeline configuration.
const (
	DefaultEventBufferSize = 100
	DefaultRedisPoolSize   = 10
	DefaultRedisIdle       = Duration(5 * time.Minute)
)

// Duration wraps time.Duration so YAML values like "10m" parse; the
// yaml package has no native duration support.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Config is the top-level pipeline configuration.
type Config struct {
	// Storage selects and configures the snapshot store.
	Storage StorageConfig `yaml:"storage"`

	// EventBufferSize is the event bus channel capacity (default 100).
	EventBufferSize int `yaml:"event_buffer_size"`

	// Alerts are evaluated against every computed snapshot.
	Alerts []AlertRule `yaml:"alerts"`
}

// AlertRule defines one alert evaluated after each analysis run. It
// deliberately mirrors the pipeline's AlertRule instead of importing
// it: config stays a leaf package, and callers map the fields across
// the boundary.
type AlertRule struct {
	// Name is the human-readable alert identifier.
	Name string `yaml:"name"`

	// Condition is an expr boolean over the snapshot environment,
	// e.g. "overall >= 0.7", "bottlenecks > 2 && timing > 0.5".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is one of: memory | redis. Default memory.
	Backend string `yaml:"backend"`

	// Redis applies when Backend is "redis".
	Redis RedisConfig `yaml:"redis"`
}

// RedisConfig holds connection settings for the redis backend.
type RedisConfig struct {
	Addr string `yaml:"addr"`

	// PasswordEnv names the environment variable holding the password.
	PasswordEnv string `yaml:"password_env"`

	DB           int      `yaml:"db"`
	PoolSize     int      `yaml:"pool_size"`
	MinIdleConns int      `yaml:"min_idle_conns"`
	IdleTimeout  Duration `yaml:"idle_timeout"`
}

// Password returns the redis password resolved from the environment.
func (r RedisConfig) Password() string {
	if r.PasswordEnv == "" {
		return ""
	}
	return os.Getenv(r.PasswordEnv)
}

// Load reads and parses the config file at path. Missing fields are
// filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("pipeline config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("pipeline config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("pipeline config: %w", err)
	}

	return cfg, nil
}

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Storage: StorageConfig{
			Backend: "memory",
			Redis: RedisConfig{
				PoolSize:    DefaultRedisPoolSize,
				IdleTimeout: DefaultRedisIdle,
			},
		},
		EventBufferSize: DefaultEventBufferSize,
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	switch cfg.Storage.Backend {
	case "memory", "redis", "":
	default:
		return fmt.Errorf("storage.backend %q unknown: want memory|redis", cfg.Storage.Backend)
	}
	if cfg.Storage.Backend == "redis" && cfg.Storage.Redis.Addr == "" {
		return fmt.Errorf("storage.redis.addr is required for the redis backend")
	}
	if cfg.EventBufferSize <= 0 {
		return fmt.Errorf("event_buffer_size must be positive, got %d", cfg.EventBufferSize)
	}
	for i, a := range cfg.Alerts {
		if a.Name == "" {
			return fmt.Errorf("alerts[%d]: name is required", i)
		}
		if a.Condition == "" {
			return fmt.Errorf("alert %q: condition is required", a.Name)
		}
		switch a.Severity {
		case "critical", "warning", "info", "":
		default:
			return fmt.Errorf("alert %q: severity %q unknown: want critical|warning|info", a.Name, a.Severity)
		}
	}
	return nil
}
