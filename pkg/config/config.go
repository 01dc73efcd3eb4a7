// Package config loads keyseq settings from YAML, TOML or JSON files with
// KEYSEQ_* environment overrides.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aretw0/keyseq/internal/logging"
	"github.com/aretw0/keyseq/pkg/domain"
	"github.com/aretw0/keyseq/pkg/persistence/middleware"
)

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("invalid config")

// Store drivers.
const (
	DriverMemory = "memory"
	DriverFile   = "file"
	DriverRedis  = "redis"
)

// Config is the full set of CLI and server settings.
type Config struct {
	Sequence        string        `mapstructure:"sequence" yaml:"sequence" json:"sequence"`
	Keys            []string      `mapstructure:"keys" yaml:"keys,omitempty" json:"keys,omitempty"`
	Timeout         time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
	ResetOnMismatch bool          `mapstructure:"reset_on_mismatch" yaml:"reset_on_mismatch" json:"reset_on_mismatch"`
	Once            bool          `mapstructure:"once" yaml:"once" json:"once"`
	Gamepad         GamepadConfig `mapstructure:"gamepad" yaml:"gamepad" json:"gamepad"`
	Exec            ExecConfig    `mapstructure:"exec" yaml:"exec" json:"exec"`
	Store           StoreConfig   `mapstructure:"store" yaml:"store" json:"store"`
	Server          ServerConfig  `mapstructure:"server" yaml:"server" json:"server"`
	Log             LogConfig     `mapstructure:"log" yaml:"log" json:"log"`
}

type GamepadConfig struct {
	Enabled      bool          `mapstructure:"enabled" yaml:"enabled" json:"enabled"`
	Devices      []string      `mapstructure:"devices" yaml:"devices,omitempty" json:"devices,omitempty"`
	PollInterval time.Duration `mapstructure:"poll_interval" yaml:"poll_interval" json:"poll_interval"`
	Threshold    float64       `mapstructure:"threshold" yaml:"threshold" json:"threshold"`
}

// ExecConfig is the command run after every match.
type ExecConfig struct {
	Command string        `mapstructure:"command" yaml:"command,omitempty" json:"command,omitempty"`
	Args    []string      `mapstructure:"args" yaml:"args,omitempty" json:"args,omitempty"`
	Timeout time.Duration `mapstructure:"timeout" yaml:"timeout" json:"timeout"`
}

type StoreConfig struct {
	Driver     string           `mapstructure:"driver" yaml:"driver" json:"driver"`
	Path       string           `mapstructure:"path" yaml:"path" json:"path"`
	Redis      RedisConfig      `mapstructure:"redis" yaml:"redis" json:"redis"`
	Encryption EncryptionConfig `mapstructure:"encryption" yaml:"encryption" json:"encryption"`
}

// EncryptionConfig holds base64 AES-256 keys. An empty Key stores
// definitions in plain text.
type EncryptionConfig struct {
	Key          string   `mapstructure:"key" yaml:"key,omitempty" json:"key,omitempty"`
	FallbackKeys []string `mapstructure:"fallback_keys" yaml:"fallback_keys,omitempty" json:"fallback_keys,omitempty"`
}

type RedisConfig struct {
	Addr     string        `mapstructure:"addr" yaml:"addr" json:"addr"`
	Password string        `mapstructure:"password" yaml:"password,omitempty" json:"password,omitempty"`
	DB       int           `mapstructure:"db" yaml:"db" json:"db"`
	Prefix   string        `mapstructure:"prefix" yaml:"prefix" json:"prefix"`
	TTL      time.Duration `mapstructure:"ttl" yaml:"ttl" json:"ttl"`
}

type ServerConfig struct {
	Addr    string `mapstructure:"addr" yaml:"addr" json:"addr"`
	Metrics bool   `mapstructure:"metrics" yaml:"metrics" json:"metrics"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level" json:"level"`
	Format string `mapstructure:"format" yaml:"format" json:"format"`
}

// Default returns the settings used when no file is present.
func Default() Config {
	return Config{
		Sequence:        "konami",
		Timeout:         5 * time.Second,
		ResetOnMismatch: true,
		Gamepad: GamepadConfig{
			PollInterval: time.Second / 60,
			Threshold:    0.5,
		},
		Exec: ExecConfig{
			Timeout: 30 * time.Second,
		},
		Store: StoreConfig{
			Driver: DriverFile,
			Path:   ".keyseq/sequences",
			Redis: RedisConfig{
				Addr:   "localhost:6379",
				Prefix: "keyseq:sequence:",
			},
		},
		Server: ServerConfig{
			Addr:    ":8080",
			Metrics: true,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Definition returns the sequence the listener should watch. Explicit keys
// win over the sequence name; the name is then only a label.
func (c Config) Definition() (domain.Definition, bool) {
	if len(c.Keys) > 0 {
		name := c.Sequence
		if name == "" {
			name = "custom"
		}
		return domain.Definition{Name: name, Keys: c.Keys}, true
	}
	return domain.Definition{Name: c.Sequence}, false
}

// Validate checks the settings that cannot be caught while decoding.
func (c Config) Validate() error {
	var errs []error
	if c.Sequence == "" && len(c.Keys) == 0 {
		errs = append(errs, errors.New("sequence or keys is required"))
	}
	if len(c.Keys) > 0 {
		if err := domain.Sequence(c.Keys).Validate(); err != nil {
			errs = append(errs, fmt.Errorf("keys: %w", err))
		}
	}
	if c.Gamepad.Threshold < 0 || c.Gamepad.Threshold > 1 {
		errs = append(errs, fmt.Errorf("gamepad.threshold %v out of range [0,1]", c.Gamepad.Threshold))
	}
	if c.Gamepad.PollInterval < 0 {
		errs = append(errs, errors.New("gamepad.poll_interval must not be negative"))
	}
	switch strings.ToLower(c.Store.Driver) {
	case DriverMemory:
	case DriverFile:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the file driver"))
		}
	case DriverRedis:
		if c.Store.Redis.Addr == "" {
			errs = append(errs, errors.New("store.redis.addr is required for the redis driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store.driver %q", c.Store.Driver))
	}
	if c.Exec.Timeout < 0 {
		errs = append(errs, errors.New("exec.timeout must not be negative"))
	}
	if c.Store.Encryption.Key != "" {
		if _, err := middleware.ParseKey(c.Store.Encryption.Key); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption.key: %w", err))
		}
	} else if len(c.Store.Encryption.FallbackKeys) > 0 {
		errs = append(errs, errors.New("store.encryption.fallback_keys requires store.encryption.key"))
	}
	for i, k := range c.Store.Encryption.FallbackKeys {
		if _, err := middleware.ParseKey(k); err != nil {
			errs = append(errs, fmt.Errorf("store.encryption.fallback_keys[%d]: %w", i, err))
		}
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, fmt.Errorf("log.level: %w", err))
	}
	switch strings.ToLower(c.Log.Format) {
	case "text", "json":
	default:
		errs = append(errs, fmt.Errorf("unknown log.format %q", c.Log.Format))
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
}
