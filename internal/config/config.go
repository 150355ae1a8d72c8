// Package config loads and validates the server's typed configuration
// tree from a JSON file, filling documented defaults for anything the
// file leaves out.
package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
)

// Config is the root configuration tree.
type Config struct {
	Server   ServerConfig   `json:"server" validate:"required"`
	Database DatabaseConfig `json:"database" validate:"required"`
	Logging  LoggingConfig  `json:"logging"`
	Cache    CacheConfig    `json:"cache"`
	Sync     SyncConfig     `json:"sync"`
	Stream   StreamConfig   `json:"stream"`
}

// ServerConfig controls the HTTP control-surface listener.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         string `json:"port" validate:"required"`
	ReadTimeout  int    `json:"read_timeout"`
	WriteTimeout int    `json:"write_timeout"`
	IdleTimeout  int    `json:"idle_timeout"`
}

// DatabaseConfig selects and configures the embedded database connection.
type DatabaseConfig struct {
	Driver         string `json:"driver" validate:"oneof=sqlite postgres"`
	DSN            string `json:"dsn" validate:"required"`
	EncryptionKey  string `json:"encryption_key,omitempty"`
	MaxOpenConns   int    `json:"max_open_conns"`
	MaxIdleConns   int    `json:"max_idle_conns"`
}

// LoggingConfig configures the zap logger.
type LoggingConfig struct {
	Level  string `json:"level" validate:"omitempty,oneof=debug info warn error"`
	Format string `json:"format" validate:"omitempty,oneof=json console"`
}

// CacheConfig configures the TTL/singleflight cache fronting provider reads.
type CacheConfig struct {
	Backend       string `json:"backend" validate:"omitempty,oneof=memory redis"`
	RedisAddr     string `json:"redis_addr,omitempty"`
	DefaultTTLSec int    `json:"default_ttl_seconds"`
	SearchTTLSec  int    `json:"search_ttl_seconds"`
}

// SyncConfig controls the periodic provider synchronisation engine.
type SyncConfig struct {
	IntervalSeconds int `json:"interval_seconds"`
}

// StreamConfig controls the Stream Coordinator and the external stream
// endpoint it hands transport URLs to.
type StreamConfig struct {
	Host                string  `json:"host"`
	Port                int     `json:"port"`
	NormalizationEnabled bool   `json:"normalization_enabled"`
	TargetVolumeLUFS    float64 `json:"target_volume_lufs"`
	FallbackGain        float64 `json:"fallback_gain"`
}

var validate = validator.New()

// Defaults returns a Config with the documented defaults applied.
func Defaults() Config {
	return Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         "8095",
			ReadTimeout:  30,
			WriteTimeout: 30,
			IdleTimeout:  60,
		},
		Database: DatabaseConfig{
			Driver:       "sqlite",
			DSN:          "harmonia.db",
			MaxOpenConns: 1,
			MaxIdleConns: 1,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Cache: CacheConfig{
			Backend:       "memory",
			DefaultTTLSec: 300,
			SearchTTLSec:  7 * 24 * 3600,
		},
		Sync: SyncConfig{
			IntervalSeconds: 3 * 3600,
		},
		Stream: StreamConfig{
			Host:                "0.0.0.0",
			Port:                8096,
			NormalizationEnabled: true,
			TargetVolumeLUFS:    -14,
			FallbackGain:        0,
		},
	}
}

// Load reads and validates configuration from path. The file is decoded
// over Defaults(), so fields it leaves out keep their default values.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("config: invalid: %w", err)
	}
	return &cfg, nil
}

// Address returns the HTTP control surface's listen address.
func (c *Config) Address() string {
	return fmt.Sprintf("%s:%s", c.Server.Host, c.Server.Port)
}

// StreamAddress returns the stream endpoint's listen address.
func (c *Config) StreamAddress() string {
	return fmt.Sprintf("%s:%d", c.Stream.Host, c.Stream.Port)
}
