package config

import (
	"fmt"
	"time"
)

// Deployment modes. Mode selects the invite landing page and log format.
const (
	ModeDevelopment = "development"
	ModeProduction  = "production"
)

// Config holds server configuration values.
type Config struct {
	Addr              string        `mapstructure:"addr" yaml:"addr"`
	Mode              string        `mapstructure:"mode" yaml:"mode"`
	LogLevel          string        `mapstructure:"log_level" yaml:"log_level"`
	ReadHeaderTimeout time.Duration `mapstructure:"read_header_timeout" yaml:"read_header_timeout"`
	ShutdownTimeout   time.Duration `mapstructure:"shutdown_timeout" yaml:"shutdown_timeout"`

	MaxMessageBytes    int64 `mapstructure:"max_message_bytes" yaml:"max_message_bytes"`
	MessagesPerMinute  int   `mapstructure:"messages_per_minute" yaml:"messages_per_minute"`
	ClientBuffer       int   `mapstructure:"client_buffer" yaml:"client_buffer"`
	DefaultMemberLimit int   `mapstructure:"default_member_limit" yaml:"default_member_limit"`

	AllowedOrigins []string `mapstructure:"allowed_origins" yaml:"allowed_origins"`
	StaticPath     string   `mapstructure:"static_path" yaml:"static_path"`
}

// Default returns configuration with reasonable starter defaults.
func Default() Config {
	return Config{
		Addr:               ":4000",
		Mode:               ModeDevelopment,
		LogLevel:           "info",
		ReadHeaderTimeout:  5 * time.Second,
		ShutdownTimeout:    5 * time.Second,
		MaxMessageBytes:    64 << 10,
		MessagesPerMinute:  120,
		ClientBuffer:       64,
		DefaultMemberLimit: 2,
		AllowedOrigins:     []string{"*"},
	}
}

// Development reports whether the server runs in development mode.
func (c Config) Development() bool {
	return c.Mode != ModeProduction
}

// Validate rejects values the server cannot run with.
func (c Config) Validate() error {
	if c.Mode != ModeDevelopment && c.Mode != ModeProduction {
		return fmt.Errorf("invalid mode %q", c.Mode)
	}
	if c.DefaultMemberLimit < 1 {
		return fmt.Errorf("default_member_limit must be at least 1, got %d", c.DefaultMemberLimit)
	}
	return nil
}

// UpdateFrom overwrites non-zero values from other config into receiver.
func (c *Config) UpdateFrom(other Config) {
	if other.Addr != "" {
		c.Addr = other.Addr
	}
	if other.Mode != "" {
		c.Mode = other.Mode
	}
	if other.LogLevel != "" {
		c.LogLevel = other.LogLevel
	}
	if other.ReadHeaderTimeout != 0 {
		c.ReadHeaderTimeout = other.ReadHeaderTimeout
	}
	if other.ShutdownTimeout != 0 {
		c.ShutdownTimeout = other.ShutdownTimeout
	}
	if other.MaxMessageBytes != 0 {
		c.MaxMessageBytes = other.MaxMessageBytes
	}
	if other.MessagesPerMinute != 0 {
		c.MessagesPerMinute = other.MessagesPerMinute
	}
	if other.ClientBuffer != 0 {
		c.ClientBuffer = other.ClientBuffer
	}
	if other.DefaultMemberLimit != 0 {
		c.DefaultMemberLimit = other.DefaultMemberLimit
	}
	if len(other.AllowedOrigins) > 0 {
		c.AllowedOrigins = other.AllowedOrigins
	}
	if other.StaticPath != "" {
		c.StaticPath = other.StaticPath
	}
}
