// Package config loads the gateway's YAML configuration: environment
// variable expansion followed by strict YAML decoding, with optional
// hot-reload of a subset of sections that are safe to swap under a
// running server.
package config

import (
	"fmt"
	"time"

	"github.com/haasonsaas/agentgateway/internal/ratelimit"
)

// Config is the gateway's top-level configuration.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Tools     ToolsConfig     `yaml:"tools"`
	Auth      AuthConfig      `yaml:"auth"`
	RateLimit RateLimitConfig `yaml:"rate_limit"`
	Security  SecurityConfig  `yaml:"security"`
	Registry  RegistryConfig  `yaml:"registry"`
}

// ServerConfig controls the HTTP listener.
type ServerConfig struct {
	Host             string        `yaml:"host"`
	Port             int           `yaml:"port"`
	ReadHeaderTimeout time.Duration `yaml:"read_header_timeout"`
	ShutdownTimeout  time.Duration `yaml:"shutdown_timeout"`
	AllowedOrigins   []string      `yaml:"allowed_origins"`
	LogLevel         string        `yaml:"log_level"`
	LogFormat        string        `yaml:"log_format"`
}

// RateLimitConfig wraps internal/ratelimit.Config for YAML decoding.
type RateLimitConfig struct {
	ratelimit.Config `yaml:",inline"`
}

// SecurityConfig configures the symmetric encryption used for
// at-rest credentials an operator's own store hands back to the
// gateway already encrypted.
type SecurityConfig struct {
	// EncryptionKeyEnv names the environment variable holding a
	// base64-encoded AES key (16/24/32 raw bytes). Never set the key
	// itself in the YAML file.
	EncryptionKeyEnv string `yaml:"encryption_key_env"`
}

// Validate checks cross-section invariants that can't be expressed as
// zero-value defaults: at least one model provider must be usable, and
// auth/security secrets, when referenced, must actually resolve.
func (c *Config) Validate() error {
	if !c.Providers.HasAny() {
		return fmt.Errorf("config: at least one model provider API key must be configured")
	}
	if c.Server.Port <= 0 {
		return fmt.Errorf("config: server.port must be positive")
	}
	return nil
}

// DefaultConfig returns a Config with the gateway's baseline defaults,
// applied before YAML overrides are decoded on top.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Host:              "0.0.0.0",
			Port:              8080,
			ReadHeaderTimeout: 5 * time.Second,
			ShutdownTimeout:   5 * time.Second,
			LogLevel:          "info",
			LogFormat:         "json",
		},
		RateLimit: RateLimitConfig{Config: ratelimit.DefaultConfig()},
	}
}
