// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// Package config provides unified configuration loading for parley.
//
// Supports both TOML and JSON configuration formats, with sensible defaults
// and validation.
//
// Configuration file locations (in order of precedence):
//   - ~/.parley/config.toml
//   - ~/.parley/config.json
//   - Built-in defaults
package config

import (
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// =============================================================================
// CONFIG STRUCTURES
// =============================================================================

// Config represents the complete parley configuration.
type Config struct {
	// Chat configures the orchestration loop.
	Chat ChatConfig `toml:"chat" json:"chat"`

	// Model configures the chat model transport.
	Model ModelConfig `toml:"model" json:"model"`

	// Elicitation configures the request tracker.
	Elicitation ElicitationConfig `toml:"elicitation" json:"elicitation"`

	// Trust configures the provider allow-list.
	Trust TrustConfig `toml:"trust" json:"trust"`

	// Sandbox configures the renderer boundary.
	Sandbox SandboxConfig `toml:"sandbox" json:"sandbox"`

	// Audit configures the security event log.
	Audit AuditConfig `toml:"audit" json:"audit"`
}

// ChatConfig contains orchestration loop settings.
type ChatConfig struct {
	// MaxIterations bounds model round-trips per user turn.
	MaxIterations int `toml:"max_iterations" json:"max_iterations"`
}

// ModelConfig contains model transport settings.
type ModelConfig struct {
	// BaseURL is the chat API endpoint.
	BaseURL string `toml:"base_url" json:"base_url"`

	// Name is the default model name.
	Name string `toml:"name" json:"name"`

	// TimeoutSeconds bounds non-streaming requests.
	TimeoutSeconds int `toml:"timeout_seconds" json:"timeout_seconds"`
}

// ElicitationConfig contains request tracker settings.
type ElicitationConfig struct {
	// TTLSeconds is the request lifetime.
	TTLSeconds int `toml:"ttl_seconds" json:"ttl_seconds"`

	// SweepSeconds is the purge interval for expired requests.
	SweepSeconds int `toml:"sweep_seconds" json:"sweep_seconds"`
}

// TrustConfig contains provider trust settings.
type TrustConfig struct {
	// TrustedProviders is the allow-list of provider IDs.
	TrustedProviders []string `toml:"trusted_providers" json:"trusted_providers"`

	// AllowListPath optionally points at a watchable allow-list file that
	// overrides TrustedProviders when set.
	AllowListPath string `toml:"allow_list_path" json:"allow_list_path"`
}

// SandboxConfig contains renderer boundary settings.
type SandboxConfig struct {
	// Origin is the host's own origin for exact-match validation.
	Origin string `toml:"origin" json:"origin"`

	// MaxMessageBytes bounds inbound message payloads.
	MaxMessageBytes int `toml:"max_message_bytes" json:"max_message_bytes"`
}

// AuditConfig contains audit log settings.
type AuditConfig struct {
	// Path is the SQLite database path; empty disables persistence.
	Path string `toml:"path" json:"path"`
}

// =============================================================================
// DEFAULTS
// =============================================================================

// Default returns the built-in default configuration.
func Default() *Config {
	return &Config{
		Chat: ChatConfig{
			MaxIterations: 5,
		},
		Model: ModelConfig{
			BaseURL:        "http://127.0.0.1:11434",
			Name:           "qwen2.5-coder:14b",
			TimeoutSeconds: 30,
		},
		Elicitation: ElicitationConfig{
			TTLSeconds:   300,
			SweepSeconds: 60,
		},
		Trust: TrustConfig{
			TrustedProviders: nil,
		},
		Sandbox: SandboxConfig{
			Origin:          "parley://host",
			MaxMessageBytes: 256 * 1024,
		},
		Audit: AuditConfig{
			Path: defaultAuditPath(),
		},
	}
}

// defaultAuditPath returns ~/.parley/audit.db, or an in-memory database
// when the home directory is unavailable.
func defaultAuditPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ":memory:"
	}
	return filepath.Join(home, ".parley", "audit.db")
}

// ElicitationTTL returns the configured TTL as a duration.
func (c *Config) ElicitationTTL() time.Duration {
	return time.Duration(c.Elicitation.TTLSeconds) * time.Second
}

// ElicitationSweep returns the configured sweep interval as a duration.
func (c *Config) ElicitationSweep() time.Duration {
	return time.Duration(c.Elicitation.SweepSeconds) * time.Second
}

// ModelTimeout returns the configured transport timeout as a duration.
func (c *Config) ModelTimeout() time.Duration {
	return time.Duration(c.Model.TimeoutSeconds) * time.Second
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads configuration from the given path, inferring format from the
// extension. Values not present in the file keep their defaults.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse TOML config: %w", err)
		}
	case ".json":
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse JSON config: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported config format: %s", path)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadDefault looks for config.toml then config.json under ~/.parley,
// falling back to built-in defaults when neither exists.
func LoadDefault() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return Default(), nil
	}

	for _, name := range []string{"config.toml", "config.json"} {
		path := filepath.Join(home, ".parley", name)
		if _, err := os.Stat(path); err == nil {
			return Load(path)
		}
	}
	return Default(), nil
}

// Validate checks configuration invariants.
func (c *Config) Validate() error {
	if c.Chat.MaxIterations < 1 {
		return fmt.Errorf("chat.max_iterations must be at least 1")
	}
	if c.Elicitation.TTLSeconds < 1 {
		return fmt.Errorf("elicitation.ttl_seconds must be at least 1")
	}
	if c.Sandbox.Origin == "" {
		return fmt.Errorf("sandbox.origin must not be empty")
	}
	if c.Sandbox.MaxMessageBytes < 1 {
		return fmt.Errorf("sandbox.max_message_bytes must be at least 1")
	}
	if c.Model.BaseURL != "" {
		if _, err := url.Parse(c.Model.BaseURL); err != nil {
			return fmt.Errorf("model.base_url is not a valid URL: %w", err)
		}
	}
	return nil
}
