// Package config loads the process configuration for cmd/ingestd: a TOML
// file on disk, overridable by environment variables, the precedence the
// ambient tooling in this codebase's wider example pack follows.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// CacheConfig configures the out-of-scope cache proxy collaborator.
type CacheConfig struct {
	ProxyBaseURL string `toml:"proxy_base_url"`
}

// CallbackConfig configures the out-of-scope callback HTTP client.
type CallbackConfig struct {
	BaseURL string `toml:"base_url"`
	Token   string `toml:"token"`
}

// LogConfig configures internal/logging.
type LogConfig struct {
	Level  string `toml:"level"`  // debug|info|warn|error
	Format string `toml:"format"` // json|console
}

// ServerConfig configures the HTTP admission endpoint.
type ServerConfig struct {
	ListenAddr string `toml:"listen_addr"`
}

// Config is the top-level ingestd configuration tree.
type Config struct {
	Cache     CacheConfig    `toml:"cache"`
	Callback  CallbackConfig `toml:"callback"`
	Log       LogConfig      `toml:"log"`
	Server    ServerConfig   `toml:"server"`
	BatchSize int            `toml:"batch_size"`
}

func defaults() Config {
	return Config{
		Log:       LogConfig{Level: "info", Format: "json"},
		Server:    ServerConfig{ListenAddr: ":8080"},
		BatchSize: 200,
	}
}

// Load resolves a config file path (explicit path argument, then
// INGESTD_CONFIG, then ./ingestd.toml, then ~/.config/ingestd/ingestd.toml)
// and applies environment-variable overrides on top of whatever the file
// contained, falling back to built-in defaults when no file is found.
func Load(explicitPath string) (*Config, error) {
	cfg := defaults()

	path := explicitPath
	if path == "" {
		path = os.Getenv("INGESTD_CONFIG")
	}
	if path == "" {
		if _, err := os.Stat("ingestd.toml"); err == nil {
			path = "ingestd.toml"
		}
	}
	if path == "" {
		if home, err := os.UserHomeDir(); err == nil {
			candidate := filepath.Join(home, ".config", "ingestd", "ingestd.toml")
			if _, err := os.Stat(candidate); err == nil {
				path = candidate
			}
		}
	}

	if path != "" {
		if _, err := toml.DecodeFile(path, &cfg); err != nil {
			return nil, fmt.Errorf("config: decoding %s: %w", path, err)
		}
	}

	applyEnvOverrides(&cfg)
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("INGESTD_CALLBACK_BASE_URL"); v != "" {
		cfg.Callback.BaseURL = v
	}
	if v := os.Getenv("INGESTD_CALLBACK_TOKEN"); v != "" {
		cfg.Callback.Token = v
	}
	if v := os.Getenv("INGESTD_CACHE_PROXY_BASE_URL"); v != "" {
		cfg.Cache.ProxyBaseURL = v
	}
	if v := os.Getenv("INGESTD_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("INGESTD_LOG_FORMAT"); v != "" {
		cfg.Log.Format = v
	}
	if v := os.Getenv("INGESTD_LISTEN_ADDR"); v != "" {
		cfg.Server.ListenAddr = v
	}
}
