package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"
)

// Config is the root configuration for mediabot.
type Config struct {
	General  GeneralConfig  `json:"general"`
	Telegram TelegramConfig `json:"telegram"`
	Database DatabaseConfig `json:"database"`
	Search   SearchConfig   `json:"search"`
	Delivery DeliveryConfig `json:"delivery"`
	Metrics  MetricsConfig  `json:"metrics"`
}

type GeneralConfig struct {
	LogLevel string `json:"logLevel"`
	LogFile  string `json:"logFile,omitempty"`
}

type TelegramConfig struct {
	Token       string  `json:"token"`
	Admins      []int64 `json:"admins"`                // static allow-list for admin commands
	IndexFrom   []int64 `json:"indexFrom,omitempty"`   // channels whose media posts get ingested
	SearchChats []int64 `json:"searchChats,omitempty"` // chats where free-text search is served (empty = everywhere)
	ParseMode   string  `json:"parseMode"`
}

type DatabaseConfig struct {
	URI              string `json:"uri"`
	Name             string `json:"name"`
	MaxPoolSize      int    `json:"maxPoolSize"`
	OpTimeoutSeconds int    `json:"opTimeoutSeconds"`
}

// OpTimeout is the per-operation deadline against the store.
func (d DatabaseConfig) OpTimeout() time.Duration {
	return time.Duration(d.OpTimeoutSeconds) * time.Second
}

type SearchConfig struct {
	PageSize        int     `json:"pageSize"`
	FuzzyThreshold  float64 `json:"fuzzyThreshold"`          // 0..1 distance bound, lower = stricter
	FuzzyCandidates int64   `json:"fuzzyCandidates"`         // fallback working-set size
	CacheTTLSeconds int     `json:"cacheTtlSeconds"`         // fallback result-set lifetime
	FilterCatalog   string  `json:"filterCatalog,omitempty"` // optional YAML override
}

func (s SearchConfig) CacheTTL() time.Duration {
	return time.Duration(s.CacheTTLSeconds) * time.Second
}

type DeliveryConfig struct {
	ContentTTLSeconds int    `json:"contentTtlSeconds"` // delivered content lifetime
	PromoTTLSeconds   int    `json:"promoTtlSeconds"`   // promotional forward lifetime
	NoticeTTLSeconds  int    `json:"noticeTtlSeconds"`  // "deleted" notice lifetime
	PromoText         string `json:"promoText,omitempty"`
}

func (d DeliveryConfig) ContentTTL() time.Duration {
	return time.Duration(d.ContentTTLSeconds) * time.Second
}

func (d DeliveryConfig) PromoTTL() time.Duration {
	return time.Duration(d.PromoTTLSeconds) * time.Second
}

func (d DeliveryConfig) NoticeTTL() time.Duration {
	return time.Duration(d.NoticeTTLSeconds) * time.Second
}

type MetricsConfig struct {
	Enabled  bool   `json:"enabled"`
	Endpoint string `json:"endpoint"`
}

// DefaultConfigDir returns the default config directory (~/.mediabot).
func DefaultConfigDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".mediabot"
	}
	return filepath.Join(home, ".mediabot")
}

func DefaultConfigPath() string {
	return filepath.Join(DefaultConfigDir(), "config.json")
}

// Load reads, env-expands, and validates a config file. Values absent from
// the file keep their defaults.
func Load(path string) (*Config, error) {
	path = expandPath(path)

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read config file %s: %w", path, err)
	}

	// Substitute environment variables: ${VAR} and ${VAR:-default}
	data = []byte(ExpandEnvVars(string(data)))

	cfg := Defaults()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("cannot parse config file %s: %w", path, err)
	}

	cfg.General.LogFile = expandPath(cfg.General.LogFile)
	cfg.Search.FilterCatalog = expandPath(cfg.Search.FilterCatalog)

	if err := Validate(cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return cfg, nil
}

// Save writes a config file with restrictive permissions (it carries the
// bot token).
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, append(data, '\n'), 0o600)
}

// Validate rejects configurations the bot cannot run with.
func Validate(cfg *Config) error {
	if cfg.Database.URI == "" {
		return fmt.Errorf("database.uri is required")
	}
	if cfg.Database.Name == "" {
		return fmt.Errorf("database.name is required")
	}
	if cfg.Search.PageSize < 1 || cfg.Search.PageSize > 50 {
		return fmt.Errorf("search.pageSize must be within [1, 50], got %d", cfg.Search.PageSize)
	}
	if cfg.Search.FuzzyThreshold <= 0 || cfg.Search.FuzzyThreshold >= 1 {
		return fmt.Errorf("search.fuzzyThreshold must be within (0, 1), got %g", cfg.Search.FuzzyThreshold)
	}
	if cfg.Search.FuzzyCandidates < 1 {
		return fmt.Errorf("search.fuzzyCandidates must be positive")
	}
	if cfg.Delivery.ContentTTLSeconds < 1 || cfg.Delivery.PromoTTLSeconds < 1 || cfg.Delivery.NoticeTTLSeconds < 1 {
		return fmt.Errorf("delivery TTLs must be positive")
	}
	switch cfg.General.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("general.logLevel must be one of debug|info|warn|error, got %q", cfg.General.LogLevel)
	}
	return nil
}

// envVarPattern matches ${VAR} and ${VAR:-default} in config strings.
var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-(.*?))?\}`)

// ExpandEnvVars replaces ${VAR} with the environment variable value.
// ${VAR:-default} uses the default when VAR is unset or empty; a plain
// ${VAR} with no value is kept verbatim so the validation error names it.
func ExpandEnvVars(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		groups := envVarPattern.FindStringSubmatch(match)
		if len(groups) < 2 {
			return match
		}
		name := groups[1]
		def := ""
		hasDefault := len(groups) >= 3 && groups[2] != ""
		if hasDefault {
			def = groups[2]
		}
		val, exists := os.LookupEnv(name)
		if !exists || val == "" {
			if hasDefault {
				return def
			}
			return match
		}
		return val
	})
}

// expandPath resolves a leading "~/" against the home directory.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[2:])
		}
	}
	return path
}
