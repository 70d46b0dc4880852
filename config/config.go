package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config describes one manager: its schema file, accessor toggles and the
// optional shared storage binding.
type Config struct {
	ID              string
	SchemaFile      string
	DynamicGetters  bool
	DynamicSetters  bool
	NestedGetters   bool
	NestedSetters   bool
	WriteProtection bool
	Storage         Storage
}

// Storage configures the shared store. An empty Role leaves the manager
// unconnected; an empty Path selects an in-process store.
type Storage struct {
	Role         string
	ProviderID   string
	Path         string
	KeyPrefix    string
	PollInterval time.Duration
	PrivatePaths []string
}

// Enabled reports whether a storage role is configured.
func (s Storage) Enabled() bool {
	return strings.TrimSpace(s.Role) != ""
}

const (
	defaultConfigPath   = "~/.config/statekit/config.toml"
	defaultPollInterval = 500 * time.Millisecond
)

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DynamicGetters:  true,
		DynamicSetters:  true,
		NestedGetters:   true,
		NestedSetters:   true,
		WriteProtection: true,
		Storage:         Storage{PollInterval: defaultPollInterval},
	}
}

type rawConfig struct {
	ID              string     `toml:"id"`
	SchemaFile      string     `toml:"schema_file"`
	DynamicGetters  *bool      `toml:"dynamic_getters"`
	DynamicSetters  *bool      `toml:"dynamic_setters"`
	NestedGetters   *bool      `toml:"nested_getters"`
	NestedSetters   *bool      `toml:"nested_setters"`
	WriteProtection *bool      `toml:"write_protection"`
	Storage         rawStorage `toml:"storage"`
}

type rawStorage struct {
	Role         string   `toml:"role"`
	ProviderID   string   `toml:"provider_id"`
	Path         string   `toml:"path"`
	KeyPrefix    string   `toml:"key_prefix"`
	PollInterval string   `toml:"poll_interval"`
	PrivatePaths []string `toml:"private_paths"`
}

// Load reads the TOML file at path, falling back to defaults when it does not
// exist. Relative schema_file and storage.path values resolve against the
// directory of the config file.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()
	file, err := os.Open(resolved)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return Config{}, fmt.Errorf("open config: %w", err)
	}
	defer file.Close()

	bytes, err := io.ReadAll(file)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	var raw rawConfig
	if err := toml.Unmarshal(bytes, &raw); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}

	base := filepath.Dir(resolved)
	cfg.ID = strings.TrimSpace(raw.ID)
	cfg.SchemaFile = relativeTo(base, raw.SchemaFile)
	setBool(&cfg.DynamicGetters, raw.DynamicGetters)
	setBool(&cfg.DynamicSetters, raw.DynamicSetters)
	setBool(&cfg.NestedGetters, raw.NestedGetters)
	setBool(&cfg.NestedSetters, raw.NestedSetters)
	setBool(&cfg.WriteProtection, raw.WriteProtection)

	cfg.Storage.Role = strings.ToLower(strings.TrimSpace(raw.Storage.Role))
	cfg.Storage.ProviderID = strings.TrimSpace(raw.Storage.ProviderID)
	cfg.Storage.Path = relativeTo(base, raw.Storage.Path)
	cfg.Storage.KeyPrefix = raw.Storage.KeyPrefix
	if interval := strings.TrimSpace(raw.Storage.PollInterval); interval != "" {
		parsed, err := time.ParseDuration(interval)
		if err != nil || parsed <= 0 {
			return Config{}, fmt.Errorf("parse config: storage.poll_interval %q is not a positive duration", interval)
		}
		cfg.Storage.PollInterval = parsed
	}
	for _, entry := range raw.Storage.PrivatePaths {
		if entry = strings.TrimSpace(entry); entry != "" {
			cfg.Storage.PrivatePaths = append(cfg.Storage.PrivatePaths, entry)
		}
	}
	return cfg, nil
}

func setBool(dst *bool, value *bool) {
	if value != nil {
		*dst = *value
	}
}

func relativeTo(base, path string) string {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return ""
	}
	if strings.HasPrefix(trimmed, "~") {
		return mustExpand(trimmed)
	}
	if filepath.IsAbs(trimmed) {
		return trimmed
	}
	return filepath.Join(base, trimmed)
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
