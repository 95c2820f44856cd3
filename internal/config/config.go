package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/efisim/wavecheck/internal/schema"
)

// EnvLogLevel overrides log.level.
const EnvLogLevel = "WAVECHECK_LOG_LEVEL"

// Load reads and parses a wavecheck.json configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return &cfg, nil
}

// LoadWithDefaults reads a config file and applies default values.
func LoadWithDefaults(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	applyDefaults(cfg)
	return cfg, nil
}

// LoadAndValidate reads a config file, checks it against the schema, applies
// defaults and environment overrides, validates, and returns warnings.
// Relative paths in the file are resolved against its directory.
func LoadAndValidate(path string) (*Config, []string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := schema.ValidateConfig(data); err != nil {
		return nil, nil, err
	}

	cfg, unknownWarnings, err := LoadWithWarnings(path, data)
	if err != nil {
		return nil, nil, err
	}

	applyDefaults(cfg)
	applyEnv(cfg)
	resolvePaths(cfg, filepath.Dir(path))

	validationWarnings, err := Validate(cfg)

	// Combine warnings from both sources.
	allWarnings := make([]string, 0, len(unknownWarnings)+len(validationWarnings))
	allWarnings = append(allWarnings, unknownWarnings...)
	allWarnings = append(allWarnings, validationWarnings...)

	if err != nil {
		return nil, allWarnings, err
	}

	return cfg, allWarnings, nil
}

func applyEnv(cfg *Config) {
	if level := strings.TrimSpace(os.Getenv(EnvLogLevel)); level != "" {
		cfg.Log.Level = strings.ToLower(level)
	}
}

func resolvePaths(cfg *Config, base string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(base, p)
	}
	cfg.Simulator.Dir = abs(cfg.Simulator.Dir)
	if cmd := cfg.Simulator.Command; strings.ContainsRune(cmd, filepath.Separator) || strings.HasPrefix(cmd, ".") {
		cfg.Simulator.Command = abs(cmd)
	}
	cfg.Log.Dir = abs(cfg.Log.Dir)
	cfg.History.Path = abs(cfg.History.Path)
	cfg.Scenarios.Directory = abs(cfg.Scenarios.Directory)
}
