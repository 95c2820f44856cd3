// Package config provides configuration loading and validation for wavecheck.json.
package config

import "time"

// Config represents the complete wavecheck.json configuration.
type Config struct {
	Simulator  SimulatorConfig   `json:"simulator"`
	Commands   *CommandsConfig   `json:"commands,omitempty"`
	Comparison *ComparisonConfig `json:"comparison,omitempty"`
	Chart      *ChartConfig      `json:"chart,omitempty"`
	Log        *LogConfig        `json:"log,omitempty"`
	History    *HistoryConfig    `json:"history,omitempty"`
	Scenarios  *ScenariosConfig  `json:"scenarios,omitempty"`
}

// SimulatorConfig says how to reach the simulator. Addr wins over Command.
type SimulatorConfig struct {
	Command          string   `json:"command,omitempty"`
	Args             []string `json:"args,omitempty"`
	Addr             string   `json:"addr,omitempty"`
	Dir              string   `json:"dir,omitempty"`
	StartupTimeoutMs int      `json:"startup_timeout_ms,omitempty"`
}

// CommandsConfig holds the confirmation budgets of the command channel.
type CommandsConfig struct {
	Retries          int `json:"retries,omitempty"`
	TimeoutMs        int `json:"timeout_ms,omitempty"`
	ComplexRetries   int `json:"complex_retries,omitempty"`
	ComplexTimeoutMs int `json:"complex_timeout_ms,omitempty"`
}

// ComparisonConfig holds the default wave tolerances.
type ComparisonConfig struct {
	WidthTolerance    float64 `json:"width_tolerance,omitempty"`    // relative
	PositionTolerance float64 `json:"position_tolerance,omitempty"` // degrees
}

// ChartConfig holds the chart geometry used when a report has no header.
type ChartConfig struct {
	Cycle  float64 `json:"cycle,omitempty"`
	Period float64 `json:"period,omitempty"`
}

// LogConfig configures the run log.
type LogConfig struct {
	Level string `json:"level,omitempty"`
	Dir   string `json:"dir,omitempty"`
}

// HistoryConfig selects the run history backend.
type HistoryConfig struct {
	Backend string `json:"backend,omitempty"` // "memory" or "sqlite"
	Path    string `json:"path,omitempty"`
}

// ScenariosConfig locates scenario files. An empty directory selects the
// built-in suite.
type ScenariosConfig struct {
	Directory string `json:"directory,omitempty"`
}

// StartupTimeout returns the simulator startup timeout.
func (s SimulatorConfig) StartupTimeout() time.Duration {
	return time.Duration(s.StartupTimeoutMs) * time.Millisecond
}

// Timeout returns the pause between confirmation reads of plain commands.
func (c *CommandsConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// ComplexTimeout returns the pause between confirmation reads of complex commands.
func (c *CommandsConfig) ComplexTimeout() time.Duration {
	return time.Duration(c.ComplexTimeoutMs) * time.Millisecond
}
