package config

import (
	"fmt"
	"net"

	"github.com/efisim/wavecheck/internal/log"
)

// ValidationError represents a configuration validation error.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Validate checks a configuration with defaults applied for errors and
// returns warnings for non-fatal issues.
func Validate(cfg *Config) (warnings []string, err error) {
	if err := validateSimulator(cfg.Simulator); err != nil {
		return nil, err
	}
	if cfg.Simulator.Command != "" && cfg.Simulator.Addr != "" {
		warnings = append(warnings, "simulator.command is ignored because simulator.addr is set")
	}

	if err := validateCommands(cfg.Commands); err != nil {
		return nil, err
	}

	if err := validateComparison(cfg.Comparison); err != nil {
		return nil, err
	}

	if err := validateChart(cfg.Chart); err != nil {
		return nil, err
	}

	if _, err := log.ParseLevel(cfg.Log.Level); err != nil {
		return nil, &ValidationError{Field: "log.level", Message: `must be one of "debug", "info", "warn", "error"`}
	}

	switch cfg.History.Backend {
	case "memory":
	case "sqlite":
		if cfg.History.Path == "" {
			return nil, &ValidationError{Field: "history.path", Message: "is required for the sqlite backend"}
		}
	default:
		return nil, &ValidationError{Field: "history.backend", Message: `must be "memory" or "sqlite"`}
	}

	return warnings, nil
}

func validateSimulator(s SimulatorConfig) error {
	if s.Addr != "" {
		if _, _, err := net.SplitHostPort(s.Addr); err != nil {
			return &ValidationError{Field: "simulator.addr", Message: "must be host:port"}
		}
	}
	if s.StartupTimeoutMs < 0 {
		return &ValidationError{Field: "simulator.startup_timeout_ms", Message: "must not be negative"}
	}
	return nil
}

func validateCommands(c *CommandsConfig) error {
	checks := []struct {
		field string
		value int
	}{
		{"commands.retries", c.Retries},
		{"commands.timeout_ms", c.TimeoutMs},
		{"commands.complex_retries", c.ComplexRetries},
		{"commands.complex_timeout_ms", c.ComplexTimeoutMs},
	}
	for _, ch := range checks {
		if ch.value < 0 {
			return &ValidationError{Field: ch.field, Message: "must not be negative"}
		}
	}
	return nil
}

func validateComparison(c *ComparisonConfig) error {
	if c.WidthTolerance < 0 || c.WidthTolerance >= 1 {
		return &ValidationError{Field: "comparison.width_tolerance", Message: "must be in [0, 1)"}
	}
	if c.PositionTolerance < 0 {
		return &ValidationError{Field: "comparison.position_tolerance", Message: "must not be negative"}
	}
	return nil
}

func validateChart(c *ChartConfig) error {
	if c.Cycle <= 0 {
		return &ValidationError{Field: "chart.cycle", Message: "must be positive"}
	}
	if c.Period <= 0 {
		return &ValidationError{Field: "chart.period", Message: "must be positive"}
	}
	if c.Period > c.Cycle {
		return &ValidationError{Field: "chart.period", Message: "must not exceed chart.cycle"}
	}
	return nil
}
