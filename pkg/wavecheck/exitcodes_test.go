package wavecheck_test

import (
	"testing"

	"github.com/efisim/wavecheck/internal/errors"
	"github.com/efisim/wavecheck/pkg/wavecheck"
)

func TestExitCodeValues(t *testing.T) {
	tests := []struct {
		name     string
		constant int
		expected int
	}{
		{"ExitSuccess", wavecheck.ExitSuccess, 0},
		{"ExitFailure", wavecheck.ExitFailure, 1},
		{"ExitConfigError", wavecheck.ExitConfigError, 2},
		{"ExitEnvError", wavecheck.ExitEnvError, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.constant != tt.expected {
				t.Errorf("wavecheck.%s = %d, want %d", tt.name, tt.constant, tt.expected)
			}
		})
	}
}

// TestExitCodeConsistency keeps the public constants in step with the
// codes the CLI actually returns.
func TestExitCodeConsistency(t *testing.T) {
	tests := []struct {
		name     string
		public   int
		internal int
	}{
		{"Success", wavecheck.ExitSuccess, errors.ExitSuccess},
		{"Failure", wavecheck.ExitFailure, errors.ExitFailure},
		{"ConfigError", wavecheck.ExitConfigError, errors.ExitConfigError},
		{"EnvError", wavecheck.ExitEnvError, errors.ExitEnvironmentError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.public != tt.internal {
				t.Errorf("exit code mismatch: wavecheck constant = %d, errors constant = %d",
					tt.public, tt.internal)
			}
		})
	}
}
