package schema

import (
	"strings"
	"testing"
)

func TestValidateConfig(t *testing.T) {
	tests := []struct {
		name    string
		data    string
		wantErr string
	}{
		{name: "empty object", data: `{}`},
		{
			name: "full",
			data: `{
				"simulator": {"command": "./rusefi_simulator", "args": ["-v"], "startup_timeout_ms": 5000},
				"commands": {"retries": 100, "timeout_ms": 30, "complex_retries": 500, "complex_timeout_ms": 100},
				"comparison": {"width_tolerance": 0.05, "position_tolerance": 1},
				"chart": {"cycle": 720, "period": 360},
				"log": {"level": "debug", "dir": "logs"},
				"history": {"backend": "sqlite", "path": "runs.db"},
				"scenarios": {"directory": "scenarios"}
			}`,
		},
		{name: "negative retries", data: `{"commands": {"retries": -1}}`, wantErr: "config validation failed"},
		{name: "bad log level", data: `{"log": {"level": "verbose"}}`, wantErr: "config validation failed"},
		{name: "bad backend", data: `{"history": {"backend": "postgres"}}`, wantErr: "config validation failed"},
		{name: "not json", data: `{`, wantErr: "invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateConfig([]byte(tt.data))
			if tt.wantErr == "" {
				if err != nil {
					t.Errorf("ValidateConfig() error = %v", err)
				}
				return
			}
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("ValidateConfig() error = %v, want containing %q", err, tt.wantErr)
			}
		})
	}
}

func TestValidateScenario(t *testing.T) {
	valid := `
name: 2003 Dodge Neon
engine_type: 23
steps:
  - send: set suckedOffCoef 0
  - rpm: 200
  - sensor: {name: vbatt, want: 12, ratio: 0.05}
  - capture:
      label: cranking
      checks:
        - {channel: spark1, duty: 0.194433, at: 100, offsets: [180, 540]}
        - {channel: spark2, expect: "null"}
`
	if err := ValidateScenario([]byte(valid)); err != nil {
		t.Fatalf("ValidateScenario() error = %v", err)
	}

	invalid := map[string]string{
		"missing engine type":
			"name: x\nsteps:\n  - rpm: 200\n",
		"two actions in a step":
			"name: x\nengine_type: 1\nsteps:\n  - {rpm: 200, send: foo}\n",
		"unknown step":
			"name: x\nengine_type: 1\nsteps:\n  - sleep: 10\n",
		"bad expect":
			"name: x\nengine_type: 1\nsteps:\n  - capture: {label: a, checks: [{channel: spark1, expect: maybe}]}\n",
		"offsets and positions":
			"name: x\nengine_type: 1\nsteps:\n  - capture: {label: a, checks: [{channel: spark1, at: 1, offsets: [0], positions: [1]}]}\n",
		"no steps":
			"name: x\nengine_type: 1\nsteps: []\n",
		"wave check without positions":
			"name: x\nengine_type: 1\nsteps:\n  - capture: {label: a, checks: [{channel: spark1, duty: 0.1}]}\n",
		"offsets without at":
			"name: x\nengine_type: 1\nsteps:\n  - capture: {label: a, checks: [{channel: spark1, duty: 0.1, offsets: [0, 180]}]}\n",
		"fall check without positions":
			"name: x\nengine_type: 1\nsteps:\n  - capture: {label: a, checks: [{channel: injector1, expect: fall, duty: 0.1}]}\n",
	}
	for name, doc := range invalid {
		t.Run(name, func(t *testing.T) {
			if err := ValidateScenario([]byte(doc)); err == nil {
				t.Error("ValidateScenario() expected error")
			}
		})
	}
}

func TestValidateScenario_BadYAML(t *testing.T) {
	err := ValidateScenario([]byte("name: [unterminated"))
	if err == nil || !strings.Contains(err.Error(), "invalid YAML") {
		t.Errorf("ValidateScenario() error = %v", err)
	}
}
