package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/efisim/wavecheck/internal/config"
	"github.com/efisim/wavecheck/internal/project"
)

func TestInitProject_CreatesFiles(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	created, err := initProject(root)
	if err != nil {
		t.Fatalf("initProject() error = %v", err)
	}
	if len(created) != 3 {
		t.Errorf("created = %v, want config, scenario and .gitignore entries", created)
	}

	proj, err := project.LoadProjectFrom(root)
	if err != nil {
		t.Fatalf("generated configuration does not load: %v", err)
	}
	if got := proj.Config.Scenarios.Directory; got != filepath.Join(root, scenariosDirName) {
		t.Errorf("scenarios.directory = %q", got)
	}

	suite, err := loadSuite(proj.Config)
	if err != nil {
		t.Fatalf("loadSuite() error = %v", err)
	}
	if len(suite) != 1 || suite[0].Name != "Ford Aspire" {
		t.Errorf("suite = %d scenarios, want the example scenario", len(suite))
	}
}

func TestInitProject_Idempotent(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	if _, err := initProject(root); err != nil {
		t.Fatal(err)
	}
	configPath := filepath.Join(root, project.ConfigFileName)
	if err := os.WriteFile(configPath, []byte(`{"log": {"level": "debug"}}`), 0644); err != nil {
		t.Fatal(err)
	}

	created, err := initProject(root)
	if err != nil {
		t.Fatalf("second initProject() error = %v", err)
	}
	if len(created) != 0 {
		t.Errorf("second run created %v, want nothing", created)
	}
	data, err := os.ReadFile(configPath)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "debug") {
		t.Error("existing configuration was overwritten")
	}
}

func TestInitProject_DetectsSimulator(t *testing.T) {
	t.Parallel()
	root := t.TempDir()

	buildDir := filepath.Join(root, "build")
	if err := os.MkdirAll(buildDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(buildDir, "rusefi_simulator"), []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}

	if _, err := initProject(root); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(root, project.ConfigFileName))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"command": "./build/rusefi_simulator"`) {
		t.Errorf("generated configuration = %s, want the detected simulator", data)
	}
}

func TestUpdateGitignore(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		existing    *string
		wantChanged bool
		wantPrefix  string
	}{
		{"new file", nil, true, "# wavecheck\n"},
		{"empty file", ptr(""), true, "# wavecheck\n"},
		{"existing entries", ptr("node_modules/\n*.log\n"), true, "node_modules/\n*.log\n\n# wavecheck\n"},
		{"no trailing newline", ptr("*.log"), true, "*.log\n\n# wavecheck\n"},
		{"already present", ptr("*.log\n# wavecheck\nwavecheck-history.db\n"), false, "*.log\n# wavecheck\n"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			path := filepath.Join(root, ".gitignore")
			if tt.existing != nil {
				if err := os.WriteFile(path, []byte(*tt.existing), 0644); err != nil {
					t.Fatal(err)
				}
			}

			if got := updateGitignore(root); got != tt.wantChanged {
				t.Errorf("updateGitignore() = %v, want %v", got, tt.wantChanged)
			}

			data, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			content := string(data)
			if !strings.HasPrefix(content, tt.wantPrefix) {
				t.Errorf(".gitignore = %q, want prefix %q", content, tt.wantPrefix)
			}
			if strings.Count(content, "# wavecheck") != 1 {
				t.Errorf("'# wavecheck' appears %d times, want 1", strings.Count(content, "# wavecheck"))
			}
			if tt.wantChanged && !strings.Contains(content, config.DefaultHistoryPath) {
				t.Errorf(".gitignore missing %q", config.DefaultHistoryPath)
			}
		})
	}
}

func ptr(s string) *string { return &s }
