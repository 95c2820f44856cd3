package project

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeExecutable(t *testing.T, path string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0755); err != nil {
		t.Fatal(err)
	}
}

func TestDetectSimulator(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits are not meaningful on windows")
	}
	t.Parallel()

	tests := []struct {
		name  string
		files []string
		want  string
	}{
		{"none", nil, ""},
		{"root binary", []string{"rusefi_simulator"}, "rusefi_simulator"},
		{"build dir", []string{"build/rusefi_simulator"}, "build/rusefi_simulator"},
		{"glob", []string{"simulator/build/efi_simulator"}, "simulator/build/efi_simulator"},
		{"first marker wins", []string{"build/rusefi_simulator", "rusefi_simulator"}, "rusefi_simulator"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			root := t.TempDir()
			for _, f := range tt.files {
				writeExecutable(t, filepath.Join(root, f))
			}

			got, ok := DetectSimulator(root)
			if tt.want == "" {
				if ok {
					t.Errorf("DetectSimulator() = %q, want none", got)
				}
				return
			}
			if !ok || got != filepath.Join(root, tt.want) {
				t.Errorf("DetectSimulator() = %q, %v; want %q", got, ok, tt.want)
			}
		})
	}
}

func TestDetectSimulator_IgnoresNonExecutable(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("executable bits are not meaningful on windows")
	}
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "rusefi_simulator"), []byte("data"), 0644); err != nil {
		t.Fatal(err)
	}
	if got, ok := DetectSimulator(root); ok {
		t.Errorf("DetectSimulator() = %q, want none", got)
	}
}

func TestValidateDirectory(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}

	if err := validateDirectory(root, "scenarios.directory"); err != nil {
		t.Errorf("validateDirectory(dir) = %v", err)
	}
	if err := validateDirectory(filepath.Join(root, "missing"), "scenarios.directory"); err == nil || !strings.Contains(err.Error(), "does not exist") {
		t.Errorf("validateDirectory(missing) = %v", err)
	}
	if err := validateDirectory(file, "scenarios.directory"); err == nil || !strings.Contains(err.Error(), "not a directory") {
		t.Errorf("validateDirectory(file) = %v", err)
	}
}
