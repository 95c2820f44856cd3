package project

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
)

// simulatorMarkers are the places a simulator build usually lands, relative
// to the workspace root. First match wins.
var simulatorMarkers = []string{
	"rusefi_simulator",
	"build/rusefi_simulator",
	"simulator/build/rusefi_simulator",
	"simulator/build/*_simulator",
	"build/*_simulator",
}

// DetectSimulator looks for a simulator executable under root.
func DetectSimulator(root string) (string, bool) {
	for _, marker := range simulatorMarkers {
		pattern := filepath.Join(root, filepath.FromSlash(marker))
		if runtime.GOOS == "windows" {
			pattern += ".exe"
		}
		if strings.Contains(marker, "*") {
			// Glob pattern
			matches, err := filepath.Glob(pattern)
			if err != nil {
				continue
			}
			for _, m := range matches {
				if isExecutable(m) {
					return m, true
				}
			}
		} else if isExecutable(pattern) {
			return pattern, true
		}
	}
	return "", false
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	if runtime.GOOS == "windows" {
		return true
	}
	return info.Mode()&0o111 != 0
}

// validateDirectory checks if a configured directory exists.
func validateDirectory(dir string, field string) error {
	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return fmt.Errorf("%s: directory %q does not exist", field, dir)
	}
	if err != nil {
		return fmt.Errorf("%s: cannot access directory %q: %w", field, dir, err)
	}
	if !info.IsDir() {
		return fmt.Errorf("%s: %q is not a directory", field, dir)
	}
	return nil
}
