package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/efisim/wavecheck/internal/config"
)

// Project is a loaded workspace: a root directory and its configuration.
type Project struct {
	Root     string
	Config   *config.Config
	Warnings []string

	// configPath is empty when no wavecheck.json was found.
	configPath string
}

// LoadProject finds and loads a project from the current directory. Without
// a wavecheck.json it falls back to the defaults rooted at the working directory.
func LoadProject() (*Project, error) {
	root, err := FindRoot()
	if errors.Is(err, ErrNoProjectRoot) {
		cwd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		return defaultProject(cwd), nil
	}
	if err != nil {
		return nil, err
	}
	return LoadProjectFrom(root)
}

// LoadProjectFrom loads a project from a specified root directory.
func LoadProjectFrom(root string) (*Project, error) {
	return LoadFile(filepath.Join(root, ConfigFileName))
}

// LoadFile loads a project from an explicit configuration file. The project
// root is the directory holding the file.
func LoadFile(path string) (*Project, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	cfg, warnings, err := config.LoadAndValidate(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	p := &Project{
		Root:       filepath.Dir(abs),
		Config:     cfg,
		Warnings:   warnings,
		configPath: abs,
	}

	if dir := cfg.Scenarios.Directory; dir != "" {
		if err := validateDirectory(dir, "scenarios.directory"); err != nil {
			return nil, err
		}
	}
	if cfg.Simulator.Command == "" && cfg.Simulator.Addr == "" {
		if sim, ok := DetectSimulator(p.Root); ok {
			cfg.Simulator.Command = sim
		}
	}
	return p, nil
}

func defaultProject(root string) *Project {
	cfg := config.Default()
	if sim, ok := DetectSimulator(root); ok {
		cfg.Simulator.Command = sim
	}
	return &Project{Root: root, Config: cfg}
}

// ConfigPath returns the full path to the project configuration file, or ""
// when the project runs on defaults.
func (p *Project) ConfigPath() string {
	return p.configPath
}
