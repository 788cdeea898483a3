package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileNames are the config files looked up in the project root, in order.
var FileNames = []string{"pycleaner.yml", "pycleaner.yaml"}

// ProjectConfig holds project-level settings loaded from pycleaner.yml.
type ProjectConfig struct {
	// Targets are the core files or directories, relative to the project root.
	Targets []string `yaml:"targets,omitempty"`
	// Roots are extra search roots for absolute imports (e.g. "src").
	Roots []string `yaml:"roots,omitempty"`
	// Exclude holds doublestar patterns of paths to leave out of the scan.
	Exclude     []string `yaml:"exclude,omitempty"`
	Shallow     bool     `yaml:"shallow,omitempty"`
	Concurrency int      `yaml:"concurrency,omitempty"`
}

// Load attempts to read pycleaner.yml or pycleaner.yaml from the given
// directory. Returns a zero-value config (not an error) if no config file
// exists.
func Load(dir string) (*ProjectConfig, error) {
	for _, name := range FileNames {
		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		var cfg ProjectConfig
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		return &cfg, nil
	}
	return &ProjectConfig{}, nil
}
