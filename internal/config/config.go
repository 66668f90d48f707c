package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ppiankov/awsatlas/internal/inventory"
)

// Config holds awsatlas configuration loaded from .awsatlas.yaml.
type Config struct {
	Profile      string   `yaml:"profile"`
	Regions      []string `yaml:"regions"`
	AllRegions   bool     `yaml:"all_regions"`
	OutputDir    string   `yaml:"output_dir"`
	Bucket       string   `yaml:"bucket"`
	Prefix       string   `yaml:"prefix"`
	Formats      []string `yaml:"formats"`
	ActivityDays int      `yaml:"activity_days"`
	Concurrency  int      `yaml:"concurrency"`
	Timeout      string   `yaml:"timeout"`
	Exclude      Exclude  `yaml:"exclude"`
}

// Exclude defines resources to skip during scanning.
type Exclude struct {
	ResourceIDs []string `yaml:"resource_ids"`
	Tags        []string `yaml:"tags"`
	Kinds       []string `yaml:"kinds"`
}

// ParseTags converts tag strings ("Key=Value" or "Key") into a map.
// Key-only entries have an empty string value, meaning "match any value".
func (e Exclude) ParseTags() map[string]string {
	if len(e.Tags) == 0 {
		return nil
	}
	m := make(map[string]string, len(e.Tags))
	for _, s := range e.Tags {
		if k, v, ok := strings.Cut(s, "="); ok {
			m[k] = v
		} else {
			m[s] = ""
		}
	}
	return m
}

// ParseKinds validates the excluded kind names.
func (e Exclude) ParseKinds() (map[inventory.Kind]bool, error) {
	if len(e.Kinds) == 0 {
		return nil, nil
	}
	m := make(map[inventory.Kind]bool, len(e.Kinds))
	for _, s := range e.Kinds {
		k, ok := inventory.ParseKind(strings.TrimSpace(s))
		if !ok {
			return nil, fmt.Errorf("unknown resource kind in exclude.kinds: %q", s)
		}
		m[k] = true
	}
	return m, nil
}

// TimeoutDuration parses the timeout string as a duration.
func (c Config) TimeoutDuration() time.Duration {
	if c.Timeout == "" {
		return 0
	}
	d, _ := time.ParseDuration(c.Timeout)
	return d
}

// Load searches for .awsatlas.yaml or .awsatlas.yml in the given directory
// and returns the parsed config. Returns an empty Config if no file is found.
func Load(dir string) (Config, error) {
	candidates := []string{
		filepath.Join(dir, ".awsatlas.yaml"),
		filepath.Join(dir, ".awsatlas.yml"),
	}

	for _, path := range candidates {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}

		var cfg Config
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
		return cfg, nil
	}

	return Config{}, nil
}
