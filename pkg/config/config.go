package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds server settings loadable from a YAML file. Command-line
// flags override file values.
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogJSON  bool   `yaml:"log_json"`

	// CheckpointIntervalSeconds is how often the scheduler requests a
	// full checkpoint. Zero disables periodic checkpoints.
	CheckpointIntervalSeconds int `yaml:"checkpoint_interval_seconds"`

	// MetricsAddr is the listen address for the Prometheus endpoint.
	// Empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// BinDir is the subdirectory external commands resolve under.
	BinDir string `yaml:"bin_dir"`

	// UnforkedCheckpoints makes checkpoints run synchronously in the
	// server instead of writing in the background.
	UnforkedCheckpoints bool `yaml:"unforked_checkpoints"`
}

// Default returns the built-in settings.
func Default() Config {
	return Config{
		LogLevel:                  "info",
		CheckpointIntervalSeconds: 3600,
		BinDir:                    "executables",
	}
}

// Load reads a YAML config file over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
