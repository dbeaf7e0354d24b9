package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds the process configuration. Values left empty in the
// file keep their defaults; command-line flags override both.
type Config struct {
	// Listen is the address the HTTP API binds to
	Listen string `yaml:"listen"`

	// Socket is the runtime socket path; empty means auto-discover
	Socket string `yaml:"socket"`

	// DataDir holds the deployment history database
	DataDir string `yaml:"data_dir"`

	// VolumeRoot is the base directory for database storage
	VolumeRoot string `yaml:"volume_root"`

	Log LogConfig `yaml:"log"`
}

// LogConfig configures the logger
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Listen:  "127.0.0.1:8420",
		DataDir: "/var/lib/hutch",
		Log: LogConfig{
			Level: "info",
		},
	}
}

// Load reads a YAML config file over the defaults. An empty path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("failed to read config file: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("failed to parse config file: %w", err)
	}
	return cfg, nil
}
