// Package config provides configuration helpers and TOML parsing.
package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file.
type FileConfig struct {
	Dashboard DashboardConfig `toml:"dashboard"`
	Alerts    AlertsConfig    `toml:"alerts"`
	Logging   LoggingConfig   `toml:"logging"`
	Metrics   MetricsConfig   `toml:"metrics"`
}

// DashboardConfig maps simulation settings.
type DashboardConfig struct {
	Speed     *string `toml:"speed"`
	Seed      *int64  `toml:"seed"`
	ExportDir *string `toml:"export-dir"`
}

// AlertsConfig maps alert thresholds.
type AlertsConfig struct {
	Overheat *float64 `toml:"overheat"`
	LowFuel  *float64 `toml:"low-fuel"`
	RPMLimit *float64 `toml:"rpm-limit"`
}

// LoggingConfig maps log output settings.
type LoggingConfig struct {
	Level *string `toml:"level"`
	File  *string `toml:"file"`
}

// MetricsConfig maps the Prometheus textfile output.
type MetricsConfig struct {
	Textfile *string `toml:"textfile"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}
