package ml

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
)

// BaseConfig provides common configuration functionality
type BaseConfig struct {
	ConfigPath string `json:"-"`
}

// LoadConfig loads configuration from a file. When neither the given path nor
// config/<envPrefix>.json can be read the caller falls back to environment
// variables.
func (c *BaseConfig) LoadConfig(configPath string, envPrefix string, config any) error {
	if configPath != "" {
		data, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read %s config: %w", envPrefix, err)
		}
		if err := json.Unmarshal(data, config); err != nil {
			return fmt.Errorf("failed to parse %s config: %w", envPrefix, err)
		}
		slog.Info("loaded model configuration", "path", configPath)
		return nil
	}

	defaultPath := filepath.Join("config", fmt.Sprintf("%s.json", envPrefix))
	if data, err := os.ReadFile(defaultPath); err == nil {
		if err := json.Unmarshal(data, config); err == nil {
			slog.Info("loaded model configuration", "path", defaultPath)
			return nil
		}
	}

	slog.Debug("using environment variables for model configuration", "prefix", envPrefix)
	return nil
}
