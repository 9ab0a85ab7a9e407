package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Server struct {
		Port      string `json:"port"`
		StaticDir string `json:"static_dir"`
		Debug     bool   `json:"debug"`
	} `json:"server"`

	Database struct {
		Path string `json:"path"`
	} `json:"database"`

	ML struct {
		Type       string `json:"type"`        // "mock" or "google"
		ConfigPath string `json:"config_path"` // optional model specific file
	} `json:"ml"`

	Assistant struct {
		Enabled      bool   `json:"enabled"`
		Model        string `json:"model"`
		KnowledgeDir string `json:"knowledge_dir"`
	} `json:"assistant"`
}

// LoadConfig loads configuration from a JSON file, then applies .env and
// environment overrides. A missing file is fine as long as PORT is set.
func LoadConfig(configPath string) (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	var config Config
	data, err := os.ReadFile(configPath)
	switch {
	case err == nil:
		if err := json.Unmarshal(data, &config); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	case errors.Is(err, os.ErrNotExist):
	default:
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	applyEnv(&config)

	if config.Server.Port == "" {
		return nil, fmt.Errorf("server port is not set in config file or PORT")
	}
	if config.Server.StaticDir == "" {
		config.Server.StaticDir = "./static"
	}
	if config.Database.Path == "" {
		config.Database.Path = "nutriscan.db"
	}
	if config.ML.Type == "" {
		config.ML.Type = "mock"
	}
	if config.Assistant.Model == "" {
		config.Assistant.Model = "gemini-1.5-flash"
	}
	if config.Assistant.KnowledgeDir == "" {
		config.Assistant.KnowledgeDir = "knowledge"
	}

	return &config, nil
}

func applyEnv(config *Config) {
	if v := os.Getenv("PORT"); v != "" {
		config.Server.Port = v
	}
	if v := os.Getenv("DATABASE_PATH"); v != "" {
		config.Database.Path = v
	}
	if v := os.Getenv("ML_TYPE"); v != "" {
		config.ML.Type = v
	}
	if v := os.Getenv("ASSISTANT_KNOWLEDGE_DIR"); v != "" {
		config.Assistant.KnowledgeDir = v
	}
	if os.Getenv("DEBUG") == "true" {
		config.Server.Debug = true
	}
}

// GetConfigPath returns the path to the configuration file
func GetConfigPath() string {
	// First try environment variable
	if path := os.Getenv("NUTRISCAN_CONFIG"); path != "" {
		return path
	}

	// Then try config directory
	configDir := "config"
	if _, err := os.Stat(configDir); err == nil {
		return filepath.Join(configDir, "config.json")
	}

	// Finally, try current directory
	return "config.json"
}
