package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/transitlab/traffic-prep-go/internal/loader"
)

// Config holds the server configuration.
type Config struct {
	Port       string
	DataDir    string // directory of dataset .db files
	PresetPath string // optional YAML file of named loader presets
	JWTSecret  string
}

// Load reads configuration from the environment with sane defaults.
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dataDir := os.Getenv("DATA_DIR")
	if dataDir == "" {
		dataDir = "./data/datasets"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:       port,
		DataDir:    dataDir,
		PresetPath: os.Getenv("LOADER_PRESETS"),
		JWTSecret:  jwtSecret,
	}
}

// LoadPresets parses a YAML file of named loader configurations. An empty
// path yields an empty preset table.
func LoadPresets(path string) (map[string]loader.Config, error) {
	if path == "" {
		return map[string]loader.Config{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read presets %s: %w", path, err)
	}

	var presets map[string]loader.Config
	if err := yaml.Unmarshal(raw, &presets); err != nil {
		return nil, fmt.Errorf("failed to parse presets %s: %w", path, err)
	}
	return presets, nil
}
