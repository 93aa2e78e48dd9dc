package config

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
	"github.com/natefinch/atomic"
)

const (
	// EnvGithubToken is the environment variable name for the GitHub API token
	EnvGithubToken = "NOTEHUB_GITHUB_TOKEN"

	appDirName     = "notehub"
	configFileName = "config.toml"
	defaultDBName  = "notehub.db"
)

// Config represents the application configuration. Repository selection does
// not live here: tracked repositories and the default repository are persisted
// in the database registry.
type Config struct {
	// GitHub API token for authentication (optional, can be set via NOTEHUB_GITHUB_TOKEN env var)
	GitHubToken string `toml:"github_token"`

	// Path to the SQLite database file
	DatabasePath string `toml:"database_path"`
}

// DefaultPath returns the per-user config file location.
func DefaultPath() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to determine config directory: %w", err)
	}
	return filepath.Join(base, appDirName, configFileName), nil
}

// Load loads the configuration from a TOML file. A missing file is not an
// error; it yields the defaults.
func Load(path string) (*Config, error) {
	var config Config

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	} else if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Check for GitHub token in environment variable
	if envToken := os.Getenv(EnvGithubToken); envToken != "" {
		config.GitHubToken = envToken
	}

	// Set default database path if not specified
	if config.DatabasePath == "" {
		config.DatabasePath = defaultDBName
	}

	// Make database path absolute if it's relative
	if !filepath.IsAbs(config.DatabasePath) {
		configDir := filepath.Dir(path)
		config.DatabasePath = filepath.Join(configDir, config.DatabasePath)
	}

	return &config, nil
}

// Save writes the configuration atomically so a crashed write never leaves a
// truncated config behind.
func Save(config *Config, path string) error {
	var buf bytes.Buffer
	if err := toml.NewEncoder(&buf).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	if err := atomic.WriteFile(path, &buf); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}
