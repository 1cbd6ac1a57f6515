package shared

import (
	_ "embed"
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

//go:embed config.example.toml
var exampleConf []byte

// Config represents the application configuration loaded from a TOML file.
type Config struct {
	Credentials CredentialsConfig `toml:"credentials"`
	Preferences PreferencesConfig `toml:"preferences"`
	Database    DatabaseConfig    `toml:"database"`
	Automation  AutomationConfig  `toml:"automation"`
	Auth        AuthConfig        `toml:"auth"`
}

// CredentialsConfig contains Apple Developer credentials used to mint developer tokens.
type CredentialsConfig struct {
	TeamID         string `toml:"team_id"`
	KeyID          string `toml:"key_id"`
	PrivateKeyPath string `toml:"private_key_path"`
}

// PreferencesConfig contains user preferences threaded explicitly into resolution
// and search calls rather than read from globals.
type PreferencesConfig struct {
	Storefront string `toml:"storefront"`  // Apple Music storefront region (e.g. "us")
	AutoSearch bool   `toml:"auto_search"` // Search the catalog when a playlist add misses the library
}

// DatabaseConfig contains metadata cache database settings.
type DatabaseConfig struct {
	Path         string `toml:"path"`
	MaxOpenConns int    `toml:"max_open_conns"`
	MaxIdleConns int    `toml:"max_idle_conns"`
}

// AutomationConfig contains Music.app scripting settings.
type AutomationConfig struct {
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// AuthConfig contains local authorization server settings.
type AuthConfig struct {
	Port int `toml:"port"`
}

// LoadConfig reads and parses a TOML configuration file from the specified path.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMissingConfig, err)
	}

	var config Config
	if err := toml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	return &config, nil
}

// DefaultConfig returns a Config with sensible defaults loaded from the embedded example config.
func DefaultConfig() *Config {
	var config Config
	if err := toml.Unmarshal(exampleConf, &config); err != nil {
		panic(fmt.Sprintf("failed to parse embedded default config: %v", err))
	}
	return &config
}

// CreateConfigFile creates a config.toml file at the specified path using the embedded example config.
func CreateConfigFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("config file already exists at %s", path)
	}

	if err := os.WriteFile(path, exampleConf, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ConfigDir returns the directory holding tokens and config, creating it if needed.
//
// Defaults to ~/.config/applemusic-mcp.
func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".config", "applemusic-mcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create config directory: %w", err)
	}
	return dir, nil
}

// CacheDir returns the directory holding the metadata cache and audit log, creating it if needed.
//
// Defaults to ~/.cache/applemusic-mcp.
func CacheDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	dir := filepath.Join(home, ".cache", "applemusic-mcp")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create cache directory: %w", err)
	}
	return dir, nil
}
