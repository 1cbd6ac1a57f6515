package shared

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "cache.db" {
			t.Errorf("expected database path cache.db, got %s", config.Database.Path)
		}

		if config.Preferences.Storefront != "us" {
			t.Errorf("expected storefront us, got %s", config.Preferences.Storefront)
		}

		if !config.Preferences.AutoSearch {
			t.Error("expected auto_search enabled by default")
		}

		if config.Auth.Port != 8765 {
			t.Errorf("expected auth port 8765, got %d", config.Auth.Port)
		}

		if config.Automation.TimeoutSeconds != 30 {
			t.Errorf("expected automation timeout 30, got %d", config.Automation.TimeoutSeconds)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		if _, err := os.Stat(configPath); err != nil {
			t.Fatalf("config file should exist: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		defaultConfig := DefaultConfig()
		if config.Database.Path != defaultConfig.Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "config.toml")

		testConfig := `[credentials]
team_id = "ABCDE12345"
key_id = "XYZ9876543"
private_key_path = "/keys/AuthKey_XYZ9876543.p8"

[preferences]
storefront = "gb"
auto_search = false

[database]
path = "/custom/path.db"
max_open_conns = 20
max_idle_conns = 10

[automation]
timeout_seconds = 10

[auth]
port = 9000
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Credentials.TeamID != "ABCDE12345" {
			t.Errorf("expected team_id ABCDE12345, got %s", config.Credentials.TeamID)
		}

		if config.Preferences.Storefront != "gb" {
			t.Errorf("expected storefront gb, got %s", config.Preferences.Storefront)
		}

		if config.Preferences.AutoSearch {
			t.Error("expected auto_search disabled")
		}

		if config.Database.Path != "/custom/path.db" {
			t.Errorf("expected database path /custom/path.db, got %s", config.Database.Path)
		}

		if config.Auth.Port != 9000 {
			t.Errorf("expected auth port 9000, got %d", config.Auth.Port)
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
			t.Error("expected error for missing config file")
		}
	})
}
