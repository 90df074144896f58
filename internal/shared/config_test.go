package shared

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig(t *testing.T) {
	t.Run("DefaultConfig", func(t *testing.T) {
		config := DefaultConfig()

		if config.Database.Path != "./spotydl.db" {
			t.Errorf("expected database path ./spotydl.db, got %s", config.Database.Path)
		}

		if config.Catalog.MaxAttempts != 3 {
			t.Errorf("expected 3 attempts, got %d", config.Catalog.MaxAttempts)
		}

		if config.Catalog.AttemptTimeout != 10*time.Second {
			t.Errorf("expected 10s attempt timeout, got %v", config.Catalog.AttemptTimeout)
		}

		if config.Download.Format != "mp3" {
			t.Errorf("expected mp3 format, got %s", config.Download.Format)
		}

		if config.YouTube.ProxyURL != "http://127.0.0.1:8080" {
			t.Errorf("expected youtube proxy URL http://127.0.0.1:8080, got %s", config.YouTube.ProxyURL)
		}

		if config.Credentials.Spotify.Valid() {
			t.Errorf("expected empty default credentials, got %+v", config.Credentials.Spotify)
		}
	})

	t.Run("CreateConfigFile", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		if err := CreateConfigFile(configPath); err != nil {
			t.Fatalf("failed to create config file: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load created config: %v", err)
		}

		if config.Database.Path != DefaultConfig().Database.Path {
			t.Errorf("created config database path doesn't match default")
		}

		if err := CreateConfigFile(configPath); err == nil {
			t.Error("creating config file again should fail")
		}
	})

	t.Run("LoadConfig", func(t *testing.T) {
		configPath := filepath.Join(t.TempDir(), "config.toml")

		testConfig := `[credentials.spotify]
client_id = "test_client_id"
client_secret = "test_secret"

[catalog]
max_attempts = 5
attempt_timeout = "2s"

[download]
format = "opus"
concurrency = 8
`
		if err := os.WriteFile(configPath, []byte(testConfig), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		config, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("failed to load config: %v", err)
		}

		if config.Catalog.MaxAttempts != 5 {
			t.Errorf("expected 5 attempts, got %d", config.Catalog.MaxAttempts)
		}
		if config.Catalog.AttemptTimeout != 2*time.Second {
			t.Errorf("expected 2s timeout, got %v", config.Catalog.AttemptTimeout)
		}
		if config.Download.Format != "opus" {
			t.Errorf("expected opus, got %s", config.Download.Format)
		}
		if config.Catalog.Market != "US" {
			t.Errorf("expected default market to survive partial file, got %s", config.Catalog.Market)
		}
		if !config.Credentials.Spotify.Valid() {
			t.Error("expected credentials to be valid")
		}
	})

	t.Run("LoadConfig missing file", func(t *testing.T) {
		if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.toml")); err == nil {
			t.Error("expected error for missing file")
		}
	})

	t.Run("ApplyEnv", func(t *testing.T) {
		envPath := filepath.Join(t.TempDir(), ".env")
		if err := os.WriteFile(envPath, []byte("SPOTIFY_CLIENT_ID=from_env_file\n"), 0644); err != nil {
			t.Fatalf("failed to write env file: %v", err)
		}
		t.Setenv(EnvClientID, "")
		t.Setenv(EnvClientSecret, "secret_from_env")
		t.Setenv(EnvFormat, "flac")

		config := DefaultConfig()
		if err := config.ApplyEnv(envPath); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		if config.Credentials.Spotify.ClientSecret != "secret_from_env" {
			t.Errorf("expected secret from env, got %s", config.Credentials.Spotify.ClientSecret)
		}
		if config.Download.Format != "flac" {
			t.Errorf("expected flac, got %s", config.Download.Format)
		}
	})

	t.Run("ApplyEnv missing env file is ignored", func(t *testing.T) {
		config := DefaultConfig()
		if err := config.ApplyEnv(filepath.Join(t.TempDir(), "missing.env")); err != nil {
			t.Errorf("expected missing env file to be ignored, got %v", err)
		}
	})
}
