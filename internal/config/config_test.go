package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadConfig(t *testing.T) {
	// Test loading default config when file doesn't exist
	t.Run("LoadDefaultWhenMissing", func(t *testing.T) {
		cfg, err := LoadConfig("nonexistent.yaml")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg == nil {
			t.Fatal("expected default config, got nil")
		}
		if cfg.Room.MaxPlayers != 4 {
			t.Errorf("expected MaxPlayers 4, got %d", cfg.Room.MaxPlayers)
		}
		if cfg.Room.CodeLength != 6 {
			t.Errorf("expected CodeLength 6, got %d", cfg.Room.CodeLength)
		}
		if cfg.Room.RequestTTL != 5*time.Second {
			t.Errorf("expected RequestTTL 5s, got %s", cfg.Room.RequestTTL)
		}
	})

	// Test loading from YAML file
	t.Run("LoadFromYAML", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "test-config.yaml")

		yamlContent := `
room:
  codeLength: 8
  maxPlayers: 4
  requestTTL: 2s

relay:
  port: "9090"
  url: "ws://relay.example:9090/ws"
  rateLimit: 50

log:
  level: debug
  format: json
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		cfg, err := LoadConfig(configPath)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if cfg.Room.CodeLength != 8 {
			t.Errorf("expected CodeLength 8, got %d", cfg.Room.CodeLength)
		}
		if cfg.Room.RequestTTL != 2*time.Second {
			t.Errorf("expected RequestTTL 2s, got %s", cfg.Room.RequestTTL)
		}
		if cfg.Relay.Port != "9090" {
			t.Errorf("expected Port 9090, got %s", cfg.Relay.Port)
		}
		if cfg.Relay.RateLimit != 50 {
			t.Errorf("expected RateLimit 50, got %f", cfg.Relay.RateLimit)
		}
		if cfg.Log.Level != "debug" {
			t.Errorf("expected log level debug, got %s", cfg.Log.Level)
		}
		// Unspecified fields fall back to defaults
		if cfg.Room.BombHitResetDelay != 100*time.Millisecond {
			t.Errorf("expected default BombHitResetDelay, got %s", cfg.Room.BombHitResetDelay)
		}
	})

	t.Run("RejectsInvalidConfig", func(t *testing.T) {
		tmpDir := t.TempDir()
		configPath := filepath.Join(tmpDir, "bad.yaml")

		yamlContent := `
room:
  maxPlayers: 1
`
		if err := os.WriteFile(configPath, []byte(yamlContent), 0644); err != nil {
			t.Fatalf("failed to write test config: %v", err)
		}

		if _, err := LoadConfig(configPath); err == nil {
			t.Error("expected validation error for maxPlayers 1")
		}
	})
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"short room code", func(c *Config) { c.Room.CodeLength = 2 }, true},
		{"zero request TTL", func(c *Config) { c.Room.RequestTTL = 0 }, true},
		{"missing relay port", func(c *Config) { c.Relay.Port = "" }, true},
		{"missing relay url", func(c *Config) { c.Relay.URL = "" }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"tiny message size", func(c *Config) { c.Relay.MaxMessageSize = 16 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestConfig_YAMLRoundTrip(t *testing.T) {
	cfg := DefaultConfig()

	out, err := cfg.YAML()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "dump.yaml")
	if err := os.WriteFile(configPath, out, 0644); err != nil {
		t.Fatalf("failed to write dumped config: %v", err)
	}

	loaded, err := LoadConfig(configPath)
	if err != nil {
		t.Fatalf("reloading dumped config: %v", err)
	}
	if loaded.Room.MaxPlayers != cfg.Room.MaxPlayers {
		t.Errorf("round trip lost maxPlayers: %d != %d", loaded.Room.MaxPlayers, cfg.Room.MaxPlayers)
	}
	if loaded.Relay.URL != cfg.Relay.URL {
		t.Errorf("round trip lost relay url: %s != %s", loaded.Relay.URL, cfg.Relay.URL)
	}
}
