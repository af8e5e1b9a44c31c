package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("Expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Database.Type != "sqlite" {
		t.Errorf("Expected default database sqlite, got %s", cfg.Database.Type)
	}
	if cfg.Sync.PollInterval != 5*time.Second {
		t.Errorf("Expected default poll interval 5s, got %v", cfg.Sync.PollInterval)
	}
	if cfg.Sync.MaxAttempts != 5 {
		t.Errorf("Expected default max attempts 5, got %d", cfg.Sync.MaxAttempts)
	}
	if cfg.Sync.ReconcileInterval != 15*time.Minute {
		t.Errorf("Expected default reconcile interval 15m, got %v", cfg.Sync.ReconcileInterval)
	}
	if !cfg.Metrics.Enabled {
		t.Error("Expected metrics enabled by default")
	}
}

func TestLoadFromFile(t *testing.T) {
	content := `
server:
  port: "9999"
database:
  type: memory
sync:
  batch_size: 50
logging:
  level: debug
  json: true
`
	path := filepath.Join(t.TempDir(), "espace.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Failed to load config: %v", err)
	}

	if cfg.Server.Port != "9999" {
		t.Errorf("Expected port 9999, got %s", cfg.Server.Port)
	}
	if cfg.Database.Type != "memory" {
		t.Errorf("Expected memory database, got %s", cfg.Database.Type)
	}
	if cfg.Sync.BatchSize != 50 {
		t.Errorf("Expected batch size 50, got %d", cfg.Sync.BatchSize)
	}
	if cfg.Logging.Level != "debug" || !cfg.Logging.JSON {
		t.Errorf("Expected debug json logging, got %+v", cfg.Logging)
	}
	// File values merge over defaults
	if cfg.Sync.MaxAttempts != 5 {
		t.Errorf("Expected default max attempts to survive, got %d", cfg.Sync.MaxAttempts)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/espace.yaml"); err == nil {
		t.Error("Expected error for explicit missing file")
	}
}

func TestValidate(t *testing.T) {
	valid, err := Load("")
	if err != nil {
		t.Fatalf("Failed to load defaults: %v", err)
	}

	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults are valid", func(c *Config) {}, false},
		{"unknown database", func(c *Config) { c.Database.Type = "oracle" }, true},
		{"postgres without dsn", func(c *Config) { c.Database.Type = "postgres" }, true},
		{"postgres with dsn", func(c *Config) {
			c.Database.Type = "postgres"
			c.Database.DSN = "postgres://localhost/espace"
		}, false},
		{"zero batch size", func(c *Config) { c.Sync.BatchSize = 0 }, true},
		{"zero max attempts", func(c *Config) { c.Sync.MaxAttempts = 0 }, true},
		{"tls without cert", func(c *Config) {
			c.TLS.Enabled = true
			c.TLS.CertFile = ""
		}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := *valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
