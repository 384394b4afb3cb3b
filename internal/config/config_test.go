package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DATABASE_URL", "test.sqlite")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("ENV", "development")
	t.Setenv("PORT", "")
	t.Setenv("TOP_LIST_LIMIT", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected default port 8080, got %q", cfg.Port)
	}
	if cfg.TopListLimit != 10 {
		t.Errorf("expected default top list limit 10, got %d", cfg.TopListLimit)
	}
	if cfg.NATSSubject != "championship" {
		t.Errorf("expected default subject, got %q", cfg.NATSSubject)
	}
	if !cfg.IsDevelopment() {
		t.Error("expected development env")
	}
}

func TestLoadFileThenEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := "port: \"9000\"\ndb_driver: sqlite\ndatabase_url: file.sqlite\ntop_list_limit: 5\nnats_embedded: true\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_FILE", path)
	t.Setenv("ENV", "development")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("PORT", "7000")
	t.Setenv("TOP_LIST_LIMIT", "")
	t.Setenv("NATS_EMBEDDED", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Port != "7000" {
		t.Errorf("env should override file port, got %q", cfg.Port)
	}
	if cfg.DatabaseURL != "file.sqlite" {
		t.Errorf("expected database url from file, got %q", cfg.DatabaseURL)
	}
	if cfg.TopListLimit != 5 {
		t.Errorf("expected top list limit 5 from file, got %d", cfg.TopListLimit)
	}
	if !cfg.NATSEmbedded {
		t.Error("expected nats_embedded from file")
	}
}

func TestLoadValidation(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"missing database url", map[string]string{"DATABASE_URL": "", "DB_DRIVER": "postgres", "ENV": "development"}},
		{"unknown driver", map[string]string{"DATABASE_URL": "x", "DB_DRIVER": "mysql", "ENV": "development"}},
		{"production without secret", map[string]string{"DATABASE_URL": "x", "DB_DRIVER": "postgres", "ENV": "production", "JWT_SECRET": ""}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Setenv("CONFIG_FILE", "")
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			if _, err := Load(); err == nil {
				t.Errorf("expected validation error")
			}
		})
	}
}
