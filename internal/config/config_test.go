package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func validConfig() Config {
	cfg := DefaultConfig()
	cfg.Group.Name = "Treino em Grupo"
	cfg.Storage.JSONBin.BinID = "abc123"
	cfg.Storage.JSONBin.MasterKey = "$2a$10$secret"
	cfg.Transcript.ExportPath = "/tmp/_chat.txt"
	return cfg
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Group.Timezone != "America/Sao_Paulo" {
		t.Errorf("Group.Timezone = %q, want %q", cfg.Group.Timezone, "America/Sao_Paulo")
	}
	if cfg.Storage.Backend != BackendJSONBin {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendJSONBin)
	}
	if cfg.Storage.JSONBin.BaseURL != "https://api.jsonbin.io/v3/b" {
		t.Errorf("Storage.JSONBin.BaseURL = %q", cfg.Storage.JSONBin.BaseURL)
	}
	if cfg.Ingest.RecordIDs != RecordIDsPosition {
		t.Errorf("Ingest.RecordIDs = %q, want %q", cfg.Ingest.RecordIDs, RecordIDsPosition)
	}
	if cfg.Chat.WebhookURL != "" {
		t.Errorf("Chat.WebhookURL should be empty, got %q", cfg.Chat.WebhookURL)
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name        string
		mutate      func(c *Config)
		expectError bool
		errContains string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:        "missing group name",
			mutate:      func(c *Config) { c.Group.Name = "" },
			expectError: true,
			errContains: "group.name",
		},
		{
			name:        "placeholder group name",
			mutate:      func(c *Config) { c.Group.Name = "YOUR_GROUP_NAME" },
			expectError: true,
			errContains: "group.name",
		},
		{
			name:        "bad timezone",
			mutate:      func(c *Config) { c.Group.Timezone = "Mars/Olympus" },
			expectError: true,
			errContains: "group.timezone",
		},
		{
			name:        "unknown backend",
			mutate:      func(c *Config) { c.Storage.Backend = "redis" },
			expectError: true,
			errContains: "storage.backend",
		},
		{
			name:        "jsonbin without bin id",
			mutate:      func(c *Config) { c.Storage.JSONBin.BinID = "" },
			expectError: true,
			errContains: "bin_id",
		},
		{
			name:        "jsonbin placeholder key",
			mutate:      func(c *Config) { c.Storage.JSONBin.MasterKey = "YOUR_MASTER_KEY" },
			expectError: true,
			errContains: "master_key",
		},
		{
			name: "sqlite backend needs no jsonbin credentials",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendSQLite
				c.Storage.JSONBin = JSONBinConfig{}
			},
		},
		{
			name:        "missing export path",
			mutate:      func(c *Config) { c.Transcript.ExportPath = "" },
			expectError: true,
			errContains: "transcript.export_path",
		},
		{
			name:        "invalid webhook url",
			mutate:      func(c *Config) { c.Chat.WebhookURL = "not a url" },
			expectError: true,
			errContains: "chat.webhook_url",
		},
		{
			name:        "token url without client credentials",
			mutate:      func(c *Config) { c.Chat.TokenURL = "https://auth.example.com/token" },
			expectError: true,
			errContains: "client_id",
		},
		{
			name:        "unknown record id strategy",
			mutate:      func(c *Config) { c.Ingest.RecordIDs = "hash" },
			expectError: true,
			errContains: "ingest.record_ids",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.expectError {
				if err == nil {
					t.Error("expected error, got nil")
				} else if tt.errContains != "" && !strings.Contains(err.Error(), tt.errContains) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errContains)
				}
			} else if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != ErrNoConfig {
		t.Errorf("Load error = %v, want ErrNoConfig", err)
	}
}

func TestLoad_DefaultsAndEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.json")
	data := `{"group": {"name": "Corredores"}, "storage": {"jsonbin": {"bin_id": "file-bin"}}, "transcript": {"export_path": "/x"}}`
	if err := os.WriteFile(path, []byte(data), 0600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("JSONBIN_BIN_ID", "env-bin")
	t.Setenv("JSONBIN_KEY", "env-key")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Storage.JSONBin.BinID != "env-bin" {
		t.Errorf("BinID = %q, want env override %q", cfg.Storage.JSONBin.BinID, "env-bin")
	}
	if cfg.Storage.JSONBin.MasterKey != "env-key" {
		t.Errorf("MasterKey = %q, want %q", cfg.Storage.JSONBin.MasterKey, "env-key")
	}
	if cfg.Group.Timezone != "America/Sao_Paulo" {
		t.Errorf("Timezone default not applied: %q", cfg.Group.Timezone)
	}
	if cfg.Ingest.RecordIDs != RecordIDsPosition {
		t.Errorf("RecordIDs default not applied: %q", cfg.Ingest.RecordIDs)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("loaded config should validate: %v", err)
	}
}

func TestLoad_InvalidJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil || !strings.Contains(err.Error(), "parsing config file") {
		t.Errorf("expected parse error, got %v", err)
	}
}

func TestCreateExample(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "config.json")
	if err := CreateExample(path); err != nil {
		t.Fatalf("CreateExample failed: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	// Placeholders must not pass validation
	if err := cfg.Validate(); err == nil {
		t.Error("example config should fail validation until edited")
	}

	// A second call must not overwrite edits
	cfg.Group.Name = "Edited"
	if err := Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	if err := CreateExample(path); err != nil {
		t.Fatal(err)
	}
	again, _ := Load(path)
	if again.Group.Name != "Edited" {
		t.Errorf("CreateExample overwrote existing config")
	}
}
