package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

// Config represents the application configuration
type Config struct {
	Group      GroupConfig      `json:"group"`
	Storage    StorageConfig    `json:"storage"`
	Transcript TranscriptConfig `json:"transcript"`
	Chat       ChatConfig       `json:"chat"`
	Ingest     IngestConfig     `json:"ingest"`
	Log        LogConfig        `json:"log"`
}

// GroupConfig identifies the chat group and its local calendar
type GroupConfig struct {
	Name     string `json:"name" validate:"required"`
	Timezone string `json:"timezone" validate:"required,timezone"`
}

// StorageConfig selects where the state document lives
type StorageConfig struct {
	Backend    string        `json:"backend" validate:"oneof=jsonbin sqlite"`
	JSONBin    JSONBinConfig `json:"jsonbin"`
	SQLitePath string        `json:"sqlite_path"`
}

// JSONBinConfig holds the remote document store credentials
type JSONBinConfig struct {
	BaseURL   string `json:"base_url" validate:"omitempty,url"`
	BinID     string `json:"bin_id"`
	MasterKey string `json:"master_key"`
}

// TranscriptConfig points at the exported chat history
type TranscriptConfig struct {
	ExportPath string `json:"export_path" validate:"required"`
}

// ChatConfig holds summary delivery settings. An empty WebhookURL means
// summaries are only printed.
type ChatConfig struct {
	WebhookURL     string `json:"webhook_url" validate:"omitempty,url"`
	AccessToken    string `json:"access_token"`
	TokenURL       string `json:"token_url" validate:"omitempty,url"`
	ClientID       string `json:"client_id"`
	ClientSecret   string `json:"client_secret"`
	TimeoutSeconds int    `json:"timeout_seconds" validate:"gte=0"`
}

// IngestConfig tunes how records are identified
type IngestConfig struct {
	RecordIDs string `json:"record_ids" validate:"oneof=position content"`
}

// LogConfig selects the logger flavour
type LogConfig struct {
	Env string `json:"env" validate:"oneof=development production"`
}

// Record ID strategies
const (
	RecordIDsPosition = "position"
	RecordIDsContent  = "content"
)

// Storage backends
const (
	BackendJSONBin = "jsonbin"
	BackendSQLite  = "sqlite"
)

// ErrNoConfig is returned when the config file doesn't exist
var ErrNoConfig = errors.New("config file not found")

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		Group: GroupConfig{
			Timezone: "America/Sao_Paulo",
		},
		Storage: StorageConfig{
			Backend: BackendJSONBin,
			JSONBin: JSONBinConfig{
				BaseURL: "https://api.jsonbin.io/v3/b",
			},
		},
		Chat: ChatConfig{
			TimeoutSeconds: 20,
		},
		Ingest: IngestConfig{
			RecordIDs: RecordIDsPosition,
		},
		Log: LogConfig{
			Env: "development",
		},
	}
}

// Load reads the configuration from path (default ~/.fitleague/config.json).
// Values from the environment, or a .env file in the working directory,
// override the file.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, ErrNoConfig
	}
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	_ = godotenv.Load() // .env is optional
	applyEnv(&cfg)
	applyDefaults(&cfg)

	return &cfg, nil
}

// applyEnv overrides secrets and deployment settings from the environment
func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"JSONBIN_BASE", &cfg.Storage.JSONBin.BaseURL},
		{"JSONBIN_BIN_ID", &cfg.Storage.JSONBin.BinID},
		{"JSONBIN_KEY", &cfg.Storage.JSONBin.MasterKey},
		{"WHATSAPP_GROUP_NAME", &cfg.Group.Name},
		{"FITLEAGUE_CHAT_TOKEN", &cfg.Chat.AccessToken},
		{"FITLEAGUE_CHAT_CLIENT_SECRET", &cfg.Chat.ClientSecret},
		{"FITLEAGUE_LOG_ENV", &cfg.Log.Env},
	}
	for _, o := range overrides {
		if v := os.Getenv(o.key); v != "" {
			*o.dst = v
		}
	}
}

// applyDefaults fills in missing values
func applyDefaults(cfg *Config) {
	defaults := DefaultConfig()
	if cfg.Group.Timezone == "" {
		cfg.Group.Timezone = defaults.Group.Timezone
	}
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = defaults.Storage.Backend
	}
	if cfg.Storage.JSONBin.BaseURL == "" {
		cfg.Storage.JSONBin.BaseURL = defaults.Storage.JSONBin.BaseURL
	}
	if cfg.Chat.TimeoutSeconds == 0 {
		cfg.Chat.TimeoutSeconds = defaults.Chat.TimeoutSeconds
	}
	if cfg.Ingest.RecordIDs == "" {
		cfg.Ingest.RecordIDs = defaults.Ingest.RecordIDs
	}
	if cfg.Log.Env == "" {
		cfg.Log.Env = defaults.Log.Env
	}
}

// Save writes the configuration to path (default ~/.fitleague/config.json)
func Save(path string, cfg *Config) error {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// CreateExample creates an example config file if none exists
func CreateExample(path string) error {
	if path == "" {
		p, err := getConfigPath()
		if err != nil {
			return err
		}
		path = p
	}

	// Check if config already exists
	if _, err := os.Stat(path); err == nil {
		return nil // Config exists, don't overwrite
	}

	example := DefaultConfig()
	example.Group.Name = "YOUR_GROUP_NAME"
	example.Storage.JSONBin.BinID = "YOUR_BIN_ID"
	example.Storage.JSONBin.MasterKey = "YOUR_MASTER_KEY"
	example.Transcript.ExportPath = "/path/to/_chat.txt"

	return Save(path, &example)
}

// Location loads the group's timezone
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Group.Timezone)
	if err != nil {
		return nil, fmt.Errorf("loading timezone %q: %w", c.Group.Timezone, err)
	}
	return loc, nil
}

// ChatTimeout returns the delivery timeout as a duration
func (c *Config) ChatTimeout() time.Duration {
	return time.Duration(c.Chat.TimeoutSeconds) * time.Second
}

// ResolvePath returns path, or the default config file location if empty
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	return getConfigPath()
}

// getConfigPath returns the path to the config file
func getConfigPath() (string, error) {
	dir, err := GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "config.json"), nil
}

// GetConfigDir returns the path to the config directory
func GetConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".fitleague"), nil
}
