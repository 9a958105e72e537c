package config

import (
	"os"
	"strconv"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port              int
	UsersPath         string
	AppsPath          string
	FilesRoot         string
	MaxUploadBytes    int64
	BroadcastInterval time.Duration
	SessionTTL        time.Duration
	LogLevel          zerolog.Level
}

// fileConfig mirrors Config for the optional YAML config file. Durations are
// plain strings ("3s", "24h") so the file stays hand-editable.
type fileConfig struct {
	Port              int    `yaml:"port"`
	UsersPath         string `yaml:"users_path"`
	AppsPath          string `yaml:"apps_path"`
	FilesRoot         string `yaml:"files_root"`
	MaxUploadBytes    int64  `yaml:"max_upload_bytes"`
	BroadcastInterval string `yaml:"broadcast_interval"`
	SessionTTL        string `yaml:"session_ttl"`
	LogLevel          string `yaml:"log_level"`
}

// FromEnv builds the effective config: defaults, then the YAML file named by
// PANEL_CONFIG (if any), then PANEL_* environment overrides.
func FromEnv() Config {
	cfg := Config{
		Port:              1468,
		UsersPath:         "config/users.json",
		AppsPath:          "config/apps.json",
		FilesRoot:         "data/files",
		MaxUploadBytes:    64 << 20,
		BroadcastInterval: 3 * time.Second,
		SessionTTL:        24 * time.Hour,
		LogLevel:          zerolog.InfoLevel,
	}

	if path := os.Getenv("PANEL_CONFIG"); path != "" {
		applyFile(&cfg, path)
	}

	if v := os.Getenv("PANEL_PORT"); v != "" {
		if p, err := strconv.Atoi(v); err == nil && p > 0 {
			cfg.Port = p
		}
	}
	if v := os.Getenv("PANEL_USERS_PATH"); v != "" {
		cfg.UsersPath = v
	}
	if v := os.Getenv("PANEL_APPS_PATH"); v != "" {
		cfg.AppsPath = v
	}
	if v := os.Getenv("PANEL_FILES_ROOT"); v != "" {
		cfg.FilesRoot = v
	}
	if v := os.Getenv("PANEL_MAX_UPLOAD_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}
	if v := os.Getenv("PANEL_BROADCAST_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.BroadcastInterval = d
		}
	}
	if v := os.Getenv("PANEL_SESSION_TTL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if v := os.Getenv("PANEL_LOG"); v != "" {
		if l, err := zerolog.ParseLevel(v); err == nil {
			cfg.LogLevel = l
		}
	}

	return cfg
}

func applyFile(cfg *Config, path string) {
	b, err := os.ReadFile(path)
	if err != nil {
		return
	}
	var f fileConfig
	if err := yaml.Unmarshal(b, &f); err != nil {
		return
	}
	if f.Port > 0 {
		cfg.Port = f.Port
	}
	if f.UsersPath != "" {
		cfg.UsersPath = f.UsersPath
	}
	if f.AppsPath != "" {
		cfg.AppsPath = f.AppsPath
	}
	if f.FilesRoot != "" {
		cfg.FilesRoot = f.FilesRoot
	}
	if f.MaxUploadBytes > 0 {
		cfg.MaxUploadBytes = f.MaxUploadBytes
	}
	if f.BroadcastInterval != "" {
		if d, err := time.ParseDuration(f.BroadcastInterval); err == nil && d > 0 {
			cfg.BroadcastInterval = d
		}
	}
	if f.SessionTTL != "" {
		if d, err := time.ParseDuration(f.SessionTTL); err == nil && d > 0 {
			cfg.SessionTTL = d
		}
	}
	if f.LogLevel != "" {
		if l, err := zerolog.ParseLevel(f.LogLevel); err == nil {
			cfg.LogLevel = l
		}
	}
}
