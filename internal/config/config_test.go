package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaults(t *testing.T) {
	cfg := FromEnv()
	if cfg.Port != 1468 {
		t.Fatalf("default port: got %d", cfg.Port)
	}
	if cfg.BroadcastInterval != 3*time.Second {
		t.Fatalf("default broadcast interval: got %v", cfg.BroadcastInterval)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("default session ttl: got %v", cfg.SessionTTL)
	}
	if cfg.MaxUploadBytes != 64<<20 {
		t.Fatalf("default upload cap: got %d", cfg.MaxUploadBytes)
	}
}

func TestFileThenEnvPrecedence(t *testing.T) {
	dir := t.TempDir()
	cf := filepath.Join(dir, "paneld.yaml")
	body := "port: 2000\nfiles_root: /srv/panel\nbroadcast_interval: 5s\n"
	if err := os.WriteFile(cf, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PANEL_CONFIG", cf)
	t.Setenv("PANEL_PORT", "3000")

	cfg := FromEnv()
	if cfg.Port != 3000 {
		t.Fatalf("env should win over file: got %d", cfg.Port)
	}
	if cfg.FilesRoot != "/srv/panel" {
		t.Fatalf("file value not applied: got %q", cfg.FilesRoot)
	}
	if cfg.BroadcastInterval != 5*time.Second {
		t.Fatalf("file interval not applied: got %v", cfg.BroadcastInterval)
	}
}

func TestBadValuesIgnored(t *testing.T) {
	t.Setenv("PANEL_PORT", "not-a-port")
	t.Setenv("PANEL_SESSION_TTL", "-5h")
	cfg := FromEnv()
	if cfg.Port != 1468 {
		t.Fatalf("bad port should fall back to default, got %d", cfg.Port)
	}
	if cfg.SessionTTL != 24*time.Hour {
		t.Fatalf("negative ttl should fall back to default, got %v", cfg.SessionTTL)
	}
}
