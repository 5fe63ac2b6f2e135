package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Listen != ":3000" {
		t.Errorf("expected :3000, got %q", cfg.Listen)
	}
	if cfg.Database.Path == "" || cfg.Data.Dir == "" {
		t.Errorf("expected defaults filled, got %+v", cfg)
	}
}

func TestLoadFromPath(t *testing.T) {
	t.Run("loads and applies defaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		content := "listen: \":8080\"\ndata:\n  dir: /srv/mess/data\n"
		if err := os.WriteFile(path, []byte(content), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		cfg, from, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if from != path {
			t.Errorf("expected path %q, got %q", path, from)
		}
		if cfg.Listen != ":8080" {
			t.Errorf("expected :8080, got %q", cfg.Listen)
		}
		if cfg.Data.Dir != "/srv/mess/data" {
			t.Errorf("expected /srv/mess/data, got %q", cfg.Data.Dir)
		}
		if cfg.Database.Path != "./messprotokoll.db" {
			t.Errorf("expected default db path, got %q", cfg.Database.Path)
		}
	})

	t.Run("env override wins", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("listen: \":8080\"\n"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		t.Setenv("MESSPROTOKOLL_LISTEN", ":9090")

		cfg, _, err := LoadFromPath(path)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if cfg.Listen != ":9090" {
			t.Errorf("expected env override :9090, got %q", cfg.Listen)
		}
	})

	t.Run("malformed file", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.yaml")
		if err := os.WriteFile(path, []byte("{nope"), 0644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}
		if _, _, err := LoadFromPath(path); err == nil {
			t.Error("expected parse error")
		}
	})

	t.Run("missing file", func(t *testing.T) {
		if _, _, err := LoadFromPath(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
			t.Error("expected read error")
		}
	})
}

func TestSaveRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "nested", "config.yaml")

	cfg := DefaultConfig()
	cfg.Listen = ":7000"
	if err := cfg.Save(path); err != nil {
		t.Fatalf("save failed: %v", err)
	}

	loaded, _, err := LoadFromPath(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if loaded.Listen != ":7000" {
		t.Errorf("expected :7000, got %q", loaded.Listen)
	}
}
