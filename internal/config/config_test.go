package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaultsWithoutFile(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if cfg.Server != want.Server || cfg.Log != want.Log || cfg.Engine != want.Engine ||
		cfg.Source != want.Source || cfg.History != want.History {
		t.Errorf("Load() = %+v, want defaults %+v", cfg, want)
	}
}

func TestLoadFileAndEnvLayers(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", dir)

	path := filepath.Join(dir, "guestdist.yaml")
	content := `
server:
  addr: 0.0.0.0:9000
  read_timeout: 3s
log:
  level: debug
engine:
  parallelism: 2
source:
  kind: yaml
  path: /tmp/scores.yaml
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	t.Setenv("GUESTDIST_ENGINE_PARALLELISM", "6")
	t.Setenv("GUESTDIST_SERVER_WRITE_TIMEOUT", "45s")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Server.Addr != "0.0.0.0:9000" {
		t.Errorf("Server.Addr = %q", cfg.Server.Addr)
	}
	if cfg.Server.ReadTimeout != 3*time.Second {
		t.Errorf("Server.ReadTimeout = %v, want 3s", cfg.Server.ReadTimeout)
	}
	if cfg.Server.WriteTimeout != 45*time.Second {
		t.Errorf("Server.WriteTimeout = %v, want 45s from env", cfg.Server.WriteTimeout)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("Log.Level = %q, want debug", cfg.Log.Level)
	}
	if cfg.Log.Format != "console" {
		t.Errorf("Log.Format = %q, want default console", cfg.Log.Format)
	}
	if cfg.Engine.Parallelism != 6 {
		t.Errorf("Engine.Parallelism = %d, want 6 from env", cfg.Engine.Parallelism)
	}
	if cfg.Source.Kind != SourceYAML || cfg.Source.Path != "/tmp/scores.yaml" {
		t.Errorf("Source = %+v", cfg.Source)
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected an error for a missing explicit config file")
	}
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	t.Setenv("GUESTDIST_SOURCE_KIND", "postgres")

	_, err := Load("")
	if err == nil || !strings.Contains(err.Error(), "unknown source kind") {
		t.Fatalf("Load() error = %v, want unknown source kind", err)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults", func(*Config) {}, false},
		{"empty addr", func(c *Config) { c.Server.Addr = "" }, true},
		{"zero parallelism", func(c *Config) { c.Engine.Parallelism = 0 }, true},
		{"bad log format", func(c *Config) { c.Log.Format = "xml" }, true},
		{"sqlite without path", func(c *Config) { c.Source.Kind = SourceSQLite }, true},
		{"sqlite with path", func(c *Config) {
			c.Source = SourceConfig{Kind: SourceSQLite, Path: "scores.db"}
		}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestSaveAndReload(t *testing.T) {
	t.Setenv("HOME", t.TempDir())

	exists, err := Exists()
	if err != nil || exists {
		t.Fatalf("Exists() = %v, %v before save", exists, err)
	}

	cfg := Default()
	cfg.Server.Addr = "127.0.0.1:9999"
	cfg.Server.ShutdownTimeout = 2 * time.Second
	cfg.Source = SourceConfig{Kind: SourceSQLite, Path: "/data/scores.db"}
	cfg.History.Enabled = false

	if err := Save(cfg); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	exists, err = Exists()
	if err != nil || !exists {
		t.Fatalf("Exists() = %v, %v after save", exists, err)
	}

	path, _ := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), "shutdown_timeout: 2s") {
		t.Errorf("saved file should keep readable durations:\n%s", data)
	}

	loaded, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if loaded.Server != cfg.Server || loaded.Source != cfg.Source || loaded.History != cfg.History {
		t.Errorf("reloaded config = %+v, want %+v", loaded, cfg)
	}
}

func TestEnvTransformFunc(t *testing.T) {
	tests := map[string]string{
		"GUESTDIST_SERVER_ADDR":         "server.addr",
		"GUESTDIST_SERVER_READ_TIMEOUT": "server.read_timeout",
		"GUESTDIST_HISTORY_ENABLED":     "history.enabled",
	}
	for in, want := range tests {
		if got := envTransformFunc(in); got != want {
			t.Errorf("envTransformFunc(%q) = %q, want %q", in, got, want)
		}
	}
}
