package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

var keys = []string{
	"PORT", "DATABASE_URL", "TURSO_DATABASE_URL", "TURSO_AUTH_TOKEN", "SQLITE_PATH",
	"REDIS_URL", "CACHE_TTL", "AUTOSAVE_DELAY", "RULES_FILE",
}

// clearEnv blanks every variable the package reads for the test's duration.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range keys {
		t.Setenv(k, "")
	}
}

func TestFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Errorf("expected port 8080, got %s", cfg.Port)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Errorf("expected cache ttl 30s, got %v", cfg.CacheTTL)
	}
	if cfg.AutosaveDelay != 500*time.Millisecond {
		t.Errorf("expected autosave delay 500ms, got %v", cfg.AutosaveDelay)
	}
	if cfg.DatabaseURL != "" || cfg.SQLitePath != "" {
		t.Errorf("expected no store configured, got %+v", cfg)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	clearEnv(t)
	rules := filepath.Join(t.TempDir(), "rules.yaml")
	if err := os.WriteFile(rules, []byte("all_out_wickets: 5\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("PORT", "9090")
	t.Setenv("SQLITE_PATH", "/tmp/matches.db")
	t.Setenv("CACHE_TTL", "2m")
	t.Setenv("AUTOSAVE_DELAY", "1s")
	t.Setenv("RULES_FILE", rules)

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Port != "9090" || cfg.SQLitePath != "/tmp/matches.db" {
		t.Errorf("unexpected config %+v", cfg)
	}
	if cfg.CacheTTL != 2*time.Minute || cfg.AutosaveDelay != time.Second {
		t.Errorf("unexpected durations %v, %v", cfg.CacheTTL, cfg.AutosaveDelay)
	}
	if cfg.RulesFile != rules {
		t.Errorf("expected rules file %s, got %s", rules, cfg.RulesFile)
	}
}

func TestFromEnv_Invalid(t *testing.T) {
	tests := []struct {
		key, value string
	}{
		{"CACHE_TTL", "soon"},
		{"AUTOSAVE_DELAY", "-1s"},
		{"RULES_FILE", "/does/not/exist.yaml"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)
			if _, err := FromEnv(); err == nil {
				t.Errorf("expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}

func TestLoadEnvFile(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("PORT=7070\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	// godotenv does not override variables that are already set.
	os.Unsetenv("PORT")
	t.Cleanup(func() { os.Unsetenv("PORT") })

	got := LoadEnvFile(filepath.Join(dir, "missing.env"), path)
	if got != path {
		t.Fatalf("expected %s to load, got %q", path, got)
	}
	if os.Getenv("PORT") != "7070" {
		t.Errorf("expected PORT from .env, got %q", os.Getenv("PORT"))
	}
}
