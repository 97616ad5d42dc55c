package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.FetchTimeout() != 15*time.Second {
		t.Errorf("fetch timeout = %v, want 15s", cfg.FetchTimeout())
	}
	if cfg.Fetcher.MaxBodyBytes != 5<<20 {
		t.Errorf("max body bytes = %d, want %d", cfg.Fetcher.MaxBodyBytes, 5<<20)
	}
	if cfg.Captioner.Backend != "none" {
		t.Errorf("backend = %q, want none", cfg.Captioner.Backend)
	}
	if cfg.Captioner.MaxTokens != 48 {
		t.Errorf("max tokens = %d, want 48", cfg.Captioner.MaxTokens)
	}
}

func TestLoadFromFileMergesOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	data := `{
		"server": {"listen_addr": ":9090"},
		"captioner": {"backend": "ollama", "url": "http://localhost:11434", "model": "llava"}
	}`
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile() error: %v", err)
	}
	if cfg.Server.ListenAddr != ":9090" {
		t.Errorf("listen addr = %q, want :9090", cfg.Server.ListenAddr)
	}
	if cfg.Captioner.Backend != "ollama" || cfg.Captioner.Model != "llava" {
		t.Errorf("captioner = %+v", cfg.Captioner)
	}
	// Untouched sections keep their defaults.
	if cfg.Fetcher.TimeoutSeconds != 15 {
		t.Errorf("fetch timeout seconds = %d, want 15", cfg.Fetcher.TimeoutSeconds)
	}
}

func TestLoadFromFileErrors(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("missing file should fail")
	}

	path := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("malformed JSON should fail")
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("ALTTEXT_LISTEN_ADDR", ":7070")
	t.Setenv("ALTTEXT_FETCH_TIMEOUT_SECONDS", "30")
	t.Setenv("ALTTEXT_FETCH_MAX_BODY_BYTES", "1048576")
	t.Setenv("ALTTEXT_CAPTIONER_BACKEND", "openai")
	t.Setenv("ALTTEXT_CAPTIONER_MODEL", "gpt-4o-mini")
	t.Setenv("ALTTEXT_CAPTIONER_MAX_TOKENS", "64")
	t.Setenv("ALTTEXT_LOG_LEVEL", "debug")

	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}

	if cfg.Server.ListenAddr != ":7070" {
		t.Errorf("listen addr = %q", cfg.Server.ListenAddr)
	}
	if cfg.Fetcher.TimeoutSeconds != 30 {
		t.Errorf("timeout seconds = %d", cfg.Fetcher.TimeoutSeconds)
	}
	if cfg.Fetcher.MaxBodyBytes != 1048576 {
		t.Errorf("max body bytes = %d", cfg.Fetcher.MaxBodyBytes)
	}
	if cfg.Captioner.Backend != "openai" || cfg.Captioner.Model != "gpt-4o-mini" {
		t.Errorf("captioner = %+v", cfg.Captioner)
	}
	if cfg.Captioner.MaxTokens != 64 {
		t.Errorf("max tokens = %d, want 64", cfg.Captioner.MaxTokens)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q", cfg.Log.Level)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("config should validate after env overrides: %v", err)
	}
}

func TestApplyEnvLeavesUnsetAlone(t *testing.T) {
	cfg := Default()
	if err := cfg.ApplyEnv(); err != nil {
		t.Fatalf("ApplyEnv() error: %v", err)
	}
	if cfg.Server.ListenAddr != ":8080" {
		t.Errorf("unset env var should leave default, got %q", cfg.Server.ListenAddr)
	}
	if cfg.Fetcher.TimeoutSeconds != 15 {
		t.Errorf("unset env var should leave default, got %d", cfg.Fetcher.TimeoutSeconds)
	}
}

func TestApplyEnvRejectsGarbage(t *testing.T) {
	t.Setenv("ALTTEXT_FETCH_TIMEOUT_SECONDS", "not-a-number")

	cfg := Default()
	if err := cfg.ApplyEnv(); err == nil {
		t.Fatal("ApplyEnv() should fail on an unparseable integer")
	}
	// The malformed value must not clobber the current setting.
	if cfg.Fetcher.TimeoutSeconds != 15 {
		t.Errorf("timeout seconds = %d, want 15", cfg.Fetcher.TimeoutSeconds)
	}
}

func TestValidateRejectsBadValues(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"empty listen addr", func(c *Config) { c.Server.ListenAddr = "" }},
		{"zero timeout", func(c *Config) { c.Fetcher.TimeoutSeconds = 0 }},
		{"zero body cap", func(c *Config) { c.Fetcher.MaxBodyBytes = 0 }},
		{"unknown backend", func(c *Config) { c.Captioner.Backend = "blip" }},
		{"openai without model", func(c *Config) { c.Captioner.Backend = "openai"; c.Captioner.Model = "" }},
		{"zero max tokens", func(c *Config) { c.Captioner.MaxTokens = 0 }},
		{"bad log level", func(c *Config) { c.Log.Level = "verbose" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Error("Validate() should fail")
			}
		})
	}
}
