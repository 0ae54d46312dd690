package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/SirHooke/debias-batch-processor/internal/config"
)

// Environment mutation: these tests must not run in parallel.

func TestLoad_DefaultsFromEnvOnly(t *testing.T) {
	t.Setenv("CONFIG_PATH", "")
	t.Chdir(t.TempDir())

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input.InputFolder != "./input" || cfg.Input.OutputFolder != "./output" {
		t.Fatalf("unexpected folder defaults: %#v", cfg.Input)
	}
	if !cfg.Input.UseNER || cfg.Input.UseLLM {
		t.Fatalf("unexpected flag defaults: %#v", cfg.Input)
	}
	if cfg.Retry.MaxRetries != 5 {
		t.Fatalf("unexpected max_retries default: %d", cfg.Retry.MaxRetries)
	}
	if cfg.API.Backend != "http" || cfg.API.RequestTimeout != 45*time.Second {
		t.Fatalf("unexpected api defaults: %#v", cfg.API)
	}
}

func TestLoad_EnvOverridesYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
input:
  input_folder: /data/in
  output_folder: /data/out
  use_llm: true
retry:
  max_retries: 2
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	t.Setenv("CONFIG_PATH", path)
	t.Setenv("MAX_RETRIES", "7")

	cfg, err := config.Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Input.InputFolder != "/data/in" || !cfg.Input.UseLLM {
		t.Fatalf("yaml values not applied: %#v", cfg.Input)
	}
	if cfg.Retry.MaxRetries != 7 {
		t.Fatalf("env override not applied, got %d", cfg.Retry.MaxRetries)
	}
}

func TestLoad_ExplicitMissingFileFails(t *testing.T) {
	t.Setenv("CONFIG_PATH", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := config.Load(); err == nil {
		t.Fatal("expected an error for an explicit missing config file")
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	base := func() config.Config {
		var c config.Config
		c.Input.InputFolder = "./in"
		c.Input.OutputFolder = "./out"
		c.API.Backend = "http"
		c.API.URL = "https://example.org/simple"
		c.Log.Level = "info"
		return c
	}

	tests := []struct {
		name    string
		mutate  func(*config.Config)
		wantErr bool
	}{
		{"valid", func(*config.Config) {}, false},
		{"negative retries", func(c *config.Config) { c.Retry.MaxRetries = -1 }, true},
		{"missing input folder", func(c *config.Config) { c.Input.InputFolder = " " }, true},
		{"http backend without url", func(c *config.Config) { c.API.URL = "" }, true},
		{"gemini backend without key", func(c *config.Config) { c.API.Backend = "gemini" }, true},
		{"gemini backend with key", func(c *config.Config) {
			c.API.Backend = "gemini"
			c.Gemini.APIKey = "k"
		}, false},
		{"unknown backend", func(c *config.Config) { c.API.Backend = "carrier-pigeon" }, true},
		{"unknown log level", func(c *config.Config) { c.Log.Level = "loud" }, true},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			cfg := base()
			tc.mutate(&cfg)
			err := cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Fatalf("got err=%v, wantErr=%t", err, tc.wantErr)
			}
		})
	}
}
