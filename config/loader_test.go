package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

type testSettings struct {
	APIKey         string        `mapstructure:"api_key"`
	BaseURL        string        `mapstructure:"base_url"`
	Title          string        `mapstructure:"title"`
	RequestTimeout time.Duration `mapstructure:"request_timeout"`
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")
	t.Setenv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1")

	var cfg testSettings
	if err := Load(&cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-or-env" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.BaseURL != "https://openrouter.ai/api/v1" {
		t.Errorf("BaseURL = %q", cfg.BaseURL)
	}
}

func TestLoadCustomPrefix(t *testing.T) {
	t.Setenv("ROUTERKIT_API_KEY", "sk-or-custom")
	t.Setenv("OPENROUTER_API_KEY", "sk-or-default")

	var cfg testSettings
	if err := Load(&cfg, WithPrefix("ROUTERKIT")); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-or-custom" {
		t.Errorf("APIKey = %q, want the ROUTERKIT-prefixed value", cfg.APIKey)
	}
}

func TestLoadYAMLFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openrouter.yml")
	yaml := "api_key: sk-or-yaml\ntitle: Yaml App\nrequest_timeout: 45s\n"
	if err := os.WriteFile(path, []byte(yaml), 0o600); err != nil {
		t.Fatal(err)
	}

	var cfg testSettings
	if err := Load(&cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-or-yaml" {
		t.Errorf("APIKey = %q", cfg.APIKey)
	}
	if cfg.Title != "Yaml App" {
		t.Errorf("Title = %q", cfg.Title)
	}
	if cfg.RequestTimeout != 45*time.Second {
		t.Errorf("RequestTimeout = %v, want 45s", cfg.RequestTimeout)
	}
}

func TestLoadEnvironmentOverridesFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "openrouter.yml")
	if err := os.WriteFile(path, []byte("api_key: sk-or-yaml\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("OPENROUTER_API_KEY", "sk-or-env")

	var cfg testSettings
	if err := Load(&cfg, WithConfigFile(path)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.APIKey != "sk-or-env" {
		t.Errorf("APIKey = %q, want the environment value", cfg.APIKey)
	}
}

func TestLoadDotEnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	if err := os.WriteFile(path, []byte("OPENROUTER_TITLE=From Dotenv\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	// godotenv writes into the process environment; clean up after.
	t.Cleanup(func() { os.Unsetenv("OPENROUTER_TITLE") })

	var cfg testSettings
	if err := Load(&cfg, WithEnvFile(path)); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Title != "From Dotenv" {
		t.Errorf("Title = %q", cfg.Title)
	}
}

func TestLoadMissingExplicitConfigFile(t *testing.T) {
	var cfg testSettings
	if err := Load(&cfg, WithConfigFile(filepath.Join(t.TempDir(), "absent.yml"))); err == nil {
		t.Fatal("Load accepted a missing explicit config file")
	}
}

func TestLoadMissingExplicitEnvFile(t *testing.T) {
	var cfg testSettings
	if err := Load(&cfg, WithEnvFile(filepath.Join(t.TempDir(), "absent.env"))); err == nil {
		t.Fatal("Load accepted a missing explicit .env file")
	}
}
