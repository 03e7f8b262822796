package authclient

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Endpoints.LoginPath != "/auth/login" || cfg.Endpoints.RefreshPath != "/auth/refresh" {
		t.Fatalf("unexpected endpoint defaults: %+v", cfg.Endpoints)
	}
	if cfg.Storage.Mode != StorageMemory {
		t.Fatalf("default storage mode = %v", cfg.Storage.Mode)
	}
	if cfg.Renewal.Interval != 45*time.Minute || cfg.Renewal.Skew != 5*time.Minute {
		t.Fatalf("unexpected renewal defaults: %+v", cfg.Renewal)
	}
	if cfg.Timeouts.Login != 30*time.Second {
		t.Fatalf("login timeout = %v", cfg.Timeouts.Login)
	}
	if cfg.Audit.Enabled {
		t.Fatal("audit should default off")
	}
	if !cfg.Metrics.Enabled {
		t.Fatal("metrics should default on")
	}
}

func TestConfigValidate(t *testing.T) {
	base := func() Config {
		cfg := DefaultConfig()
		cfg.Endpoints.BaseURL = "https://auth.example.com"
		return cfg
	}

	if err := func() error { cfg := base(); return cfg.Validate() }(); err != nil {
		t.Fatalf("valid config rejected: %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"missing base url", func(c *Config) { c.Endpoints.BaseURL = "" }},
		{"relative base url", func(c *Config) { c.Endpoints.BaseURL = "/auth" }},
		{"file mode without paths", func(c *Config) { c.Storage.Mode = StorageFile }},
		{"unknown storage mode", func(c *Config) { c.Storage.Mode = "carrier-pigeon" }},
		{"zero renewal interval", func(c *Config) { c.Renewal.Interval = 0 }},
		{"negative skew", func(c *Config) { c.Renewal.Skew = -time.Second }},
		{"zero login timeout", func(c *Config) { c.Timeouts.Login = 0 }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := base()
			tc.mutate(&cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}

func TestConfigFromEnv(t *testing.T) {
	t.Setenv("AUTHCLIENT_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTHCLIENT_STORAGE_MODE", "file")
	t.Setenv("AUTHCLIENT_CREDENTIAL_FILE", "/var/lib/app/credentials")
	t.Setenv("AUTHCLIENT_SESSION_KEY_FILE", "/run/user/1000/app/session.key")
	t.Setenv("AUTHCLIENT_RENEW_INTERVAL", "20m")
	t.Setenv("AUTHCLIENT_AUDIT_ENABLED", "true")

	cfg, err := ConfigFromEnv("")
	if err != nil {
		t.Fatalf("from env: %v", err)
	}
	if cfg.Endpoints.BaseURL != "https://auth.example.com" {
		t.Fatalf("base url = %q", cfg.Endpoints.BaseURL)
	}
	if cfg.Storage.Mode != StorageFile || cfg.Storage.FilePath == "" || cfg.Storage.KeyPath == "" {
		t.Fatalf("storage not loaded: %+v", cfg.Storage)
	}
	if cfg.Renewal.Interval != 20*time.Minute {
		t.Fatalf("renew interval = %v", cfg.Renewal.Interval)
	}
	if !cfg.Audit.Enabled {
		t.Fatal("audit flag not loaded")
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("env config invalid: %v", err)
	}
}

func TestConfigFromEnvFile(t *testing.T) {
	dir := t.TempDir()
	envFile := filepath.Join(dir, ".env")
	content := "AUTHCLIENT_BASE_URL=https://auth.staging.example.com\nAUTHCLIENT_LOGIN_TIMEOUT=10s\n"
	if err := os.WriteFile(envFile, []byte(content), 0o600); err != nil {
		t.Fatalf("write env file: %v", err)
	}
	t.Setenv("AUTHCLIENT_BASE_URL", "")
	os.Unsetenv("AUTHCLIENT_BASE_URL")
	t.Setenv("AUTHCLIENT_LOGIN_TIMEOUT", "")
	os.Unsetenv("AUTHCLIENT_LOGIN_TIMEOUT")

	cfg, err := ConfigFromEnv(envFile)
	if err != nil {
		t.Fatalf("from env file: %v", err)
	}
	if cfg.Endpoints.BaseURL != "https://auth.staging.example.com" {
		t.Fatalf("base url = %q", cfg.Endpoints.BaseURL)
	}
	if cfg.Timeouts.Login != 10*time.Second {
		t.Fatalf("login timeout = %v", cfg.Timeouts.Login)
	}
}

func TestConfigFromEnvInvalidDuration(t *testing.T) {
	t.Setenv("AUTHCLIENT_BASE_URL", "https://auth.example.com")
	t.Setenv("AUTHCLIENT_RENEW_INTERVAL", "soon")
	if _, err := ConfigFromEnv(""); err == nil {
		t.Fatal("expected error for bad duration")
	}
}
