package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 18920 {
		t.Errorf("port = %d, want default", cfg.Server.Port)
	}
	if cfg.Database.Mode != "standalone" {
		t.Errorf("mode = %q, want standalone", cfg.Database.Mode)
	}
	if cfg.Tenant.CountryCode != "1" {
		t.Errorf("country_code = %q, want 1", cfg.Tenant.CountryCode)
	}
}

func TestLoadFileWithComments(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
	// local overrides
	server: { port: 9001 },
	tenant: { org_id: "acme", country_code: "44" },
	persona: "You are the scheduling assistant for Acme Roofing.",
}`
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Server.Port != 9001 {
		t.Errorf("port = %d, want 9001", cfg.Server.Port)
	}
	if cfg.Tenant.OrgID != "acme" || cfg.Tenant.CountryCode != "44" {
		t.Errorf("tenant = %+v", cfg.Tenant)
	}
	// Untouched sections keep defaults.
	if cfg.Server.Host != "0.0.0.0" {
		t.Errorf("host = %q, want default", cfg.Server.Host)
	}
}

func TestEnvOverridesWinAndSecretsAreEnvOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{ database: { mode: "standalone" } }`), 0o600); err != nil {
		t.Fatal(err)
	}

	t.Setenv("LEADLINE_MODE", "managed")
	t.Setenv("LEADLINE_POSTGRES_DSN", "postgres://u:p@localhost/leadline")
	t.Setenv("LEADLINE_LLM_API_KEY", "sk-test")
	t.Setenv("LEADLINE_PORT", "7777")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Database.Mode != "managed" {
		t.Errorf("mode = %q, env must win", cfg.Database.Mode)
	}
	if !cfg.IsManagedMode() {
		t.Error("managed mode should be detected with mode+DSN set")
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("api key = %q", cfg.LLM.APIKey)
	}
	if cfg.Server.Port != 7777 {
		t.Errorf("port = %d, want 7777", cfg.Server.Port)
	}
}
