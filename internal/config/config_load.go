package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         18920,
			RateLimitRPM: 30,
		},
		Database: DatabaseConfig{
			Mode:       "standalone",
			SQLitePath: "~/.leadline/leadline.db",
		},
		Tenant: TenantConfig{
			CountryCode: "1",
		},
		LLM: LLMConfig{
			APIBase: "https://api.openai.com/v1",
			Model:   "gpt-4o-mini",
		},
		Sweeps: SweepsConfig{
			NotifyFlush: "*/5 * * * *",
			Compaction:  "0 3 * * *",
		},
	}
}

// Load reads config from a JSON file, then overlays env vars.
// A missing file is not an error; defaults plus env apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values. Secrets are env-only.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}

	envStr("LEADLINE_POSTGRES_DSN", &c.Database.PostgresDSN)
	envStr("LEADLINE_MODE", &c.Database.Mode)
	envStr("LEADLINE_SQLITE_PATH", &c.Database.SQLitePath)

	envStr("LEADLINE_GATEWAY_TOKEN", &c.Server.Token)
	envStr("LEADLINE_HOST", &c.Server.Host)
	if v := os.Getenv("LEADLINE_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil && port > 0 {
			c.Server.Port = port
		}
	}

	envStr("LEADLINE_LLM_API_KEY", &c.LLM.APIKey)
	envStr("LEADLINE_LLM_API_BASE", &c.LLM.APIBase)
	envStr("LEADLINE_MODEL", &c.LLM.Model)

	envStr("LEADLINE_OUTBOUND_TOKEN", &c.Outbound.Token)
	envStr("LEADLINE_OUTBOUND_API_BASE", &c.Outbound.APIBase)

	envStr("LEADLINE_ORG_ID", &c.Tenant.OrgID)
	envStr("LEADLINE_COUNTRY_CODE", &c.Tenant.CountryCode)
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
