package config

// Config is the root configuration for the leadline service.
type Config struct {
	Server       ServerConfig                `json:"server"`
	Database     DatabaseConfig              `json:"database,omitempty"`
	Tenant       TenantConfig                `json:"tenant"`
	LLM          LLMConfig                   `json:"llm"`
	Outbound     OutboundConfig              `json:"outbound,omitempty"`
	Capabilities map[string]CapabilityConfig `json:"capabilities,omitempty"`
	Profiles     []ProfileConfig             `json:"profiles,omitempty"`
	Sweeps       SweepsConfig                `json:"sweeps,omitempty"`
	Persona      string                      `json:"persona,omitempty"`
}

// ServerConfig configures the webhook HTTP listener.
type ServerConfig struct {
	Host         string `json:"host"`
	Port         int    `json:"port"`
	Token        string `json:"-"` // from env LEADLINE_GATEWAY_TOKEN only
	RateLimitRPM int    `json:"rate_limit_rpm"`
}

// DatabaseConfig selects the storage backend.
// PostgresDSN is NEVER read from config.json (secret) — only from env LEADLINE_POSTGRES_DSN.
type DatabaseConfig struct {
	Mode        string `json:"mode,omitempty"` // "standalone" (default) or "managed"
	PostgresDSN string `json:"-"`              // from env LEADLINE_POSTGRES_DSN only
	SQLitePath  string `json:"sqlite_path,omitempty"`
}

// IsManagedMode returns true when running against Postgres.
func (c *Config) IsManagedMode() bool {
	return c.Database.Mode == "managed" && c.Database.PostgresDSN != ""
}

// TenantConfig identifies the organization this instance serves.
type TenantConfig struct {
	OrgID       string `json:"org_id"`
	CountryCode string `json:"country_code,omitempty"`
}

// LLMConfig configures the language model used for classification,
// conversation and goal evaluation.
type LLMConfig struct {
	APIBase string `json:"api_base,omitempty"`
	APIKey  string `json:"-"` // from env LEADLINE_LLM_API_KEY only
	Model   string `json:"model,omitempty"`
}

// OutboundConfig configures the messaging gateway used for sending
// SMS initiated by this service (operator alerts, relayed messages).
type OutboundConfig struct {
	APIBase string `json:"api_base,omitempty"`
	Token   string `json:"-"` // from env LEADLINE_OUTBOUND_TOKEN only
	Source  string `json:"source,omitempty"`
}

// CapabilityConfig points one intent at an external capability service.
type CapabilityConfig struct {
	Endpoint string `json:"endpoint"`
	Token    string `json:"token,omitempty"`
}

// ProfileConfig is a call profile selectable by the classifier.
type ProfileConfig struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// SweepsConfig holds cron specs for the background sweeps.
type SweepsConfig struct {
	NotifyFlush string `json:"notify_flush,omitempty"`
	Compaction  string `json:"compaction,omitempty"`
}
