package cmd

import (
	"fmt"

	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/relay"
	"github.com/nextlevelbuilder/leadline/internal/store"
)

// withStores loads config, opens the storage backend, runs fn and
// closes the backend. Shared by the operator subcommands.
func withStores(fn func(cfg *config.Config, stores *store.Stores) error) error {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	stores, err := openStores(cfg)
	if err != nil {
		return fmt.Errorf("open stores: %w", err)
	}
	defer stores.Close()
	return fn(cfg, stores)
}

func normalizeArg(cfg *config.Config, raw string) string {
	return relay.NormalizePhone(raw, cfg.Tenant.CountryCode)
}
