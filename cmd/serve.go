package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/leadline/internal/classify"
	"github.com/nextlevelbuilder/leadline/internal/config"
	"github.com/nextlevelbuilder/leadline/internal/dispatch"
	"github.com/nextlevelbuilder/leadline/internal/goals"
	"github.com/nextlevelbuilder/leadline/internal/handlers"
	"github.com/nextlevelbuilder/leadline/internal/httpapi"
	"github.com/nextlevelbuilder/leadline/internal/memory"
	"github.com/nextlevelbuilder/leadline/internal/notify"
	"github.com/nextlevelbuilder/leadline/internal/outbound"
	"github.com/nextlevelbuilder/leadline/internal/providers"
	"github.com/nextlevelbuilder/leadline/internal/relay"
	"github.com/nextlevelbuilder/leadline/internal/store"
	"github.com/nextlevelbuilder/leadline/internal/store/pg"
	"github.com/nextlevelbuilder/leadline/internal/store/sqlite"
	"github.com/nextlevelbuilder/leadline/internal/trace"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the webhook server",
		Run: func(cmd *cobra.Command, args []string) {
			runServe()
		},
	}
}

func runServe() {
	logLevel := slog.LevelInfo
	if verbose {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})))

	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	stores, err := openStores(cfg)
	if err != nil {
		slog.Error("failed to open stores", "error", err)
		os.Exit(1)
	}
	defer stores.Close()

	mode := "standalone"
	if cfg.IsManagedMode() {
		mode = "managed"
	}
	slog.Info("serve.starting", "version", Version, "mode", mode, "org_id", cfg.Tenant.OrgID)

	provider := providers.NewOpenAIProvider("openai", cfg.LLM.APIKey, cfg.LLM.APIBase, cfg.LLM.Model)
	push := outbound.NewClient(cfg.Outbound.APIBase, cfg.Outbound.Token, cfg.Outbound.Source)

	escalator := notify.NewEscalator(stores.Notifications, stores.Admins, push, cfg.Tenant.OrgID)
	tracker := goals.NewTracker(stores.Goals, stores.Log, provider, cfg.LLM.Model, escalator)
	extractor := memory.NewExtractor(stores.Memories, stores.Log, provider, cfg.LLM.Model)
	compactor := memory.NewCompactor(stores.Contacts, stores.Log, stores.Memories, provider, cfg.LLM.Model, cfg.Tenant.OrgID)

	profiles := make([]classify.CallProfile, 0, len(cfg.Profiles))
	for _, p := range cfg.Profiles {
		profiles = append(profiles, classify.CallProfile{ID: p.ID, Name: p.Name, Description: p.Description})
	}
	classifier := classify.New(provider, cfg.LLM.Model, stores.Log, profiles)

	registry := buildRegistry(cfg, stores, provider, push)
	if err := registry.Validate(); err != nil {
		slog.Error("dispatch table incomplete", "error", err)
		os.Exit(1)
	}

	pipeline := relay.NewPipeline(relay.PipelineConfig{
		Tenant: relay.TenantConfig{
			OrgID:       cfg.Tenant.OrgID,
			CountryCode: cfg.Tenant.CountryCode,
		},
		Log:        stores.Log,
		Resolver:   relay.NewResolver(stores.Admins, stores.Contacts, stores.Goals),
		Classifier: classifier,
		Sentinel:   relay.NewSentinel(stores.Contacts, stores.Log, escalator),
		Registry:   registry,
		Tracker:    tracker,
		Extractor:  extractor,
		Alerter:    escalator,
		Collector:  trace.NewCollector(stores.Spans),
	})

	server := httpapi.NewServer(httpapi.ServerConfig{
		Host:         cfg.Server.Host,
		Port:         cfg.Server.Port,
		Token:        cfg.Server.Token,
		RateLimitRPM: cfg.Server.RateLimitRPM,
		Version:      Version,
	}, pipeline)

	sweeps := startSweeps(cfg, escalator, compactor)
	defer sweeps.Stop()

	errCh := make(chan error, 1)
	go func() { errCh <- server.Start() }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("serve.shutdown", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		slog.Warn("serve.shutdown_failed", "error", err)
	}
}

// openStores selects the storage backend from config. Managed mode
// requires LEADLINE_POSTGRES_DSN; everything else runs on SQLite.
func openStores(cfg *config.Config) (*store.Stores, error) {
	sc := store.StoreConfig{
		Mode:        cfg.Database.Mode,
		PostgresDSN: cfg.Database.PostgresDSN,
		SQLitePath:  config.ExpandHome(cfg.Database.SQLitePath),
	}
	if cfg.IsManagedMode() {
		return pg.NewStores(sc)
	}
	return sqlite.NewStores(sc)
}

// capabilityIntents are the intents served by out-of-process capability
// services. Unconfigured ones stay registered; their handler errors and
// the dispatch table answers with the static fallback sentence.
var capabilityIntents = []classify.Intent{
	classify.IntentCalendar,
	classify.IntentDocument,
	classify.IntentVoiceCall,
	classify.IntentImage,
	classify.IntentVision,
	classify.IntentCampaign,
	classify.IntentPlaces,
	classify.IntentScheduledSend,
	classify.IntentZoom,
	classify.IntentPayment,
}

func buildRegistry(cfg *config.Config, stores *store.Stores, provider providers.Provider, push *outbound.Client) *dispatch.Registry {
	registry := dispatch.NewRegistry()

	knowledge := handlers.NewKnowledge(provider, cfg.LLM.Model, cfg.Persona, stores.Memories)
	registry.Register(classify.IntentGeneral, dispatch.Entry{Handler: knowledge})
	registry.Register(classify.IntentDiagnostics, dispatch.Entry{Handler: handlers.NewDiagnostics(stores, Version)})
	registry.Register(classify.IntentTasks, dispatch.Entry{Handler: handlers.NewTasks(provider, cfg.LLM.Model)})

	normalize := func(raw string) string {
		return relay.NormalizePhone(raw, cfg.Tenant.CountryCode)
	}
	registry.Register(classify.IntentContacts, dispatch.Entry{
		Handler:   handlers.NewContacts(push, normalize),
		Retryable: true,
		Attempts:  3,
	})

	for _, intent := range capabilityIntents {
		svc := cfg.Capabilities[string(intent)]
		registry.Register(intent, dispatch.Entry{
			Handler:   handlers.NewHTTPCapability(string(intent), svc.Endpoint, svc.Token),
			Retryable: svc.Endpoint != "",
			Attempts:  3,
		})
	}

	return registry
}

func startSweeps(cfg *config.Config, escalator *notify.Escalator, compactor *memory.Compactor) *cron.Cron {
	c := cron.New()

	if spec := cfg.Sweeps.NotifyFlush; spec != "" {
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()
			if err := escalator.Flush(ctx); err != nil {
				slog.Warn("sweep.notify_flush_failed", "error", err)
			}
		})
		if err != nil {
			slog.Warn("sweep.notify_flush_invalid", "spec", spec, "error", err)
		}
	}

	if spec := cfg.Sweeps.Compaction; spec != "" {
		_, err := c.AddFunc(spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
			defer cancel()
			if err := compactor.Run(ctx); err != nil {
				slog.Warn("sweep.compaction_failed", "error", err)
			}
		})
		if err != nil {
			slog.Warn("sweep.compaction_invalid", "spec", spec, "error", err)
		}
	}

	c.Start()
	return c
}
