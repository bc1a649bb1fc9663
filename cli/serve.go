package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/toxichat/toxichat/engine/gemini"
	"github.com/toxichat/toxichat/engine/infra/monitoring"
	"github.com/toxichat/toxichat/engine/infra/server"
	"github.com/toxichat/toxichat/engine/llm"
	"github.com/toxichat/toxichat/engine/toxmodel"
	"github.com/toxichat/toxichat/pkg/config"
	"github.com/toxichat/toxichat/pkg/logger"
)

// ServeCmd runs the HTTP chat service.
func ServeCmd() *cobra.Command {
	var envFile string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the toxicity chat HTTP server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), envFile)
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", ".env", "env file loaded before configuration")
	return cmd
}

func runServe(ctx context.Context, envFile string) error {
	// Missing env file is fine; deployments inject real environment.
	if err := godotenv.Load(envFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("loading env file %s: %w", envFile, err)
	}

	cfg, err := config.Load()
	if err != nil {
		return err
	}

	log := logger.NewLogger(&logger.Config{
		Level: logger.LogLevel(cfg.Log.Level),
		JSON:  cfg.Log.JSON,
	})
	ctx = logger.ContextWithLogger(ctx, log)

	models, err := toxmodel.LoadModels(cfg.Models.Dir)
	if err != nil {
		return fmt.Errorf("loading model artifacts: %w", err)
	}
	log.Info("model artifacts loaded", "dir", cfg.Models.Dir)

	client, err := gemini.NewClient(gemini.Config{
		APIKey:  cfg.Gemini.APIKey,
		BaseURL: cfg.Gemini.BaseURL,
		Timeout: cfg.Gemini.Timeout,
	})
	if err != nil {
		return err
	}

	selector := buildSelector(ctx, client, cfg)
	log.Info("endpoints resolved",
		"primary", selector.Primary,
		"fallback", selector.Fallback,
		"discovered", len(selector.Discovered),
	)

	registry := llm.NewToolRegistry()
	for _, tool := range toxmodel.Tools(models) {
		if err := registry.Register(tool); err != nil {
			return err
		}
	}

	metrics := monitoring.NewService()
	ttls := llm.TTLConfig{
		QuotaExhausted: cfg.Orchestration.QuotaExhaustedTTL,
		RateLimited:    cfg.Orchestration.RateLimitedTTL,
		Other:          cfg.Orchestration.OtherFailureTTL,
	}
	cache := llm.NewStatusCache(ttls)
	executor := llm.NewExecutor(llm.ExecutorConfig{
		Backend:  client,
		Pacer:    llm.NewPacer(cfg.Orchestration.MinInterval),
		Cache:    cache,
		Selector: selector,
		Cooldown: cfg.Orchestration.RateLimitCooldown,
		Metrics:  metrics,
	})
	orchestrator, err := llm.NewOrchestrator(llm.OrchestratorConfig{
		Executor:    executor,
		Registry:    registry,
		Metrics:     metrics,
		Temperature: cfg.Orchestration.Temperature,
		MaxRounds:   cfg.Orchestration.MaxRounds,
	})
	if err != nil {
		return err
	}

	srv, err := server.NewServer(
		server.Config{
			Host:               cfg.Server.Host,
			Port:               cfg.Server.Port,
			CORSAllowedOrigins: cfg.Server.CORSAllowedOrigins,
		},
		server.Deps{
			Chat:     orchestrator,
			Cache:    cache,
			TTLs:     ttls,
			Metrics:  metrics.Handler(),
			Tools:    registry.Names(),
			Primary:  selector.Primary,
			Fallback: selector.Fallback,
		},
		log,
	)
	if err != nil {
		return err
	}
	return srv.Run(ctx)
}

// buildSelector discovers the available endpoints and resolves primary and
// fallback. Discovery failure is not fatal: the selector falls back to the
// configured or hard-coded defaults and the failure cache takes it from
// there.
func buildSelector(ctx context.Context, client *gemini.Client, cfg *config.Config) *llm.Selector {
	log := logger.FromContext(ctx)
	discovered, err := client.ListModels(ctx)
	if err != nil {
		log.Warn("model discovery failed, using configured defaults", "error", err)
		discovered = nil
	}
	primary, fallback := llm.ResolveDefaults(discovered, llm.DefaultPrimaryPriorities, llm.DefaultFallbackPriorities)
	if cfg.Gemini.PrimaryEndpoint != "" {
		primary = cfg.Gemini.PrimaryEndpoint
	}
	if cfg.Gemini.FallbackEndpoint != "" {
		fallback = cfg.Gemini.FallbackEndpoint
	}
	return &llm.Selector{
		Primary:    primary,
		Fallback:   fallback,
		Discovered: discovered,
	}
}
