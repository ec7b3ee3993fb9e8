package main

import (
	"context"
	"fmt"

	"financial_insights/pkg/core/config"
	"financial_insights/pkg/core/insight"
	"financial_insights/pkg/core/llm"
	"financial_insights/pkg/core/prompt"
	"financial_insights/pkg/core/store"

	"github.com/rs/zerolog"
)

// app holds the wired dependencies shared by the commands.
type app struct {
	cfg      *config.Config
	db       *store.DB // nil without database_url
	provider llm.Provider
	history  *store.InsightRepo
	registry *prompt.Registry
	service  *insight.Service
}

// newApp loads the configuration and wires the service. docs overrides the
// database-backed document provider when non-nil.
func newApp(ctx context.Context, docs insight.DocumentProvider) (*app, error) {
	logger := zerolog.Ctx(ctx)

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, err
	}
	a := &app{cfg: cfg}

	// 1. Database
	if cfg.DatabaseURL != "" {
		a.db, err = store.Open(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, err
		}
		a.history = store.NewInsightRepo(a.db)
		if docs == nil {
			docs = store.NewDocumentRepo(a.db)
		}
	}
	if docs == nil {
		return nil, fmt.Errorf("no document source: set database_url or pass --records")
	}
	benchmarks := store.NewBenchmarkRepo(a.db, cfg.BenchmarksDir)

	// 2. Prompts
	a.registry = prompt.NewRegistry()
	if cfg.PromptsDir != "" {
		n, err := prompt.LoadFromDirectory(a.registry, cfg.PromptsDir)
		if err != nil {
			logger.Warn().Err(err).Msg("failed to load prompt overrides, using built-in templates")
		} else {
			logger.Info().Int("count", n).Str("dir", cfg.PromptsDir).Msg("prompt overrides loaded")
		}
	}

	// 3. Generation backend
	a.provider, err = llm.NewProvider(cfg.ProviderConfig())
	if err != nil {
		return nil, err
	}
	client := llm.NewClient(a.provider, cfg.ClientConfig())

	// 4. Service
	a.service = insight.NewService(docs, benchmarks, client, prompt.NewBuilder(a.registry), cfg.InsightConfig())
	if a.history != nil {
		a.service.SetRecorder(a.history)
	}

	logger.Info().
		Str("provider", a.provider.Name()).
		Str("model", cfg.DefaultTextModel).
		Bool("database", a.db != nil).
		Int("prompts", a.registry.Count()).
		Msg("insight service ready")
	return a, nil
}

func (a *app) Close() {
	if a.db != nil {
		a.db.Close()
	}
}
