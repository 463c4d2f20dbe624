package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/ai"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driven/storage/sqlite"
	"github.com/custodia-labs/sred-drafter/internal/adapters/driving/cli"
	"github.com/custodia-labs/sred-drafter/internal/core/domain"
	"github.com/custodia-labs/sred-drafter/internal/core/ports/driven"
	"github.com/custodia-labs/sred-drafter/internal/core/services"
	"github.com/custodia-labs/sred-drafter/internal/logger"
	"github.com/custodia-labs/sred-drafter/internal/metrics"
	"github.com/custodia-labs/sred-drafter/internal/normalisers/report"
)

// paths lets tests keep config, prompts and data out of the home directory.
type paths struct {
	configDir string
	promptDir string
}

func build(opts cli.Options) (*cli.Services, func(), error) {
	return buildWith(context.Background(), opts, paths{})
}

// buildWith assembles the service graph. Missing AI providers become
// warnings so settings and ingest commands keep working.
func buildWith(ctx context.Context, opts cli.Options, p paths) (*cli.Services, func(), error) {
	configStore, err := file.NewConfigStore(p.configDir)
	if err != nil {
		return nil, nil, fmt.Errorf("open config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())
	settings, err := settingsSvc.Get()
	if err != nil {
		return nil, nil, fmt.Errorf("load settings: %w", err)
	}
	if opts.Parallel {
		settings.Pipeline.Parallel = true
	}

	var warnings []string
	var closers []func()
	release := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
	}

	var embedder driven.EmbeddingService
	var llm driven.TextGenerator
	aiResult, err := ai.Init(settings, false)
	if err != nil {
		warnings = append(warnings, err.Error())
	} else {
		closers = append(closers, aiResult.Close)
		embedder, llm = aiResult.EmbeddingService, aiResult.TextGenerator
		warnings = append(warnings, aiResult.Warnings...)
	}
	if llm == nil {
		llm = unavailableGenerator{}
	}
	llm = services.NewRateLimitedGenerator(llm, settings.LLM.RequestsPerSecond, settings.LLM.Burst)

	collection, closeStore, err := openCollection(opts.Store, settings)
	if err != nil {
		release()
		return nil, nil, err
	}
	closers = append(closers, closeStore)

	rec := metrics.New()
	promptStore, err := file.NewPromptStore(p.promptDir)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("open prompts: %w", err)
	}
	catalog := domain.DefaultSectionCatalog()

	ingest := services.NewIngestService(collection, embedder, report.New())
	ingest.SetMetrics(rec)
	if opts.Seed != "" {
		summary, err := ingest.Ingest(ctx, opts.Seed)
		if err != nil {
			release()
			return nil, nil, fmt.Errorf("seed memory store: %w", err)
		}
		logger.Info("Seeded %d record(s) from %s", summary.Records, opts.Seed)
	}

	var retriever services.Retriever
	agent, err := services.NewRetrievalAgent(ctx, collection, embedder)
	switch {
	case err == nil:
		if err := agent.SetRelaxation(settings.Retrieval.Relaxation); err != nil {
			release()
			return nil, nil, err
		}
		agent.SetMetrics(rec)
		retriever = agent
	case errors.Is(err, domain.ErrCollectionNotFound), errors.Is(err, domain.ErrEmbeddingUnavailable):
		logger.Warn("Retrieval unavailable: %v", err)
		retriever = unavailableRetriever{err: err}
	default:
		release()
		return nil, nil, err
	}

	generator := services.NewGeneratorAgent(llm, retriever, promptStore, catalog)
	generator.SetFailurePolicy(settings.Retrieval.FailurePolicy)
	generator.SetExemplarCount(settings.Retrieval.NResults)
	generator.SetMetrics(rec)

	reviewer := services.NewReviewerAgent(llm, promptStore, catalog)
	reviewer.SetMetrics(rec)

	orchestrator := services.NewOrchestrator(generator, reviewer, catalog, settings.Pipeline)
	orchestrator.SetMetrics(rec)

	return &cli.Services{
		Report:    orchestrator,
		Catalog:   orchestrator,
		Ingest:    ingest,
		Settings:  settingsSvc,
		Metrics:   rec,
		Prompts:   promptStore,
		PromptDir: promptStore.Dir(),
		Warnings:  warnings,
	}, release, nil
}

// openCollection opens the exemplar collection on the selected backend.
func openCollection(backend string, settings *domain.AppSettings) (driven.ExemplarCollection, func(), error) {
	name := settings.Retrieval.Collection
	switch backend {
	case cli.StoreMemory:
		return memory.NewExemplarStore(name), func() {}, nil
	case cli.StoreSQLite, "":
		store, err := sqlite.NewStore(settings.Store.Dir)
		if err != nil {
			return nil, nil, fmt.Errorf("open exemplar store: %w", err)
		}
		return store.Collection(name), func() {
			if err := store.Close(); err != nil {
				logger.Error("close exemplar store: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store %q", backend)
	}
}

// unavailableRetriever fails every query with the reason retrieval could not
// be set up. The generator treats these setup errors as fatal under either
// failure policy, so report commands fail while settings and ingest still work.
type unavailableRetriever struct {
	err error
}

func (r unavailableRetriever) Retrieve(
	context.Context, string, domain.SectionKey, string, string, int,
) ([]domain.ExemplarPassage, error) {
	return nil, r.err
}

// unavailableGenerator stands in when no LLM is configured.
type unavailableGenerator struct{}

func (unavailableGenerator) Complete(context.Context, string, string) (string, error) {
	return "", fmt.Errorf("%w: no LLM provider configured, run 'sred settings wizard'", domain.ErrLLMUnavailable)
}

func (unavailableGenerator) ModelName() string { return "" }

func (unavailableGenerator) Ping(context.Context) error { return domain.ErrLLMUnavailable }

func (unavailableGenerator) Close() error { return nil }
