// cmd/finscout/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"finscout/internal/adapters/gemini"
	"finscout/internal/core/domain"
	"finscout/internal/core/ports"
	"finscout/internal/core/usecases"
	"finscout/internal/dataset"
	"finscout/internal/model"
	"finscout/internal/platform/cache"
	"finscout/internal/platform/config"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/registry"
	"finscout/internal/platform/ui"
	"finscout/internal/prompt"
	"finscout/internal/report"
	"finscout/internal/validate"

	// Import strategies for auto-registration via init()
	_ "finscout/internal/strategies/ailookup"
	_ "finscout/internal/strategies/codesynth"
)

var (
	// Set with -ldflags at build time
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// 1. Load centralized config
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: configuration load failed: %v\n", err)
		os.Exit(2)
	}

	if cfg.PrintVersion {
		fmt.Printf("finscout %s (%s, %s)\n", version, commit, date)
		os.Exit(0)
	}

	// Missing credentials are the one fatal runtime precondition.
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(2)
	}

	// 2. Logger and presenter. Visual mode keeps the terminal for the
	// presenter and routes the log to the file.
	var logger logx.Logger
	var presenter ui.Presenter
	if cfg.NoProgress {
		logger = logx.NewWithFile(cfg.LogFile)
		presenter = ui.NewNoopPresenter()
	} else {
		logger = logx.NewFileOnly(cfg.LogFile)
		presenter = ui.NewPTermPresenter()
	}
	defer presenter.Close()

	logger.Info("finscout starting",
		"version", version,
		"category", cfg.Category,
		"workers", cfg.Workers,
		"models", len(cfg.Models),
	)

	// 3. Context and signals for clean shutdown
	ctx, cancel := rootContextWithSignals()
	defer cancel()

	// 4. Build the company list
	requests, err := buildRequests(cfg)
	if err != nil {
		logger.Err(err, "phase", "dataset")
		presenter.Error(err.Error())
		os.Exit(2)
	}

	// 5. Shared provider; everything per-worker hangs off the factory.
	provider, err := gemini.New(ctx, cfg.APIKey, logger)
	if err != nil {
		logger.Err(err, "phase", "provider")
		presenter.Error(err.Error())
		os.Exit(2)
	}

	// Accepted prompt rewrites are shared across workers so a template
	// tuned by one worker benefits retries scheduled on another.
	rewrites := cache.New(len(requests) + 1)

	deps := ports.StrategyDeps{
		Provider:          provider,
		Templates:         rewrites,
		Models:            cfg.Models,
		ModelMaxRetries:   cfg.ModelMaxRetries,
		QuotaDefaultDelay: cfg.QuotaDefaultDelay,
		ProbeTimeout:      cfg.ProbeTimeout,
		RequestDelay:      cfg.RequestDelay,
		ArtifactsDir:      cfg.ArtifactsDir,
	}

	factory := func() (usecases.Discoverer, error) {
		strategies, err := registry.Global().Build(cfg.Strategies, deps, logger)
		if err != nil {
			return nil, fmt.Errorf("failed to build strategies: %w", err)
		}
		orchestrator := usecases.NewDiscoveryOrchestrator(strategies, logger)

		builder, err := prompt.NewBuilder()
		if err != nil {
			return nil, fmt.Errorf("failed to build prompt templates: %w", err)
		}
		pool, err := model.NewPool(cfg.Models)
		if err != nil {
			return nil, err
		}
		invoker := model.NewInvoker(provider, pool, cfg.ModelMaxRetries, cfg.QuotaDefaultDelay, logger)

		validator := validate.New(invoker, builder, logger)
		optimizer := usecases.NewPromptOptimizer(invoker, builder, rewrites, logger)
		return usecases.NewValidatedDiscovery(orchestrator, validator, optimizer, builder, cfg.ValidationRounds, logger), nil
	}

	store := report.NewStore(cfg.ReportsDir, logger)
	processor := usecases.NewBatchProcessor(factory, store, cfg.Workers, cfg.Timeout(), logger)

	// 6. Run
	presenter.Start(ui.RunInfo{
		Category:  cfg.Category,
		Companies: len(requests),
		Workers:   cfg.Workers,
		Models:    cfg.Models,
	})

	start := time.Now()
	outcomes, runErr := processor.Run(ctx, requests, func(req domain.DiscoveryRequest, result *domain.CandidateResult, skipped bool) {
		presenter.CompanyDone(req.Company, result, skipped)
	})
	elapsed := time.Since(start)

	if runErr != nil {
		logger.Err(runErr, "phase", "run", "elapsed_ms", elapsed.Milliseconds())
		presenter.Error(runErr.Error())
	}

	// 7. Summary
	stats := ui.RunStats{Duration: elapsed}
	for _, o := range outcomes {
		switch {
		case o.Skipped:
			stats.Skipped++
		case o.Result != nil && o.Result.Status == domain.StatusFound:
			stats.Found++
		default:
			stats.NotFound++
		}
	}
	presenter.Finish(stats)

	logger.Info("finscout finished",
		"elapsed_ms", elapsed.Milliseconds(),
		"found", stats.Found,
		"not_found", stats.NotFound,
		"skipped", stats.Skipped,
	)

	if runErr != nil {
		os.Exit(1)
	}
}

// buildRequests resolves the work list: a single company from flags or
// the full dataset.
func buildRequests(cfg config.Config) ([]domain.DiscoveryRequest, error) {
	if cfg.Company != "" {
		return []domain.DiscoveryRequest{{Company: cfg.Company, Category: cfg.Category}}, nil
	}

	companies, err := dataset.Load(cfg.DatasetPath)
	if err != nil {
		return nil, err
	}

	requests := make([]domain.DiscoveryRequest, 0, len(companies))
	for _, name := range companies {
		requests = append(requests, domain.DiscoveryRequest{Company: name, Category: cfg.Category})
	}
	return requests, nil
}

// rootContextWithSignals creates the root context canceled on SIGINT or
// SIGTERM. The per-discovery timeout is applied downstream, per task.
func rootContextWithSignals() (context.Context, context.CancelFunc) {
	base, baseCancel := context.WithCancel(context.Background())

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case <-ch:
			baseCancel()
		case <-base.Done():
		}
	}()

	cleanup := func() {
		signal.Stop(ch)
		close(ch)
		baseCancel()
	}

	return base, cleanup
}
