// Package usecases wires the core pipeline: strategy orchestration,
// prompt optimization and batch processing.
package usecases

import (
	"context"

	"finscout/internal/core/domain"
	"finscout/internal/core/ports"
	"finscout/internal/platform/logx"
)

// DiscoveryOrchestrator sequences strategies over one request. It owns
// the terminal-state rule of the pipeline: discovery never errors, it
// either finds a live source or returns the NOT_FOUND sentinel.
type DiscoveryOrchestrator struct {
	strategies []ports.Strategy
	logger     logx.Logger
}

// NewDiscoveryOrchestrator creates an orchestrator over strategies
// already sorted by priority (the registry's Build order).
func NewDiscoveryOrchestrator(strategies []ports.Strategy, logger logx.Logger) *DiscoveryOrchestrator {
	return &DiscoveryOrchestrator{
		strategies: strategies,
		logger:     logger.With("component", "orchestrator"),
	}
}

// Discover runs strategies in order and returns the first live result,
// stamped with per-strategy attempt counts. Strategy failures are
// logged and absorbed; an invalid request or full exhaustion yields the
// NOT_FOUND sentinel.
func (o *DiscoveryOrchestrator) Discover(ctx context.Context, req domain.DiscoveryRequest) *domain.CandidateResult {
	if err := req.Validate(); err != nil {
		o.logger.Warn("invalid request", "error", err.Error())
		return domain.NotFound(req)
	}

	attempts := make(map[string]int, len(o.strategies))

	for _, strategy := range o.strategies {
		if ctx.Err() != nil {
			break
		}

		result, err := strategy.Discover(ctx, req)
		attempts[strategy.Name()] = strategy.Attempts()

		if err != nil {
			o.logger.Info("strategy exhausted",
				"strategy", strategy.Name(),
				"company", req.Company,
				"attempts", strategy.Attempts(),
				"reason", err.Error(),
			)
			continue
		}

		result.Found(req, strategy.Name())
		result.Attempts = attempts
		o.logger.Info("source discovered",
			"company", req.Company,
			"strategy", strategy.Name(),
			"url", result.URL,
		)
		return result
	}

	o.logger.Warn("all strategies exhausted", "company", req.Company)
	sentinel := domain.NotFound(req)
	sentinel.Attempts = attempts
	return sentinel
}

// Close releases every strategy.
func (o *DiscoveryOrchestrator) Close() {
	for _, strategy := range o.strategies {
		if err := strategy.Close(); err != nil {
			o.logger.Warn("strategy close failed", "strategy", strategy.Name(), "error", err.Error())
		}
	}
}
