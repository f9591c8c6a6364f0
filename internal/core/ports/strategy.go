// Package ports defines the interfaces between the discovery core and
// its adapters. Implementations live under internal/strategies and
// internal/adapters.
package ports

import (
	"context"
	"time"

	"finscout/internal/core/domain"
)

// Strategy is one way of locating a document source for a company.
// Discover returns a candidate that already passed the live-URL probe,
// or an error when the strategy exhausted its attempts. Strategies are
// built per worker and are not safe for concurrent use.
type Strategy interface {
	// Name returns the unique strategy identifier.
	Name() string

	// Discover attempts to find one authoritative source.
	Discover(ctx context.Context, req domain.DiscoveryRequest) (*domain.CandidateResult, error)

	// Attempts reports how many attempts the last Discover consumed.
	Attempts() int

	// Close releases any resources held by the strategy.
	Close() error
}

// StrategyConfig carries the per-strategy knobs the registry hands to a
// factory at build time.
type StrategyConfig struct {
	Enabled      bool
	Priority     int // higher runs first
	MaxRetries   int
	Timeout      time.Duration
	RequestDelay time.Duration

	// Custom holds strategy-specific settings.
	Custom map[string]interface{}
}

// StrategyMetadata describes a registered strategy.
type StrategyMetadata struct {
	Name        string
	Description string
}

// TemplateSource supplies per-company discovery templates, typically
// rewrites accepted by the prompt optimizer.
type TemplateSource interface {
	Get(company string) (string, bool)
}

// StrategyDeps bundles the shared collaborators a strategy factory
// needs at build time. One instance per worker: strategies built from
// the same deps share the provider but own their HTTP sessions.
type StrategyDeps struct {
	Provider          ModelProvider
	Templates         TemplateSource // optional
	Models            []string
	ModelMaxRetries   int
	QuotaDefaultDelay time.Duration
	ProbeTimeout      time.Duration
	RequestDelay      time.Duration
	ArtifactsDir      string
}

// ModelProvider generates text from a prompt using a named model.
// Implementations map provider rate-limit rejections to
// errors.QuotaError; every other failure is opaque to callers.
type ModelProvider interface {
	Generate(ctx context.Context, model, prompt string) (string, error)
}

// Prober checks whether a candidate URL is alive. It never fails: any
// doubt counts as dead.
type Prober interface {
	IsDead(ctx context.Context, url string) bool
}
