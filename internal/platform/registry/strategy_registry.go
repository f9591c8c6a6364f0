// internal/platform/registry/strategy_registry.go
package registry

import (
	"fmt"
	"sort"
	"sync"

	"finscout/internal/core/ports"
	"finscout/internal/platform/logx"
)

// StrategyRegistry manages registration and construction of discovery
// strategies. Registry + Factory pattern: strategy packages register
// themselves from init(), and the application builds them from config
// without importing concrete types.
type StrategyRegistry struct {
	mu        sync.RWMutex
	factories map[string]StrategyFactory
	metadata  map[string]ports.StrategyMetadata
	logger    logx.Logger
}

// StrategyFactory creates a strategy instance. Called once per worker
// so each strategy owns its sessions.
type StrategyFactory func(cfg ports.StrategyConfig, deps ports.StrategyDeps, logger logx.Logger) (ports.Strategy, error)

var globalRegistry *StrategyRegistry
var once sync.Once

// Global returns the process-wide registry instance.
func Global() *StrategyRegistry {
	once.Do(func() {
		globalRegistry = NewStrategyRegistry(logx.New())
	})
	return globalRegistry
}

// NewStrategyRegistry creates an empty registry.
func NewStrategyRegistry(logger logx.Logger) *StrategyRegistry {
	return &StrategyRegistry{
		factories: make(map[string]StrategyFactory),
		metadata:  make(map[string]ports.StrategyMetadata),
		logger:    logger.With("component", "strategy-registry"),
	}
}

// Register adds a strategy factory with its metadata. Typically called
// from init() of each strategy package.
func (r *StrategyRegistry) Register(name string, factory StrategyFactory, meta ports.StrategyMetadata) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return fmt.Errorf("strategy name cannot be empty")
	}
	if factory == nil {
		return fmt.Errorf("factory cannot be nil for strategy %s", name)
	}
	if _, exists := r.factories[name]; exists {
		return fmt.Errorf("strategy %s is already registered", name)
	}

	r.factories[name] = factory
	r.metadata[name] = meta
	r.logger.Debug("strategy registered", "name", name)

	return nil
}

// Build constructs all enabled strategies in priority order (highest
// first). Individual build failures are logged and skipped; Build only
// fails when nothing could be built at all.
func (r *StrategyRegistry) Build(configs map[string]ports.StrategyConfig, deps ports.StrategyDeps, logger logx.Logger) ([]ports.Strategy, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if configs == nil {
		return nil, fmt.Errorf("configs cannot be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	type prioritized struct {
		name   string
		config ports.StrategyConfig
	}

	candidates := make([]prioritized, 0, len(configs))
	var buildErrors []error

	for name, cfg := range configs {
		if !cfg.Enabled {
			continue
		}
		if _, exists := r.factories[name]; !exists {
			r.logger.Warn("strategy not registered, skipping", "strategy", name)
			buildErrors = append(buildErrors, fmt.Errorf("strategy %s not registered", name))
			continue
		}
		if cfg.Priority < 0 {
			cfg.Priority = 5
		}
		candidates = append(candidates, prioritized{name: name, config: cfg})
	}

	sort.Slice(candidates, func(i, j int) bool {
		return candidates[i].config.Priority > candidates[j].config.Priority
	})

	strategies := make([]ports.Strategy, 0, len(candidates))
	for _, c := range candidates {
		strategy, err := r.factories[c.name](c.config, deps, logger)
		if err != nil {
			buildErrors = append(buildErrors, fmt.Errorf("failed to build strategy %s: %w", c.name, err))
			continue
		}
		strategies = append(strategies, strategy)
		r.logger.Debug("strategy built", "name", c.name, "priority", c.config.Priority)
	}

	for _, err := range buildErrors {
		r.logger.Warn("strategy build error", "error", err.Error())
	}

	if len(strategies) == 0 && len(configs) > 0 {
		return nil, fmt.Errorf("no strategies could be built")
	}

	return strategies, nil
}

// List returns the names of all registered strategies, sorted.
func (r *StrategyRegistry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered reports whether a strategy name is known.
func (r *StrategyRegistry) IsRegistered(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.factories[name]
	return exists
}

// Clear removes all registered strategies. Useful for testing.
func (r *StrategyRegistry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.factories = make(map[string]StrategyFactory)
	r.metadata = make(map[string]ports.StrategyMetadata)
}
