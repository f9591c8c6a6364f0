package usecases

import (
	"context"
	"strings"

	"finscout/internal/core/domain"
	"finscout/internal/model"
	"finscout/internal/platform/cache"
	"finscout/internal/platform/logx"
	"finscout/internal/prompt"
)

// PromptOptimizer rewrites the discovery template for companies the
// base prompt keeps failing on. Each company gets a bounded budget of
// rewrite attempts; past the budget (or on any rejection) the optimizer
// falls back to a prompt derived from the best candidate seen so far,
// with zero model calls.
type PromptOptimizer struct {
	invoker *model.Invoker
	builder *prompt.Builder
	cache   *cache.PromptCache
	states  map[string]*domain.TuningState
	logger  logx.Logger
}

// NewPromptOptimizer creates an optimizer. One instance per worker;
// the cache may be shared, the tuning states are not.
func NewPromptOptimizer(invoker *model.Invoker, builder *prompt.Builder, promptCache *cache.PromptCache, logger logx.Logger) *PromptOptimizer {
	return &PromptOptimizer{
		invoker: invoker,
		builder: builder,
		cache:   promptCache,
		states:  make(map[string]*domain.TuningState),
		logger:  logger.With("component", "prompt-optimizer"),
	}
}

// CachedTemplate returns the accepted rewrite for a company, if any.
func (po *PromptOptimizer) CachedTemplate(company string) (string, bool) {
	return po.cache.Get(company)
}

// Attempts reports the consumed budget for a company.
func (po *PromptOptimizer) Attempts(company string) int {
	if state, ok := po.states[company]; ok {
		return state.Attempts()
	}
	return 0
}

// Optimize produces the next discovery prompt for a company based on
// validator feedback. Rewrites are validated before acceptance: long
// enough to be a real template and still carrying the company
// placeholder. Every produced prompt, accepted rewrite and fallback
// alike, is cached per company so the next discovery round sends it.
func (po *PromptOptimizer) Optimize(ctx context.Context, req domain.DiscoveryRequest, verdict domain.ValidationVerdict, currentPrompt string, prior *domain.CandidateResult) string {
	state, ok := po.states[req.Company]
	if !ok {
		state = domain.NewTuningState(req.Company)
		po.states[req.Company] = state
	}

	if !state.Consume() {
		po.logger.Warn("optimization budget exhausted, using prior-result prompt",
			"company", req.Company,
			"attempts", state.Attempts(),
		)
		return po.fallback(req, prior)
	}

	request := po.builder.OptimizationRequest(req.Company, verdict, currentPrompt, prior)

	response, err := po.invoker.Call(ctx, request)
	if err != nil {
		po.logger.Warn("optimization call failed, using prior-result prompt",
			"company", req.Company,
			"error", err.Error(),
		)
		return po.fallback(req, prior)
	}

	rewrite := strings.TrimSpace(response)
	if !prompt.ValidRewrite(rewrite) {
		po.logger.Warn("rewrite rejected, using prior-result prompt",
			"company", req.Company,
			"length", len(rewrite),
		)
		return po.fallback(req, prior)
	}

	po.cache.Set(req.Company, rewrite, 0)
	po.logger.Info("template optimized",
		"company", req.Company,
		"attempt", state.Attempts(),
	)
	return po.builder.FromTemplate(rewrite, req, "")
}

// fallback derives the next prompt from the best candidate seen so far
// and caches it; the lookup strategy reads the cache on its next round,
// so an uncached fallback would never reach a model.
func (po *PromptOptimizer) fallback(req domain.DiscoveryRequest, prior *domain.CandidateResult) string {
	p := po.builder.ScrapingBased(req, prior)
	po.cache.Set(req.Company, p, 0)
	return p
}
