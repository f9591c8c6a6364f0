package usecases

import (
	"context"
	"strconv"

	"finscout/internal/core/domain"
	"finscout/internal/platform/logx"
	"finscout/internal/prompt"
)

// CandidateJudge renders a verdict over a found candidate.
type CandidateJudge interface {
	Judge(ctx context.Context, req domain.DiscoveryRequest, c *domain.CandidateResult) domain.ValidationVerdict
}

// ValidatedDiscovery runs discovery rounds under model validation.
// A round that finds a live but invalid source feeds the verdict into
// the prompt optimizer; the resulting prompt, accepted rewrite or
// prior-result fallback, reaches the next round through the shared
// template cache. The last found result is always kept: a live URL
// the validator dislikes still beats the sentinel.
type ValidatedDiscovery struct {
	orchestrator *DiscoveryOrchestrator
	judge        CandidateJudge
	optimizer    *PromptOptimizer
	builder      *prompt.Builder
	maxRounds    int
	logger       logx.Logger
}

// NewValidatedDiscovery creates the validated pipeline. maxRounds
// bounds the validate-optimize-retry cycle, not the attempts inside a
// round (strategies bound those themselves).
func NewValidatedDiscovery(orchestrator *DiscoveryOrchestrator, judge CandidateJudge, optimizer *PromptOptimizer, builder *prompt.Builder, maxRounds int, logger logx.Logger) *ValidatedDiscovery {
	if maxRounds < 1 {
		maxRounds = 1
	}
	return &ValidatedDiscovery{
		orchestrator: orchestrator,
		judge:        judge,
		optimizer:    optimizer,
		builder:      builder,
		maxRounds:    maxRounds,
		logger:       logger.With("component", "validated-discovery"),
	}
}

// Discover runs the validated cycle. Like the orchestrator it never
// errors; the worst case is the NOT_FOUND sentinel.
func (vd *ValidatedDiscovery) Discover(ctx context.Context, req domain.DiscoveryRequest) *domain.CandidateResult {
	currentPrompt := vd.builder.Discovery(req)
	var lastFound *domain.CandidateResult

	for round := 0; round < vd.maxRounds; round++ {
		if ctx.Err() != nil {
			break
		}

		result := vd.orchestrator.Discover(ctx, req)
		if result.Status != domain.StatusFound {
			if lastFound != nil {
				return lastFound
			}
			return result
		}
		lastFound = result

		verdict := vd.judge.Judge(ctx, req, result)
		stampVerdict(result, verdict)

		if verdict.IsValid {
			return result
		}

		if round == vd.maxRounds-1 {
			break
		}

		vd.logger.Info("candidate rejected by validator, optimizing",
			"company", req.Company,
			"score", verdict.Score,
			"round", round+1,
		)
		currentPrompt = vd.optimizer.Optimize(ctx, req, verdict, currentPrompt, result)
	}

	if lastFound != nil {
		vd.logger.Warn("returning unvalidated source", "company", req.Company, "url", lastFound.URL)
		return lastFound
	}
	return domain.NotFound(req)
}

// Close releases the underlying pipeline.
func (vd *ValidatedDiscovery) Close() {
	vd.orchestrator.Close()
}

func stampVerdict(result *domain.CandidateResult, verdict domain.ValidationVerdict) {
	if result.Extra == nil {
		result.Extra = make(map[string]string)
	}
	result.Extra["validation_score"] = strconv.Itoa(verdict.Score)
	result.Extra["validated"] = strconv.FormatBool(verdict.IsValid)
}
