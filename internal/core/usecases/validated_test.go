package usecases

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/core/ports"
	"finscout/internal/model"
	"finscout/internal/platform/cache"
	"finscout/internal/platform/errors"
	"finscout/internal/prompt"
	"finscout/internal/strategies/ailookup"
	"finscout/internal/testutil"
)

// stubJudge replays scripted verdicts in order.
type stubJudge struct {
	verdicts []domain.ValidationVerdict
	calls    int
}

func (j *stubJudge) Judge(context.Context, domain.DiscoveryRequest, *domain.CandidateResult) domain.ValidationVerdict {
	idx := j.calls
	j.calls++
	if idx >= len(j.verdicts) {
		return domain.DefaultVerdict("script exhausted")
	}
	return j.verdicts[idx]
}

func newValidatedPipeline(t *testing.T, strategies []ports.Strategy, judge *stubJudge, provider *stubProvider, rounds int) *ValidatedDiscovery {
	t.Helper()

	builder, err := prompt.NewBuilder()
	testutil.AssertNoError(t, err, "NewBuilder")
	pool, err := model.NewPool([]string{"model-a"})
	testutil.AssertNoError(t, err, "NewPool")

	invoker := model.NewInvoker(provider, pool, 1, time.Second, testutil.NewTestLogger())
	invoker.SetSleep(func(time.Duration) {})

	orch := NewDiscoveryOrchestrator(strategies, testutil.NewTestLogger())
	optimizer := NewPromptOptimizer(invoker, builder, cache.New(10), testutil.NewTestLogger())
	return NewValidatedDiscovery(orch, judge, optimizer, builder, rounds, testutil.NewTestLogger())
}

func TestValidatedDiscoverAcceptsFirstRound(t *testing.T) {
	lookup := &stubStrategy{
		name:     "ailookup",
		result:   &domain.CandidateResult{URL: "https://example.com/ir/2024.pdf"},
		attempts: 1,
	}
	judge := &stubJudge{verdicts: []domain.ValidationVerdict{{IsValid: true, Score: 90, Feedback: "good"}}}
	provider := &stubProvider{}

	vd := newValidatedPipeline(t, []ports.Strategy{lookup}, judge, provider, 2)
	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}

	result := vd.Discover(context.Background(), req)
	testutil.AssertEqual(t, result.Status, domain.StatusFound, "status")
	testutil.AssertEqual(t, judge.calls, 1, "one judgment")
	testutil.AssertEqual(t, provider.calls, 0, "no optimization for a valid candidate")
	testutil.AssertEqual(t, result.Extra["validated"], "true", "verdict stamped")
	testutil.AssertEqual(t, result.Extra["validation_score"], "90", "score stamped")
}

func TestValidatedDiscoverOptimizesAndRetries(t *testing.T) {
	lookup := &stubStrategy{
		name:     "ailookup",
		result:   &domain.CandidateResult{URL: "https://example.com/ir/2024.pdf", Year: "2024"},
		attempts: 1,
	}
	judge := &stubJudge{verdicts: []domain.ValidationVerdict{
		{IsValid: false, Score: 30, Feedback: "wrong document"},
		{IsValid: true, Score: 85, Feedback: "good"},
	}}
	provider := &stubProvider{response: "too short to be a rewrite"}

	vd := newValidatedPipeline(t, []ports.Strategy{lookup}, judge, provider, 2)
	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}

	result := vd.Discover(context.Background(), req)
	testutil.AssertEqual(t, result.Status, domain.StatusFound, "status")
	testutil.AssertEqual(t, lookup.called, 2, "one discovery per round")
	testutil.AssertEqual(t, judge.calls, 2, "one judgment per round")
	testutil.AssertEqual(t, provider.calls, 1, "one optimization between rounds")
	testutil.AssertEqual(t, result.Extra["validated"], "true", "final verdict stamped")
}

func TestValidatedDiscoverKeepsUnvalidatedResult(t *testing.T) {
	// Every round fails validation: the last live URL still wins over
	// the sentinel.
	lookup := &stubStrategy{
		name:     "ailookup",
		result:   &domain.CandidateResult{URL: "https://example.com/ir/2024.pdf"},
		attempts: 1,
	}
	judge := &stubJudge{verdicts: []domain.ValidationVerdict{
		{IsValid: false, Score: 10, Feedback: "bad"},
		{IsValid: false, Score: 12, Feedback: "still bad"},
	}}
	provider := &stubProvider{response: "too short"}

	vd := newValidatedPipeline(t, []ports.Strategy{lookup}, judge, provider, 2)
	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}

	result := vd.Discover(context.Background(), req)
	testutil.AssertEqual(t, result.Status, domain.StatusFound, "live URL beats the sentinel")
	testutil.AssertEqual(t, result.Extra["validated"], "false", "stamped as unvalidated")
	testutil.AssertEqual(t, provider.calls, 1, "no optimization after the final round")
}

// replayProvider replays responses in order and records every prompt.
type replayProvider struct {
	responses []string
	prompts   []string
}

func (p *replayProvider) Generate(_ context.Context, _, prompt string) (string, error) {
	idx := len(p.prompts)
	p.prompts = append(p.prompts, prompt)
	if idx < len(p.responses) {
		return p.responses[idx], nil
	}
	return "", nil
}

func TestValidatedDiscoverFallbackPromptReachesNextRound(t *testing.T) {
	// A rejected rewrite falls back to the prior-result prompt; the next
	// round's lookup must actually send that prompt, not the base one.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer srv.Close()

	liveJSON := fmt.Sprintf(`{"url": %q, "year": "2021", "confidence": "MEDIUM", "source_description": "Annual Report"}`, srv.URL)
	provider := &replayProvider{responses: []string{
		liveJSON,    // round 1 lookup
		"too short", // rejected rewrite
		liveJSON,    // round 2 lookup
	}}

	shared := cache.New(10)
	deps := ports.StrategyDeps{
		Provider:          provider,
		Templates:         shared,
		Models:            []string{"model-a"},
		ModelMaxRetries:   1,
		QuotaDefaultDelay: time.Second,
		ProbeTimeout:      2 * time.Second,
	}
	lookup, err := ailookup.New(ports.StrategyConfig{MaxRetries: 3}, deps, testutil.NewTestLogger())
	testutil.AssertNoError(t, err, "ailookup.New")

	builder, err := prompt.NewBuilder()
	testutil.AssertNoError(t, err, "NewBuilder")
	pool, err := model.NewPool([]string{"model-a"})
	testutil.AssertNoError(t, err, "NewPool")
	invoker := model.NewInvoker(provider, pool, 1, time.Second, testutil.NewTestLogger())
	invoker.SetSleep(func(time.Duration) {})

	orch := NewDiscoveryOrchestrator([]ports.Strategy{lookup}, testutil.NewTestLogger())
	judge := &stubJudge{verdicts: []domain.ValidationVerdict{
		{IsValid: false, Score: 25, Feedback: "wrong document"},
		{IsValid: true, Score: 80, Feedback: "good"},
	}}
	optimizer := NewPromptOptimizer(invoker, builder, shared, testutil.NewTestLogger())
	vd := NewValidatedDiscovery(orch, judge, optimizer, builder, 2, testutil.NewTestLogger())

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	result := vd.Discover(context.Background(), req)

	testutil.AssertEqual(t, result.Status, domain.StatusFound, "status")
	testutil.AssertEqual(t, len(provider.prompts), 3, "two lookups and one optimization")
	testutil.AssertContains(t, provider.prompts[2], "SUGGESTIONS BASED ON PREVIOUS SEARCHES", "fallback prompt sent on the next round")
	testutil.AssertFalse(t, provider.prompts[2] == provider.prompts[0], "second round differs from the base prompt")
}

func TestValidatedDiscoverNotFoundShortCircuits(t *testing.T) {
	lookup := &stubStrategy{name: "ailookup", err: errors.ErrNotFound, attempts: 3}
	judge := &stubJudge{}
	provider := &stubProvider{}

	vd := newValidatedPipeline(t, []ports.Strategy{lookup}, judge, provider, 3)
	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}

	result := vd.Discover(context.Background(), req)
	testutil.AssertEqual(t, result.Status, domain.StatusNotFound, "sentinel")
	testutil.AssertEqual(t, judge.calls, 0, "nothing to judge")
	testutil.AssertEqual(t, lookup.called, 1, "no pointless extra rounds")
}
