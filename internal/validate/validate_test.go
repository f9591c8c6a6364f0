package validate

import (
	"context"
	"testing"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/model"
	"finscout/internal/platform/errors"
	"finscout/internal/prompt"
	"finscout/internal/testutil"
)

type scriptedProvider struct {
	response string
	err      error
	prompts  []string
}

func (s *scriptedProvider) Generate(_ context.Context, _, prompt string) (string, error) {
	s.prompts = append(s.prompts, prompt)
	return s.response, s.err
}

func newTestValidator(t *testing.T, provider *scriptedProvider) *Validator {
	t.Helper()

	pool, err := model.NewPool([]string{"model-a"})
	testutil.AssertNoError(t, err, "NewPool")
	builder, err := prompt.NewBuilder()
	testutil.AssertNoError(t, err, "NewBuilder")

	invoker := model.NewInvoker(provider, pool, 1, time.Second, testutil.NewTestLogger())
	invoker.SetSleep(func(time.Duration) {})
	return New(invoker, builder, testutil.NewTestLogger())
}

func sampleCandidate() *domain.CandidateResult {
	return &domain.CandidateResult{
		URL:               "https://example.com/ir/annual-2023.pdf",
		Year:              "2023",
		Confidence:        domain.ConfidenceHigh,
		SourceDescription: "Annual Report",
	}
}

func TestJudgeValidResponse(t *testing.T) {
	provider := &scriptedProvider{response: `{
		"is_valid": true,
		"validation_score": 87,
		"feedback": "authoritative investor relations page",
		"improvement_suggestions": []
	}`}
	v := newTestValidator(t, provider)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	verdict := v.Judge(context.Background(), req, sampleCandidate())

	testutil.AssertTrue(t, verdict.IsValid, "is_valid")
	testutil.AssertEqual(t, verdict.Score, 87, "score")
	testutil.AssertContains(t, verdict.Feedback, "authoritative", "feedback")

	// The judgment prompt must carry the candidate under evaluation.
	testutil.AssertContains(t, provider.prompts[0], "https://example.com/ir/annual-2023.pdf", "prompt carries URL")
	testutil.AssertContains(t, provider.prompts[0], "Example Corp", "prompt carries company")
}

func TestJudgeUnparsableResponse(t *testing.T) {
	// Prose with no JSON anywhere: the verdict degrades to the default
	// instead of failing the pipeline.
	provider := &scriptedProvider{response: "I could not assess this candidate, sorry."}
	v := newTestValidator(t, provider)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	verdict := v.Judge(context.Background(), req, sampleCandidate())

	testutil.AssertFalse(t, verdict.IsValid, "default verdict is invalid")
	testutil.AssertEqual(t, verdict.Score, 0, "default score")
	testutil.AssertNotEqual(t, verdict.Feedback, "", "feedback explains the failure")
}

func TestJudgeProviderFailure(t *testing.T) {
	provider := &scriptedProvider{err: errors.New("model down")}
	v := newTestValidator(t, provider)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	verdict := v.Judge(context.Background(), req, sampleCandidate())

	testutil.AssertFalse(t, verdict.IsValid, "invalid on provider failure")
	testutil.AssertEqual(t, verdict.Score, 0, "zero score on provider failure")
	testutil.AssertNotEqual(t, verdict.Feedback, "", "feedback explains the failure")
}

func TestJudgeQuotaHitIsNotRetried(t *testing.T) {
	// The verdict is advisory, so a rate-limited judgment degrades to
	// the default instead of burning retry budget on it.
	provider := &scriptedProvider{err: errors.NewQuotaError(30*time.Second, errors.New("429"))}

	pool, err := model.NewPool([]string{"model-a"})
	testutil.AssertNoError(t, err, "NewPool")
	builder, err := prompt.NewBuilder()
	testutil.AssertNoError(t, err, "NewBuilder")

	invoker := model.NewInvoker(provider, pool, 3, time.Minute, testutil.NewTestLogger())
	invoker.SetSleep(func(time.Duration) { t.Error("judgment call must not back off") })
	v := New(invoker, builder, testutil.NewTestLogger())

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	verdict := v.Judge(context.Background(), req, sampleCandidate())

	testutil.AssertFalse(t, verdict.IsValid, "default verdict")
	testutil.AssertEqual(t, len(provider.prompts), 1, "exactly one model call")
}

func TestJudgeNilCandidate(t *testing.T) {
	provider := &scriptedProvider{response: "{}"}
	v := newTestValidator(t, provider)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	verdict := v.Judge(context.Background(), req, nil)

	testutil.AssertFalse(t, verdict.IsValid, "nothing to validate")
	testutil.AssertEqual(t, len(provider.prompts), 0, "no model call for nil candidate")
}
