package ailookup

import (
	"context"
	"fmt"
	"testing"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/model"
	"finscout/internal/platform/errors"
	"finscout/internal/prompt"
	"finscout/internal/testutil"
)

// scriptedProvider replays responses in order and records prompts.
type scriptedProvider struct {
	responses []string
	errs      []error
	prompts   []string
}

func (s *scriptedProvider) Generate(_ context.Context, _, p string) (string, error) {
	idx := len(s.prompts)
	s.prompts = append(s.prompts, p)

	var err error
	if idx < len(s.errs) {
		err = s.errs[idx]
	}
	var resp string
	if idx < len(s.responses) {
		resp = s.responses[idx]
	}
	return resp, err
}

// deadSet marks specific URLs dead.
type deadSet map[string]bool

func (d deadSet) IsDead(_ context.Context, url string) bool { return d[url] }

// fixedTemplates serves one cached template for one company.
type fixedTemplates struct {
	company  string
	template string
}

func (f *fixedTemplates) Get(company string) (string, bool) {
	if company == f.company {
		return f.template, true
	}
	return "", false
}

func candidateJSON(url string) string {
	return fmt.Sprintf(`{"url": %q, "year": "2023", "confidence": "HIGH", "source_description": "Annual Report"}`, url)
}

func newTestStrategy(t *testing.T, provider *scriptedProvider, prober deadSet, templates *fixedTemplates, maxRetries int) *Strategy {
	t.Helper()

	builder, err := prompt.NewBuilder()
	testutil.AssertNoError(t, err, "NewBuilder")
	pool, err := model.NewPool([]string{"model-a"})
	testutil.AssertNoError(t, err, "NewPool")

	invoker := model.NewInvoker(provider, pool, 1, time.Second, testutil.NewTestLogger())
	invoker.SetSleep(func(time.Duration) {})

	s := &Strategy{
		invoker:    invoker,
		builder:    builder,
		prober:     prober,
		maxRetries: maxRetries,
		logger:     testutil.NewTestLogger(),
	}
	if templates != nil {
		s.templates = templates
	}
	return s
}

func TestDiscoverFirstAttemptLive(t *testing.T) {
	provider := &scriptedProvider{responses: []string{candidateJSON("https://example.com/ir/2023.pdf")}}
	s := newTestStrategy(t, provider, deadSet{}, nil, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	c, err := s.Discover(context.Background(), req)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, c.URL, "https://example.com/ir/2023.pdf", "url")
	testutil.AssertEqual(t, s.Attempts(), 1, "one attempt")
	testutil.AssertContains(t, provider.prompts[0], "Example Corp", "base prompt carries the company")
}

func TestDiscoverRefinesDeadURLs(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		candidateJSON("https://example.com/dead1"),
		candidateJSON("https://example.com/dead2"),
		candidateJSON("https://example.com/live"),
	}}
	prober := deadSet{
		"https://example.com/dead1": true,
		"https://example.com/dead2": true,
	}
	s := newTestStrategy(t, provider, prober, nil, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	c, err := s.Discover(context.Background(), req)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, c.URL, "https://example.com/live", "live URL wins")
	testutil.AssertEqual(t, s.Attempts(), 3, "three attempts consumed")

	// The second prompt must cite the first dead URL, the third the
	// second one.
	testutil.AssertContains(t, provider.prompts[1], "https://example.com/dead1", "refinement cites the dead URL")
	testutil.AssertContains(t, provider.prompts[2], "https://example.com/dead2", "latest dead URL wins")
}

func TestDiscoverExhaustsAttempts(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		candidateJSON("https://example.com/dead"),
		candidateJSON("https://example.com/dead"),
	}}
	s := newTestStrategy(t, provider, deadSet{"https://example.com/dead": true}, nil, 2)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	_, err := s.Discover(context.Background(), req)
	testutil.AssertTrue(t, errors.Is(err, errors.ErrNotFound), "ErrNotFound after exhaustion")
	testutil.AssertEqual(t, s.Attempts(), 2, "attempt count")
}

func TestDiscoverModelFailureCostsOneAttempt(t *testing.T) {
	// A transient provider failure burns the attempt; the next one
	// proceeds normally.
	provider := &scriptedProvider{
		errs:      []error{errors.New("model down"), nil},
		responses: []string{"", candidateJSON("https://example.com/live")},
	}
	s := newTestStrategy(t, provider, deadSet{}, nil, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	c, err := s.Discover(context.Background(), req)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, c.URL, "https://example.com/live", "second attempt wins")
	testutil.AssertEqual(t, s.Attempts(), 2, "failed call burned an attempt")
	testutil.AssertEqual(t, len(provider.prompts), 2, "loop kept going after the failure")
}

func TestDiscoverPersistentModelFailureExhausts(t *testing.T) {
	provider := &scriptedProvider{errs: []error{
		errors.New("model down"),
		errors.New("model down"),
		errors.New("model down"),
	}}
	s := newTestStrategy(t, provider, deadSet{}, nil, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	_, err := s.Discover(context.Background(), req)
	testutil.AssertTrue(t, errors.Is(err, errors.ErrNotFound), "exhaustion ends in not-found")
	testutil.AssertEqual(t, len(provider.prompts), 3, "every attempt tried the provider")
	testutil.AssertEqual(t, s.Attempts(), 3, "attempt count")
}

func TestDiscoverUndecodableResponseCostsOneAttempt(t *testing.T) {
	provider := &scriptedProvider{responses: []string{
		"sorry, nothing found",
		candidateJSON("https://example.com/live"),
	}}
	s := newTestStrategy(t, provider, deadSet{}, nil, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	c, err := s.Discover(context.Background(), req)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertEqual(t, c.URL, "https://example.com/live", "url")
	testutil.AssertEqual(t, s.Attempts(), 2, "garbage response burned an attempt")
}

func TestDiscoverPrefersCachedTemplate(t *testing.T) {
	tpl := "Locate the audited annual report for {company_name}, category {source_type}, " +
		"preferring the investor relations domain and responding with a single JSON object."
	provider := &scriptedProvider{responses: []string{candidateJSON("https://example.com/live")}}
	templates := &fixedTemplates{company: "Example Corp", template: tpl}
	s := newTestStrategy(t, provider, deadSet{}, templates, 3)

	req := domain.DiscoveryRequest{Company: "Example Corp", Category: "Annual Report"}
	_, err := s.Discover(context.Background(), req)
	testutil.AssertNoError(t, err, "Discover")
	testutil.AssertContains(t, provider.prompts[0], "audited annual report for Example Corp", "rendered rewrite used")
}
