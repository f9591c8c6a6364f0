package usecases

import (
	"context"
	"sync"
	"testing"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/report"
	"finscout/internal/testutil"
)

// stubDiscoverer records the companies it was asked about.
type stubDiscoverer struct {
	mu        sync.Mutex
	companies []string
	closed    bool
}

func (d *stubDiscoverer) Discover(_ context.Context, req domain.DiscoveryRequest) *domain.CandidateResult {
	d.mu.Lock()
	d.companies = append(d.companies, req.Company)
	d.mu.Unlock()

	c := &domain.CandidateResult{URL: "https://example.com/" + req.Company}
	return c.Found(req, "stub")
}

func (d *stubDiscoverer) Close() { d.closed = true }

func batchRequests(names ...string) []domain.DiscoveryRequest {
	reqs := make([]domain.DiscoveryRequest, 0, len(names))
	for _, n := range names {
		reqs = append(reqs, domain.DiscoveryRequest{Company: n, Category: "Annual Report"})
	}
	return reqs
}

func TestBatchRunProcessesEveryCompany(t *testing.T) {
	store := report.NewStore(t.TempDir(), testutil.NewTestLogger())

	var mu sync.Mutex
	var built []*stubDiscoverer
	factory := func() (Discoverer, error) {
		d := &stubDiscoverer{}
		mu.Lock()
		built = append(built, d)
		mu.Unlock()
		return d, nil
	}

	p := NewBatchProcessor(factory, store, 2, 0, testutil.NewTestLogger())
	outcomes, err := p.Run(context.Background(), batchRequests("Alpha", "Beta", "Gamma"), nil)
	testutil.AssertNoError(t, err, "Run")
	testutil.AssertEqual(t, len(outcomes), 3, "one outcome per request")
	testutil.AssertEqual(t, len(built), 2, "one pipeline per worker")

	seen := 0
	for _, d := range built {
		testutil.AssertTrue(t, d.closed, "pipeline closed after the run")
		seen += len(d.companies)
	}
	testutil.AssertEqual(t, seen, 3, "every company discovered exactly once")

	for _, o := range outcomes {
		testutil.AssertFalse(t, o.Skipped, "nothing skipped")
		testutil.AssertEqual(t, o.Result.Status, domain.StatusFound, "found")
	}

	records, err := store.Load("Alpha")
	testutil.AssertNoError(t, err, "Load")
	testutil.AssertEqual(t, len(records), 1, "result persisted")
}

func TestBatchRunSkipsResolvedCompanies(t *testing.T) {
	store := report.NewStore(t.TempDir(), testutil.NewTestLogger())

	// Push a company past the re-run guard.
	for i := 0; i < 6; i++ {
		c := &domain.CandidateResult{URL: "https://example.com/done"}
		testutil.AssertNoError(t, store.Append(c.Found(domain.DiscoveryRequest{Company: "Done Corp"}, "stub")), "Append")
	}

	worker := &stubDiscoverer{}
	factory := func() (Discoverer, error) { return worker, nil }

	p := NewBatchProcessor(factory, store, 1, 0, testutil.NewTestLogger())
	outcomes, err := p.Run(context.Background(), batchRequests("Done Corp", "Fresh Corp"), nil)
	testutil.AssertNoError(t, err, "Run")
	testutil.AssertEqual(t, len(outcomes), 2, "outcomes cover skipped companies too")

	var skipped, processed int
	for _, o := range outcomes {
		if o.Skipped {
			skipped++
			testutil.AssertEqual(t, o.Request.Company, "Done Corp", "the resolved company is the skipped one")
		} else {
			processed++
		}
	}
	testutil.AssertEqual(t, skipped, 1, "skipped count")
	testutil.AssertEqual(t, processed, 1, "processed count")
	testutil.AssertEqual(t, len(worker.companies), 1, "no worker touches a skipped company")
	testutil.AssertEqual(t, worker.companies[0], "Fresh Corp", "only the fresh company runs")
}

func TestBatchRunAllSkipped(t *testing.T) {
	store := report.NewStore(t.TempDir(), testutil.NewTestLogger())
	for i := 0; i < 6; i++ {
		c := &domain.CandidateResult{URL: "https://example.com/done"}
		testutil.AssertNoError(t, store.Append(c.Found(domain.DiscoveryRequest{Company: "Done Corp"}, "stub")), "Append")
	}

	factoryCalls := 0
	factory := func() (Discoverer, error) {
		factoryCalls++
		return &stubDiscoverer{}, nil
	}

	p := NewBatchProcessor(factory, store, 4, 0, testutil.NewTestLogger())
	outcomes, err := p.Run(context.Background(), batchRequests("Done Corp"), nil)
	testutil.AssertNoError(t, err, "Run")
	testutil.AssertEqual(t, len(outcomes), 1, "one outcome")
	testutil.AssertTrue(t, outcomes[0].Skipped, "skipped")
	testutil.AssertEqual(t, factoryCalls, 0, "no pipelines built when nothing is pending")
}

func TestBatchRunProgressCallback(t *testing.T) {
	store := report.NewStore(t.TempDir(), testutil.NewTestLogger())
	factory := func() (Discoverer, error) { return &stubDiscoverer{}, nil }

	var mu sync.Mutex
	var reported []string
	progress := func(req domain.DiscoveryRequest, result *domain.CandidateResult, skipped bool) {
		mu.Lock()
		reported = append(reported, req.Company)
		mu.Unlock()
	}

	p := NewBatchProcessor(factory, store, 2, time.Minute, testutil.NewTestLogger())
	_, err := p.Run(context.Background(), batchRequests("Alpha", "Beta"), progress)
	testutil.AssertNoError(t, err, "Run")
	testutil.AssertEqual(t, len(reported), 2, "progress fired per company")
}

func TestBatchRunProgressCoversSkippedCompanies(t *testing.T) {
	// A skipped company must still advance progress, or a bar sized to
	// the full request list never completes.
	store := report.NewStore(t.TempDir(), testutil.NewTestLogger())
	for i := 0; i < 6; i++ {
		c := &domain.CandidateResult{URL: "https://example.com/done"}
		testutil.AssertNoError(t, store.Append(c.Found(domain.DiscoveryRequest{Company: "Done Corp"}, "stub")), "Append")
	}
	factory := func() (Discoverer, error) { return &stubDiscoverer{}, nil }

	var mu sync.Mutex
	reported := make(map[string]bool)
	progress := func(req domain.DiscoveryRequest, result *domain.CandidateResult, skipped bool) {
		mu.Lock()
		reported[req.Company] = skipped
		mu.Unlock()
	}

	p := NewBatchProcessor(factory, store, 1, 0, testutil.NewTestLogger())
	_, err := p.Run(context.Background(), batchRequests("Done Corp", "Fresh Corp"), progress)
	testutil.AssertNoError(t, err, "Run")

	testutil.AssertEqual(t, len(reported), 2, "every company reported")
	testutil.AssertTrue(t, reported["Done Corp"], "skipped company flagged as skipped")
	testutil.AssertFalse(t, reported["Fresh Corp"], "processed company not flagged")
}
