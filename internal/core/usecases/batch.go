package usecases

import (
	"context"
	"time"

	"finscout/internal/core/domain"
	"finscout/internal/platform/logx"
	"finscout/internal/platform/workerpool"
	"finscout/internal/report"
)

// Discoverer is the pipeline surface the batch runs against: either a
// bare orchestrator or the validated variant wrapping it.
type Discoverer interface {
	Discover(ctx context.Context, req domain.DiscoveryRequest) *domain.CandidateResult
	Close()
}

// DiscovererFactory builds one discovery pipeline. Called once per
// worker so every worker gets independent sessions and model invokers.
type DiscovererFactory func() (Discoverer, error)

// BatchOutcome is the terminal record of one company in a batch run.
type BatchOutcome struct {
	Request domain.DiscoveryRequest
	Result  *domain.CandidateResult
	Skipped bool
}

// BatchProcessor runs discoveries for a company list over a fixed-size
// worker pool.
type BatchProcessor struct {
	factory DiscovererFactory
	store   *report.Store
	workers int
	timeout time.Duration // per discovery, 0 = none
	logger  logx.Logger
}

// NewBatchProcessor creates a batch processor. timeout bounds each
// company's discovery end to end; 0 disables it.
func NewBatchProcessor(factory DiscovererFactory, store *report.Store, workers int, timeout time.Duration, logger logx.Logger) *BatchProcessor {
	if workers < 1 {
		workers = 1
	}
	return &BatchProcessor{
		factory: factory,
		store:   store,
		workers: workers,
		timeout: timeout,
		logger:  logger.With("component", "batch"),
	}
}

// discoveryTask is one company's end-to-end discovery on the pool.
type discoveryTask struct {
	req         domain.DiscoveryRequest
	runCtx      context.Context
	timeout     time.Duration
	discoverers []Discoverer
	store       *report.Store
	progress    ProgressFunc
	logger      logx.Logger

	result *domain.CandidateResult
}

// Execute discovers under the batch context, not the pool's, so signal
// cancellation reaches model calls and probes directly.
func (t *discoveryTask) Execute(_ context.Context, workerID int) error {
	ctx := t.runCtx
	if t.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, t.timeout)
		defer cancel()
	}
	t.result = t.discoverers[workerID].Discover(ctx, t.req)

	if err := t.store.Append(t.result); err != nil {
		t.logger.Warn("failed to persist report", "company", t.req.Company, "error", err.Error())
	}
	if t.progress != nil {
		t.progress(t.req, t.result, false)
	}
	return nil
}

func (t *discoveryTask) Priority() int { return 0 }
func (t *discoveryTask) Name() string  { return t.req.Company }

// ProgressFunc observes one company reaching a terminal state. result
// is nil when the company was skipped.
type ProgressFunc func(req domain.DiscoveryRequest, result *domain.CandidateResult, skipped bool)

// Run processes the requests and returns one outcome per request.
// Companies whose report already holds enough records are skipped
// before any worker touches them; they still count as progress.
// progress may be nil.
func (p *BatchProcessor) Run(ctx context.Context, requests []domain.DiscoveryRequest, progress ProgressFunc) ([]BatchOutcome, error) {
	outcomes := make([]BatchOutcome, 0, len(requests))
	var pending []domain.DiscoveryRequest

	for _, req := range requests {
		if p.store.ShouldSkip(req.Company) {
			p.logger.Info("company already resolved, skipping", "company", req.Company)
			outcomes = append(outcomes, BatchOutcome{Request: req, Skipped: true})
			if progress != nil {
				progress(req, nil, true)
			}
			continue
		}
		pending = append(pending, req)
	}

	if len(pending) == 0 {
		return outcomes, nil
	}

	discoverers := make([]Discoverer, p.workers)
	for i := range discoverers {
		d, err := p.factory()
		if err != nil {
			return outcomes, err
		}
		discoverers[i] = d
		defer d.Close()
	}

	pool := workerpool.NewWorkerPool(workerpool.WorkerPoolConfig{
		Workers:   p.workers,
		Scheduler: workerpool.NewFIFOScheduler(),
		Logger:    p.logger,
	})
	pool.Start()
	defer pool.Stop()

	tasks := make([]workerpool.Task, 0, len(pending))
	for _, req := range pending {
		tasks = append(tasks, &discoveryTask{
			req:         req,
			runCtx:      ctx,
			timeout:     p.timeout,
			discoverers: discoverers,
			store:       p.store,
			progress:    progress,
			logger:      p.logger,
		})
	}

	for _, tr := range pool.Submit(tasks) {
		task := tr.Task.(*discoveryTask)
		result := task.result
		if result == nil {
			result = domain.NotFound(task.req)
		}
		outcomes = append(outcomes, BatchOutcome{Request: task.req, Result: result})
	}

	return outcomes, nil
}
