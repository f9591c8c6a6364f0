// internal/platform/workerpool/worker_pool.go
package workerpool

import (
	"context"
	"sync"
	"time"

	"finscout/internal/platform/logx"
)

// Task is a unit of work for the pool. Execute receives the worker id
// so callers can keep per-worker state (one discovery pipeline per
// worker, each with its own HTTP session and model invoker).
type Task interface {
	// Execute runs the task on the given worker.
	Execute(ctx context.Context, workerID int) error

	// Priority orders tasks (higher runs first).
	Priority() int

	// Name identifies the task in logs.
	Name() string
}

// Scheduler decides the order tasks are fed to the queue.
type Scheduler interface {
	Schedule(tasks []Task) []Task
	Name() string
}

// WorkerPool runs tasks on a fixed set of workers.
type WorkerPool struct {
	workers   int
	scheduler Scheduler
	logger    logx.Logger

	taskQueue chan Task
	results   chan TaskResult

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

// TaskResult is the outcome of one task.
type TaskResult struct {
	Task     Task
	Error    error
	Duration time.Duration
}

// WorkerPoolConfig configures the pool.
type WorkerPoolConfig struct {
	Workers   int
	Scheduler Scheduler
	Logger    logx.Logger
}

// NewWorkerPool creates a pool. Zero-value config fields get defaults.
func NewWorkerPool(cfg WorkerPoolConfig) *WorkerPool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.Scheduler == nil {
		cfg.Scheduler = NewPriorityScheduler()
	}
	if cfg.Logger == nil {
		cfg.Logger = logx.New()
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:   cfg.Workers,
		scheduler: cfg.Scheduler,
		logger:    cfg.Logger.With("component", "worker-pool"),
		taskQueue: make(chan Task, cfg.Workers*2),
		results:   make(chan TaskResult, cfg.Workers*2),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Workers returns the pool size.
func (wp *WorkerPool) Workers() int {
	return wp.workers
}

// Start launches the workers.
func (wp *WorkerPool) Start() {
	wp.logger.Info("starting worker pool", "workers", wp.workers, "scheduler", wp.scheduler.Name())

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	wp.logger.Debug("worker started", "worker_id", id)

	for {
		select {
		case <-wp.ctx.Done():
			wp.logger.Debug("worker stopped", "worker_id", id)
			return

		case task, ok := <-wp.taskQueue:
			if !ok {
				wp.logger.Debug("task queue closed, worker stopping", "worker_id", id)
				return
			}
			wp.executeTask(id, task)
		}
	}
}

func (wp *WorkerPool) executeTask(workerID int, task Task) {
	start := time.Now()

	wp.logger.Debug("executing task",
		"worker_id", workerID,
		"task", task.Name(),
		"priority", task.Priority(),
	)

	err := task.Execute(wp.ctx, workerID)
	duration := time.Since(start)

	wp.logger.Debug("task completed",
		"worker_id", workerID,
		"task", task.Name(),
		"duration_ms", duration.Milliseconds(),
		"error", err != nil,
	)

	select {
	case wp.results <- TaskResult{Task: task, Error: err, Duration: duration}:
	case <-wp.ctx.Done():
		// pool stopped, discard result
	}
}

// Submit schedules the tasks, feeds them to the workers and blocks
// until every result is in (or the pool stops).
func (wp *WorkerPool) Submit(tasks []Task) []TaskResult {
	if len(tasks) == 0 {
		return []TaskResult{}
	}

	scheduled := wp.scheduler.Schedule(tasks)

	wp.logger.Info("submitting tasks",
		"total", len(scheduled),
		"scheduler", wp.scheduler.Name(),
	)

	go func() {
		for _, task := range scheduled {
			select {
			case wp.taskQueue <- task:
			case <-wp.ctx.Done():
				return
			}
		}
	}()

	results := make([]TaskResult, 0, len(tasks))
	for i := 0; i < len(tasks); i++ {
		select {
		case result := <-wp.results:
			results = append(results, result)
		case <-wp.ctx.Done():
			wp.logger.Warn("pool stopped while waiting for results")
			return results
		}
	}

	return results
}

// Stop shuts the pool down and waits for workers to drain.
func (wp *WorkerPool) Stop() {
	wp.logger.Info("stopping worker pool")

	wp.cancel()
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.results)

	wp.logger.Info("worker pool stopped")
}
