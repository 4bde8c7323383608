package backtest

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/ducminhle1904/prediction-trader/internal/config"
	"github.com/ducminhle1904/prediction-trader/internal/strategy"
	"github.com/ducminhle1904/prediction-trader/pkg/types"
)

// WorkerPool runs independent simulations in parallel. Each job gets its
// own engine, risk manager, tracker, and ledger, so no locking is needed
// around the runs themselves.
type WorkerPool struct {
	workerCount int
	jobQueue    chan Job
	resultQueue chan JobResult
	wg          sync.WaitGroup
}

// Job is a single simulation task: one strategy over one bar stream.
type Job struct {
	ID       string
	Config   *config.Config
	Data     []types.OHLCV
	Strategy strategy.Strategy
}

// JobResult carries the outcome of one job.
type JobResult struct {
	ID       string
	Results  *Results
	Duration time.Duration
	Error    error
}

// NewWorkerPool creates a worker pool; workerCount <= 0 uses NumCPU.
func NewWorkerPool(workerCount, jobBufferSize int) *WorkerPool {
	if workerCount <= 0 {
		workerCount = runtime.NumCPU()
	}
	return &WorkerPool{
		workerCount: workerCount,
		jobQueue:    make(chan Job, jobBufferSize),
		resultQueue: make(chan JobResult, jobBufferSize),
	}
}

// Start launches the workers.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(ctx)
	}
}

// Submit queues a job. Returns an error once the queue is full.
func (wp *WorkerPool) Submit(job Job) error {
	select {
	case wp.jobQueue <- job:
		return nil
	default:
		return fmt.Errorf("job queue full, cannot submit job %s", job.ID)
	}
}

// Close signals that no more jobs will be submitted and waits for the
// workers to drain the queue; the result channel is closed afterwards.
func (wp *WorkerPool) Close() {
	close(wp.jobQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// Results returns the channel of finished jobs.
func (wp *WorkerPool) Results() <-chan JobResult {
	return wp.resultQueue
}

func (wp *WorkerPool) worker(ctx context.Context) {
	defer wp.wg.Done()
	for job := range wp.jobQueue {
		start := time.Now()
		results, err := runJob(ctx, job)
		wp.resultQueue <- JobResult{
			ID:       job.ID,
			Results:  results,
			Duration: time.Since(start),
			Error:    err,
		}
	}
}

func runJob(ctx context.Context, job Job) (*Results, error) {
	cfg := *job.Config // each run owns its config copy
	engine, err := NewEngine(&cfg, job.Strategy)
	if err != nil {
		return nil, err
	}
	return engine.Run(ctx, NewSliceSource(job.Data))
}

// CompareStrategies backtests each strategy over the same bars as fully
// isolated parallel runs and returns the results keyed by job name.
func CompareStrategies(ctx context.Context, cfg *config.Config, bars []types.OHLCV, strategies map[string]strategy.Strategy) (map[string]*Results, error) {
	pool := NewWorkerPool(0, len(strategies))
	pool.Start(ctx)

	for name, strat := range strategies {
		if err := pool.Submit(Job{ID: name, Config: cfg, Data: bars, Strategy: strat}); err != nil {
			pool.Close()
			return nil, err
		}
	}
	pool.Close()

	out := make(map[string]*Results, len(strategies))
	var firstErr error
	for res := range pool.Results() {
		if res.Error != nil && firstErr == nil {
			firstErr = fmt.Errorf("strategy %s: %w", res.ID, res.Error)
		}
		if res.Results != nil {
			out[res.ID] = res.Results
		}
	}
	return out, firstErr
}
