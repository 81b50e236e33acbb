package jobs

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/2beens/formcheck/internal/telemetry/metrics"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=pool_mocks_test.go -package=jobs_test

type taskQueue interface {
	Dequeue(ctx context.Context, timeout time.Duration) (*Task, error)
	Ack(ctx context.Context, task Task) error
	Len(ctx context.Context) (int64, error)
}

type taskRunner interface {
	Run(ctx context.Context, task Task) error
}

type WorkerPoolParams struct {
	Queue          taskQueue
	Runner         taskRunner
	MetricsManager *metrics.Manager
	Workers        int
	DequeueTimeout time.Duration
	// DepthInterval is how often the queue depth gauge is refreshed.
	DepthInterval time.Duration
	// RetryBackoff is the pause after a failed dequeue.
	RetryBackoff time.Duration
}

// WorkerPool runs queued tasks on a fixed number of goroutines, one task
// per worker at a time.
type WorkerPool struct {
	queue          taskQueue
	runner         taskRunner
	metricsManager *metrics.Manager
	workers        int
	dequeueTimeout time.Duration
	depthInterval  time.Duration
	retryBackoff   time.Duration
}

func NewWorkerPool(params WorkerPoolParams) *WorkerPool {
	p := &WorkerPool{
		queue:          params.Queue,
		runner:         params.Runner,
		metricsManager: params.MetricsManager,
		workers:        max(1, params.Workers),
		dequeueTimeout: params.DequeueTimeout,
		depthInterval:  params.DepthInterval,
		retryBackoff:   params.RetryBackoff,
	}
	if p.dequeueTimeout <= 0 {
		p.dequeueTimeout = 5 * time.Second
	}
	if p.depthInterval <= 0 {
		p.depthInterval = 15 * time.Second
	}
	if p.retryBackoff <= 0 {
		p.retryBackoff = time.Second
	}
	return p
}

// Run blocks until ctx is done and every worker has returned. Cancelling ctx
// only stops dequeuing: a job already taken runs to the end, bounded by the
// runner's job timeout.
func (p *WorkerPool) Run(ctx context.Context) {
	log.Infof("starting %d analysis workers", p.workers)

	var wg sync.WaitGroup
	for i := range p.workers {
		wg.Add(1)
		go func(id int) {
			defer wg.Done()
			p.work(ctx, id)
		}(i)
	}

	if p.metricsManager != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.reportDepth(ctx)
		}()
	}

	wg.Wait()
	log.Infoln("all analysis workers stopped")
}

func (p *WorkerPool) work(ctx context.Context, id int) {
	log.Debugf("worker %d: started", id)
	defer log.Debugf("worker %d: stopped", id)

	for ctx.Err() == nil {
		task, err := p.queue.Dequeue(ctx, p.dequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			if errors.Is(err, ErrMalformedTask) {
				log.Errorf("worker %d: dropping task: %s", id, err)
				continue
			}
			log.Errorf("worker %d: dequeue: %s", id, err)
			if !sleep(ctx, p.retryBackoff) {
				return
			}
			continue
		}
		if task == nil {
			continue
		}

		p.runTask(ctx, id, *task)
	}
}

func (p *WorkerPool) runTask(ctx context.Context, id int, task Task) {
	jobCtx := context.WithoutCancel(ctx)

	if p.metricsManager != nil {
		p.metricsManager.GaugeBusyWorkers.Inc()
		defer p.metricsManager.GaugeBusyWorkers.Dec()
	}

	// the runner records failures on the job itself
	if err := p.runner.Run(jobCtx, task); err != nil {
		log.Tracef("worker %d: job %s: %s", id, task.JobID, err)
	}

	if err := p.queue.Ack(jobCtx, task); err != nil {
		log.Errorf("worker %d: ack job %s: %s", id, task.JobID, err)
	}
}

func (p *WorkerPool) reportDepth(ctx context.Context) {
	ticker := time.NewTicker(p.depthInterval)
	defer ticker.Stop()

	for {
		if depth, err := p.queue.Len(ctx); err == nil {
			p.metricsManager.GaugeQueueDepth.Set(float64(depth))
		} else if ctx.Err() == nil {
			log.Warnf("queue depth: %s", err)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// sleep waits for d, returning false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
