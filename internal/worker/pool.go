package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/dandantas/laundromat/internal/model"
)

// ErrPoolClosed is returned by Submit once the pool has been stopped
var ErrPoolClosed = errors.New("delivery pool is shut down")

// Job is one alert delivery handed to the pool
type Job struct {
	Payload       model.AlertPayload
	CorrelationID string
}

// DeliverFunc performs a single alert delivery
type DeliverFunc func(ctx context.Context, job Job)

// Pool runs alert deliveries on a bounded set of goroutines so a slow or
// failing webhook sink cannot stack unbounded work. Deliveries are
// fire-and-forget; outcomes are logged and persisted by the deliver
// function itself.
type Pool struct {
	workers int
	jobs    chan Job
	deliver DeliverFunc
	wg      sync.WaitGroup
	ctx     context.Context
	cancel  context.CancelFunc

	mu     sync.Mutex // guards closed and the jobs channel close
	closed bool
}

// NewPool creates a delivery pool with the given worker count and queue size
func NewPool(workers, queueSize int, deliver DeliverFunc) *Pool {
	ctx, cancel := context.WithCancel(context.Background())

	return &Pool{
		workers: workers,
		jobs:    make(chan Job, queueSize),
		deliver: deliver,
		ctx:     ctx,
		cancel:  cancel,
	}
}

// Start starts the delivery workers
func (p *Pool) Start() {
	slog.Info("Starting delivery pool", "workers", p.workers)

	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop drains queued deliveries and stops the workers. Safe against
// concurrent Submit calls: the channel closes only under the mutex, after
// which Submit refuses new work.
func (p *Pool) Stop() {
	slog.Info("Stopping delivery pool")

	p.mu.Lock()
	if !p.closed {
		p.closed = true
		close(p.jobs)
	}
	p.mu.Unlock()

	p.wg.Wait()
	p.cancel()

	slog.Info("Delivery pool stopped")
}

// Submit queues an alert delivery. Blocks while the queue is full; returns
// ErrPoolClosed once the pool is shut down.
func (p *Pool) Submit(job Job) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.closed {
		return ErrPoolClosed
	}

	select {
	case p.jobs <- job:
		slog.Debug("Alert delivery queued",
			"machine_id", job.Payload.MachineID,
			"correlation_id", job.CorrelationID,
		)
		return nil
	case <-p.ctx.Done():
		return p.ctx.Err()
	}
}

// QueueLength returns the current number of queued deliveries
func (p *Pool) QueueLength() int {
	return len(p.jobs)
}

// worker processes deliveries until the job channel closes
func (p *Pool) worker(id int) {
	defer p.wg.Done()

	slog.Debug("Delivery worker started", "worker_id", id)

	for job := range p.jobs {
		slog.Debug("Delivering alert",
			"worker_id", id,
			"machine_id", job.Payload.MachineID,
			"correlation_id", job.CorrelationID,
		)
		p.deliver(p.ctx, job)
	}

	slog.Debug("Delivery worker stopped", "worker_id", id)
}
