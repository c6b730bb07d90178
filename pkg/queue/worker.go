package queue

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/otherjamesbrown/mint-cli/pkg/logging"
)

// JobHandler processes one dequeued job. A returned error nacks the job.
type JobHandler func(ctx context.Context, job *QueuedJob) error

// WorkerConfig configures the worker pool.
type WorkerConfig struct {
	Count           int
	DequeueTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// DefaultWorkerConfig returns the standard worker pool configuration.
func DefaultWorkerConfig() WorkerConfig {
	return WorkerConfig{
		Count:           2,
		DequeueTimeout:  5 * time.Second,
		ShutdownTimeout: 30 * time.Second,
	}
}

// Pool runs a fixed set of workers draining one queue.
type Pool struct {
	id      string
	queue   *RedisQueue
	handler JobHandler
	config  WorkerConfig
	logger  logging.Logger

	processed atomic.Int64
	failed    atomic.Int64

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewPool creates a worker pool. Count defaults to the standard config when
// non-positive.
func NewPool(queue *RedisQueue, handler JobHandler, config WorkerConfig, logger logging.Logger) *Pool {
	if config.Count <= 0 {
		config = DefaultWorkerConfig()
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Pool{
		id:      uuid.New().String(),
		queue:   queue,
		handler: handler,
		config:  config,
		logger:  logger.With(logging.F("component", "worker_pool")),
	}
}

// Start launches the workers. It returns immediately; call Stop to drain.
func (p *Pool) Start(ctx context.Context) {
	ctx, p.cancel = context.WithCancel(ctx)

	for i := 0; i < p.config.Count; i++ {
		p.wg.Add(1)
		go p.run(ctx, i)
	}
	p.logger.Info("worker pool started",
		logging.F("pool_id", p.id),
		logging.F("workers", p.config.Count),
		logging.F("queue", p.queue.Name()),
	)
}

// Stop cancels the workers and waits for them to finish, up to the shutdown
// timeout.
func (p *Pool) Stop() {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(p.config.ShutdownTimeout):
		p.logger.Warn("worker pool shutdown timed out",
			logging.F("pool_id", p.id))
	}
	p.logger.Info("worker pool stopped",
		logging.F("pool_id", p.id),
		logging.F("processed", p.processed.Load()),
		logging.F("failed", p.failed.Load()),
	)
}

func (p *Pool) run(ctx context.Context, worker int) {
	defer p.wg.Done()
	log := p.logger.With(logging.F("worker", worker))

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.queue.Dequeue(ctx, p.config.DequeueTimeout)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			log.Error("dequeue failed", logging.Err(err))
			select {
			case <-time.After(time.Second):
			case <-ctx.Done():
				return
			}
			continue
		}
		if job == nil {
			continue
		}

		p.process(ctx, job, log)
	}
}

func (p *Pool) process(ctx context.Context, job *QueuedJob, log logging.Logger) {
	start := time.Now()
	err := p.handler(ctx, job)
	if err != nil {
		p.failed.Add(1)
		log.Error("job failed",
			logging.F("job_id", job.ID),
			logging.F("meeting_file", job.Job.MeetingFile),
			logging.F("retry_count", job.RetryCount),
			logging.Err(err),
		)
		if nackErr := p.queue.Nack(ctx, job.ID); nackErr != nil {
			log.Error("nack failed", logging.F("job_id", job.ID), logging.Err(nackErr))
		}
		return
	}

	p.processed.Add(1)
	if ackErr := p.queue.Ack(ctx, job.ID); ackErr != nil {
		log.Error("ack failed", logging.F("job_id", job.ID), logging.Err(ackErr))
		return
	}
	log.Info("job processed",
		logging.F("job_id", job.ID),
		logging.F("meeting_file", job.Job.MeetingFile),
		logging.F("duration_ms", time.Since(start).Milliseconds()),
	)
}

// PoolStats is a snapshot of pool counters.
type PoolStats struct {
	Processed int64
	Failed    int64
}

// Stats returns the pool's processed and failed counters.
func (p *Pool) Stats() PoolStats {
	return PoolStats{
		Processed: p.processed.Load(),
		Failed:    p.failed.Load(),
	}
}
