// Package queue provides the Redis-backed meeting job queue and the worker
// pool that drains it. Jobs are priority-scored in a sorted set with a
// processing set for in-flight work and a dead-letter key for poison jobs.
package queue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// ErrJobNotFound is returned when a job ID has no stored payload, usually
// because it expired or was already acked.
var ErrJobNotFound = errors.New("job not found")

// Redis key prefixes
const (
	keyPrefixQueue      = "mint:queue:"
	keyPrefixProcessing = "mint:processing:"
	keyPrefixJob        = "mint:job:"
	keyPrefixDLQ        = "mint:dlq:"
)

// Job is one meeting-processing request.
type Job struct {
	MeetingFile    string            `json:"meeting_file"`
	Title          string            `json:"title,omitempty"`
	AudioPath      string            `json:"audio_path,omitempty"`
	TranscriptPath string            `json:"transcript_path,omitempty"`
	Priority       int               `json:"priority"`
	Trace          map[string]string `json:"trace,omitempty"`
}

// QueuedJob wraps a Job with queueing metadata.
type QueuedJob struct {
	ID           string    `json:"id"`
	Job          Job       `json:"job"`
	RetryCount   int       `json:"retry_count"`
	EnqueuedAt   time.Time `json:"enqueued_at"`
	VisibleAfter time.Time `json:"visible_after,omitempty"`
}

// Config tunes queue behavior.
type Config struct {
	Name              string
	MaxRetries        int
	VisibilityTimeout time.Duration
	RetentionPeriod   time.Duration
	PollInterval      time.Duration
}

// DefaultConfig returns the standard meeting queue configuration.
func DefaultConfig() Config {
	return Config{
		Name:              "meetings",
		MaxRetries:        3,
		VisibilityTimeout: 5 * time.Minute,
		RetentionPeriod:   24 * time.Hour,
		PollInterval:      time.Second,
	}
}

// RedisQueue is a priority job queue on Redis sorted sets.
type RedisQueue struct {
	client *redis.Client
	config Config
}

// NewRedisQueue creates a queue over the given Redis client.
func NewRedisQueue(client *redis.Client, config Config) *RedisQueue {
	if config.Name == "" {
		config = DefaultConfig()
	}
	return &RedisQueue{client: client, config: config}
}

// Name returns the queue name.
func (q *RedisQueue) Name() string {
	return q.config.Name
}

func (q *RedisQueue) queueKey() string      { return keyPrefixQueue + q.config.Name }
func (q *RedisQueue) processingKey() string { return keyPrefixProcessing + q.config.Name }
func (q *RedisQueue) dlqKey() string        { return keyPrefixDLQ + q.config.Name }
func (q *RedisQueue) jobKey(id string) string {
	return keyPrefixJob + q.config.Name + ":" + id
}

// Enqueue adds a job and returns its generated ID. Within a priority, jobs
// keep FIFO order.
func (q *RedisQueue) Enqueue(ctx context.Context, job Job) (string, error) {
	qj := &QueuedJob{
		ID:         uuid.New().String(),
		Job:        job,
		EnqueuedAt: time.Now(),
	}

	data, err := json.Marshal(qj)
	if err != nil {
		return "", fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.Set(ctx, q.jobKey(qj.ID), data, q.config.RetentionPeriod)
	score := float64(job.Priority)*1e12 + float64(qj.EnqueuedAt.UnixNano())
	pipe.ZAdd(ctx, q.queueKey(), redis.Z{Score: score, Member: qj.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to enqueue job: %w", err)
	}
	return qj.ID, nil
}

// Dequeue pops the highest-priority job, blocking up to timeout when the
// queue is empty. A nil job with nil error means nothing arrived in time.
func (q *RedisQueue) Dequeue(ctx context.Context, timeout time.Duration) (*QueuedJob, error) {
	deadline := time.Now().Add(timeout)

	for {
		result, err := q.client.ZPopMax(ctx, q.queueKey(), 1).Result()
		if err != nil && err != redis.Nil {
			return nil, fmt.Errorf("failed to pop from queue: %w", err)
		}
		if len(result) == 0 {
			if !time.Now().Before(deadline) {
				return nil, nil
			}
			select {
			case <-time.After(q.config.PollInterval):
				continue
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		jobID, _ := result[0].Member.(string)
		data, err := q.client.Get(ctx, q.jobKey(jobID)).Bytes()
		if err == redis.Nil {
			// Payload expired, drop the stale queue entry.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to get job data: %w", err)
		}

		var qj QueuedJob
		if err := json.Unmarshal(data, &qj); err != nil {
			return nil, fmt.Errorf("failed to unmarshal job: %w", err)
		}

		qj.VisibleAfter = time.Now().Add(q.config.VisibilityTimeout)
		updated, err := json.Marshal(&qj)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal job: %w", err)
		}

		pipe := q.client.TxPipeline()
		pipe.Set(ctx, q.jobKey(jobID), updated, q.config.RetentionPeriod)
		pipe.ZAdd(ctx, q.processingKey(), redis.Z{
			Score:  float64(qj.VisibleAfter.UnixNano()),
			Member: jobID,
		})
		if _, err := pipe.Exec(ctx); err != nil {
			return nil, fmt.Errorf("failed to move job to processing: %w", err)
		}
		return &qj, nil
	}
}

// Ack removes a successfully processed job.
func (q *RedisQueue) Ack(ctx context.Context, jobID string) error {
	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.processingKey(), jobID)
	pipe.Del(ctx, q.jobKey(jobID))
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to ack job: %w", err)
	}
	return nil
}

// Nack re-queues a failed job with exponential backoff, or moves it to the
// dead-letter key once retries are exhausted.
func (q *RedisQueue) Nack(ctx context.Context, jobID string) error {
	data, err := q.client.Get(ctx, q.jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	var qj QueuedJob
	if err := json.Unmarshal(data, &qj); err != nil {
		return fmt.Errorf("failed to unmarshal job: %w", err)
	}

	qj.RetryCount++
	if qj.RetryCount >= q.config.MaxRetries {
		return q.MoveToDeadLetter(ctx, jobID, "max retries exceeded")
	}

	qj.VisibleAfter = time.Now().Add(backoff(qj.RetryCount))
	updated, err := json.Marshal(&qj)
	if err != nil {
		return fmt.Errorf("failed to marshal job: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.processingKey(), jobID)
	pipe.Set(ctx, q.jobKey(jobID), updated, q.config.RetentionPeriod)
	score := float64(qj.Job.Priority)*1e12 + float64(qj.VisibleAfter.UnixNano())
	pipe.ZAdd(ctx, q.queueKey(), redis.Z{Score: score, Member: jobID})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to nack job: %w", err)
	}
	return nil
}

// MoveToDeadLetter parks a job on the dead-letter list with a reason.
func (q *RedisQueue) MoveToDeadLetter(ctx context.Context, jobID, reason string) error {
	data, err := q.client.Get(ctx, q.jobKey(jobID)).Bytes()
	if err == redis.Nil {
		return ErrJobNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	entry := map[string]any{
		"job":      string(data),
		"reason":   reason,
		"moved_at": time.Now().Format(time.RFC3339),
	}
	entryData, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to marshal dead-letter entry: %w", err)
	}

	pipe := q.client.TxPipeline()
	pipe.ZRem(ctx, q.processingKey(), jobID)
	pipe.Del(ctx, q.jobKey(jobID))
	pipe.RPush(ctx, q.dlqKey(), entryData)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to move job to dead letter: %w", err)
	}
	return nil
}

// Stats reports queue depths.
type Stats struct {
	Pending    int64
	Processing int64
	DeadLetter int64
}

// QueueStats returns the current depth of each queue section.
func (q *RedisQueue) QueueStats(ctx context.Context) (*Stats, error) {
	pending, err := q.client.ZCard(ctx, q.queueKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count pending jobs: %w", err)
	}
	processing, err := q.client.ZCard(ctx, q.processingKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count processing jobs: %w", err)
	}
	dead, err := q.client.LLen(ctx, q.dlqKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to count dead-letter jobs: %w", err)
	}
	return &Stats{Pending: pending, Processing: processing, DeadLetter: dead}, nil
}

// backoff returns the retry delay for the given attempt: 2^n seconds capped
// at five minutes.
func backoff(retryCount int) time.Duration {
	d := time.Duration(1<<uint(retryCount)) * time.Second
	if d > 5*time.Minute {
		d = 5 * time.Minute
	}
	return d
}
