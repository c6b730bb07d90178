package queue

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testQueue connects to the Redis named by REDIS_ADDR and returns a queue
// with a unique name so runs don't collide. Skips when unset.
func testQueue(t *testing.T) *RedisQueue {
	t.Helper()

	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set, skipping integration test")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(context.Background()).Err(); err != nil {
		t.Skipf("redis not reachable at %s: %v", addr, err)
	}

	cfg := DefaultConfig()
	cfg.Name = fmt.Sprintf("test-%d", time.Now().UnixNano())
	cfg.PollInterval = 50 * time.Millisecond
	q := NewRedisQueue(client, cfg)

	t.Cleanup(func() {
		ctx := context.Background()
		client.Del(ctx, q.queueKey(), q.processingKey(), q.dlqKey())
		client.Close()
	})
	return q
}

func TestBackoff(t *testing.T) {
	assert.Equal(t, 2*time.Second, backoff(1))
	assert.Equal(t, 4*time.Second, backoff(2))
	assert.Equal(t, 8*time.Second, backoff(3))
	// Capped at five minutes.
	assert.Equal(t, 5*time.Minute, backoff(20))
}

func TestNewRedisQueueDefaultsOnEmptyName(t *testing.T) {
	q := NewRedisQueue(nil, Config{})
	assert.Equal(t, "meetings", q.Name())
	assert.Equal(t, 3, q.config.MaxRetries)
}

func TestQueueKeys(t *testing.T) {
	q := NewRedisQueue(nil, DefaultConfig())
	assert.Equal(t, "mint:queue:meetings", q.queueKey())
	assert.Equal(t, "mint:processing:meetings", q.processingKey())
	assert.Equal(t, "mint:dlq:meetings", q.dlqKey())
	assert.Equal(t, "mint:job:meetings:abc", q.jobKey("abc"))
}

func TestDefaultWorkerConfig(t *testing.T) {
	cfg := DefaultWorkerConfig()
	assert.Equal(t, 2, cfg.Count)
	assert.Equal(t, 5*time.Second, cfg.DequeueTimeout)
}

func TestEnqueueDequeueAck(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{
		MeetingFile:    "standup.vtt",
		TranscriptPath: "/data/standup.vtt",
		Priority:       1,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	qj, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, qj)
	assert.Equal(t, id, qj.ID)
	assert.Equal(t, "standup.vtt", qj.Job.MeetingFile)

	require.NoError(t, q.Ack(ctx, qj.ID))

	stats, err := q.QueueStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.Pending)
	assert.Zero(t, stats.Processing)
}

func TestDequeuePriorityOrder(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	_, err := q.Enqueue(ctx, Job{MeetingFile: "low.vtt", Priority: 0})
	require.NoError(t, err)
	highID, err := q.Enqueue(ctx, Job{MeetingFile: "high.vtt", Priority: 5})
	require.NoError(t, err)

	qj, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, qj)
	assert.Equal(t, highID, qj.ID)
	assert.Equal(t, "high.vtt", qj.Job.MeetingFile)
}

func TestDequeueEmptyTimesOut(t *testing.T) {
	q := testQueue(t)

	start := time.Now()
	qj, err := q.Dequeue(context.Background(), 200*time.Millisecond)
	require.NoError(t, err)
	assert.Nil(t, qj)
	assert.GreaterOrEqual(t, time.Since(start), 200*time.Millisecond)
}

func TestNackRetriesThenDeadLetters(t *testing.T) {
	q := testQueue(t)
	ctx := context.Background()

	id, err := q.Enqueue(ctx, Job{MeetingFile: "poison.vtt"})
	require.NoError(t, err)

	qj, err := q.Dequeue(ctx, time.Second)
	require.NoError(t, err)
	require.NotNil(t, qj)

	// First failures re-queue with backoff.
	require.NoError(t, q.Nack(ctx, id))
	stats, err := q.QueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Pending)
	assert.Zero(t, stats.DeadLetter)

	require.NoError(t, q.Nack(ctx, id))

	// Third failure hits MaxRetries and parks the job.
	require.NoError(t, q.Nack(ctx, id))
	stats, err = q.QueueStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.DeadLetter)
}

func TestNackUnknownJob(t *testing.T) {
	q := testQueue(t)
	err := q.Nack(context.Background(), "no-such-job")
	assert.ErrorIs(t, err, ErrJobNotFound)
}
