package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueDeliversJobs(t *testing.T) {
	done := make(chan Job, 1)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		done <- job
		return nil
	}, QueueConfig{Workers: 1})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "analysis"}))

	select {
	case job := <-done:
		assert.Equal(t, "j1", job.ID)
		assert.False(t, job.Enqueued.IsZero())
	case <-time.After(2 * time.Second):
		t.Fatal("job was never delivered")
	}
}

func TestQueueRetriesUntilSuccess(t *testing.T) {
	attempts := make(chan int, 4)
	q := NewQueue("exports", func(ctx context.Context, job Job) error {
		attempts <- job.Attempt
		if job.Attempt == 0 {
			return errors.New("render failed")
		}
		return nil
	}, QueueConfig{Workers: 1, MaxRetries: 3, RetryDelay: 10 * time.Millisecond})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	q.Start(ctx)
	defer q.Stop()

	require.NoError(t, q.Enqueue(Job{ID: "j1", Type: "remedial"}))

	deadline := time.After(2 * time.Second)
	var seen []int
	for len(seen) < 2 {
		select {
		case attempt := <-attempts:
			seen = append(seen, attempt)
		case <-deadline:
			t.Fatalf("expected a retry, saw attempts %v", seen)
		}
	}
	assert.Equal(t, []int{0, 1}, seen)
}

func TestQueueRejectsEnqueueBeforeStart(t *testing.T) {
	q := NewQueue("exports", func(ctx context.Context, job Job) error { return nil }, QueueConfig{})

	err := q.Enqueue(Job{ID: "j1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not started")
}
