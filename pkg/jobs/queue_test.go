package jobs

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQueueRunsJobsAndReportsDone(t *testing.T) {
	var (
		mu       sync.Mutex
		attempts = make(map[string]int)
		results  = make(map[string]error)
		wg       sync.WaitGroup
	)
	handler := func(_ context.Context, job Job) error {
		mu.Lock()
		defer mu.Unlock()
		attempts[job.ID]++
		if job.ID == "flaky" && attempts[job.ID] == 1 {
			return errors.New("transient")
		}
		if job.ID == "broken" {
			return errors.New("permanent")
		}
		return nil
	}
	queue := NewQueue("test", handler, QueueConfig{
		Workers:    2,
		MaxRetries: 2,
		RetryDelay: time.Millisecond,
		OnDone: func(job Job, err error) {
			mu.Lock()
			results[job.ID] = err
			mu.Unlock()
			wg.Done()
		},
	})
	queue.Start(context.Background())
	defer queue.Stop()

	for _, id := range []string{"ok", "flaky", "broken"} {
		wg.Add(1)
		require.NoError(t, queue.Enqueue(Job{ID: id, Type: "generate"}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.NoError(t, results["ok"])
	assert.NoError(t, results["flaky"])
	assert.Equal(t, 2, attempts["flaky"])
	assert.EqualError(t, results["broken"], "permanent")
	assert.Equal(t, 3, attempts["broken"])
}

func TestQueueEnqueueBeforeStart(t *testing.T) {
	queue := NewQueue("idle", func(context.Context, Job) error { return nil }, QueueConfig{})
	assert.Error(t, queue.Enqueue(Job{ID: "x"}))
}
