package queue_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chatficdb/chatficdb/pkg/submission/queue"
)

func TestWorkerRunsTasksInOrder(t *testing.T) {
	w := queue.New(nil, 16)

	var mu sync.Mutex
	var order []int
	done := make(chan struct{})

	for i := 1; i <= 5; i++ {
		i := i
		err := w.Enqueue("task", func(ctx context.Context) error {
			mu.Lock()
			order = append(order, i)
			if i == 5 {
				close(done)
			}
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	w.Start()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("tasks did not run")
	}

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []int{1, 2, 3, 4, 5}, order)
}

func TestWorkerSingleTaskAtATime(t *testing.T) {
	w := queue.New(nil, 16)
	w.Start()

	var mu sync.Mutex
	running := 0
	overlap := false
	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(1)
		err := w.Enqueue("task", func(ctx context.Context) error {
			defer wg.Done()
			mu.Lock()
			running++
			if running > 1 {
				overlap = true
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			running--
			mu.Unlock()
			return nil
		})
		require.NoError(t, err)
	}

	wg.Wait()
	assert.False(t, overlap, "two tasks ran concurrently")
}

func TestWorkerContinuesAfterTaskFailure(t *testing.T) {
	w := queue.New(nil, 16)
	w.Start()

	done := make(chan struct{})
	require.NoError(t, w.Enqueue("failing", func(ctx context.Context) error {
		return errors.New("boom")
	}))
	require.NoError(t, w.Enqueue("following", func(ctx context.Context) error {
		close(done)
		return nil
	}))

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("worker stopped after a task failure")
	}
}

func TestEnqueueAfterCloseFails(t *testing.T) {
	w := queue.New(nil, 16)
	w.Start()
	require.NoError(t, w.Close(context.Background()))

	err := w.Enqueue("late", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, queue.ErrClosed)
}

func TestEnqueueFullBuffer(t *testing.T) {
	// Never started: nothing drains the buffer.
	w := queue.New(nil, 1)

	require.NoError(t, w.Enqueue("first", func(ctx context.Context) error { return nil }))
	err := w.Enqueue("second", func(ctx context.Context) error { return nil })
	assert.ErrorIs(t, err, queue.ErrFull)
}

func TestCloseDrainsPendingTasks(t *testing.T) {
	w := queue.New(nil, 16)

	var mu sync.Mutex
	ran := 0
	for i := 0; i < 5; i++ {
		require.NoError(t, w.Enqueue("task", func(ctx context.Context) error {
			mu.Lock()
			ran++
			mu.Unlock()
			return nil
		}))
	}

	w.Start()
	require.NoError(t, w.Close(context.Background()))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 5, ran)
}

func TestCloseWithoutStart(t *testing.T) {
	w := queue.New(nil, 16)
	assert.NoError(t, w.Close(context.Background()))
}

func TestCloseIdempotent(t *testing.T) {
	w := queue.New(nil, 16)
	w.Start()
	require.NoError(t, w.Close(context.Background()))
	assert.NoError(t, w.Close(context.Background()))
}
