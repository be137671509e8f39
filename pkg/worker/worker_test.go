package worker

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWorkerManager_ProcessesJobs(t *testing.T) {
	w := NewWorkerManager(10, 3)
	var handled int64
	w.SetWorker(func(_ int, job interface{}) {
		atomic.AddInt64(&handled, int64(job.(int)))
	})

	done := make(chan error, 1)
	go func() { done <- w.Start() }()

	for i := 1; i <= 10; i++ {
		require.NoError(t, w.Enqueue(i))
	}
	assert.Eventually(t, func() bool { return atomic.LoadInt64(&handled) == 55 }, time.Second, 10*time.Millisecond)

	w.Exit()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, ErrStopped)
	case <-time.After(time.Second):
		t.Fatal("Start did not return after Exit")
	}
}

func TestWorkerManager_EnqueueAfterExit(t *testing.T) {
	w := NewWorkerManager(1, 1)
	w.Exit()
	w.Exit()
	assert.ErrorIs(t, w.Enqueue("job"), ErrStopped)
}

func TestWorkerManager_StartWithoutHandler(t *testing.T) {
	w := NewWorkerManager(1, 2)
	assert.Error(t, w.Start())
	assert.Equal(t, 2, w.Size())
}
