package worker

import (
	"errors"
	"sync"

	"github.com/nimasrn/review-runner/pkg/logger"
)

var ErrStopped = errors.New("worker manager stopped")

type WorkerHandler = func(workerIndex int, job interface{})

// WorkerManager fans jobs out to a fixed pool of goroutines. Jobs are
// published with Enqueue and handled by the function set with SetWorker.
type WorkerManager struct {
	jobChannel     chan interface{}
	numberOfWorker int
	do             WorkerHandler
	done           chan struct{}
	once           sync.Once
	waiter         sync.WaitGroup
}

func NewWorkerManager(bufferSize, numberOfWorkers int) *WorkerManager {
	if numberOfWorkers <= 0 {
		numberOfWorkers = 1
	}
	return &WorkerManager{
		numberOfWorker: numberOfWorkers,
		jobChannel:     make(chan interface{}, bufferSize),
		done:           make(chan struct{}),
	}
}

func (w *WorkerManager) GetUnreadCount() int64 {
	return int64(len(w.jobChannel))
}

func (w *WorkerManager) Size() int {
	return w.numberOfWorker
}

func (w *WorkerManager) SetWorker(worker WorkerHandler) {
	w.do = worker
}

// Enqueue publishes a job onto the pool. It returns ErrStopped once Exit
// has been called.
func (w *WorkerManager) Enqueue(val interface{}) error {
	select {
	case <-w.done:
		return ErrStopped
	default:
	}
	select {
	case w.jobChannel <- val:
		return nil
	case <-w.done:
		return ErrStopped
	}
}

// Start runs the workers and blocks until Exit is called and every worker
// has returned.
func (w *WorkerManager) Start() error {
	if w.do == nil {
		return errors.New("worker handler is not set")
	}
	w.waiter.Add(w.numberOfWorker)
	for i := 0; i < w.numberOfWorker; i++ {
		go func(index int) {
			defer w.waiter.Done()
			for {
				select {
				case job := <-w.jobChannel:
					w.do(index, job)
				case <-w.done:
					return
				}
			}
		}(i)
	}
	w.waiter.Wait()

	return ErrStopped
}

// Exit stops every worker. Jobs still buffered are dropped.
func (w *WorkerManager) Exit() {
	w.once.Do(func() {
		logger.Info("worker manager is shutting down", "workers", w.numberOfWorker, "unread", len(w.jobChannel))
		close(w.done)
	})
}
