package queue

import (
	"context"
	"sync"

	"go.uber.org/zap"
)

// Task is one queued unit of event processing.
type Task func(ctx context.Context) error

// WorkerPool manages concurrent event processing. Each worker handles one
// event at a time; different events proceed fully in parallel.
type WorkerPool struct {
	workerCount int
	taskQueue   chan Task
	wg          sync.WaitGroup
	ctx         context.Context
	cancel      context.CancelFunc
	closed      bool
	closeMux    sync.Mutex
	log         *zap.Logger
}

// NewWorkerPool creates a pool with specified number of workers
func NewWorkerPool(workerCount int, log *zap.Logger) *WorkerPool {
	ctx, cancel := context.WithCancel(context.Background())
	return &WorkerPool{
		workerCount: workerCount,
		taskQueue:   make(chan Task, workerCount*2),
		ctx:         ctx,
		cancel:      cancel,
		log:         log,
	}
}

// Start launches worker goroutines
func (wp *WorkerPool) Start() {
	for i := 0; i < wp.workerCount; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
	wp.log.Info("worker pool started", zap.Int("workers", wp.workerCount))
}

// Submit adds a task to the queue. The lock is held across the send so Wait
// cannot close taskQueue between the closed check and the send.
func (wp *WorkerPool) Submit(task Task) {
	wp.closeMux.Lock()
	defer wp.closeMux.Unlock()

	if wp.closed {
		wp.log.Warn("pool is shutting down, task rejected")
		return
	}

	select {
	case wp.taskQueue <- task:
	case <-wp.ctx.Done():
		wp.log.Warn("pool is shutting down, task rejected")
	}
}

// Wait closes the queue and blocks until every submitted task completes
func (wp *WorkerPool) Wait() {
	wp.closeMux.Lock()
	if !wp.closed {
		close(wp.taskQueue)
		wp.closed = true
	}
	wp.closeMux.Unlock()

	wp.wg.Wait()
	wp.log.Info("all workers completed")
}

// Shutdown cancels in-flight work and waits for the workers to exit
func (wp *WorkerPool) Shutdown() {
	wp.log.Info("worker pool shutting down")
	wp.cancel()
	wp.Wait()
}

// worker processes tasks from the queue
func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case task, ok := <-wp.taskQueue:
			if !ok {
				return
			}

			if err := task(wp.ctx); err != nil {
				wp.log.Error("task failed", zap.Int("worker", id), zap.Error(err))
			}

		case <-wp.ctx.Done():
			return
		}
	}
}
