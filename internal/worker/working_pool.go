package worker

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// Job is one unit of work executed by the pool.
type Job func(ctx context.Context) error

var ErrPoolStopped = errors.New("working pool stopped")

// WorkingPool runs submitted jobs on a fixed number of goroutines.
type WorkingPool struct {
	NumWorkers int
	name       string
	jobChan    chan Job
	stopped    chan struct{}
}

func NewWorkingPool(name string, numWorkers, queueSize int) *WorkingPool {
	if numWorkers < 1 {
		numWorkers = 1
	}
	return &WorkingPool{
		NumWorkers: numWorkers,
		name:       name,
		jobChan:    make(chan Job, queueSize),
		stopped:    make(chan struct{}),
	}
}

// SubmitJob queues job, blocking while the queue is full. It fails once the
// pool has been stopped or ctx ends.
func (p *WorkingPool) SubmitJob(ctx context.Context, job Job) error {
	select {
	case <-p.stopped:
		return ErrPoolStopped
	default:
	}
	select {
	case p.jobChan <- job:
		return nil
	case <-p.stopped:
		return ErrPoolStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Start runs the workers until ctx is cancelled. Jobs already picked up run
// to completion; queued jobs are dropped.
func (p *WorkingPool) Start(ctx context.Context) {
	var workerWg sync.WaitGroup
	for i := range p.NumWorkers {
		workerWg.Add(1)
		go p.worker(ctx, &workerWg, i+1)
	}

	<-ctx.Done()
	slog.Info("working pool shutdown signaled", "pool", p.name)
	close(p.stopped)

	workerWg.Wait()
	slog.Info("all workers stopped", "pool", p.name)
}

func (p *WorkingPool) worker(ctx context.Context, wg *sync.WaitGroup, id int) {
	defer wg.Done()
	for {
		select {
		case job := <-p.jobChan:
			p.safeExecution(ctx, job, id)
		case <-ctx.Done():
			return
		}
	}
}

func (p *WorkingPool) safeExecution(ctx context.Context, job Job, workerID int) (err error) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("panic recovered in job", "pool", p.name, "worker", workerID, "panic", r)
		}
	}()

	err = job(ctx)
	if err != nil {
		slog.Warn("job failed", "pool", p.name, "worker", workerID, "error", err)
	}
	return err
}
