package jobs

import (
	"context"
	"errors"
	"sync"

	"github.com/sirupsen/logrus"
)

// ErrQueueFull is returned by SubmitJob when the dispatcher cannot accept
// more work.
var ErrQueueFull = errors.New("jobs: queue full")

// ErrStopped is returned by SubmitJob after Stop.
var ErrStopped = errors.New("jobs: dispatcher stopped")

// Job is a unit of work run by a Worker.
type Job interface {
	Execute(ctx context.Context) error
	ID() string
}

// Worker runs jobs handed to it through its JobChannel.
type Worker struct {
	ID         int
	WorkerPool chan chan Job
	JobChannel chan Job
	Quit       chan struct{}
	Wg         *sync.WaitGroup
	Logger     logrus.FieldLogger
}

// NewWorker creates a Worker that registers itself in workerPool.
func NewWorker(id int, workerPool chan chan Job, wg *sync.WaitGroup, logger logrus.FieldLogger) Worker {
	return Worker{
		ID:         id,
		WorkerPool: workerPool,
		JobChannel: make(chan Job),
		Quit:       make(chan struct{}),
		Wg:         wg,
		Logger:     logger.WithField("worker", id),
	}
}

// Start runs the worker loop until Stop. Jobs receive ctx.
func (w Worker) Start(ctx context.Context) {
	w.Wg.Add(1)
	go func() {
		defer w.Wg.Done()
		for {
			// Register as idle, unless told to quit first.
			select {
			case w.WorkerPool <- w.JobChannel:
			case <-w.Quit:
				return
			}

			select {
			case job := <-w.JobChannel:
				log := w.Logger.WithField("job_id", job.ID())
				log.Info("Started job")
				if err := job.Execute(ctx); err != nil {
					log.WithError(err).Error("Job failed")
				} else {
					log.Info("Finished job")
				}
			case <-w.Quit:
				w.Logger.Debug("Worker stopping")
				return
			}
		}
	}()
}

// Stop signals the worker to exit after its current job.
func (w Worker) Stop() {
	close(w.Quit)
}

// Dispatcher owns a fixed set of workers and a bounded job queue.
type Dispatcher struct {
	MaxWorkers int
	WorkerPool chan chan Job
	JobQueue   chan Job
	Workers    []Worker
	Wg         sync.WaitGroup
	Quit       chan struct{}
	Logger     logrus.FieldLogger

	mu      sync.Mutex
	stopped bool
	cancel  context.CancelFunc
}

// NewDispatcher creates a Dispatcher with maxWorkers workers and room for
// jobQueueSize waiting jobs.
func NewDispatcher(maxWorkers, jobQueueSize int, logger logrus.FieldLogger) *Dispatcher {
	if maxWorkers < 1 {
		maxWorkers = 1
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Dispatcher{
		MaxWorkers: maxWorkers,
		WorkerPool: make(chan chan Job, maxWorkers),
		JobQueue:   make(chan Job, jobQueueSize),
		Workers:    make([]Worker, 0, maxWorkers),
		Quit:       make(chan struct{}),
		Logger:     logger,
	}
}

// Run starts the workers and the dispatch loop. Jobs run with a context
// derived from ctx that is cancelled by Stop.
func (d *Dispatcher) Run(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	d.mu.Lock()
	d.cancel = cancel
	d.mu.Unlock()

	d.Logger.WithField("workers", d.MaxWorkers).Info("Dispatcher starting")
	for i := 1; i <= d.MaxWorkers; i++ {
		worker := NewWorker(i, d.WorkerPool, &d.Wg, d.Logger)
		d.Workers = append(d.Workers, worker)
		worker.Start(ctx)
	}
	go d.dispatch()
}

func (d *Dispatcher) dispatch() {
	for {
		select {
		case job := <-d.JobQueue:
			// Wait for an idle worker before taking the next job, so the
			// queue bound stays meaningful.
			select {
			case jobChannel := <-d.WorkerPool:
				select {
				case jobChannel <- job:
				case <-d.Quit:
					return
				}
			case <-d.Quit:
				d.Logger.WithField("job_id", job.ID()).Warn("Dropping queued job on shutdown")
				return
			}
		case <-d.Quit:
			return
		}
	}
}

// SubmitJob queues job without blocking.
func (d *Dispatcher) SubmitJob(job Job) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return ErrStopped
	}
	select {
	case d.JobQueue <- job:
		d.Logger.WithField("job_id", job.ID()).Debug("Job queued")
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop stops accepting jobs, cancels running ones and waits for the workers
// to exit.
func (d *Dispatcher) Stop() {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	cancel := d.cancel
	d.mu.Unlock()

	d.Logger.Info("Dispatcher shutting down")
	close(d.Quit)
	if cancel != nil {
		cancel()
	}
	for _, worker := range d.Workers {
		worker.Stop()
	}
	d.Wg.Wait()
	d.Logger.Info("Dispatcher stopped")
}
