package dispatch

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	// DefaultWorkers is the number of jobs that may run at once.
	DefaultWorkers = 8

	// DefaultJobTimeout bounds a single job. response_url stays valid for
	// 30 minutes, so anything slower than this is not worth delivering.
	DefaultJobTimeout = 2 * time.Minute
)

var (
	// ErrBusy is returned by Submit when every worker is occupied.
	ErrBusy = errors.New("dispatcher is busy")

	// ErrClosed is returned by Submit after Shutdown was called.
	ErrClosed = errors.New("dispatcher is shut down")
)

// Job is a unit of background work. The context is cancelled when the job
// times out or the dispatcher is forced to stop.
type Job func(ctx context.Context) error

// Dispatcher runs jobs on a bounded number of goroutines.
type Dispatcher struct {
	group *errgroup.Group

	// base is the parent of every job context. cancel aborts all jobs.
	base   context.Context
	cancel context.CancelFunc

	workers    int
	jobTimeout time.Duration
	logger     *slog.Logger

	inFlight atomic.Int64

	mu     sync.Mutex
	closed bool
}

// Option configures a Dispatcher.
type Option func(*Dispatcher)

// WithWorkers sets the maximum number of concurrent jobs.
// Default is DefaultWorkers if not specified.
func WithWorkers(n int) Option {
	return func(d *Dispatcher) {
		if n > 0 {
			d.workers = n
		}
	}
}

// WithJobTimeout sets the per-job timeout.
// Default is DefaultJobTimeout if not specified.
func WithJobTimeout(timeout time.Duration) Option {
	return func(d *Dispatcher) {
		if timeout > 0 {
			d.jobTimeout = timeout
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Dispatcher) {
		d.logger = logger
	}
}

// New creates a Dispatcher ready to accept jobs.
func New(opts ...Option) *Dispatcher {
	d := &Dispatcher{
		group:      new(errgroup.Group),
		workers:    DefaultWorkers,
		jobTimeout: DefaultJobTimeout,
	}

	for _, opt := range opts {
		opt(d)
	}

	if d.logger == nil {
		d.logger = slog.Default()
	}

	d.group.SetLimit(d.workers)
	d.base, d.cancel = context.WithCancel(context.Background())

	return d
}

// Submit starts job in the background and returns its id.
// It never blocks: when all workers are busy it returns ErrBusy.
func (d *Dispatcher) Submit(name string, job Job) (string, error) {
	id := uuid.NewString()

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.closed {
		return "", ErrClosed
	}

	started := d.group.TryGo(func() error {
		d.run(id, name, job)
		return nil
	})
	if !started {
		d.logger.Warn("dispatcher busy, rejecting job",
			"job", name,
			"workers", d.workers,
		)
		return "", ErrBusy
	}

	return id, nil
}

// run executes a single job with its own timeout. Job errors and panics
// are logged and never stop other jobs.
func (d *Dispatcher) run(id, name string, job Job) {
	d.inFlight.Add(1)
	defer d.inFlight.Add(-1)

	logger := d.logger.With("job_id", id, "job", name)

	ctx, cancel := context.WithTimeout(d.base, d.jobTimeout)
	defer cancel()
	ctx = withJobID(ctx, id)

	start := time.Now()
	logger.Debug("job started")

	err := d.safeRun(ctx, job)

	elapsed := time.Since(start)
	switch {
	case err != nil:
		logger.Warn("job failed",
			"error", err,
			"elapsed", elapsed,
		)
	default:
		logger.Debug("job completed",
			"elapsed", elapsed,
		)
	}
}

// safeRun calls job and converts a panic into an error.
func (d *Dispatcher) safeRun(ctx context.Context, job Job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("job panicked: %v", r)
		}
	}()
	return job(ctx)
}

// InFlight returns the number of jobs currently running.
func (d *Dispatcher) InFlight() int {
	return int(d.inFlight.Load())
}

// Workers returns the concurrency limit.
func (d *Dispatcher) Workers() int {
	return d.workers
}

// Shutdown stops accepting jobs and waits for running ones to finish.
// If ctx ends first, running jobs are cancelled and ctx's error is returned
// once they have returned.
func (d *Dispatcher) Shutdown(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		_ = d.group.Wait() //nolint:errcheck // jobs never return errors to the group
		close(done)
	}()

	select {
	case <-done:
		d.cancel()
		return nil
	case <-ctx.Done():
		d.logger.Warn("shutdown deadline reached, cancelling jobs",
			"in_flight", d.InFlight(),
		)
		d.cancel()
		<-done
		return ctx.Err()
	}
}

type jobIDKey struct{}

func withJobID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, jobIDKey{}, id)
}

// JobID returns the id of the job running with ctx, or "".
func JobID(ctx context.Context) string {
	id, _ := ctx.Value(jobIDKey{}).(string) //nolint:errcheck // type assertion
	return id
}
