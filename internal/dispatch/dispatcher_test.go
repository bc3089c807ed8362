package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"
)

func newTestDispatcher(opts ...Option) *Dispatcher {
	opts = append([]Option{WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil)))}, opts...)
	return New(opts...)
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("defaults", func(t *testing.T) {
		t.Parallel()

		d := New()
		if d.Workers() != DefaultWorkers {
			t.Errorf("Workers() = %d, want %d", d.Workers(), DefaultWorkers)
		}
		if d.jobTimeout != DefaultJobTimeout {
			t.Errorf("jobTimeout = %v, want %v", d.jobTimeout, DefaultJobTimeout)
		}
	})

	t.Run("ignores non-positive values", func(t *testing.T) {
		t.Parallel()

		d := New(WithWorkers(0), WithJobTimeout(-time.Second))
		if d.Workers() != DefaultWorkers || d.jobTimeout != DefaultJobTimeout {
			t.Errorf("got workers=%d timeout=%v, want defaults", d.Workers(), d.jobTimeout)
		}
	})
}

func TestDispatcherSubmit(t *testing.T) {
	t.Parallel()

	t.Run("runs job with its id in context", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher()
		ids := make(chan string, 1)

		id, err := d.Submit("test", func(ctx context.Context) error {
			ids <- JobID(ctx)
			return nil
		})
		if err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if id == "" {
			t.Fatal("Submit() returned empty id")
		}

		select {
		case got := <-ids:
			if got != id {
				t.Errorf("JobID() = %q, want %q", got, id)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("job did not run")
		}

		if err := d.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
	})

	t.Run("busy when all workers are occupied", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(WithWorkers(1))
		started := make(chan struct{})
		release := make(chan struct{})

		if _, err := d.Submit("blocking", func(context.Context) error {
			close(started)
			<-release
			return nil
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-started

		if d.InFlight() != 1 {
			t.Errorf("InFlight() = %d, want 1", d.InFlight())
		}
		if _, err := d.Submit("second", func(context.Context) error { return nil }); !errors.Is(err, ErrBusy) {
			t.Errorf("Submit() error = %v, want ErrBusy", err)
		}

		close(release)
		if err := d.Shutdown(context.Background()); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		if d.InFlight() != 0 {
			t.Errorf("InFlight() after shutdown = %d, want 0", d.InFlight())
		}
	})

	t.Run("job timeout cancels context", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(WithJobTimeout(20 * time.Millisecond))
		result := make(chan error, 1)

		if _, err := d.Submit("slow", func(ctx context.Context) error {
			<-ctx.Done()
			result <- ctx.Err()
			return ctx.Err()
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}

		select {
		case err := <-result:
			if !errors.Is(err, context.DeadlineExceeded) {
				t.Errorf("job context error = %v, want DeadlineExceeded", err)
			}
		case <-time.After(5 * time.Second):
			t.Fatal("job was not cancelled")
		}
	})

	t.Run("panicking job does not take down the dispatcher", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(WithWorkers(1))
		if _, err := d.Submit("panic", func(context.Context) error {
			panic("boom")
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		if err := d.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
	})

	t.Run("failed job frees its worker", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(WithWorkers(1))
		done := make(chan struct{})
		if _, err := d.Submit("fail", func(context.Context) error {
			defer close(done)
			return errors.New("scan failed")
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-done

		deadline := time.Now().Add(5 * time.Second)
		for {
			_, err := d.Submit("next", func(context.Context) error { return nil })
			if err == nil {
				break
			}
			if !errors.Is(err, ErrBusy) || time.Now().After(deadline) {
				t.Fatalf("Submit() error = %v", err)
			}
			time.Sleep(time.Millisecond)
		}
	})
}

func TestDispatcherShutdown(t *testing.T) {
	t.Parallel()

	t.Run("waits for running jobs", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher()
		started := make(chan struct{})
		release := make(chan struct{})
		finished := make(chan struct{})

		if _, err := d.Submit("job", func(context.Context) error {
			close(started)
			<-release
			close(finished)
			return nil
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-started

		shutdown := make(chan error, 1)
		go func() { shutdown <- d.Shutdown(context.Background()) }()

		select {
		case <-shutdown:
			t.Fatal("Shutdown() returned before the job finished")
		case <-time.After(50 * time.Millisecond):
		}

		close(release)
		if err := <-shutdown; err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		select {
		case <-finished:
		default:
			t.Error("job did not finish before Shutdown() returned")
		}
	})

	t.Run("rejects jobs after shutdown", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher()
		if err := d.Shutdown(context.Background()); err != nil {
			t.Fatalf("Shutdown() error = %v", err)
		}
		if _, err := d.Submit("late", func(context.Context) error { return nil }); !errors.Is(err, ErrClosed) {
			t.Errorf("Submit() error = %v, want ErrClosed", err)
		}
	})

	t.Run("deadline cancels running jobs", func(t *testing.T) {
		t.Parallel()

		d := newTestDispatcher(WithJobTimeout(time.Hour))
		started := make(chan struct{})
		cancelled := make(chan struct{})

		if _, err := d.Submit("stuck", func(ctx context.Context) error {
			close(started)
			<-ctx.Done()
			close(cancelled)
			return ctx.Err()
		}); err != nil {
			t.Fatalf("Submit() error = %v", err)
		}
		<-started

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		if err := d.Shutdown(ctx); !errors.Is(err, context.DeadlineExceeded) {
			t.Errorf("Shutdown() error = %v, want DeadlineExceeded", err)
		}
		select {
		case <-cancelled:
		default:
			t.Error("running job was not cancelled")
		}
	})
}

func TestJobIDOutsideJob(t *testing.T) {
	t.Parallel()

	if got := JobID(context.Background()); got != "" {
		t.Errorf("JobID() = %q, want empty", got)
	}
}
