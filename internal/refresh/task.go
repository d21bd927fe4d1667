// Package refresh runs one dedicated goroutine per cache cell: a ticker
// for timer-driven cells, an event subscription for chain-event-driven
// cells, and a parent-store watcher for derived cells. Every task shares
// the same shape — a ticker/event select loop wrapping a refresh
// function — so only the trigger source differs between cells.
package refresh

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Func performs one refresh cycle for a single cell. It returns an error
// on failure; the task logs and retries on the next trigger rather than
// ever blocking the loop.
type Func func(ctx context.Context) error

// Task drives one cell's refresh function on a schedule, optionally
// additionally triggered by an external event channel (used for
// price-on-new-block and derived-view-on-parent-change wiring).
type Task struct {
	Name     string
	Interval time.Duration
	Refresh  Func
	Trigger  <-chan struct{} // optional; nil means timer-only

	log *logrus.Entry
}

// New builds a timer-driven task. Call WithTrigger to also wake it on an
// external event.
func New(name string, interval time.Duration, refresh Func) *Task {
	return &Task{
		Name:     name,
		Interval: interval,
		Refresh:  refresh,
		log:      logrus.WithField("cell", name),
	}
}

// WithTrigger attaches an additional wake-up source (e.g. a new-block or
// parent-store-changed notification) alongside the timer.
func (t *Task) WithTrigger(ch <-chan struct{}) *Task {
	t.Trigger = ch
	return t
}

// RunOnce performs a single synchronous refresh, used for essential
// warm-up before the HTTP server binds.
func (t *Task) RunOnce(ctx context.Context) error {
	return t.Refresh(ctx)
}

// RunOnceWithRetry performs synchronous refreshes with bounded retry and
// exponential backoff, used for essential cells during warm-up. Once the
// attempts are used up it returns the last error (or the context's
// error if ctx ends first).
func (t *Task) RunOnceWithRetry(ctx context.Context, attempts int, baseDelay, maxDelay time.Duration) error {
	delay := baseDelay
	var lastErr error
	for i := 0; i < attempts; i++ {
		err := t.Refresh(ctx)
		if err == nil {
			return nil
		}
		lastErr = err
		t.log.WithError(err).WithField("attempt", i+1).Warn("essential warm-up refresh failed")

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > maxDelay {
			delay = maxDelay
		}
	}
	return lastErr
}

// Run drives the task's refresh loop until ctx is canceled. It never
// returns an error; refresh failures are logged and the cell simply
// ages until the next successful cycle, which is exactly what
// Cached[T].AgeSecs is for.
func (t *Task) Run(ctx context.Context) {
	ticker := time.NewTicker(t.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			t.refreshNow(ctx)
		case <-t.Trigger:
			t.refreshNow(ctx)
			ticker.Reset(t.Interval)
		}
	}
}

func (t *Task) refreshNow(ctx context.Context) {
	if err := t.Refresh(ctx); err != nil {
		t.log.WithError(err).Warn("refresh failed")
	}
}

// Fleet owns every cell's Task and runs them concurrently.
type Fleet struct {
	tasks []*Task
}

// NewFleet builds an empty fleet.
func NewFleet() *Fleet {
	return &Fleet{}
}

// Add registers a task with the fleet.
func (f *Fleet) Add(t *Task) {
	f.tasks = append(f.tasks, t)
}

// Run starts every registered task in its own goroutine and blocks until
// ctx is canceled.
func (f *Fleet) Run(ctx context.Context) {
	for _, t := range f.tasks {
		go t.Run(ctx)
	}
	<-ctx.Done()
}

// RunEssentialWarmup runs the named tasks synchronously, in order, with
// bounded retry, before the fleet's background loops start. A task that
// still fails after its retries does not stop the remaining ones; the
// first such error is returned, and the failed cells stay cold until
// their background loop succeeds.
func (f *Fleet) RunEssentialWarmup(ctx context.Context, names []string, attempts int, baseDelay, maxDelay time.Duration) error {
	byName := make(map[string]*Task, len(f.tasks))
	for _, t := range f.tasks {
		byName[t.Name] = t
	}
	var firstErr error
	for _, name := range names {
		task, ok := byName[name]
		if !ok {
			continue
		}
		if err := task.RunOnceWithRetry(ctx, attempts, baseDelay, maxDelay); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
