// Package syncer is the generic resource sync engine. Every feature
// (learning, friends) configures one Engine instance with its fetch
// fan-out, its merge transition and its refresh schedule instead of
// re-deriving the fetch/merge/error pattern per feature.
//
// A batch is all-or-nothing: the merge transition runs exactly once, after
// the whole fetch settled, and never runs for a failed fetch. Concurrent
// batches are not serialized against each other: whichever merge lands
// last wins, which is acceptable for read-mostly, server-sourced data.
// The one ordering guarantee is teardown: after Stop returns, no in-flight
// batch can apply, and outstanding requests are cancelled.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// ErrStopped is returned by Load and Refresh after the engine was torn down.
var ErrStopped = errors.New("sync engine stopped")

// Observer is notified of every finished batch. Used for the sync audit log.
type Observer interface {
	RecordSync(feature, batchID, status, message string, duration time.Duration)
}

// Batch outcome values passed to the Observer.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
	StatusSkipped = "skipped"
)

// Options configures an Engine for one feature.
type Options[S any] struct {
	// Name identifies the feature in logs and audit events.
	Name string

	// Fetch produces one batch. It must honor context cancellation and
	// fail as a whole when any of its sub-fetches fails.
	Fetch func(ctx context.Context) (S, error)

	// Apply merges a successful batch into the feature's store in one
	// transition. It is expected to clear the error and the loading flag.
	Apply func(S)

	// SetLoading, SetRefreshing and SetError forward lifecycle flags to
	// the store. SetError must force the in-flight flags off.
	SetLoading    func(bool)
	SetRefreshing func(bool)
	SetError      func(string)

	// ErrorMessage turns a fetch error into the user-facing message kept
	// in the store. Defaults to err.Error().
	ErrorMessage func(error) string

	// Schedule is the background refresh interval in cron format,
	// e.g. "*/10 * * * *". Empty disables background refresh.
	Schedule string

	// Observer, when set, receives one event per finished batch.
	Observer Observer
}

// Engine runs the sync lifecycle for one feature.
type Engine[S any] struct {
	opts Options[S]
	cron *cron.Cron

	lifetime context.Context
	cancel   context.CancelFunc

	mu        sync.RWMutex
	isRunning bool // background refresh scheduled
	isSyncing bool // background batch in flight
	stopped   bool
}

// New creates an engine. It performs no network activity until Load,
// Refresh or Start is called.
func New[S any](opts Options[S]) *Engine[S] {
	lifetime, cancel := context.WithCancel(context.Background())
	return &Engine[S]{
		opts:     opts,
		cron:     cron.New(cron.WithParser(cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow))),
		lifetime: lifetime,
		cancel:   cancel,
	}
}

// Load performs the blocking initial fetch: the loading flag is raised, the
// batch is fetched and, on success, merged atomically. On failure the
// store's error is set and previously loaded data is left untouched.
func (e *Engine[S]) Load(ctx context.Context) error {
	e.opts.SetLoading(true)
	return e.runBatch(ctx, "load")
}

// Refresh performs a manual, non-blocking refresh. The refreshing flag is
// always cleared, even when the fetch fails.
func (e *Engine[S]) Refresh(ctx context.Context) error {
	e.opts.SetRefreshing(true)
	defer e.opts.SetRefreshing(false)
	return e.runBatch(ctx, "refresh")
}

// Start schedules the background refresh. The spinner flags stay untouched
// on the background path; failures only surface through the store error.
func (e *Engine[S]) Start(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.isRunning || e.stopped {
		return nil
	}
	if e.opts.Schedule == "" {
		log.Printf("%s sync: background refresh disabled", e.opts.Name)
		return nil
	}

	if _, err := e.cron.AddFunc(e.opts.Schedule, e.backgroundSync); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", e.opts.Schedule, err)
	}

	e.cron.Start()
	e.isRunning = true
	log.Printf("%s sync: background refresh scheduled ('%s')", e.opts.Name, e.opts.Schedule)

	// Tie the scheduler to the caller's lifetime.
	go func() {
		select {
		case <-ctx.Done():
			e.Stop()
		case <-e.lifetime.Done():
		}
	}()

	return nil
}

// Stop tears the engine down: the background schedule is stopped, running
// jobs are waited for, outstanding requests are cancelled and any batch
// still in flight is dropped instead of applied. Safe to call twice.
func (e *Engine[S]) Stop() {
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		return
	}
	e.stopped = true
	wasRunning := e.isRunning
	e.isRunning = false
	e.mu.Unlock()

	if wasRunning {
		<-e.cron.Stop().Done()
	}
	e.cancel()
	log.Printf("%s sync: stopped", e.opts.Name)
}

// IsRunning reports whether the background refresh is scheduled.
func (e *Engine[S]) IsRunning() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isRunning
}

// IsSyncing reports whether a background batch is currently in flight.
func (e *Engine[S]) IsSyncing() bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.isSyncing
}

// NextRunTime returns when the next background refresh fires, or nil when
// none is scheduled.
func (e *Engine[S]) NextRunTime() *time.Time {
	e.mu.RLock()
	defer e.mu.RUnlock()

	if !e.isRunning {
		return nil
	}
	entries := e.cron.Entries()
	if len(entries) == 0 {
		return nil
	}
	t := entries[0].Next
	return &t
}

// backgroundSync runs one scheduled batch, skipping when the previous one
// is still in flight.
func (e *Engine[S]) backgroundSync() {
	e.mu.Lock()
	if e.isSyncing {
		e.mu.Unlock()
		log.Printf("%s sync: skipped (already syncing)", e.opts.Name)
		e.record(uuid.NewString(), StatusSkipped, "previous batch still running", 0)
		return
	}
	e.isSyncing = true
	e.mu.Unlock()

	defer func() {
		e.mu.Lock()
		e.isSyncing = false
		e.mu.Unlock()
	}()

	_ = e.runBatch(e.lifetime, "background")
}

// runBatch fetches one batch and applies it atomically. The batch context
// is cancelled either by the caller or by engine teardown, whichever comes
// first; a batch whose engine was stopped mid-flight is dropped.
func (e *Engine[S]) runBatch(ctx context.Context, path string) error {
	batchID := uuid.NewString()
	start := time.Now()

	batchCtx, cancel := e.batchContext(ctx)
	defer cancel()

	if err := e.lifetime.Err(); err != nil {
		e.opts.SetLoading(false)
		return ErrStopped
	}

	snapshot, err := e.opts.Fetch(batchCtx)
	duration := time.Since(start)

	if err != nil {
		// A fetch aborted by teardown is dropped, not surfaced as a store
		// error: the store is being reset anyway.
		if e.lifetime.Err() != nil {
			e.opts.SetLoading(false)
			e.record(batchID, StatusSkipped, "engine stopped mid-fetch", duration)
			return ErrStopped
		}
		message := e.errorMessage(err)
		e.opts.SetError(message)
		e.record(batchID, StatusFailed, message, duration)
		log.Printf("%s sync: %s batch %s failed after %v: %v",
			e.opts.Name, path, batchID, duration.Round(time.Millisecond), err)
		return err
	}

	// The merge must never land after teardown; the apply is gated on the
	// engine still being alive.
	e.mu.Lock()
	if e.stopped {
		e.mu.Unlock()
		e.opts.SetLoading(false)
		e.record(batchID, StatusSkipped, "engine stopped before merge", duration)
		log.Printf("%s sync: %s batch %s dropped (engine stopped)", e.opts.Name, path, batchID)
		return ErrStopped
	}
	e.opts.Apply(snapshot)
	e.mu.Unlock()

	e.opts.SetLoading(false)
	e.record(batchID, StatusSuccess, "", duration)
	log.Printf("%s sync: %s batch %s merged in %v",
		e.opts.Name, path, batchID, duration.Round(time.Millisecond))
	return nil
}

// batchContext derives a request context cancelled by either the caller or
// engine teardown.
func (e *Engine[S]) batchContext(parent context.Context) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithCancel(parent)
	stop := context.AfterFunc(e.lifetime, cancel)
	return ctx, func() {
		stop()
		cancel()
	}
}

func (e *Engine[S]) errorMessage(err error) string {
	if e.opts.ErrorMessage != nil {
		return e.opts.ErrorMessage(err)
	}
	return err.Error()
}

func (e *Engine[S]) record(batchID, status, message string, duration time.Duration) {
	if e.opts.Observer == nil {
		return
	}
	e.opts.Observer.RecordSync(e.opts.Name, batchID, status, message, duration)
}
