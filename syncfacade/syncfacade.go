// Package syncfacade implements C8, the Sync Facade: a blocking front end
// over facade.Facade (C7) that owns a single background goroutine driving
// every call through one event loop, so the async core's handlers and the
// transport's pending-request table never see concurrent callers from this
// package's own operations.
package syncfacade

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lspkit/facade"
)

// TimeoutError is returned when a call's wall-clock budget (spec.md §5,
// config.Config.SyncCallTimeout) elapses before the underlying facade
// operation completes. The operation may still complete in the background;
// SyncFacade does not cancel it, matching the "best effort" phrasing in
// spec.md §7 for TimeoutError.
type TimeoutError struct {
	Op      string
	Timeout time.Duration
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("syncfacade: %s timed out after %s", e.Op, e.Timeout)
}

type job struct {
	run  func(ctx context.Context)
	done chan struct{}
}

// SyncFacade wraps a *facade.Facade with a dedicated event-loop goroutine.
// All exported methods are safe for concurrent use: calls queue onto the
// loop and block until their turn completes (or the per-call timeout, if
// configured, elapses first).
type SyncFacade struct {
	core    *facade.Facade
	timeout time.Duration

	jobs   chan job
	loopWg sync.WaitGroup

	stopOnce sync.Once
	stopErr  error
}

// Start calls core.Start (core must not have been started already) and
// launches the background event loop, then returns. The loop goroutine
// exits when Stop is called.
func Start(ctx context.Context, core *facade.Facade, timeout time.Duration) (*SyncFacade, error) {
	if err := core.Start(ctx); err != nil {
		return nil, err
	}
	sf := &SyncFacade{
		core:    core,
		timeout: timeout,
		jobs:    make(chan job, 64),
	}
	sf.loopWg.Add(1)
	go sf.loop()
	return sf, nil
}

func (sf *SyncFacade) loop() {
	defer sf.loopWg.Done()
	for j := range sf.jobs {
		j.run(context.Background())
		close(j.done)
	}
}

// Stop shuts down the language-server child and flushes the symbol cache
// via the wrapped Facade, then stops the event loop. Safe to call more
// than once: the second and later calls are no-ops that return the first
// call's result (spec.md §8 invariant 7).
func (sf *SyncFacade) Stop(shutdownTimeout time.Duration) error {
	sf.stopOnce.Do(func() {
		sf.stopErr = sf.core.Shutdown(context.Background(), shutdownTimeout)
		close(sf.jobs)
		sf.loopWg.Wait()
	})
	return sf.stopErr
}

// call submits fn to the event loop and blocks for its result, subject to
// sf.timeout when non-zero. op names the operation for TimeoutError.
func call[T any](sf *SyncFacade, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	j := job{done: make(chan struct{})}
	var result T
	var resultErr error
	j.run = func(ctx context.Context) {
		result, resultErr = fn(ctx)
	}
	sf.jobs <- j

	if sf.timeout <= 0 {
		<-j.done
		return result, resultErr
	}

	select {
	case <-j.done:
		return result, resultErr
	case <-time.After(sf.timeout):
		return zero, &TimeoutError{Op: op, Timeout: sf.timeout}
	}
}

func callVoid(sf *SyncFacade, op string, fn func(ctx context.Context) error) error {
	_, err := call(sf, op, func(ctx context.Context) (struct{}, error) {
		return struct{}{}, fn(ctx)
	})
	return err
}
