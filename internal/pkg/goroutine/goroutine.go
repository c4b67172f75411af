// Package goroutine provides a bounded runner for background work so the
// process never spawns an unbounded number of goroutines.
package goroutine

import (
	"context"
	"errors"
	"log/slog"
	"runtime"
	"runtime/debug"
	"sync"

	"github.com/aruna-labs/identra/internal/pkg/stacktrace"
)

// DefaultPerCPU is the per-CPU slot count used when Runner receives a
// non-positive limit.
const DefaultPerCPU int = 100

// Runner executes functions on goroutines up to a fixed concurrency limit,
// collecting task errors until Wait is called.
type Runner struct {
	mu      sync.Mutex
	errs    []error
	wg      sync.WaitGroup
	slots   chan struct{}
	stateMu sync.RWMutex
	closed  bool
}

// NewRunner creates a Runner allowing at most limit concurrent tasks.
func NewRunner(limit int) *Runner {
	if limit < 1 {
		limit = runtime.NumCPU() * DefaultPerCPU
	}

	return &Runner{slots: make(chan struct{}, limit)}
}

// Go schedules f when a slot is free. A task submitted at capacity or after
// Wait is dropped with a warning rather than blocking the caller.
func (r *Runner) Go(pCtx context.Context, f func(ctx context.Context) error) {
	if r == nil {
		return
	}

	r.stateMu.RLock()
	if r.closed {
		r.stateMu.RUnlock()
		slog.WarnContext(pCtx, "runner is closed, dropping task")
		return
	}

	select {
	case r.slots <- struct{}{}:
		r.wg.Add(1)
		go func() {
			r.stateMu.RUnlock()
			defer func() {
				<-r.slots
				r.wg.Done()

				if rvr := recover(); rvr != nil {
					stack := debug.Stack()
					paths := stacktrace.InternalPaths(stack)
					if len(paths) == 0 {
						slog.ErrorContext(pCtx, "panic in background task", "panic", rvr, "stack", string(stack))
					} else {
						slog.ErrorContext(pCtx, "panic in background task", "panic", rvr, "stack", paths)
					}
				}
			}()

			select {
			case <-pCtx.Done():
				slog.WarnContext(pCtx, "background task canceled", "because", pCtx.Err())
			default:
				if err := f(pCtx); err != nil {
					r.mu.Lock()
					r.errs = append(r.errs, err)
					r.mu.Unlock()
				}
			}
		}()

	default:
		r.stateMu.RUnlock()
		slog.WarnContext(pCtx, "runner at capacity, dropping task")
	}
}

// Wait closes the runner, blocks until scheduled tasks finish, and returns
// the joined task errors.
func (r *Runner) Wait() error {
	if r == nil {
		return nil
	}

	r.stateMu.Lock()
	r.closed = true
	r.stateMu.Unlock()

	r.wg.Wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	return errors.Join(r.errs...)
}
