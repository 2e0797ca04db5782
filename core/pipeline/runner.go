package pipeline

import (
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"

	"github.com/loomhq/loom/core/handler"
	"github.com/loomhq/loom/core/logger"
)

// entry pairs a middleware with its liveness flag. Eviction flips the
// flag instead of removing the element, so concurrent requests iterating
// the chain never observe a structurally mutated slice.
type entry struct {
	mw    Middleware
	alive bool
}

// Runner orchestrates the middleware chain around dispatch.
// Safe for concurrent use by multiple in-flight requests.
type Runner struct {
	mu      sync.RWMutex
	entries []*entry
	logger  *slog.Logger
}

// RunnerOption is a functional option for configuring the runner.
type RunnerOption func(*Runner)

// WithLogger sets the logger used to record hook failures and evictions.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		if logger != nil {
			r.logger = logger
		}
	}
}

// NewRunner creates a runner over the given chain in configured order.
// Every middleware implementing Validator is consulted; all validation
// errors are collected and returned together, joined with
// ErrStartupValidation.
func NewRunner(chain []Middleware, opts ...RunnerOption) (*Runner, error) {
	errs := make([]error, 0, len(chain))
	for _, mw := range chain {
		if v, ok := mw.(Validator); ok {
			if err := v.ValidateChain(chain); err != nil {
				errs = append(errs, err)
			}
		}
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{ErrStartupValidation}, errs...)...)
	}

	entries := make([]*entry, len(chain))
	for i, mw := range chain {
		entries[i] = &entry{mw: mw, alive: true}
	}

	r := &Runner{
		entries: entries,
		logger:  logger.Discard(),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r, nil
}

// Run executes the request phase, dispatch, and the response phase for a
// single request, evicting any middleware whose hook fails.
func (r *Runner) Run(ctx *handler.Context, dispatch Dispatch) *handler.Response {
	var resp *handler.Response

	for _, e := range r.entries {
		if !r.isAlive(e) {
			continue
		}
		short, err := processRequest(e.mw, ctx)
		if err != nil {
			r.evict(e, "request", err)
			continue
		}
		if short != nil {
			resp = short
			break
		}
	}

	if resp == nil {
		resp = dispatch(ctx)
	}

	for i := len(r.entries) - 1; i >= 0; i-- {
		e := r.entries[i]
		if !r.isAlive(e) {
			continue
		}
		if err := processResponse(e.mw, ctx, resp); err != nil {
			r.evict(e, "response", err)
		}
	}

	return resp
}

// Len returns the number of live middleware in the chain.
// Monotonically non-increasing over the runner's lifetime.
func (r *Runner) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	n := 0
	for _, e := range r.entries {
		if e.alive {
			n++
		}
	}
	return n
}

func (r *Runner) isAlive(e *entry) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return e.alive
}

// evict permanently removes a middleware from the live chain.
func (r *Runner) evict(e *entry, phase string, err error) {
	r.mu.Lock()
	e.alive = false
	r.mu.Unlock()

	r.logger.Error("middleware evicted from chain",
		slog.String("middleware", fmt.Sprintf("%T", e.mw)),
		slog.String("phase", phase),
		logger.Error(err),
	)
}

// processRequest invokes the request hook, converting panics to errors so
// a broken middleware takes itself out instead of the whole process.
func processRequest(mw Middleware, ctx *handler.Context) (resp *handler.Response, err error) {
	defer func() {
		if p := recover(); p != nil {
			resp = nil
			err = fmt.Errorf("panic in request hook: %v\n%s", p, debug.Stack())
		}
	}()
	return mw.ProcessRequest(ctx)
}

// processResponse invokes the response hook with the same panic recovery.
func processResponse(mw Middleware, ctx *handler.Context, resp *handler.Response) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic in response hook: %v\n%s", p, debug.Stack())
		}
	}()
	return mw.ProcessResponse(ctx, resp)
}
