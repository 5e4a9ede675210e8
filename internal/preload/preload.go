// Package preload runs the independent fetches an edit form needs before it
// becomes interactive.
//
// Every named source runs concurrently and the orchestrator returns only once
// all of them have settled. A failing source never cancels the others; its
// slot in the result is nil and its messages are added to Errors.
package preload

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"sync/atomic"
	"time"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/metrics"
	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// Fetch loads one named resource.
type Fetch func(ctx context.Context) (any, error)

var errSkipped = errors.New("preload: source skipped")

// Skip returns a Fetch that resolves immediately with no payload and no
// network access.
func Skip() Fetch {
	return func(context.Context) (any, error) {
		return nil, errSkipped
	}
}

// When returns f if cond holds and Skip otherwise. It lets callers with
// different privileges share one set of source names.
func When(cond bool, f Fetch) Fetch {
	if !cond || f == nil {
		return Skip()
	}
	return f
}

// Status describes how a source settled.
type Status int

const (
	StatusUnknown Status = iota
	StatusLoaded
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusLoaded:
		return "loaded"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Result is the combined outcome of one orchestration run.
//
// Data holds nil for both failed and skipped sources, matching the form's
// expectations; Status tells the two apart for callers that care.
type Result struct {
	Data   map[string]any
	Errors []string // Non-empty whenever at least one source failed
	Err    error    // All source errors combined with multierr

	statuses map[string]Status
}

// Status returns how the named source settled.
func (r Result) Status(name string) Status {
	return r.statuses[name]
}

// Failed reports whether any source failed or the run was interrupted.
func (r Result) Failed() bool {
	return len(r.Errors) > 0
}

// Value returns the payload of the named source as T.
// Returns false if the source failed, was skipped, or holds another type.
func Value[T any](r Result, name string) (T, bool) {
	v, ok := r.Data[name].(T)
	return v, ok
}

// Orchestrator runs preload sources and tracks readiness.
//
// IsFetching is true from construction until the first run settles, and is
// reset to true at the start of every subsequent run.
type Orchestrator struct {
	logger   *slog.Logger
	fetching atomic.Bool
}

// New creates an Orchestrator that is fetching until Load completes.
func New(logger *slog.Logger) *Orchestrator {
	o := &Orchestrator{logger: logger}
	o.fetching.Store(true)
	return o
}

// IsFetching reports whether a run is in progress or has not happened yet.
func (o *Orchestrator) IsFetching() bool {
	return o.fetching.Load()
}

type outcome struct {
	payload any
	err     error
}

// Load runs every source concurrently and waits for all of them.
func (o *Orchestrator) Load(ctx context.Context, sources map[string]Fetch) Result {
	const op = "preload.load"

	o.fetching.Store(true)
	defer o.fetching.Store(false)

	names := make([]string, 0, len(sources))
	for name := range sources {
		names = append(names, name)
	}
	sort.Strings(names)

	// The group has no context, so a failed source cancels nothing. Errors
	// stay in their own slot and the goroutines return nil; Wait only joins.
	outcomes := make([]outcome, len(names))
	var g errgroup.Group
	for i, name := range names {
		fetch := sources[name]
		g.Go(func() error {
			start := time.Now()
			payload, err := call(ctx, fetch)
			metrics.PreloadSource(name, time.Since(start))
			outcomes[i] = outcome{payload: payload, err: err}
			return nil
		})
	}
	_ = g.Wait()

	res := Result{
		Data:     make(map[string]any, len(names)),
		statuses: make(map[string]Status, len(names)),
	}
	for i, name := range names {
		out := outcomes[i]
		switch {
		case errors.Is(out.err, errSkipped):
			res.Data[name] = nil
			res.statuses[name] = StatusSkipped
		case out.err != nil:
			res.Data[name] = nil
			res.statuses[name] = StatusFailed
			res.Err = multierr.Append(res.Err, out.err)
			res.Errors = append(res.Errors, domain.ErrorMessages(out.err)...)
			o.logger.Warn("preload source failed", "source", name, "error", out.err)
		default:
			res.Data[name] = out.payload
			res.statuses[name] = StatusLoaded
		}
	}

	if err := ctx.Err(); err != nil {
		coordErr := domain.Unavailable(err, op, "Loading was interrupted before all data arrived.")
		res.Err = multierr.Append(res.Err, coordErr)
		res.Errors = append(res.Errors, coordErr.Message)
	}

	metrics.PreloadCompleted(res.Failed())
	o.logger.Debug("preload complete", "sources", len(names), "failed", res.Failed())
	return res
}

// call runs fetch, turning a panic into an error so one broken source
// cannot take down the orchestration.
func call(ctx context.Context, fetch Fetch) (payload any, err error) {
	if fetch == nil {
		return nil, errSkipped
	}
	defer func() {
		if r := recover(); r != nil {
			payload = nil
			err = domain.Internal(fmt.Errorf("panic: %v", r), "preload.fetch", "A data source failed unexpectedly.")
		}
	}()
	return fetch(ctx)
}
