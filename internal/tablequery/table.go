package tablequery

import (
	"context"
	"log/slog"
	"sync"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/DukeRupert/catalogadmin/internal/metrics"
	"github.com/DukeRupert/catalogadmin/internal/remote"
)

// Fetcher issues one list query.
type Fetcher[T any] func(ctx context.Context, q remote.ListQuery) (*domain.PaginatedResponse[T], error)

// Table is the view model of a server-driven table.
//
// Each Fetch replaces Rows, PageCount and Shown together on success. On
// failure the previous rows stay visible and the error is appended to Errors. Responses
// are applied in arrival order; an earlier request is never aborted.
type Table[T any] struct {
	fetch  Fetcher[T]
	logger *slog.Logger

	mu        sync.Mutex
	state     State
	shown     State
	rows      []T
	pageCount int
	loading   bool
	errors    []string
}

// NewTable creates a table positioned at initial. Nothing is fetched until
// the first call to Fetch.
func NewTable[T any](fetch Fetcher[T], initial State, logger *slog.Logger) *Table[T] {
	return &Table[T]{
		fetch:   fetch,
		logger:  logger,
		state:   initial.Normalize(),
		shown:   initial.Normalize(),
		rows:    []T{},
		loading: true,
	}
}

// Fetch moves the table to s and issues exactly one query for it.
// The returned error is the fetch failure, already recorded in Errors.
func (t *Table[T]) Fetch(ctx context.Context, s State) error {
	const op = "tablequery.fetch"

	s = s.Normalize()
	t.mu.Lock()
	t.state = s
	t.loading = true
	t.mu.Unlock()

	resp, err := t.fetch(ctx, BuildQuery(s))

	t.mu.Lock()
	defer t.mu.Unlock()
	t.loading = false
	metrics.TableFetch(err != nil)

	if err != nil {
		t.errors = append(t.errors, domain.ErrorMessages(err)...)
		t.logger.Warn("table fetch failed", "op", op, "page", s.Page, "error", err)
		return err
	}

	view := Interpret(resp)
	t.shown = s
	t.rows = view.Rows
	t.pageCount = view.PageCount
	t.errors = nil
	return nil
}

// Refresh re-issues the query for the most recent state, retrying it if it
// failed.
func (t *Table[T]) Refresh(ctx context.Context) error {
	return t.Fetch(ctx, t.State())
}

// State returns the state of the most recent Fetch, failed or not.
func (t *Table[T]) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Shown returns the state Rows belong to: that of the last successful
// Fetch, or the initial state before any succeeded. Navigation should step
// from here so a failed request is not built upon.
func (t *Table[T]) Shown() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.shown
}

// Rows returns the rows of the last successful fetch.
func (t *Table[T]) Rows() []T {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]T(nil), t.rows...)
}

// PageCount returns the page count of the last successful fetch.
func (t *Table[T]) PageCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.pageCount
}

// Loading reports whether a fetch is in flight or none has happened yet.
func (t *Table[T]) Loading() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.loading
}

// Errors returns the messages of failed fetches since the last success.
func (t *Table[T]) Errors() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.errors...)
}
