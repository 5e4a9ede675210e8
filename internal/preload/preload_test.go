package preload

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/DukeRupert/catalogadmin/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_PartialFailure(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"a": func(context.Context) (any, error) { return nil, errors.New("tenant list unavailable") },
		"b": func(context.Context) (any, error) { return "payload-b", nil },
	})

	assert.Equal(t, []string{"tenant list unavailable"}, res.Errors)
	assert.True(t, res.Failed())
	assert.Error(t, res.Err)
	assert.Nil(t, res.Data["a"])
	assert.Equal(t, "payload-b", res.Data["b"])
	assert.Equal(t, StatusFailed, res.Status("a"))
	assert.Equal(t, StatusLoaded, res.Status("b"))
}

func TestLoad_WaitsForSlowestSource(t *testing.T) {
	o := New(testLogger())
	release := make(chan struct{})
	var slowDone atomic.Bool

	done := make(chan Result, 1)
	go func() {
		done <- o.Load(context.Background(), map[string]Fetch{
			"fast": func(context.Context) (any, error) { return nil, errors.New("fast failure") },
			"slow": func(context.Context) (any, error) {
				<-release
				time.Sleep(20 * time.Millisecond)
				slowDone.Store(true)
				return 42, nil
			},
		})
	}()

	select {
	case <-done:
		t.Fatal("Load returned before the slow source settled")
	case <-time.After(50 * time.Millisecond):
	}
	assert.True(t, o.IsFetching())

	close(release)

	select {
	case res := <-done:
		assert.True(t, slowDone.Load())
		assert.Equal(t, 42, res.Data["slow"])
		assert.Equal(t, []string{"fast failure"}, res.Errors)
	case <-time.After(2 * time.Second):
		t.Fatal("Load did not return")
	}
	assert.False(t, o.IsFetching())
}

func TestLoad_NoFailFast(t *testing.T) {
	o := New(testLogger())
	var calls atomic.Int32

	res := o.Load(context.Background(), map[string]Fetch{
		"one":   func(context.Context) (any, error) { calls.Add(1); return nil, errors.New("one failed") },
		"two":   func(context.Context) (any, error) { calls.Add(1); return nil, errors.New("two failed") },
		"three": func(context.Context) (any, error) { calls.Add(1); return "ok", nil },
	})

	assert.Equal(t, int32(3), calls.Load())
	assert.Equal(t, []string{"one failed", "two failed"}, res.Errors, "errors ordered by source name")
	assert.Equal(t, "ok", res.Data["three"])
}

func TestLoad_FastFailureDoesNotCancelSlowSource(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"fast": func(context.Context) (any, error) { return nil, errors.New("fast failed") },
		"slow": func(ctx context.Context) (any, error) {
			select {
			case <-time.After(20 * time.Millisecond):
				return "late", nil
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		},
	})

	assert.Equal(t, StatusFailed, res.Status("fast"))
	assert.Equal(t, StatusLoaded, res.Status("slow"))
	assert.Equal(t, "late", res.Data["slow"])
	assert.Equal(t, []string{"fast failed"}, res.Errors)
}

func TestLoad_SkippedSource(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"referenceList": When(false, func(context.Context) (any, error) {
			t.Fatal("skipped source must not run")
			return nil, nil
		}),
		"entity": Skip(),
	})

	assert.False(t, res.Failed())
	assert.Empty(t, res.Errors)
	assert.Nil(t, res.Data["referenceList"])
	assert.Equal(t, StatusSkipped, res.Status("referenceList"))
	assert.Equal(t, StatusSkipped, res.Status("entity"))
}

func TestLoad_EmptyButPresentIsLoaded(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"referenceList": func(context.Context) (any, error) { return nil, nil },
	})

	assert.Nil(t, res.Data["referenceList"])
	assert.Equal(t, StatusLoaded, res.Status("referenceList"))
}

func TestLoad_RemoteErrorMessagesAreFlattened(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"referenceList": func(context.Context) (any, error) {
			return nil, &domain.RemoteError{Op: "company.list", StatusCode: 500, Messages: []string{"db down", "retry later"}}
		},
	})

	assert.Equal(t, []string{"db down", "retry later"}, res.Errors)
}

func TestLoad_PanicBecomesError(t *testing.T) {
	o := New(testLogger())

	res := o.Load(context.Background(), map[string]Fetch{
		"bad":  func(context.Context) (any, error) { panic("nil map") },
		"good": func(context.Context) (any, error) { return true, nil },
	})

	require.Len(t, res.Errors, 1)
	assert.Equal(t, StatusFailed, res.Status("bad"))
	assert.Equal(t, true, res.Data["good"])
}

func TestLoad_CancelledContextAddsCoordinationError(t *testing.T) {
	o := New(testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := o.Load(ctx, map[string]Fetch{
		"entity": func(ctx context.Context) (any, error) { return nil, ctx.Err() },
	})

	require.Len(t, res.Errors, 2)
	assert.Contains(t, res.Errors[1], "interrupted")
}

func TestOrchestrator_ReadinessResetsOnRerun(t *testing.T) {
	o := New(testLogger())
	assert.True(t, o.IsFetching(), "fetching before the first run")

	o.Load(context.Background(), nil)
	assert.False(t, o.IsFetching())

	observed := make(chan bool, 1)
	o.Load(context.Background(), map[string]Fetch{
		"readiness": func(context.Context) (any, error) {
			observed <- o.IsFetching()
			return nil, nil
		},
	})
	assert.True(t, <-observed, "rerun must reset readiness first")
	assert.False(t, o.IsFetching())
}

func TestValue(t *testing.T) {
	o := New(testLogger())
	res := o.Load(context.Background(), map[string]Fetch{
		"list": func(context.Context) (any, error) { return []string{"a"}, nil },
	})

	v, ok := Value[[]string](res, "list")
	require.True(t, ok)
	assert.Equal(t, []string{"a"}, v)

	_, ok = Value[int](res, "list")
	assert.False(t, ok)

	_, ok = Value[[]string](res, "missing")
	assert.False(t, ok)
}
