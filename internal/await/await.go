// Package await polls a query until its result settles on an expected value.
// Ingestion is eventually consistent, so callers that need to observe their
// own writes wait here instead of inside the API client.
package await

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"time"
)

const (
	DefaultInterval = 500 * time.Millisecond
	DefaultTimeout  = 30 * time.Second
)

// Querier is the subset of the API client used for polling.
type Querier interface {
	Query(ctx context.Context, query, path string) ([]any, error)
}

// Options tunes QueryUntil. Zero values take the defaults.
type Options struct {
	Interval time.Duration
	Timeout  time.Duration
	// StopOnError aborts on the first query error instead of retrying.
	StopOnError bool
}

// TimeoutError is returned when the expected result was not seen in time.
type TimeoutError struct {
	Query    string
	Expected []any
	Last     []any
	LastErr  error
	Attempts int
}

func (e *TimeoutError) Error() string {
	msg := fmt.Sprintf("query %q did not return %s after %d attempts", e.Query, render(e.Expected), e.Attempts)
	if e.LastErr != nil {
		return msg + fmt.Sprintf(" (last error: %v)", e.LastErr)
	}
	return msg + " (last result: " + render(e.Last) + ")"
}

func (e *TimeoutError) Unwrap() error {
	return e.LastErr
}

// QueryUntil runs query every Interval until it returns expected or Timeout
// elapses. Results are compared after normalising both sides through JSON, so
// []any{0} matches a decoded [0].
func QueryUntil(ctx context.Context, q Querier, query, path string, expected []any, opts Options) ([]any, error) {
	interval := opts.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	want, err := normalize(expected)
	if err != nil {
		return nil, fmt.Errorf("invalid expected value: %w", err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	timeoutErr := &TimeoutError{Query: query, Expected: expected}
	for {
		timeoutErr.Attempts++
		got, err := q.Query(waitCtx, query, path)
		switch {
		case err != nil && opts.StopOnError:
			return nil, err
		case err != nil:
			timeoutErr.LastErr = err
			slog.DebugContext(ctx, "query not ready", "query", query, "attempt", timeoutErr.Attempts, "error", err)
		default:
			timeoutErr.LastErr = nil
			timeoutErr.Last = got
			norm, nerr := normalize(got)
			if nerr == nil && reflect.DeepEqual(norm, want) {
				return got, nil
			}
			slog.DebugContext(ctx, "query not ready", "query", query, "attempt", timeoutErr.Attempts, "result", render(got))
		}

		if err := sleepWithContext(waitCtx, interval); err != nil {
			if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
				return nil, timeoutErr
			}
			return nil, err
		}
	}
}

// ParseExpected decodes a JSON array (or a single value, wrapped) used as the
// expected result on the command line.
func ParseExpected(s string) ([]any, error) {
	var v any
	if err := json.Unmarshal([]byte(s), &v); err != nil {
		return nil, fmt.Errorf("expected value must be JSON: %w", err)
	}
	if list, ok := v.([]any); ok {
		return list, nil
	}
	return []any{v}, nil
}

func normalize(v []any) (any, error) {
	if v == nil {
		v = []any{}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out any
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func render(v []any) string {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
