package await

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scripted struct {
	mu      sync.Mutex
	results [][]any
	errs    []error
	calls   int
}

func (s *scripted) Query(_ context.Context, _, _ string) ([]any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i := s.calls
	s.calls++
	if i >= len(s.results) {
		i = len(s.results) - 1
	}
	var err error
	if i < len(s.errs) {
		err = s.errs[i]
	}
	return s.results[i], err
}

func TestQueryUntilEventuallyMatches(t *testing.T) {
	q := &scripted{results: [][]any{{float64(3)}, {float64(50)}, {float64(100)}}}
	got, err := QueryUntil(context.Background(), q, "count(//test)", "qux", []any{100}, Options{Interval: time.Millisecond, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(100)}, got)
	assert.Equal(t, 3, q.calls)
}

func TestQueryUntilTimeout(t *testing.T) {
	q := &scripted{results: [][]any{{float64(1)}}}
	_, err := QueryUntil(context.Background(), q, "count(//x)", "", []any{0}, Options{Interval: 5 * time.Millisecond, Timeout: 30 * time.Millisecond})
	var te *TimeoutError
	require.ErrorAs(t, err, &te)
	assert.GreaterOrEqual(t, te.Attempts, 2)
	assert.Equal(t, []any{float64(1)}, te.Last)
	assert.Contains(t, err.Error(), `last result: [1]`)
}

func TestQueryUntilRetriesErrors(t *testing.T) {
	boom := errors.New("not yet")
	q := &scripted{
		results: [][]any{nil, {float64(0)}},
		errs:    []error{boom, nil},
	}
	got, err := QueryUntil(context.Background(), q, "count(//x)", "", []any{0}, Options{Interval: time.Millisecond, Timeout: time.Second})
	require.NoError(t, err)
	assert.Equal(t, []any{float64(0)}, got)
}

func TestQueryUntilStopOnError(t *testing.T) {
	boom := errors.New("bad query")
	q := &scripted{results: [][]any{nil}, errs: []error{boom}}
	_, err := QueryUntil(context.Background(), q, "count(", "", []any{0}, Options{Interval: time.Millisecond, Timeout: time.Second, StopOnError: true})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, q.calls)
}

func TestQueryUntilParentCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	q := &scripted{results: [][]any{{float64(1)}}}
	_, err := QueryUntil(ctx, q, "x", "", []any{0}, Options{Interval: time.Millisecond, Timeout: time.Second})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseExpected(t *testing.T) {
	got, err := ParseExpected(`[0]`)
	require.NoError(t, err)
	assert.Equal(t, []any{float64(0)}, got)

	got, err = ParseExpected(`{"a":1}`)
	require.NoError(t, err)
	assert.Equal(t, []any{map[string]any{"a": float64(1)}}, got)

	_, err = ParseExpected(`nope`)
	assert.Error(t, err)
}
