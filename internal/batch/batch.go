// Package batch runs one operation over many items with bounded
// concurrency, collecting a result per item.
package batch

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/multierr"
	"golang.org/x/sync/errgroup"
)

// DefaultConcurrency is used when Options.Concurrency is not positive.
const DefaultConcurrency = 5

// Update is a progress delta sent while a batch runs.
type Update struct {
	TotalDelta  int
	DoneDelta   int
	FailedDelta int
}

// Options configure Run.
type Options struct {
	Concurrency int
	// MinDuration pads the batch so it takes at least this long. Zero
	// disables padding.
	MinDuration time.Duration
	// Updates, when set, receives one Update with the total before work
	// starts and one per finished item. The caller must drain it.
	Updates chan<- Update
}

// Result is the outcome of one item.
type Result[R any] struct {
	Index int
	Value R
	Err   error
}

// Results are ordered like the input items.
type Results[R any] []Result[R]

// Err combines every item error, or nil when all succeeded.
func (rs Results[R]) Err() error {
	var err error
	for _, r := range rs {
		err = multierr.Append(err, r.Err)
	}
	return err
}

// Failed counts items that returned an error.
func (rs Results[R]) Failed() int {
	n := 0
	for _, r := range rs {
		if r.Err != nil {
			n++
		}
	}
	return n
}

// Values returns the values of successful items in input order.
func (rs Results[R]) Values() []R {
	out := make([]R, 0, len(rs))
	for _, r := range rs {
		if r.Err == nil {
			out = append(out, r.Value)
		}
	}
	return out
}

// Run calls op for every item with at most opts.Concurrency calls in
// flight. A failing item never stops its siblings and nothing is retried.
// Results come back in input order.
func Run[T, R any](ctx context.Context, items []T, op func(context.Context, T) (R, error), opts Options) Results[R] {
	start := time.Now()
	results := make(Results[R], len(items))

	limit := opts.Concurrency
	if limit <= 0 {
		limit = DefaultConcurrency
	}

	send := func(u Update) {
		if opts.Updates != nil {
			opts.Updates <- u
		}
	}
	send(Update{TotalDelta: len(items)})

	var g errgroup.Group
	g.SetLimit(limit)
	for i, item := range items {
		g.Go(func() error {
			v, err := call(ctx, op, item)
			results[i] = Result[R]{Index: i, Value: v, Err: err}
			if err != nil {
				send(Update{DoneDelta: 1, FailedDelta: 1})
			} else {
				send(Update{DoneDelta: 1})
			}
			return nil
		})
	}
	_ = g.Wait()

	if remaining := opts.MinDuration - time.Since(start); remaining > 0 {
		timer := time.NewTimer(remaining)
		defer timer.Stop()
		select {
		case <-timer.C:
		case <-ctx.Done():
		}
	}

	return results
}

func call[T, R any](ctx context.Context, op func(context.Context, T) (R, error), item T) (v R, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("panic: %v", p)
		}
	}()
	return op(ctx, item)
}
