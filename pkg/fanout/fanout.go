package fanout

import (
	"context"
	"fmt"
	"time"

	"github.com/Sternrassler/ontap-client/pkg/logging"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxConcurrency is the in-flight cap used when none is configured.
const DefaultMaxConcurrency = 8

// Config holds fan-out configuration
type Config struct {
	// MaxConcurrency is the maximum number of calls in flight
	MaxConcurrency int

	// Timeout per item; zero means only the parent context applies
	Timeout time.Duration
}

// DefaultConfig returns the default configuration
func DefaultConfig() Config {
	return Config{
		MaxConcurrency: DefaultMaxConcurrency,
		Timeout:        15 * time.Second,
	}
}

// Result is the outcome of one item. Exactly one of Value or Err is meaningful.
type Result[R any] struct {
	Value R
	Err   error
}

// Map calls fn for every item with at most cfg.MaxConcurrency calls in flight
// and returns once all calls have finished. results[i] belongs to items[i].
//
// Items not yet started when ctx is cancelled report ctx.Err().
func Map[T, R any](ctx context.Context, cfg Config, items []T, fn func(context.Context, T) (R, error)) []Result[R] {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = DefaultMaxConcurrency
	}

	results := make([]Result[R], len(items))
	if len(items) == 0 {
		return results
	}

	logger := logging.NewLogger("fanout")
	start := time.Now()

	// Plain group, not WithContext: one failure must not cancel the rest.
	var g errgroup.Group
	g.SetLimit(cfg.MaxConcurrency)

	for i, item := range items {
		g.Go(func() error {
			results[i] = call(ctx, cfg.Timeout, item, fn)
			return nil
		})
	}
	_ = g.Wait()

	failed := 0
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
	}

	logger.Debug().
		Int("items", len(items)).
		Int("failed", failed).
		Int("max_concurrency", cfg.MaxConcurrency).
		Dur("duration", time.Since(start)).
		Msg("Fan-out complete")

	return results
}

func call[T, R any](ctx context.Context, timeout time.Duration, item T, fn func(context.Context, T) (R, error)) (res Result[R]) {
	defer func() {
		if r := recover(); r != nil {
			res = Result[R]{Err: fmt.Errorf("fan-out item panicked: %v", r)}
		}
	}()

	if err := ctx.Err(); err != nil {
		return Result[R]{Err: err}
	}

	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	value, err := fn(ctx, item)
	if err != nil {
		return Result[R]{Err: err}
	}
	return Result[R]{Value: value}
}
