package fanout

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

func TestMap_PreservesInputOrder(t *testing.T) {
	items := []int{5, 1, 4, 2, 3}

	results := Map(context.Background(), DefaultConfig(), items, func(_ context.Context, n int) (int, error) {
		// Later items finish first.
		time.Sleep(time.Duration(n) * time.Millisecond)
		return n * 10, nil
	})

	if len(results) != len(items) {
		t.Fatalf("len(results) = %d, want %d", len(results), len(items))
	}
	for i, r := range results {
		if r.Err != nil {
			t.Errorf("results[%d].Err = %v", i, r.Err)
		}
		if r.Value != items[i]*10 {
			t.Errorf("results[%d].Value = %d, want %d", i, r.Value, items[i]*10)
		}
	}
}

func TestMap_RespectsConcurrencyLimit(t *testing.T) {
	var inFlight, peak atomic.Int32
	items := make([]int, 20)

	Map(context.Background(), Config{MaxConcurrency: 3}, items, func(_ context.Context, _ int) (struct{}, error) {
		n := inFlight.Add(1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		inFlight.Add(-1)
		return struct{}{}, nil
	})

	if got := peak.Load(); got > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", got)
	}
}

func TestMap_FailureDoesNotCancelSiblings(t *testing.T) {
	boom := errors.New("boom")
	items := []string{"ok", "fail", "ok"}

	results := Map(context.Background(), Config{MaxConcurrency: 1}, items, func(ctx context.Context, s string) (string, error) {
		if s == "fail" {
			return "", boom
		}
		if err := ctx.Err(); err != nil {
			return "", err
		}
		return s, nil
	})

	if !errors.Is(results[1].Err, boom) {
		t.Errorf("results[1].Err = %v, want boom", results[1].Err)
	}
	for _, i := range []int{0, 2} {
		if results[i].Err != nil || results[i].Value != "ok" {
			t.Errorf("results[%d] = %+v, want ok", i, results[i])
		}
	}
}

func TestMap_PerItemTimeout(t *testing.T) {
	results := Map(context.Background(), Config{Timeout: 10 * time.Millisecond}, []int{1}, func(ctx context.Context, _ int) (int, error) {
		<-ctx.Done()
		return 0, ctx.Err()
	})

	if !errors.Is(results[0].Err, context.DeadlineExceeded) {
		t.Errorf("Err = %v, want DeadlineExceeded", results[0].Err)
	}
}

func TestMap_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var calls atomic.Int32
	results := Map(ctx, DefaultConfig(), []int{1, 2, 3}, func(_ context.Context, n int) (int, error) {
		calls.Add(1)
		return n, nil
	})

	if calls.Load() != 0 {
		t.Errorf("fn called %d times after cancellation", calls.Load())
	}
	for i, r := range results {
		if !errors.Is(r.Err, context.Canceled) {
			t.Errorf("results[%d].Err = %v, want Canceled", i, r.Err)
		}
	}
}

func TestMap_RecoversPanic(t *testing.T) {
	results := Map(context.Background(), DefaultConfig(), []int{0, 1}, func(_ context.Context, n int) (int, error) {
		if n == 0 {
			panic("bad tap payload")
		}
		return n, nil
	})

	if results[0].Err == nil {
		t.Error("panicking item should report an error")
	}
	if results[1].Err != nil || results[1].Value != 1 {
		t.Errorf("results[1] = %+v", results[1])
	}
}

func TestMap_Empty(t *testing.T) {
	results := Map(context.Background(), Config{}, []int(nil), func(_ context.Context, n int) (int, error) {
		return n, nil
	})
	if len(results) != 0 {
		t.Errorf("len(results) = %d, want 0", len(results))
	}
}
