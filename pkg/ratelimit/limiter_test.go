package ratelimit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

// fakeClock pins the limiter's clock for deterministic window tests.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func newTestLimiter(limit int, window time.Duration, queueDepth int) (*Limiter, *fakeClock) {
	clock := &fakeClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	l := New(limit, window, queueDepth)
	l.now = clock.now
	return l, clock
}

func TestLimitBoundary(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute, 0)

	for i := 0; i < 3; i++ {
		ok, _ := l.TryAcquire("openai")
		if !ok {
			t.Fatalf("request %d within limit should be granted", i+1)
		}
	}

	ok, retryAfter := l.TryAcquire("openai")
	if ok {
		t.Fatal("request beyond limit should be denied")
	}
	if retryAfter <= 0 {
		t.Errorf("expected positive retry_after, got %v", retryAfter)
	}
}

func TestWindowReset(t *testing.T) {
	l, clock := newTestLimiter(1, time.Minute, 0)

	if ok, _ := l.TryAcquire("openai"); !ok {
		t.Fatal("first request should be granted")
	}
	if ok, _ := l.TryAcquire("openai"); ok {
		t.Fatal("second request in window should be denied")
	}

	clock.advance(61 * time.Second)

	if ok, _ := l.TryAcquire("openai"); !ok {
		t.Error("request after window reset should be granted")
	}
}

func TestProvidersIndependent(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute, 0)

	if ok, _ := l.TryAcquire("openai"); !ok {
		t.Fatal("openai should be granted")
	}
	if ok, _ := l.TryAcquire("anthropic"); !ok {
		t.Error("anthropic window is independent of openai")
	}
}

func TestAdaptiveBackoff(t *testing.T) {
	l, clock := newTestLimiter(8, time.Minute, 0)

	// Three consecutive throttles halve the effective limit each time.
	for i := 0; i < 3; i++ {
		l.RecordResult("openai", true)
	}

	status := l.Status("openai")
	if status.Remaining >= status.Limit {
		t.Errorf("expected reduced remaining during cool-down, got %d of %d",
			status.Remaining, status.Limit)
	}
	if status.Remaining != 1 {
		t.Errorf("expected effective limit 1 after three throttles, got %d", status.Remaining)
	}

	// A clean success after the cool-down restores the configured limit.
	clock.advance(2 * time.Minute)
	l.RecordResult("openai", false)

	if got := l.Status("openai").Remaining; got != 8 {
		t.Errorf("expected restored limit 8, got %d", got)
	}
}

func TestSuccessDuringCooldownDoesNotRestore(t *testing.T) {
	l, _ := newTestLimiter(8, time.Minute, 0)

	l.RecordResult("openai", true)
	l.RecordResult("openai", false) // still inside cool-down

	if got := l.Status("openai").Remaining; got != 4 {
		t.Errorf("expected limit still halved during cool-down, got %d", got)
	}
}

func TestStatusCountsDown(t *testing.T) {
	l, _ := newTestLimiter(3, time.Minute, 0)

	l.TryAcquire("openai")
	l.TryAcquire("openai")

	status := l.Status("openai")
	if status.Remaining != 1 {
		t.Errorf("expected 1 remaining, got %d", status.Remaining)
	}
	if status.ResetIn <= 0 || status.ResetIn > time.Minute {
		t.Errorf("unexpected reset_in %v", status.ResetIn)
	}
}

func TestWaitDeniedWithoutQueue(t *testing.T) {
	l, _ := newTestLimiter(1, time.Minute, 0)
	l.TryAcquire("openai")

	err := l.Wait(context.Background(), "openai")
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected *Error, got %v", err)
	}
	if rlErr.RetryAfter <= 0 {
		t.Errorf("expected positive retry_after, got %v", rlErr.RetryAfter)
	}
}

func TestWaitAdmittedAfterReset(t *testing.T) {
	l := New(1, 30*time.Millisecond, 2)
	l.TryAcquire("openai")

	start := time.Now()
	if err := l.Wait(context.Background(), "openai"); err != nil {
		t.Fatalf("expected wait to be admitted, got %v", err)
	}
	if time.Since(start) < 20*time.Millisecond {
		t.Error("wait returned before the window could have reset")
	}
}

func TestWaitRespectsContext(t *testing.T) {
	l := New(1, time.Hour, 2)
	l.TryAcquire("openai")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := l.Wait(ctx, "openai")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestWaitAdmitsInArrivalOrder(t *testing.T) {
	l := New(1, 25*time.Millisecond, 3)
	l.TryAcquire("openai")

	order := make(chan int, 3)
	var wg sync.WaitGroup
	for i := 1; i <= 3; i++ {
		i := i
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := l.Wait(context.Background(), "openai"); err != nil {
				t.Errorf("waiter %d: %v", i, err)
				return
			}
			order <- i
		}()
		// Space out arrivals so the queue order is deterministic.
		time.Sleep(5 * time.Millisecond)
	}
	wg.Wait()
	close(order)

	want := 1
	for got := range order {
		if got != want {
			t.Fatalf("waiter %d admitted before waiter %d", got, want)
		}
		want++
	}
}

func TestWaitQueueBounded(t *testing.T) {
	l := New(1, time.Hour, 1)
	l.TryAcquire("openai")

	// Occupy the single queue slot.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go l.Wait(ctx, "openai")
	time.Sleep(10 * time.Millisecond)

	err := l.Wait(context.Background(), "openai")
	var rlErr *Error
	if !errors.As(err, &rlErr) {
		t.Fatalf("expected immediate denial beyond queue depth, got %v", err)
	}
}
