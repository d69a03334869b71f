// Package ratelimit implements per-provider request windows with adaptive
// backoff.
//
// Windows are fixed, anchored at the first request after the previous window
// elapsed: the reset boundary is windowStart + window. A burst of up to
// 2*limit requests is therefore possible across a window edge; the adaptive
// backoff below is what protects throttled providers, not the window shape.
package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/inkwell-ai/inkgate/pkg/models"
)

// Error reports a denied acquisition with the time until the window admits
// another request.
type Error struct {
	Provider   string
	RetryAfter time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("rate limit exceeded for %s, retry in %s", e.Provider, e.RetryAfter.Round(time.Millisecond))
}

// providerWindow tracks one provider's current window, backoff state, and
// wait queue. queue[0] is the head waiter; only the head arms a retry timer.
type providerWindow struct {
	windowStart    time.Time
	count          int
	effectiveLimit int
	cooldownUntil  time.Time
	queue          []chan struct{}
}

// Limiter enforces limit requests per window independently per provider.
//
// When a provider itself reports throttling (RecordResult with
// wasRateLimited=true), the effective limit halves (floor 1) and a cool-down
// of one full window begins; each further throttle halves again. The first
// clean success after the cool-down elapses restores the configured limit.
type Limiter struct {
	mu         sync.Mutex
	limit      int
	window     time.Duration
	queueDepth int
	now        func() time.Time
	providers  map[string]*providerWindow
}

// New creates a Limiter. queueDepth bounds the per-provider wait queue used
// by Wait; zero disables queuing and Wait denies immediately.
func New(limit int, window time.Duration, queueDepth int) *Limiter {
	return &Limiter{
		limit:      limit,
		window:     window,
		queueDepth: queueDepth,
		now:        time.Now,
		providers:  make(map[string]*providerWindow),
	}
}

func (l *Limiter) get(provider string) *providerWindow {
	w, ok := l.providers[provider]
	if !ok {
		w = &providerWindow{effectiveLimit: l.limit}
		l.providers[provider] = w
	}
	return w
}

// roll starts a fresh window once the previous one elapsed. The new window
// is anchored at the first request that lands in it.
func (l *Limiter) roll(w *providerWindow, now time.Time) {
	if now.Sub(w.windowStart) >= l.window {
		w.windowStart = now
		w.count = 0
	}
}

// TryAcquire grants a slot and increments the provider's counter, or denies
// with the time until the window permits another call.
func (l *Limiter) TryAcquire(provider string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.get(provider)
	l.roll(w, now)

	if w.count < w.effectiveLimit {
		w.count++
		return true, 0
	}

	retryAfter := w.windowStart.Add(l.window).Sub(now)
	if retryAfter < 0 {
		retryAfter = 0
	}
	return false, retryAfter
}

// Wait blocks until a slot is granted, the context is done, or the bounded
// wait queue is full. Queued waiters are admitted in arrival order: the head
// waiter retries at the window edge and hands off to the next on success.
// Waiters beyond queueDepth are denied immediately with an *Error carrying
// retry-after.
func (l *Limiter) Wait(ctx context.Context, provider string) error {
	l.mu.Lock()
	now := l.now()
	w := l.get(provider)
	l.roll(w, now)

	// Fast path only when nobody is queued, so arrivals cannot overtake
	// waiters.
	if len(w.queue) == 0 && w.count < w.effectiveLimit {
		w.count++
		l.mu.Unlock()
		return nil
	}

	if l.queueDepth == 0 || len(w.queue) >= l.queueDepth {
		retryAfter := w.windowStart.Add(l.window).Sub(now)
		if retryAfter < 0 {
			retryAfter = 0
		}
		l.mu.Unlock()
		return &Error{Provider: provider, RetryAfter: retryAfter}
	}

	ready := make(chan struct{}, 1)
	w.queue = append(w.queue, ready)
	if len(w.queue) == 1 {
		ready <- struct{}{}
	}
	l.mu.Unlock()

	for {
		select {
		case <-ctx.Done():
			l.abandon(provider, ready)
			return ctx.Err()
		case <-ready:
		}

		l.mu.Lock()
		now := l.now()
		l.roll(w, now)
		if w.count < w.effectiveLimit {
			w.count++
			w.queue = w.queue[1:]
			signalHead(w)
			l.mu.Unlock()
			return nil
		}
		retryAfter := w.windowStart.Add(l.window).Sub(now)
		l.mu.Unlock()

		timer := time.NewTimer(retryAfter)
		select {
		case <-ctx.Done():
			timer.Stop()
			l.abandon(provider, ready)
			return ctx.Err()
		case <-timer.C:
			select {
			case ready <- struct{}{}:
			default:
			}
		}
	}
}

// signalHead wakes the next queued waiter, if any. The channel is buffered
// so the signal never blocks and is never lost.
func signalHead(w *providerWindow) {
	if len(w.queue) > 0 {
		select {
		case w.queue[0] <- struct{}{}:
		default:
		}
	}
}

// abandon removes a waiter that gave up. If it was the head, the next waiter
// takes over the retry timer.
func (l *Limiter) abandon(provider string, ready chan struct{}) {
	l.mu.Lock()
	defer l.mu.Unlock()

	w := l.get(provider)
	for i, ch := range w.queue {
		if ch == ready {
			w.queue = append(w.queue[:i], w.queue[i+1:]...)
			if i == 0 {
				signalHead(w)
			}
			return
		}
	}
}

// RecordResult feeds the provider call outcome back into the limiter to
// drive adaptive backoff.
func (l *Limiter) RecordResult(provider string, wasRateLimited bool) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.get(provider)

	if wasRateLimited {
		w.effectiveLimit = w.effectiveLimit / 2
		if w.effectiveLimit < 1 {
			w.effectiveLimit = 1
		}
		w.cooldownUntil = now.Add(l.window)
		return
	}

	if !w.cooldownUntil.IsZero() && now.After(w.cooldownUntil) {
		w.effectiveLimit = l.limit
		w.cooldownUntil = time.Time{}
	}
}

// Status reports the provider's current window without consuming a slot.
func (l *Limiter) Status(provider string) models.RateLimitStatus {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w := l.get(provider)

	status := models.RateLimitStatus{Provider: provider, Limit: l.limit}

	if w.count == 0 || now.Sub(w.windowStart) >= l.window {
		status.Remaining = w.effectiveLimit
		return status
	}

	status.Remaining = w.effectiveLimit - w.count
	if status.Remaining < 0 {
		status.Remaining = 0
	}
	status.ResetIn = w.windowStart.Add(l.window).Sub(now)
	return status
}
