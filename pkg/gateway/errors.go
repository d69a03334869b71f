package gateway

import (
	"errors"
	"fmt"
)

// ErrQueueFull is returned by Submit when the dispatch queue is at capacity.
// Backpressure is explicit: the caller decides whether to retry.
var ErrQueueFull = errors.New("request queue full")

// ErrClosed is returned by Submit after the gateway has been shut down.
var ErrClosed = errors.New("gateway closed")

// ErrWaitTimeout is returned to a waiter that gave up on an in-flight
// duplicate; the underlying call keeps running.
var ErrWaitTimeout = errors.New("timed out waiting for in-flight request")

// ValidationError rejects a request before it reaches the cache or the rate
// limiter.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid request: %s: %s", e.Field, e.Reason)
}
