package orchestrator

import (
	"context"
	"sync"
	"time"
)

// forEachLimited fans fn out over n elements with at most limit in flight
// and a per-element deadline. Elements are independent: one unreachable
// device costs only its own timeout, never the batch. The slot index is
// stable so callers can write results without locking.
func forEachLimited(ctx context.Context, n, limit int, timeout time.Duration, fn func(ctx context.Context, i int)) {
	if limit < 1 {
		limit = 1
	}
	sem := make(chan struct{}, limit)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			elemCtx, cancel := context.WithTimeout(ctx, timeout)
			defer cancel()
			fn(elemCtx, i)
		}(i)
	}
	wg.Wait()
}

// runBounded runs one device step in its own goroutine and enforces the
// context deadline on it. Neither device client takes a context (the
// RouterOS binary API and the SSH expect session both block on reads), so
// on deadline the session is torn down to fail the blocked read and the
// caller moves on; the step's goroutine drains on its own. Returns the
// step's error, or ctx.Err() when the watchdog fired first.
func runBounded(ctx context.Context, teardown func(), fn func() error) error {
	done := make(chan error, 1)
	go func() { done <- fn() }()
	select {
	case err := <-done:
		return err
	case <-ctx.Done():
		teardown()
		return ctx.Err()
	}
}
