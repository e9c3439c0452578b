package orchestrator

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestForEachLimitedVisitsEveryIndex(t *testing.T) {
	var mu sync.Mutex
	seen := map[int]bool{}
	forEachLimited(context.Background(), 25, 4, time.Second, func(_ context.Context, i int) {
		mu.Lock()
		seen[i] = true
		mu.Unlock()
	})
	if len(seen) != 25 {
		t.Fatalf("visited %d indexes, want 25", len(seen))
	}
}

func TestForEachLimitedBoundsConcurrency(t *testing.T) {
	var inFlight, peak int32
	forEachLimited(context.Background(), 50, 3, time.Second, func(_ context.Context, i int) {
		cur := atomic.AddInt32(&inFlight, 1)
		for {
			old := atomic.LoadInt32(&peak)
			if cur <= old || atomic.CompareAndSwapInt32(&peak, old, cur) {
				break
			}
		}
		time.Sleep(time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
	})
	if p := atomic.LoadInt32(&peak); p > 3 {
		t.Fatalf("peak concurrency %d, want at most 3", p)
	}
}

func TestForEachLimitedPerElementDeadline(t *testing.T) {
	expired := make([]bool, 3)
	forEachLimited(context.Background(), 3, 3, 20*time.Millisecond, func(ctx context.Context, i int) {
		<-ctx.Done()
		expired[i] = true
	})
	for i, ok := range expired {
		if !ok {
			t.Fatalf("element %d never saw its deadline", i)
		}
	}
}

func TestForEachLimitedZeroElements(t *testing.T) {
	called := false
	forEachLimited(context.Background(), 0, 4, time.Second, func(context.Context, int) {
		called = true
	})
	if called {
		t.Fatal("fn must not run for an empty batch")
	}
}
