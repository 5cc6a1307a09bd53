package parallel

import (
	"context"
	"runtime"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

// =============================================================================
// Pool Creation Tests
// =============================================================================

func TestPool_Create(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	if pool.Workers() != 4 {
		t.Errorf("Workers() = %d, want 4", pool.Workers())
	}
	if !pool.IsRunning() {
		t.Error("pool should be running after creation")
	}
	if pool.Queued() != 0 {
		t.Errorf("Queued() = %d, want 0", pool.Queued())
	}
}

func TestPool_CreateDefaultWorkers(t *testing.T) {
	for _, n := range []int{0, -3} {
		pool := NewPool(n)
		if pool.Workers() != runtime.GOMAXPROCS(0) {
			t.Errorf("NewPool(%d).Workers() = %d, want GOMAXPROCS", n, pool.Workers())
		}
		pool.Close()
	}
}

// =============================================================================
// Run Tests
// =============================================================================

func TestPool_RunAll(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	const n = 500
	seen := make([]atomic.Int32, n)
	skipped := pool.Run(context.Background(), n, func(i int) {
		seen[i].Add(1)
	})

	if skipped != 0 {
		t.Errorf("skipped = %d, want 0", skipped)
	}
	for i := range seen {
		if got := seen[i].Load(); got != 1 {
			t.Fatalf("task %d ran %d times, want 1", i, got)
		}
	}
}

func TestPool_RunEmpty(t *testing.T) {
	pool := NewPool(2)
	defer pool.Close()

	if got := pool.Run(context.Background(), 0, func(int) { t.Error("task called") }); got != 0 {
		t.Errorf("skipped = %d, want 0", got)
	}
}

func TestPool_RunCancelled(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var ran atomic.Int64
	skipped := pool.Run(ctx, 50, func(int) { ran.Add(1) })

	if ran.Load() != 0 {
		t.Errorf("ran = %d tasks after cancel, want 0", ran.Load())
	}
	if skipped != 50 {
		t.Errorf("skipped = %d, want 50", skipped)
	}
}

func TestPool_RunCancelMidway(t *testing.T) {
	// A single worker runs its queue in order, so everything after the
	// cancelling task is skipped.
	pool := NewPool(1)
	defer pool.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var ran atomic.Int64
	skipped := pool.Run(ctx, 20, func(i int) {
		ran.Add(1)
		if i == 0 {
			cancel()
		}
	})

	if ran.Load() != 1 {
		t.Errorf("ran = %d, want 1", ran.Load())
	}
	if skipped != 19 {
		t.Errorf("skipped = %d, want 19", skipped)
	}
}

func TestPool_RunAfterClose(t *testing.T) {
	pool := NewPool(4)
	pool.Close()

	var ran atomic.Int64
	skipped := pool.Run(context.Background(), 10, func(int) { ran.Add(1) })

	if ran.Load() != 10 || skipped != 0 {
		t.Errorf("closed pool: ran = %d skipped = %d, want 10 and 0", ran.Load(), skipped)
	}
}

func TestPool_CloseIdempotent(t *testing.T) {
	pool := NewPool(2)
	pool.Close()
	pool.Close()

	if pool.IsRunning() {
		t.Error("pool should not be running after Close")
	}
}

// =============================================================================
// Concurrency Tests
// =============================================================================

func TestPool_ConcurrentRuns(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var total atomic.Int64
	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			pool.Run(context.Background(), 40, func(int) { total.Add(1) })
		}()
	}
	wg.Wait()

	if total.Load() != 8*40 {
		t.Errorf("total = %d, want %d", total.Load(), 8*40)
	}
}

func TestPool_UnevenFaces(t *testing.T) {
	pool := NewPool(4)
	defer pool.Close()

	var slow, fast atomic.Int64
	start := time.Now()
	pool.Run(context.Background(), 40, func(i int) {
		if i%10 == 0 {
			time.Sleep(10 * time.Millisecond)
			slow.Add(1)
			return
		}
		fast.Add(1)
	})

	if slow.Load() != 4 || fast.Load() != 36 {
		t.Errorf("slow = %d fast = %d, want 4 and 36", slow.Load(), fast.Load())
	}
	t.Logf("elapsed %v", time.Since(start))
}

func TestPool_NoGoroutineLeak(t *testing.T) {
	runtime.GC()
	time.Sleep(50 * time.Millisecond)
	baseline := runtime.NumGoroutine()

	for range 5 {
		pool := NewPool(4)
		pool.Run(context.Background(), 100, func(int) {})
		pool.Close()
	}

	runtime.GC()
	time.Sleep(100 * time.Millisecond)

	if final := runtime.NumGoroutine(); final > baseline+2 {
		t.Errorf("goroutine count: baseline=%d, final=%d (leak detected)", baseline, final)
	}
}

// =============================================================================
// Benchmarks
// =============================================================================

func BenchmarkPool_Run(b *testing.B) {
	pool := NewPool(runtime.GOMAXPROCS(0))
	defer pool.Close()

	ctx := context.Background()
	var sink atomic.Int64
	b.ResetTimer()
	for range b.N {
		pool.Run(ctx, 64, func(i int) { sink.Add(int64(i)) })
	}
}
