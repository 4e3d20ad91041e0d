package httputil

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestSemaphoreTryAcquire(t *testing.T) {
	sem := NewSemaphore(2)

	if !sem.TryAcquire() {
		t.Error("first TryAcquire should succeed")
	}
	if !sem.TryAcquire() {
		t.Error("second TryAcquire should succeed")
	}
	if sem.TryAcquire() {
		t.Error("third TryAcquire should fail at capacity")
	}
	if sem.DroppedCount() != 1 {
		t.Errorf("DroppedCount = %d, want 1", sem.DroppedCount())
	}

	sem.Release()
	if !sem.TryAcquire() {
		t.Error("TryAcquire should succeed after Release")
	}
}

func TestSemaphoreAcquireRespectsContext(t *testing.T) {
	sem := NewSemaphore(1)

	if err := sem.Acquire(context.Background()); err != nil {
		t.Fatalf("first Acquire failed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	if err := sem.Acquire(ctx); err != context.DeadlineExceeded {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
}

func TestSemaphoreConcurrent(t *testing.T) {
	sem := NewSemaphore(10)
	var acquired atomic.Int32
	var wg sync.WaitGroup

	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if sem.TryAcquire() {
				acquired.Add(1)
				time.Sleep(10 * time.Millisecond)
				sem.Release()
			}
		}()
	}
	wg.Wait()

	if sem.InUse() != 0 {
		t.Errorf("expected 0 in use after completion, got %d", sem.InUse())
	}
	t.Logf("acquired=%d dropped=%d", acquired.Load(), sem.DroppedCount())
}

func TestSemaphoreAvailability(t *testing.T) {
	sem := NewSemaphore(5)
	if sem.Available() != 5 || sem.InUse() != 0 {
		t.Errorf("fresh semaphore: available=%d inUse=%d", sem.Available(), sem.InUse())
	}
	sem.TryAcquire()
	sem.TryAcquire()
	if sem.Available() != 3 || sem.InUse() != 2 {
		t.Errorf("after two acquires: available=%d inUse=%d", sem.Available(), sem.InUse())
	}
}

func TestNewSemaphoreDefaultCapacity(t *testing.T) {
	for _, capacity := range []int{0, -5} {
		sem := NewSemaphore(capacity)
		if cap(sem.sem) != 32 {
			t.Errorf("NewSemaphore(%d) capacity = %d, want default 32", capacity, cap(sem.sem))
		}
	}
}

func BenchmarkSemaphoreTryAcquire(b *testing.B) {
	sem := NewSemaphore(1000)
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if sem.TryAcquire() {
				sem.Release()
			}
		}
	})
}
