package game

import (
	"sync/atomic"
	"testing"
)

func TestWorkerPoolCoversEveryItemOnce(t *testing.T) {
	tests := []struct {
		name    string
		n       int
		workers int
	}{
		{"below threshold", parallelThreshold - 1, 4},
		{"exact threshold", parallelThreshold, 4},
		{"uneven chunks", 1001, 3},
		{"single worker", 500, 1},
		{"more workers than chunks", parallelThreshold, 200},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool := NewWorkerPool(tt.workers)
			defer pool.Stop()

			hits := make([]int32, tt.n)
			for round := 0; round < 3; round++ {
				pool.Run(tt.n, func(start, end, worker int) {
					if worker < 0 || worker >= pool.Workers() {
						t.Errorf("worker index %d out of range", worker)
					}
					for i := start; i < end; i++ {
						atomic.AddInt32(&hits[i], 1)
					}
				})
			}
			for i, h := range hits {
				if h != 3 {
					t.Fatalf("item %d processed %d times, want 3", i, h)
				}
			}
		})
	}
}

func TestWorkerPoolSmallBatchRunsInline(t *testing.T) {
	pool := NewWorkerPool(4)
	defer pool.Stop()

	pool.Run(10, func(start, end, worker int) {
		if start != 0 || end != 10 || worker != 0 {
			t.Errorf("chunk = [%d,%d) on worker %d, want [0,10) on worker 0", start, end, worker)
		}
	})
	if pool.running {
		t.Error("workers started for a batch below the threshold")
	}
}

func TestWorkerPoolStopIsIdempotent(t *testing.T) {
	pool := NewWorkerPool(2)
	pool.Run(parallelThreshold*2, func(int, int, int) {})
	pool.Stop()
	pool.Stop()

	var nilPool *WorkerPool
	nilPool.Stop()
}

func TestNewWorkerPoolDefaults(t *testing.T) {
	if NewWorkerPool(0).Workers() < 1 {
		t.Error("default pool has no workers")
	}
	if got := NewWorkerPool(3).Workers(); got != 3 {
		t.Errorf("Workers() = %d, want 3", got)
	}
}
