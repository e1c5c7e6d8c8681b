package game

import (
	"runtime"
	"sync"
)

// parallelThreshold is the minimum item count to use parallel processing.
// Below this, single-threaded is faster due to goroutine overhead.
const parallelThreshold = 64

// ChunkFunc processes items [start, end) on the given worker.
// Worker indices are stable in [0, Workers()) so callers can keep per-worker scratch.
type ChunkFunc func(start, end, worker int)

// workChunk represents a range of items for a worker to process.
type workChunk struct {
	start, end int
	fn         ChunkFunc
}

// WorkerPool is a set of persistent goroutines that process chunked work.
// Run is not safe for concurrent use.
type WorkerPool struct {
	numWorkers int

	// Worker pool channels
	workChan chan workChunk // sends work to workers
	doneChan chan struct{}  // workers signal completion
	stopChan chan struct{}  // signals workers to exit
	wg       sync.WaitGroup // tracks active workers
	running  bool           // true if workers are running
}

// NewWorkerPool creates a pool of n workers; n <= 0 uses GOMAXPROCS.
// Workers start lazily on the first parallel Run.
func NewWorkerPool(n int) *WorkerPool {
	if n <= 0 {
		n = runtime.GOMAXPROCS(0)
	}
	return &WorkerPool{numWorkers: n}
}

// Workers returns the number of workers.
func (p *WorkerPool) Workers() int {
	return p.numWorkers
}

// startWorkers launches persistent worker goroutines.
func (p *WorkerPool) startWorkers() {
	if p.running {
		return
	}

	p.workChan = make(chan workChunk, p.numWorkers)
	p.doneChan = make(chan struct{}, p.numWorkers)
	p.stopChan = make(chan struct{})
	p.running = true

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(i)
	}
}

// Stop signals all workers to exit and waits for them.
func (p *WorkerPool) Stop() {
	if p == nil || !p.running {
		return
	}

	close(p.stopChan)
	p.wg.Wait()
	close(p.workChan)
	close(p.doneChan)
	p.running = false
}

// worker runs in a goroutine, processing chunks until stopped.
func (p *WorkerPool) worker(workerID int) {
	defer p.wg.Done()

	for {
		select {
		case <-p.stopChan:
			return
		case chunk, ok := <-p.workChan:
			if !ok {
				return
			}
			chunk.fn(chunk.start, chunk.end, workerID)
			p.doneChan <- struct{}{}
		}
	}
}

// Run processes n items with fn and returns when all chunks are done.
// Small batches run inline as worker 0.
func (p *WorkerPool) Run(n int, fn ChunkFunc) {
	if n <= 0 {
		return
	}
	if n < parallelThreshold || p.numWorkers == 1 {
		fn(0, n, 0)
		return
	}

	// Ensure workers are running
	if !p.running {
		p.startWorkers()
	}

	chunkSize := (n + p.numWorkers - 1) / p.numWorkers

	// Dispatch chunks to workers
	chunksDispatched := 0
	for w := 0; w < p.numWorkers; w++ {
		start := w * chunkSize
		end := min(start+chunkSize, n)
		if start >= end {
			continue
		}

		p.workChan <- workChunk{start: start, end: end, fn: fn}
		chunksDispatched++
	}

	// Wait for all chunks to complete
	for i := 0; i < chunksDispatched; i++ {
		<-p.doneChan
	}
}
