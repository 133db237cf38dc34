// Package compute holds the worker-pool primitive behind parameter sweeps
// and a physics-free direct sampler. The sampler answers "what would pure
// uniform sampling give" so the ball estimator has an unbiased baseline.
package compute

import (
	"math/rand"
	"sync"
)

// defaultWorkers keeps chunk boundaries machine-independent, which keeps
// parallel sampling deterministic for a given seed.
const defaultWorkers = 4

// ParallelFor splits [0, n) into contiguous chunks and runs fn on each
// concurrently. Ranges below minChunk run serially.
func ParallelFor(n, minChunk int, fn func(start, end int)) {
	if n <= 0 {
		return
	}
	if n <= minChunk {
		fn(0, n)
		return
	}

	workers := defaultWorkers
	if n/minChunk < workers {
		workers = n / minChunk
	}
	if workers < 1 {
		workers = 1
	}

	chunkSize := (n + workers - 1) / workers

	var wg sync.WaitGroup
	wg.Add(workers)
	for w := 0; w < workers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		go func(s, e int) {
			defer wg.Done()
			if s < e {
				fn(s, e)
			}
		}(start, end)
	}
	wg.Wait()
}

// DirectSampler is the classic dartboard estimator: uniform points on the
// square [-1,1]^2, counting hits inside the unit circle.
type DirectSampler struct {
	seed   int64
	epoch  int64
	rng    *rand.Rand
	inside int64
	total  int64
}

func NewDirectSampler(seed int64) *DirectSampler {
	return &DirectSampler{seed: seed, rng: rand.New(rand.NewSource(seed))}
}

// Sample folds n throws into the running counts.
func (d *DirectSampler) Sample(n int) {
	if n <= 0 {
		return
	}
	d.inside += throw(d.rng, n)
	d.total += int64(n)
}

// SampleParallel splits n throws over fixed chunks with seeds derived from
// the sampler seed and an epoch counter, so results do not depend on
// scheduling and repeated calls use fresh streams.
func (d *DirectSampler) SampleParallel(n int) {
	if n < 4096 {
		d.Sample(n)
		return
	}

	d.epoch++
	base := d.seed + d.epoch*defaultWorkers

	counts := make([]int64, defaultWorkers)
	chunkSize := (n + defaultWorkers - 1) / defaultWorkers

	var wg sync.WaitGroup
	for w := 0; w < defaultWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > n {
			end = n
		}
		if start >= end {
			continue
		}
		wg.Add(1)
		go func(w, count int) {
			defer wg.Done()
			rng := rand.New(rand.NewSource(base + int64(w)))
			counts[w] = throw(rng, count)
		}(w, end-start)
	}
	wg.Wait()

	for _, c := range counts {
		d.inside += c
	}
	d.total += int64(n)
}

func throw(rng *rand.Rand, n int) int64 {
	var inside int64
	for i := 0; i < n; i++ {
		x := rng.Float64()*2 - 1
		y := rng.Float64()*2 - 1
		if x*x+y*y <= 1 {
			inside++
		}
	}
	return inside
}

// Estimate returns 4 * inside / total, or 0 before any throws.
func (d *DirectSampler) Estimate() float64 {
	if d.total == 0 {
		return 0
	}
	return 4 * float64(d.inside) / float64(d.total)
}

func (d *DirectSampler) Total() int64  { return d.total }
func (d *DirectSampler) Inside() int64 { return d.inside }

// Reset clears the counts and restarts the RNG streams from the seed.
func (d *DirectSampler) Reset() {
	d.rng = rand.New(rand.NewSource(d.seed))
	d.epoch = 0
	d.inside = 0
	d.total = 0
}
