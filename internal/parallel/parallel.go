// Package parallel partitions index ranges across a bounded set of worker
// goroutines for the ember tensor kernels.
package parallel

import (
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Upper bound on concurrently running workers.
	MinChunkSize int  // Ranges shorter than this run on the calling goroutine.
}

// DefaultConfig returns defaults based on the hardware concurrency.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 1024,
	}
}

var defaultConfig = DefaultConfig()

// Default returns the process-wide configuration used by the tensor kernels.
func Default() Config {
	return defaultConfig
}

// SetDefault replaces the process-wide configuration and returns the
// previous one. Not safe to call while kernels are running.
func SetDefault(cfg Config) Config {
	prev := defaultConfig
	defaultConfig = cfg
	return prev
}

// For executes f(i) for i in [0, n).
//
// The range is split into contiguous chunks, one per worker, and For blocks
// until every chunk is done. Falls back to a plain loop when parallelism is
// disabled or n is below cfg.MinChunkSize.
func For(n int, f func(i int), cfg Config) {
	ForRange(n, func(start, end int) {
		for i := start; i < end; i++ {
			f(i)
		}
	}, cfg)
}

// ForRange is like For but hands each worker its whole [start, end) chunk,
// which lets kernels hoist per-chunk setup out of the inner loop.
func ForRange(n int, f func(start, end int), cfg Config) {
	if n <= 0 {
		return
	}
	workers := cfg.NumWorkers
	if !cfg.Enabled || workers <= 1 || n < cfg.MinChunkSize {
		f(0, n)
		return
	}
	workers = min(workers, runtime.NumCPU())
	chunkSize := max((n+workers-1)/workers, 1)

	var g errgroup.Group
	g.SetLimit(workers)
	for start := 0; start < n; start += chunkSize {
		s, e := start, min(start+chunkSize, n)
		g.Go(func() error {
			f(s, e)
			return nil
		})
	}
	_ = g.Wait()
}

// ForBatch is For over a batch*channels grid, as used by the pooling and
// up-sampling kernels. f(b, c) calls for distinct pairs may run
// concurrently.
func ForBatch(batch, channels int, f func(b, c int), cfg Config) {
	n := batch * channels
	For(n, func(k int) {
		f(k/channels, k%channels)
	}, cfg)
}
