// Package cpu implements the portable GEMM kernel.
package cpu

import (
	"github.com/born-ml/ember/internal/backend"
	"github.com/born-ml/ember/internal/parallel"
)

// Backend is the pure-Go triple-loop kernel. Rows of C are split across
// workers with the parallel package.
type Backend struct {
	parallel parallel.Config
}

// New creates a CPU backend using the process-wide parallel configuration.
func New() *Backend {
	return &Backend{parallel: parallel.Default()}
}

// NewWithConfig creates a CPU backend with an explicit parallel configuration.
func NewWithConfig(cfg parallel.Config) *Backend {
	return &Backend{parallel: cfg}
}

// Name implements backend.Backend.
func (*Backend) Name() string { return "cpu" }

// GemmFloat32 implements backend.Backend.
func (cpu *Backend) GemmFloat32(a []float32, aT bool, b []float32, bT bool, m, n, k int, c []float32) {
	gemm(cpu.parallel, a, aT, b, bT, m, n, k, c)
}

// GemmFloat64 implements backend.Backend.
func (cpu *Backend) GemmFloat64(a []float64, aT bool, b []float64, bT bool, m, n, k int, c []float64) {
	gemm(cpu.parallel, a, aT, b, bT, m, n, k, c)
}

// gemm computes C[i,j] = sum_p op(A)[i,p] * op(B)[p,j].
//
// A is stored [m×n] (or [n×m] when aT), B is stored [n×k] (or [k×n] when bT).
func gemm[T backend.Float](cfg parallel.Config, a []T, aT bool, b []T, bT bool, m, n, k int, c []T) {
	backend.CheckDims("cpu", len(a), len(b), len(c), m, n, k)

	// Parallelize only when there is enough work per row.
	if m*n*k < cfg.MinChunkSize*8 {
		cfg.Enabled = false
	} else {
		cfg.MinChunkSize = 1
	}

	parallel.ForRange(m, func(start, end int) {
		for i := start; i < end; i++ {
			row := c[i*k : (i+1)*k]
			clear(row)
			for p := 0; p < n; p++ {
				var av T
				if aT {
					av = a[p*m+i]
				} else {
					av = a[i*n+p]
				}
				if bT {
					for j := range row {
						row[j] += av * b[j*n+p]
					}
				} else {
					brow := b[p*k : (p+1)*k]
					for j, bv := range brow {
						row[j] += av * bv
					}
				}
			}
		}
	}, cfg)
}
