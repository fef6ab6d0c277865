// Package blas implements the accelerated GEMM kernel on top of gonum's
// BLAS implementation.
package blas

import (
	"github.com/born-ml/ember/internal/backend"
	"gonum.org/v1/gonum/blas"
	"gonum.org/v1/gonum/blas/blas32"
	"gonum.org/v1/gonum/blas/blas64"
)

// Backend forwards to blas32.Gemm / blas64.Gemm. Those dispatch to whatever
// implementation is registered with gonum (pure-Go gonum by default, a
// native one when the program calls blas64.Use / blas32.Use).
type Backend struct{}

// New creates the BLAS backend.
func New() *Backend { return &Backend{} }

// Name implements backend.Backend.
func (*Backend) Name() string { return "blas" }

func transpose(t bool) blas.Transpose {
	if t {
		return blas.Trans
	}
	return blas.NoTrans
}

// stored returns the stored layout of an operand whose op() shape is rows×cols.
func stored(rows, cols int, t bool) (r, c int) {
	if t {
		return cols, rows
	}
	return rows, cols
}

// GemmFloat32 implements backend.Backend.
func (*Backend) GemmFloat32(a []float32, aT bool, b []float32, bT bool, m, n, k int, c []float32) {
	backend.CheckDims("blas", len(a), len(b), len(c), m, n, k)
	ar, ac := stored(m, n, aT)
	br, bc := stored(n, k, bT)
	blas32.Gemm(transpose(aT), transpose(bT), 1,
		blas32.General{Rows: ar, Cols: ac, Stride: ac, Data: a[:m*n]},
		blas32.General{Rows: br, Cols: bc, Stride: bc, Data: b[:n*k]},
		0,
		blas32.General{Rows: m, Cols: k, Stride: k, Data: c[:m*k]})
}

// GemmFloat64 implements backend.Backend.
func (*Backend) GemmFloat64(a []float64, aT bool, b []float64, bT bool, m, n, k int, c []float64) {
	backend.CheckDims("blas", len(a), len(b), len(c), m, n, k)
	ar, ac := stored(m, n, aT)
	br, bc := stored(n, k, bT)
	blas64.Gemm(transpose(aT), transpose(bT), 1,
		blas64.General{Rows: ar, Cols: ac, Stride: ac, Data: a[:m*n]},
		blas64.General{Rows: br, Cols: bc, Stride: bc, Data: b[:n*k]},
		0,
		blas64.General{Rows: m, Cols: k, Stride: k, Data: c[:m*k]})
}
