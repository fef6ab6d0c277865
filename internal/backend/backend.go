// Package backend defines the contract shared by the GEMM kernels.
//
// Every implementation computes C[m×k] = op(A)[m×n] · op(B)[n×k] on flat
// row-major slices, where op(X) is X or its transpose depending on the
// corresponding flag. C is fully overwritten.
package backend

import (
	"github.com/gomlx/exceptions"
)

// Float is the set of element types the engine computes in.
type Float interface {
	float32 | float64
}

// Backend is a GEMM kernel provider.
type Backend interface {
	// Name identifies the backend in logs ("cpu", "blas", "webgpu").
	Name() string

	GemmFloat32(a []float32, aT bool, b []float32, bT bool, m, n, k int, c []float32)
	GemmFloat64(a []float64, aT bool, b []float64, bT bool, m, n, k int, c []float64)
}

// Gemm routes the generic call to the typed entry point of be.
func Gemm[T Float](be Backend, a []T, aT bool, b []T, bT bool, m, n, k int, c []T) {
	switch av := any(a).(type) {
	case []float32:
		be.GemmFloat32(av, aT, any(b).([]float32), bT, m, n, k, any(c).([]float32))
	case []float64:
		be.GemmFloat64(av, aT, any(b).([]float64), bT, m, n, k, any(c).([]float64))
	}
}

// CheckDims validates the operand lengths against the m, n, k triple.
func CheckDims(name string, lenA, lenB, lenC, m, n, k int) {
	if m <= 0 || n <= 0 || k <= 0 {
		exceptions.Panicf("%s: gemm dimensions must be positive, got m=%d n=%d k=%d", name, m, n, k)
	}
	if lenA < m*n {
		exceptions.Panicf("%s: gemm lhs has %d elements, need %d (m=%d, n=%d)", name, lenA, m*n, m, n)
	}
	if lenB < n*k {
		exceptions.Panicf("%s: gemm rhs has %d elements, need %d (n=%d, k=%d)", name, lenB, n*k, n, k)
	}
	if lenC < m*k {
		exceptions.Panicf("%s: gemm output has %d elements, need %d (m=%d, k=%d)", name, lenC, m*k, m, k)
	}
}
