package cpu

import (
	"math"
	"math/rand"
	"testing"

	"github.com/born-ml/ember/internal/parallel"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// reference computes op(A)·op(B) with explicit transposes.
func reference(a []float64, aT bool, b []float64, bT bool, m, n, k int) []float64 {
	at := func(i, p int) float64 {
		if aT {
			return a[p*m+i]
		}
		return a[i*n+p]
	}
	bt := func(p, j int) float64 {
		if bT {
			return b[j*n+p]
		}
		return b[p*k+j]
	}
	c := make([]float64, m*k)
	for i := 0; i < m; i++ {
		for j := 0; j < k; j++ {
			for p := 0; p < n; p++ {
				c[i*k+j] += at(i, p) * bt(p, j)
			}
		}
	}
	return c
}

func TestGemm_Small(t *testing.T) {
	// [1 2 3]   [7  8]   [ 58  64]
	// [4 5 6] · [9 10] = [139 154]
	//           [11 12]
	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{7, 8, 9, 10, 11, 12}
	c := []float32{-1, -1, -1, -1} // must be overwritten

	New().GemmFloat32(a, false, b, false, 2, 3, 2, c)
	assert.Equal(t, []float32{58, 64, 139, 154}, c)
}

func TestGemm_TransposeCombos(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	m, n, k := 7, 5, 3
	a := make([]float64, m*n)
	b := make([]float64, n*k)
	for i := range a {
		a[i] = rng.NormFloat64()
	}
	for i := range b {
		b[i] = rng.NormFloat64()
	}

	cfg := parallel.Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	for _, tc := range []struct {
		name   string
		aT, bT bool
	}{
		{"NN", false, false},
		{"TN", true, false},
		{"NT", false, true},
		{"TT", true, true},
	} {
		t.Run(tc.name, func(t *testing.T) {
			want := reference(a, tc.aT, b, tc.bT, m, n, k)
			got := make([]float64, m*k)
			NewWithConfig(cfg).GemmFloat64(a, tc.aT, b, tc.bT, m, n, k, got)
			assert.InDeltaSlice(t, want, got, 1e-12)
		})
	}
}

func TestGemm_PropagatesNaN(t *testing.T) {
	// A zero in A must not hide a NaN or Inf in B: 0*NaN and 0*Inf are NaN.
	a := []float64{0, 1}
	b := []float64{math.NaN(), 2, 3, math.Inf(1)}
	c := make([]float64, 2)
	for _, bT := range []bool{false, true} {
		New().GemmFloat64(a, false, b, bT, 1, 2, 2, c)
		assert.True(t, math.IsNaN(c[0]), "bT=%v: c[0] = %g", bT, c[0])
	}
}

func TestGemm_DimensionMismatchPanics(t *testing.T) {
	a := make([]float32, 6)
	b := make([]float32, 5)
	c := make([]float32, 4)
	require.Panics(t, func() {
		New().GemmFloat32(a, false, b, false, 2, 3, 2, c)
	})
}

func BenchmarkGemm128(b *testing.B) {
	const size = 128
	x := make([]float32, size*size)
	for i := range x {
		x[i] = float32(i%7) * 0.5
	}
	c := make([]float32, size*size)
	be := New()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		be.GemmFloat32(x, false, x, true, size, size, size, c)
	}
}
