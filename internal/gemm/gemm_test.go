package gemm

import (
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/born-ml/ember/internal/backend"
	"github.com/born-ml/ember/internal/backend/blas"
	"github.com/born-ml/ember/internal/backend/cpu"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func randomSlice[T backend.Float](rng *rand.Rand, n int) []T {
	s := make([]T, n)
	for i := range s {
		s[i] = T(rng.NormFloat64())
	}
	return s
}

var transposeCombos = []struct {
	aT, bT bool
}{
	{false, false},
	{true, false},
	{false, true},
	{true, true},
}

func TestCPUAndBLASAgree(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	cpuBackend, blasBackend := cpu.New(), blas.New()

	for _, dims := range [][3]int{{1, 1, 1}, {3, 4, 5}, {17, 9, 33}, {64, 64, 64}} {
		m, n, k := dims[0], dims[1], dims[2]
		for _, tc := range transposeCombos {
			name := fmt.Sprintf("%dx%dx%d/aT=%v/bT=%v", m, n, k, tc.aT, tc.bT)
			t.Run(name+"/float32", func(t *testing.T) {
				a, b := randomSlice[float32](rng, m*n), randomSlice[float32](rng, n*k)
				want, got := make([]float32, m*k), make([]float32, m*k)
				backend.Gemm(cpuBackend, a, tc.aT, b, tc.bT, m, n, k, want)
				backend.Gemm(blasBackend, a, tc.aT, b, tc.bT, m, n, k, got)
				assert.InDeltaSlice(t, want, got, 1e-3)
			})
			t.Run(name+"/float64", func(t *testing.T) {
				a, b := randomSlice[float64](rng, m*n), randomSlice[float64](rng, n*k)
				want, got := make([]float64, m*k), make([]float64, m*k)
				backend.Gemm(cpuBackend, a, tc.aT, b, tc.bT, m, n, k, want)
				backend.Gemm(blasBackend, a, tc.aT, b, tc.bT, m, n, k, got)
				assert.InDeltaSlice(t, want, got, 1e-9)
			})
		}
	}
}

func TestGemm_OverwritesOutput(t *testing.T) {
	d := New(Config{Threshold: Never})
	c := []float64{100, 100, 100, 100}
	Gemm(d, []float64{1, 0, 0, 1}, false, []float64{2, 3, 4, 5}, false, 2, 2, 2, c)
	assert.Equal(t, []float64{2, 3, 4, 5}, c)
}

func TestFixedThresholdSkipsCalibration(t *testing.T) {
	slow := &countingBackend{Backend: cpu.New(), delay: time.Second}
	d := New(Config{Threshold: 1000, Accelerated: slow})

	assert.Equal(t, 1000, d.Threshold())
	assert.Zero(t, slow.calls, "calibration must not run with a fixed threshold")

	assert.Equal(t, "cpu", d.Select(9, 10, 10).Name())
	assert.Same(t, slow, d.Select(10, 10, 10))
}

func TestCalibrationNeverAccelerates(t *testing.T) {
	slow := &countingBackend{Backend: cpu.New(), delay: 5 * time.Millisecond}
	d := New(Config{Accelerated: slow, MaxCalibrationSize: 16})

	assert.Equal(t, Never, d.Threshold())
	calls := slow.calls
	require.Positive(t, calls)

	// Calibration happens exactly once.
	assert.Equal(t, Never, d.Threshold())
	assert.Equal(t, calls, slow.calls)
	assert.Equal(t, "cpu", d.Select(1000, 1000, 1000).Name())
}

func TestCalibrationPicksFasterBackend(t *testing.T) {
	slowCPU := &countingBackend{Backend: cpu.New(), delay: 5 * time.Millisecond}
	d := New(Config{CPU: slowCPU, Accelerated: blas.New(), MaxCalibrationSize: 64})

	// The accelerated backend wins at the smallest size tried.
	assert.Equal(t, 8*8*8, d.Threshold())
}

func TestDefault(t *testing.T) {
	custom := New(Config{Threshold: Never})
	prev := SetDefault(custom)
	defer SetDefault(prev)

	assert.Same(t, custom, Default())
}

// countingBackend wraps a backend, counting and delaying float32 calls.
type countingBackend struct {
	backend.Backend
	delay time.Duration
	calls int
}

func (c *countingBackend) Name() string { return "counting" }

func (c *countingBackend) GemmFloat32(a []float32, aT bool, b []float32, bT bool, m, n, k int, out []float32) {
	c.calls++
	time.Sleep(c.delay)
	c.Backend.GemmFloat32(a, aT, b, bT, m, n, k, out)
}

func BenchmarkGemm(b *testing.B) {
	rng := rand.New(rand.NewSource(0))
	for _, size := range []int{16, 64, 256} {
		x := randomSlice[float32](rng, size*size)
		c := make([]float32, size*size)
		for _, be := range []backend.Backend{cpu.New(), blas.New()} {
			b.Run(fmt.Sprintf("%s/%d", be.Name(), size), func(b *testing.B) {
				for i := 0; i < b.N; i++ {
					be.GemmFloat32(x, false, x, false, size, size, size, c)
				}
			})
		}
	}
}
