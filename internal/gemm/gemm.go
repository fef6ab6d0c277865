// Package gemm dispatches general matrix multiplications between the
// portable CPU kernel and an accelerated backend.
//
// Small products stay on the CPU, where the call overhead of the
// accelerated path dominates. The cut-over point is a threshold on m*n*k,
// measured once per Dispatcher the first time it is needed.
package gemm

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/born-ml/ember/internal/backend"
	"github.com/born-ml/ember/internal/backend/blas"
	"github.com/born-ml/ember/internal/backend/cpu"
	"k8s.io/klog/v2"
)

// Never is the threshold of a dispatcher that always stays on the CPU.
const Never = math.MaxInt

// Config controls a Dispatcher. The zero value calibrates against gonum BLAS.
type Config struct {
	// Threshold on m*n*k at and above which the accelerated backend is
	// used. Zero means calibrate at first use.
	Threshold int

	// MaxCalibrationSize caps the square matrix edge tried during
	// calibration. If the accelerated backend never wins up to that
	// size, the threshold becomes Never. Defaults to 512.
	MaxCalibrationSize int

	// Accelerated backend. Defaults to gonum BLAS.
	Accelerated backend.Backend

	// CPU backend. Defaults to cpu.New().
	CPU backend.Backend
}

// Dispatcher routes each GEMM call to one of two backends.
type Dispatcher struct {
	cpu, accel backend.Backend
	maxSize    int

	once      sync.Once
	threshold int
}

// New creates a Dispatcher. Calibration, if any, is deferred to the first
// call of Threshold or Gemm.
func New(cfg Config) *Dispatcher {
	d := &Dispatcher{
		cpu:       cfg.CPU,
		accel:     cfg.Accelerated,
		maxSize:   cfg.MaxCalibrationSize,
		threshold: cfg.Threshold,
	}
	if d.cpu == nil {
		d.cpu = cpu.New()
	}
	if d.accel == nil {
		d.accel = blas.New()
	}
	if d.maxSize <= 0 {
		d.maxSize = 512
	}
	return d
}

// Threshold returns the m*n*k cut-over, calibrating on first use.
func (d *Dispatcher) Threshold() int {
	d.once.Do(func() {
		if d.threshold > 0 {
			klog.V(1).Infof("gemm: fixed threshold %d, accelerated backend %q", d.threshold, d.accel.Name())
			return
		}
		d.threshold = calibrate(d.cpu, d.accel, d.maxSize)
		if d.threshold == Never {
			klog.V(1).Infof("gemm: %q never beat %q up to %d×%d, staying on cpu",
				d.accel.Name(), d.cpu.Name(), d.maxSize, d.maxSize)
		} else {
			klog.V(1).Infof("gemm: calibrated threshold %d (m*n*k), accelerated backend %q", d.threshold, d.accel.Name())
		}
	})
	return d.threshold
}

// Backends returns the CPU and the accelerated backend.
func (d *Dispatcher) Backends() (cpu, accelerated backend.Backend) {
	return d.cpu, d.accel
}

// Select returns the backend used for an m×n by n×k product.
func (d *Dispatcher) Select(m, n, k int) backend.Backend {
	if m*n*k >= d.Threshold() {
		return d.accel
	}
	return d.cpu
}

// Gemm computes C[m×k] = op(A)[m×n] · op(B)[n×k] on the backend selected by d.
// A is stored [m×n] ([n×m] if aT) and B is stored [n×k] ([k×n] if bT).
// C is fully overwritten. Dimension mismatches panic.
func Gemm[T backend.Float](d *Dispatcher, a []T, aT bool, b []T, bT bool, m, n, k int, c []T) {
	backend.Gemm(d.Select(m, n, k), a, aT, b, bT, m, n, k, c)
}

// calibrate times both backends on growing square products and returns the
// m*n*k of the first size where the accelerated backend is faster.
func calibrate(cpuBackend, accel backend.Backend, maxSize int) int {
	rng := rand.New(rand.NewSource(0))
	for size := 8; size <= maxSize; size *= 2 {
		a := make([]float32, size*size)
		b := make([]float32, size*size)
		for i := range a {
			a[i] = rng.Float32()
			b[i] = rng.Float32()
		}
		c := make([]float32, size*size)
		tCPU := timeBest(func() { cpuBackend.GemmFloat32(a, false, b, false, size, size, size, c) })
		tAccel := timeBest(func() { accel.GemmFloat32(a, false, b, false, size, size, size, c) })
		klog.V(2).Infof("gemm: calibrate %d×%d: %s=%s %s=%s", size, size,
			cpuBackend.Name(), tCPU, accel.Name(), tAccel)
		if tAccel < tCPU {
			return size * size * size
		}
	}
	return Never
}

// timeBest returns the fastest of three runs, after one warm-up run.
func timeBest(f func()) time.Duration {
	f()
	best := time.Duration(math.MaxInt64)
	for range 3 {
		start := time.Now()
		f()
		best = min(best, time.Since(start))
	}
	return best
}

var (
	defaultMu         sync.Mutex
	defaultDispatcher *Dispatcher
)

// Default returns the process-wide dispatcher used by tensor.Multiply,
// creating a calibrating one on first call.
func Default() *Dispatcher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultDispatcher == nil {
		defaultDispatcher = New(Config{})
	}
	return defaultDispatcher
}

// SetDefault replaces the process-wide dispatcher and returns the previous one.
func SetDefault(d *Dispatcher) *Dispatcher {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	prev := defaultDispatcher
	defaultDispatcher = d
	return prev
}
