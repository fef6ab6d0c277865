//go:build !windows

package webgpu

import (
	"github.com/born-ml/ember/internal/backend/cpu"
)

// Backend is unavailable on this platform; see New.
type Backend struct {
	fallback *cpu.Backend
}

// New always returns ErrUnavailable outside windows.
func New() (*Backend, error) {
	return nil, ErrUnavailable
}

// Name implements backend.Backend.
func (*Backend) Name() string { return "webgpu" }

// GemmFloat32 implements backend.Backend with the CPU kernel.
func (b *Backend) GemmFloat32(a []float32, aT bool, bm []float32, bT bool, m, n, k int, c []float32) {
	b.fallback.GemmFloat32(a, aT, bm, bT, m, n, k, c)
}

// GemmFloat64 implements backend.Backend with the CPU kernel.
func (b *Backend) GemmFloat64(a []float64, aT bool, bm []float64, bT bool, m, n, k int, c []float64) {
	b.fallback.GemmFloat64(a, aT, bm, bT, m, n, k, c)
}

// Release is a no-op outside windows.
func (*Backend) Release() {}
