// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package backend exposes the matrix-multiply (GEMM) layer of the ember
// engine.
//
// Every matrix product goes through a Dispatcher. It holds a CPU backend
// and an accelerated one and routes each product by its operation count
// m*n*k: at or above the threshold the accelerated backend runs it. Unless
// configured, the threshold is calibrated once, on first use, by timing
// both backends on growing square matrices.
//
// Example:
//
//	gpu, err := webgpu.New()
//	if err == nil {
//	    defer gpu.Release()
//	    backend.SetDefault(backend.NewDispatcher(backend.Config{Accelerated: gpu}))
//	}
//
// The cpu, blas and webgpu subpackages provide the backends.
package backend

import (
	"github.com/born-ml/ember/internal/backend"
	"github.com/born-ml/ember/internal/gemm"
	"github.com/born-ml/ember/internal/parallel"
)

// Float is the element type constraint: float32 or float64.
type Float = backend.Float

// Backend computes C = op(A)·op(B) for both element types.
type Backend = backend.Backend

// Dispatcher routes products between a CPU and an accelerated backend.
type Dispatcher = gemm.Dispatcher

// Config configures a Dispatcher.
type Config = gemm.Config

// Never is a threshold that keeps every product on the CPU backend.
const Never = gemm.Never

// ParallelConfig controls how the CPU kernels split work across
// goroutines.
type ParallelConfig = parallel.Config

// NewDispatcher creates a dispatcher. Zero fields of cfg take their
// defaults: the pure Go CPU backend, the gonum BLAS backend as the
// accelerated one, and a calibrated threshold.
func NewDispatcher(cfg Config) *Dispatcher { return gemm.New(cfg) }

// Default returns the process-wide dispatcher used by tensor.Multiply.
func Default() *Dispatcher { return gemm.Default() }

// SetDefault replaces the process-wide dispatcher and returns the previous
// one.
func SetDefault(d *Dispatcher) *Dispatcher { return gemm.SetDefault(d) }

// Gemm computes c[m×k] = op(a)[m×n] · op(b)[n×k] through d, overwriting c.
// a is stored n×m when aT is set, b is stored k×n when bT is set.
func Gemm[T Float](d *Dispatcher, a []T, aT bool, b []T, bT bool, m, n, k int, c []T) {
	gemm.Gemm(d, a, aT, b, bT, m, n, k, c)
}

// SetParallelism replaces the default parallelism of the CPU kernels and
// elementwise operations, returning the previous setting.
func SetParallelism(cfg ParallelConfig) ParallelConfig { return parallel.SetDefault(cfg) }

// DefaultParallelism returns a configuration using every CPU.
func DefaultParallelism() ParallelConfig { return parallel.DefaultConfig() }
