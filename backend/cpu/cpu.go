// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cpu

import (
	"github.com/born-ml/ember/backend"
	internalcpu "github.com/born-ml/ember/internal/backend/cpu"
)

// Backend is the pure Go GEMM backend.
type Backend = internalcpu.Backend

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// New creates a CPU backend using the default parallelism.
//
// Example:
//
//	d := backend.NewDispatcher(backend.Config{CPU: cpu.New(), Threshold: backend.Never})
func New() *Backend {
	return internalcpu.New()
}

// NewWithConfig creates a CPU backend with explicit parallelism.
func NewWithConfig(cfg backend.ParallelConfig) *Backend {
	return internalcpu.NewWithConfig(cfg)
}
