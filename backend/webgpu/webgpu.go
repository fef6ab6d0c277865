// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package webgpu provides a GPU matrix-multiply backend through WebGPU.
//
// The compute shader runs float32 products; float64 products fall back to
// the CPU kernel. On platforms without a WebGPU runtime New returns
// ErrUnavailable.
//
// Example:
//
//	import (
//	    "github.com/born-ml/ember/backend"
//	    "github.com/born-ml/ember/backend/webgpu"
//	)
//
//	func main() {
//	    gpu, err := webgpu.New()
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer gpu.Release()
//
//	    backend.SetDefault(backend.NewDispatcher(backend.Config{Accelerated: gpu}))
//	}
package webgpu

import (
	"github.com/born-ml/ember/backend"
	internalwebgpu "github.com/born-ml/ember/internal/backend/webgpu"
)

// Backend is the WebGPU implementation of backend.Backend.
type Backend = internalwebgpu.Backend

// Compile-time check that Backend implements backend.Backend.
var _ backend.Backend = (*Backend)(nil)

// ErrUnavailable is returned by New when WebGPU cannot be used.
var ErrUnavailable = internalwebgpu.ErrUnavailable

// New initialises a WebGPU device. Call Release when done to free GPU
// resources.
func New() (*Backend, error) {
	return internalwebgpu.New()
}

// IsAvailable checks whether a WebGPU adapter and device can be created.
//
// Example:
//
//	cfg := backend.Config{}
//	if webgpu.IsAvailable() {
//	    gpu, _ := webgpu.New()
//	    cfg.Accelerated = gpu
//	}
func IsAvailable() bool {
	gpu, err := internalwebgpu.New()
	if err != nil {
		return false
	}
	gpu.Release()
	return true
}
