// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cpu provides the pure Go matrix-multiply backend.
//
// # Overview
//
// The kernel is a cache-friendly triple loop split by rows across
// goroutines. Small products run on the calling goroutine. It needs no CGO
// and supports float32 and float64 with either operand transposed.
//
// It is the dispatcher's fallback and the reference other backends are
// tested against.
//
// # Thread Safety
//
// A Backend holds no mutable state and is safe for concurrent use.
package cpu
