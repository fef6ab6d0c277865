// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package tensor provides the dense N-dimensional arrays of the ember
// engine.
//
// # Overview
//
// A Tensor[T] holds float32 or float64 values in row-major order behind a
// reference-counted buffer:
//   - Alias returns another handle on the same buffer; writes through one
//     handle are visible through every alias
//   - DeepCopy returns independent storage
//   - Reshape and Slice are views that share the buffer
//
// # Basic Usage
//
//	import "github.com/born-ml/ember/tensor"
//
//	func main() {
//	    x, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    b := tensor.Ones[float32](3)
//	    y := tensor.Add(x, b)                 // b is repeated over the rows
//	    z := tensor.Multiply(y, tensor.Transpose(x))
//	    fmt.Println(z)                         // Tensor(2, 2)[...]
//	}
//
// # Broadcasting
//
// Elementwise operations broadcast cyclically: the flat size of the smaller
// operand must divide the flat size of the larger one, and the smaller one
// is repeated. For (n, m) against (m) or (1, m) this is the familiar
// trailing broadcast.
//
// # Errors
//
// Shape mismatches, empty tensors and out-of-range axes panic with an
// error value. Use exceptions.TryCatch from github.com/gomlx/exceptions to
// turn them into errors. Parsing functions (FromSlice, Read) return errors.
//
// # Matrix products
//
// Multiply and MatMul go through the process-wide GEMM dispatcher of
// package backend, which picks the CPU kernel or the accelerated one by
// operation count.
package tensor
