// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor

import (
	"bufio"
	"io"
	"math/rand"

	"github.com/born-ml/ember/internal/tensor"
)

// Float is the element type constraint: float32 or float64.
type Float = tensor.Float

// Shape lists the extents of a tensor.
// Example: Shape{2, 3, 4} is a 2×3×4 tensor.
type Shape = tensor.Shape

// Tensor is a shaped, reference-counted array of T.
type Tensor[T Float] = tensor.Tensor[T]

// SoftmaxEpsilon is added to the denominator of Softmax.
const SoftmaxEpsilon = tensor.SoftmaxEpsilon

// Creation functions

// Empty returns the invalid, empty tensor.
func Empty[T Float]() *Tensor[T] { return tensor.Empty[T]() }

// Zeros creates a tensor filled with zeros.
//
// Example:
//
//	x := tensor.Zeros[float32](2, 3)
func Zeros[T Float](shape ...int) *Tensor[T] { return tensor.Zeros[T](shape...) }

// Ones creates a tensor filled with ones.
func Ones[T Float](shape ...int) *Tensor[T] { return tensor.Ones[T](shape...) }

// Full creates a tensor filled with value.
//
// Example:
//
//	x := tensor.Full[float32](3.14, 2, 3)
func Full[T Float](value T, shape ...int) *Tensor[T] { return tensor.Full(value, shape...) }

// Scalar creates a shape {1} tensor holding v.
func Scalar[T Float](v T) *Tensor[T] { return tensor.Scalar(v) }

// ZerosLike creates a zero tensor shaped like t.
func ZerosLike[T Float](t *Tensor[T]) *Tensor[T] { return tensor.ZerosLike(t) }

// OnesLike creates a tensor of ones shaped like t.
func OnesLike[T Float](t *Tensor[T]) *Tensor[T] { return tensor.OnesLike(t) }

// FromSlice creates a tensor holding a copy of data.
//
// Example:
//
//	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
func FromSlice[T Float](data []T, shape ...int) (*Tensor[T], error) {
	return tensor.FromSlice(data, shape...)
}

// Randn draws values from N(mean, stddev²).
func Randn[T Float](rng *rand.Rand, mean, stddev float64, shape ...int) *Tensor[T] {
	return tensor.Randn[T](rng, mean, stddev, shape...)
}

// RandUniform draws values uniformly from [lo, hi).
func RandUniform[T Float](rng *rand.Rand, lo, hi float64, shape ...int) *Tensor[T] {
	return tensor.RandUniform[T](rng, lo, hi, shape...)
}

// GlorotUniform draws weights for a layer with the Glorot/Xavier uniform
// scheme.
func GlorotUniform[T Float](rng *rand.Rand, shape ...int) *Tensor[T] {
	return tensor.GlorotUniform[T](rng, shape...)
}

// Elementwise arithmetic

// Add returns lhs + rhs, broadcasting the smaller operand.
func Add[T Float](lhs, rhs *Tensor[T]) *Tensor[T] { return tensor.Add(lhs, rhs) }

// Sub returns lhs - rhs, broadcasting the smaller operand.
func Sub[T Float](lhs, rhs *Tensor[T]) *Tensor[T] { return tensor.Sub(lhs, rhs) }

// Minus is Sub.
func Minus[T Float](lhs, rhs *Tensor[T]) *Tensor[T] { return tensor.Minus(lhs, rhs) }

// ElementwiseMultiply returns the Hadamard product.
func ElementwiseMultiply[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return tensor.ElementwiseMultiply(lhs, rhs)
}

// ElementwiseDivide returns lhs / rhs elementwise.
func ElementwiseDivide[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return tensor.ElementwiseDivide(lhs, rhs)
}

// Map returns f applied to every element of t.
func Map[T Float](t *Tensor[T], f func(T) T) *Tensor[T] { return tensor.Map(t, f) }

// Negative returns -t.
func Negative[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Negative(t) }

// Scale returns s*t.
func Scale[T Float](t *Tensor[T], s T) *Tensor[T] { return tensor.Scale(t, s) }

// AddScalar returns t+s.
func AddScalar[T Float](t *Tensor[T], s T) *Tensor[T] { return tensor.AddScalar(t, s) }

// Clip clamps t to [lo, hi].
func Clip[T Float](t *Tensor[T], lo, hi T) *Tensor[T] { return tensor.Clip(t, lo, hi) }

// Sqrt returns the elementwise square root.
func Sqrt[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Sqrt(t) }

// Exp returns e^t elementwise.
func Exp[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Exp(t) }

// Log returns the elementwise natural logarithm.
func Log[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Log(t) }

// HasNaN reports whether any element is NaN.
func HasNaN[T Float](t *Tensor[T]) bool { return tensor.HasNaN(t) }

// Equal reports whether a and b have the same shape and values.
func Equal[T Float](a, b *Tensor[T]) bool { return tensor.Equal(a, b) }

// AllClose reports whether a and b have the same shape and values within
// tol.
func AllClose[T Float](a, b *Tensor[T], tol float64) bool { return tensor.AllClose(a, b, tol) }

// Reductions

// Reduce folds t along axis with combine, starting from init.
func Reduce[T Float](t *Tensor[T], axis int, init T, combine func(acc, x T) T, keepDims bool) *Tensor[T] {
	return tensor.Reduce(t, axis, init, combine, keepDims)
}

// Sum adds up t along axis.
func Sum[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return tensor.Sum(t, axis, keepDims)
}

// Max takes the maximum of t along axis.
func Max[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return tensor.Max(t, axis, keepDims)
}

// Min takes the minimum of t along axis.
func Min[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return tensor.Min(t, axis, keepDims)
}

// Mean averages t along axis.
func Mean[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return tensor.Mean(t, axis, keepDims)
}

// ReduceSum adds up all elements into a shape {1} tensor.
func ReduceSum[T Float](t *Tensor[T]) *Tensor[T] { return tensor.ReduceSum(t) }

// ReduceMean averages all elements into a shape {1} tensor.
func ReduceMean[T Float](t *Tensor[T]) *Tensor[T] { return tensor.ReduceMean(t) }

// Softmax normalises t over its last axis.
func Softmax[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Softmax(t) }

// ArgMax returns the index of the largest element of every row.
func ArgMax[T Float](t *Tensor[T]) []int { return tensor.ArgMax(t) }

// Linear algebra

// Multiply is the matrix product lhs·rhs.
func Multiply[T Float](lhs, rhs *Tensor[T]) *Tensor[T] { return tensor.Multiply(lhs, rhs) }

// MatMul is the matrix product with optionally transposed operands.
func MatMul[T Float](lhs *Tensor[T], lhsT bool, rhs *Tensor[T], rhsT bool) *Tensor[T] {
	return tensor.MatMul(lhs, lhsT, rhs, rhsT)
}

// Transpose transposes a rank-2 tensor.
func Transpose[T Float](t *Tensor[T]) *Tensor[T] { return tensor.Transpose(t) }

// Concatenate joins lhs and rhs along the last axis.
func Concatenate[T Float](lhs, rhs *Tensor[T]) *Tensor[T] { return tensor.Concatenate(lhs, rhs) }

// SplitLast splits t along the last axis after the first extents.
func SplitLast[T Float](t *Tensor[T], first int) (lhs, rhs *Tensor[T]) {
	return tensor.SplitLast(t, first)
}

// Text format

// Write writes t in the flat text format: a line of extents followed by a
// line of values.
func Write[T Float](w io.Writer, t *Tensor[T]) error { return tensor.Write(w, t) }

// Read parses one tensor in the flat text format.
func Read[T Float](r *bufio.Reader) (*Tensor[T], error) { return tensor.Read[T](r) }
