package graph

import (
	"github.com/born-ml/ember/internal/tensor"
)

// unbroadcast reduces grad, the gradient of a broadcast result, to the
// gradient of an operand of the given shape.
//
// When the operand is a trailing broadcast of the result (its shape without
// leading 1s is a suffix of the result shape), the leading inserted axes are
// summed away and then every axis of extent 1 is summed with keepDims.
// Any other cyclic broadcast is undone by folding the flat gradient modulo
// the operand size, which is the exact reverse of the forward repetition.
func unbroadcast[T tensor.Float](grad *tensor.Tensor[T], shape tensor.Shape) *tensor.Tensor[T] {
	switch {
	case grad.Shape().Equal(shape):
		return grad
	case grad.Size() == shape.NumElements():
		return grad.Reshape(shape...)
	case trailingBroadcast(shape, grad.Shape()):
		r := grad
		for r.Rank() > len(shape) {
			r = tensor.Sum(r, 0, false)
		}
		if lead := len(shape) - r.Rank(); lead > 0 {
			// The operand carries extra leading 1s; line the axes up.
			padded := make([]int, lead, len(shape))
			for i := range padded {
				padded[i] = 1
			}
			r = r.Reshape(append(padded, r.Shape()...)...)
		}
		for axis, d := range shape {
			if d == 1 && r.Shape()[axis] != 1 {
				r = tensor.Sum(r, axis, true)
			}
		}
		return r
	}
	return fold(grad, shape)
}

// trailingBroadcast reports whether small, stripped of leading 1s, is a
// suffix of big. Exactly then numpy-style and cyclic broadcasting agree.
func trailingBroadcast(small, big tensor.Shape) bool {
	for len(small) > 0 && small[0] == 1 {
		small = small[1:]
	}
	if len(small) > len(big) {
		return false
	}
	return small.Equal(big[len(big)-len(small):])
}

func fold[T tensor.Float](grad *tensor.Tensor[T], shape tensor.Shape) *tensor.Tensor[T] {
	out := tensor.Zeros[T](shape...)
	od := out.Data()
	n := len(od)
	for i, g := range grad.Data() {
		od[i%n] += g
	}
	return out
}
