package graph

import (
	"math"

	"github.com/born-ml/ember/internal/tensor"
)

// Relu is max(0, x).
func Relu[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("relu", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return max(v, 0) })
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(x, g T) T {
				if x > 0 {
					return g
				}
				return 0
			}, x, grad)
		})
}

// LeakyRelu is x for positive x and factor*x otherwise. factor must be in
// [0, 1).
func LeakyRelu[T tensor.Float](x Node[T], factor T) Node[T] {
	return NewUnary("leaky_relu", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return max(v, factor*v) })
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(x, g T) T {
				if x > 0 {
					return g
				}
				return factor * g
			}, x, grad)
		})
}

// Sigmoid is 1 / (1 + e^-x).
func Sigmoid[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("sigmoid", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return T(1 / (1 + math.Exp(-float64(v)))) })
		}),
		func(_, y, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(y, g T) T { return g * y * (1 - y) }, y, grad)
		})
}

// Tanh is the hyperbolic tangent.
func Tanh[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("tanh", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return T(math.Tanh(float64(v))) })
		}),
		func(_, y, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(y, g T) T { return g * (1 - y*y) }, y, grad)
		})
}

// Softmax normalises x over its last axis; see tensor.Softmax.
func Softmax[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("softmax", x,
		pure(tensor.Softmax[T]),
		func(_, y, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			// Per row: dx = y ⊙ (g - <g, y>).
			out := tensor.ZerosLike(y)
			cols := y.Shape().Last()
			yd, gd, od := y.Data(), grad.Data(), out.Data()
			for start := 0; start < len(yd); start += cols {
				var dot T
				for i := start; i < start+cols; i++ {
					dot += gd[i] * yd[i]
				}
				for i := start; i < start+cols; i++ {
					od[i] = yd[i] * (gd[i] - dot)
				}
			}
			return out
		})
}
