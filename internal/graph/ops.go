package graph

import (
	"math"

	"github.com/born-ml/ember/internal/tensor"
	"github.com/gomlx/exceptions"
)

// zip applies f elementwise over tensors of equal size and returns a new
// tensor shaped like the first one.
func zip[T tensor.Float](f func(x, y T) T, a, b *tensor.Tensor[T]) *tensor.Tensor[T] {
	ad, bd := a.Data(), b.Data()
	if len(ad) != len(bd) {
		exceptions.Panicf("zip: size mismatch, %v vs %v", a.Shape(), b.Shape())
	}
	out := tensor.ZerosLike(a)
	od := out.Data()
	for i := range od {
		od[i] = f(ad[i], bd[i])
	}
	return out
}

// zip3 is zip over three tensors.
func zip3[T tensor.Float](f func(x, y, z T) T, a, b, c *tensor.Tensor[T]) *tensor.Tensor[T] {
	ad, bd, cd := a.Data(), b.Data(), c.Data()
	if len(ad) != len(bd) || len(ad) != len(cd) {
		exceptions.Panicf("zip3: size mismatch, %v, %v and %v", a.Shape(), b.Shape(), c.Shape())
	}
	out := tensor.ZerosLike(a)
	od := out.Data()
	for i := range od {
		od[i] = f(ad[i], bd[i], cd[i])
	}
	return out
}

// Plus adds two nodes, broadcasting the smaller one.
func Plus[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("plus", lhs, rhs,
		pure2(tensor.Add[T]),
		func(l, r, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			return unbroadcast(grad, l.Shape()), unbroadcast(grad, r.Shape())
		})
}

// Minus subtracts rhs from lhs, broadcasting the smaller one.
func Minus[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("minus", lhs, rhs,
		pure2(tensor.Minus[T]),
		func(l, r, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			return unbroadcast(grad, l.Shape()), unbroadcast(tensor.Negative(grad), r.Shape())
		})
}

// Negative negates x.
func Negative[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("negative", x,
		pure(tensor.Negative[T]),
		func(_, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Negative(grad)
		})
}

// Multiply is the matrix product lhs·rhs. A rank-1 lhs is a row vector and
// a rank-1 rhs a column vector.
func Multiply[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("multiply", lhs, rhs,
		pure2(tensor.Multiply[T]),
		func(l, r, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			// dA = dC·Bᵗ, dB = Aᵗ·dC.
			gl := tensor.MatMul(grad, false, r, true)
			gr := tensor.MatMul(l, true, grad, false)
			return gl.Reshape(l.Shape()...), gr.Reshape(r.Shape()...)
		})
}

// ElementwiseMultiply is the Hadamard product, broadcasting the smaller
// operand.
func ElementwiseMultiply[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("elementwise_multiply", lhs, rhs,
		pure2(tensor.ElementwiseMultiply[T]),
		func(l, r, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			return unbroadcast(tensor.ElementwiseMultiply(grad, r), l.Shape()),
				unbroadcast(tensor.ElementwiseMultiply(grad, l), r.Shape())
		})
}

// HadamardProduct is another name for ElementwiseMultiply.
func HadamardProduct[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return ElementwiseMultiply(lhs, rhs)
}

// ElementwiseDivide divides lhs by rhs elementwise, broadcasting the
// smaller operand.
func ElementwiseDivide[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("elementwise_divide", lhs, rhs,
		pure2(tensor.ElementwiseDivide[T]),
		func(l, r, y, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			gl := tensor.ElementwiseDivide(grad, r)
			// d(l/r)/dr = -(l/r)/r = -y/r.
			gr := tensor.Negative(tensor.ElementwiseDivide(tensor.ElementwiseMultiply(grad, y), r))
			return unbroadcast(gl, l.Shape()), unbroadcast(gr, r.Shape())
		})
}

// Log is the natural logarithm.
func Log[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("log", x,
		pure(tensor.Log[T]),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.ElementwiseDivide(grad, x)
		})
}

// Exp is e^x.
func Exp[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("exp", x,
		pure(tensor.Exp[T]),
		func(_, y, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.ElementwiseMultiply(grad, y)
		})
}

// Square is x².
func Square[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("square", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return v * v })
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(x, g T) T { return 2 * x * g }, x, grad)
		})
}

// Abs is |x|. The gradient at 0 is 0.
func Abs[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("abs", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Map(x, func(v T) T { return T(math.Abs(float64(v))) })
		}),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(x, g T) T {
				switch {
				case x > 0:
					return g
				case x < 0:
					return -g
				}
				return 0
			}, x, grad)
		})
}

// Clip clamps x to [lo, hi]. The gradient is zero where x was clamped.
func Clip[T tensor.Float](x Node[T], lo, hi T) Node[T] {
	return NewUnary("clip", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] { return tensor.Clip(x, lo, hi) }),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return zip(func(x, g T) T {
				if x < lo || x > hi {
					return 0
				}
				return g
			}, x, grad)
		})
}

// SumReduce adds up all elements into a shape {1} node.
func SumReduce[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("sum_reduce", x,
		pure(tensor.ReduceSum[T]),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Full(grad.Item(), x.Shape()...)
		})
}

// MeanReduce averages all elements into a shape {1} node.
func MeanReduce[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("mean_reduce", x,
		pure(tensor.ReduceMean[T]),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Full(grad.Item()/T(x.Size()), x.Shape()...)
		})
}

// Reshape changes the shape of x. With includeBatch, shape describes a
// single sample and the leading batch extent is inferred.
func Reshape[T tensor.Float](x Node[T], shape []int, includeBatch bool) Node[T] {
	target := append([]int(nil), shape...)
	if includeBatch {
		target = append([]int{-1}, target...)
	}
	return NewUnary("reshape", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] { return x.Reshape(target...) }),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return grad.Reshape(x.Shape()...)
		})
}

// Flatten reshapes x to (batch, features), keeping the first axis.
func Flatten[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("flatten", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] { return x.Reshape(x.Shape()[0], -1) }),
		func(x, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return grad.Reshape(x.Shape()...)
		})
}

// Identity passes x through.
func Identity[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("identity", x,
		pure(func(x *tensor.Tensor[T]) *tensor.Tensor[T] { return x }),
		func(_, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] { return grad })
}

// Transpose transposes a rank-2 node.
func Transpose[T tensor.Float](x Node[T]) Node[T] {
	return NewUnary("transpose", x,
		pure(tensor.Transpose[T]),
		func(_, _, grad *tensor.Tensor[T]) *tensor.Tensor[T] {
			return tensor.Transpose(grad)
		})
}

// Concatenate joins lhs and rhs along the last axis.
func Concatenate[T tensor.Float](lhs, rhs Node[T]) Node[T] {
	return NewBinary("concatenate", lhs, rhs,
		pure2(tensor.Concatenate[T]),
		func(l, _, _, grad *tensor.Tensor[T]) (*tensor.Tensor[T], *tensor.Tensor[T]) {
			return tensor.SplitLast(grad, l.Shape().Last())
		})
}
