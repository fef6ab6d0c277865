package tensor

import (
	"math"

	"github.com/born-ml/ember/internal/parallel"
	"github.com/gomlx/exceptions"
)

// Binary elementwise operations broadcast cyclically: the flat size of the
// smaller operand must divide the flat size of the larger, and the smaller
// one is repeated over the larger. For shapes such as (n, m) and (m) or
// (1, m) this is the usual trailing broadcast. The result takes the shape
// of the larger operand (of lhs when the sizes are equal).

func broadcastSizes(op string, lhs, rhs Shape) Shape {
	ls, rs := lhs.NumElements(), rhs.NumElements()
	if ls >= rs {
		if ls%rs != 0 {
			exceptions.Panicf("%s: cannot broadcast shapes %v and %v (%d is not a multiple of %d)", op, lhs, rhs, ls, rs)
		}
		return lhs
	}
	if rs%ls != 0 {
		exceptions.Panicf("%s: cannot broadcast shapes %v and %v (%d is not a multiple of %d)", op, lhs, rhs, rs, ls)
	}
	return rhs
}

func binary[T Float](op string, lhs, rhs *Tensor[T], f func(x, y T) T) *Tensor[T] {
	lhs.mustNotEmpty(op)
	rhs.mustNotEmpty(op)
	shape := broadcastSizes(op, lhs.shape, rhs.shape).Clone()
	ld, rd := lhs.Data(), rhs.Data()
	out := make([]T, shape.NumElements())
	if len(ld) == len(rd) {
		parallel.ForRange(len(out), func(start, end int) {
			for i := start; i < end; i++ {
				out[i] = f(ld[i], rd[i])
			}
		}, parallel.Default())
		return wrap(shape, out)
	}
	ls, rs := len(ld), len(rd)
	parallel.ForRange(len(out), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = f(ld[i%ls], rd[i%rs])
		}
	}, parallel.Default())
	return wrap(shape, out)
}

// Add returns lhs + rhs, broadcasting the smaller operand.
func Add[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return binary("Add", lhs, rhs, func(x, y T) T { return x + y })
}

// Sub returns lhs - rhs, broadcasting the smaller operand.
func Sub[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return binary("Sub", lhs, rhs, func(x, y T) T { return x - y })
}

// Minus is Sub under the name the graph operators use.
func Minus[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return binary("Minus", lhs, rhs, func(x, y T) T { return x - y })
}

// ElementwiseMultiply returns the Hadamard product lhs ⊙ rhs.
func ElementwiseMultiply[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return binary("ElementwiseMultiply", lhs, rhs, func(x, y T) T { return x * y })
}

// ElementwiseDivide returns lhs / rhs elementwise.
func ElementwiseDivide[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return binary("ElementwiseDivide", lhs, rhs, func(x, y T) T { return x / y })
}

// Map returns a new tensor with f applied to every element.
func Map[T Float](t *Tensor[T], f func(T) T) *Tensor[T] {
	t.mustNotEmpty("Map")
	in := t.Data()
	out := make([]T, len(in))
	parallel.ForRange(len(in), func(start, end int) {
		for i := start; i < end; i++ {
			out[i] = f(in[i])
		}
	}, parallel.Default())
	return wrap(t.shape.Clone(), out)
}

// Negative returns -t.
func Negative[T Float](t *Tensor[T]) *Tensor[T] {
	return Map(t, func(x T) T { return -x })
}

// Scale returns s*t.
func Scale[T Float](t *Tensor[T], s T) *Tensor[T] {
	return Map(t, func(x T) T { return s * x })
}

// AddScalar returns t + s.
func AddScalar[T Float](t *Tensor[T], s T) *Tensor[T] {
	return Map(t, func(x T) T { return x + s })
}

// Clip returns t with every element clamped to [lo, hi].
func Clip[T Float](t *Tensor[T], lo, hi T) *Tensor[T] {
	if lo > hi {
		exceptions.Panicf("Clip: lower bound %v above upper bound %v", lo, hi)
	}
	return Map(t, func(x T) T { return min(max(x, lo), hi) })
}

// Sqrt returns the square root of t elementwise.
func Sqrt[T Float](t *Tensor[T]) *Tensor[T] {
	return Map(t, func(x T) T { return T(math.Sqrt(float64(x))) })
}

// Exp returns e^t elementwise.
func Exp[T Float](t *Tensor[T]) *Tensor[T] {
	return Map(t, func(x T) T { return T(math.Exp(float64(x))) })
}

// Log returns the natural logarithm of t elementwise.
func Log[T Float](t *Tensor[T]) *Tensor[T] {
	return Map(t, func(x T) T { return T(math.Log(float64(x))) })
}

// inPlace applies f(t[i], other[i % len(other)]) into t.
func (t *Tensor[T]) inPlace(op string, other *Tensor[T], f func(x, y T) T) *Tensor[T] {
	t.mustNotEmpty(op)
	other.mustNotEmpty(op)
	dst, src := t.Data(), other.Data()
	if len(dst)%len(src) != 0 {
		exceptions.Panicf("%s: cannot broadcast shape %v into %v", op, other.shape, t.shape)
	}
	n := len(src)
	for i := range dst {
		dst[i] = f(dst[i], src[i%n])
	}
	return t
}

// AddInPlace adds other into t (other broadcast cyclically) and returns t.
func (t *Tensor[T]) AddInPlace(other *Tensor[T]) *Tensor[T] {
	return t.inPlace("AddInPlace", other, func(x, y T) T { return x + y })
}

// Apply replaces every element x of t with f(x) and returns t.
func (t *Tensor[T]) Apply(f func(T) T) *Tensor[T] {
	data := t.Data()
	for i, x := range data {
		data[i] = f(x)
	}
	return t
}

// ScaleInPlace multiplies t by s and returns t.
func (t *Tensor[T]) ScaleInPlace(s T) *Tensor[T] {
	return t.Apply(func(x T) T { return s * x })
}

// HasNaN reports whether any element is NaN.
func HasNaN[T Float](t *Tensor[T]) bool {
	for _, x := range t.Data() {
		if math.IsNaN(float64(x)) {
			return true
		}
	}
	return false
}

// Equal reports whether a and b have the same shape and identical values.
func Equal[T Float](a, b *Tensor[T]) bool {
	return AllClose(a, b, 0)
}

// AllClose reports whether a and b have the same shape and every pair of
// elements differs by at most tol.
func AllClose[T Float](a, b *Tensor[T], tol float64) bool {
	if a.IsEmpty() || b.IsEmpty() {
		return a.IsEmpty() && b.IsEmpty()
	}
	if !a.shape.Equal(b.shape) {
		return false
	}
	bd := b.Data()
	for i, x := range a.Data() {
		if math.Abs(float64(x)-float64(bd[i])) > tol {
			return false
		}
	}
	return true
}
