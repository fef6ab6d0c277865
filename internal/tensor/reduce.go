package tensor

import (
	"math"
)

// SoftmaxEpsilon is added to the denominator of Softmax.
const SoftmaxEpsilon = 1e-8

// Reduce folds t along axis with combine, starting every fold from init.
//
// With keepDims the axis is kept with extent 1; otherwise it is removed
// (a rank-1 input then reduces to shape {1}). Negative axes count from the
// end; out-of-range axes panic.
func Reduce[T Float](t *Tensor[T], axis int, init T, combine func(acc, x T) T, keepDims bool) *Tensor[T] {
	t.mustNotEmpty("Reduce")
	axis = normalizeAxis("Reduce", axis, t.Rank())

	outer := 1
	for _, d := range t.shape[:axis] {
		outer *= d
	}
	n := t.shape[axis]
	inner := t.Size() / (outer * n)

	in := t.Data()
	out := make([]T, outer*inner)
	for o := 0; o < outer; o++ {
		row := out[o*inner : (o+1)*inner]
		for i := range row {
			row[i] = init
		}
		for j := 0; j < n; j++ {
			src := in[(o*n+j)*inner : (o*n+j+1)*inner]
			for i, x := range src {
				row[i] = combine(row[i], x)
			}
		}
	}
	return wrap(reducedShape(t.shape, axis, keepDims), out)
}

func reducedShape(s Shape, axis int, keepDims bool) Shape {
	if keepDims {
		out := s.Clone()
		out[axis] = 1
		return out
	}
	if len(s) == 1 {
		return Shape{1}
	}
	out := make(Shape, 0, len(s)-1)
	out = append(out, s[:axis]...)
	return append(out, s[axis+1:]...)
}

// Sum adds up the elements along axis.
func Sum[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return Reduce(t, axis, 0, func(acc, x T) T { return acc + x }, keepDims)
}

// Max takes the maximum along axis.
func Max[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return Reduce(t, axis, T(math.Inf(-1)), func(acc, x T) T { return max(acc, x) }, keepDims)
}

// Min takes the minimum along axis.
func Min[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	return Reduce(t, axis, T(math.Inf(1)), func(acc, x T) T { return min(acc, x) }, keepDims)
}

// Mean averages along axis.
func Mean[T Float](t *Tensor[T], axis int, keepDims bool) *Tensor[T] {
	s := Sum(t, axis, keepDims)
	n := t.shape[normalizeAxis("Mean", axis, t.Rank())]
	return s.ScaleInPlace(1 / T(n))
}

// ReduceSum adds up all elements into a shape {1} tensor.
func ReduceSum[T Float](t *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("ReduceSum")
	var acc T
	for _, x := range t.Data() {
		acc += x
	}
	return Scalar(acc)
}

// ReduceMean averages all elements into a shape {1} tensor.
func ReduceMean[T Float](t *Tensor[T]) *Tensor[T] {
	s := ReduceSum(t)
	s.Data()[0] /= T(t.Size())
	return s
}

// Softmax normalises every row over the last axis: the row maximum is
// subtracted before exponentiating, and each row is divided by its sum
// plus SoftmaxEpsilon.
func Softmax[T Float](t *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("Softmax")
	out := t.DeepCopy()
	cols := t.shape.Last()
	data := out.Data()
	for r := 0; r < len(data)/cols; r++ {
		row := data[r*cols : (r+1)*cols]
		mx := row[0]
		for _, x := range row[1:] {
			mx = max(mx, x)
		}
		var sum float64
		for i, x := range row {
			e := math.Exp(float64(x - mx))
			row[i] = T(e)
			sum += e
		}
		inv := 1 / (sum + SoftmaxEpsilon)
		for i := range row {
			row[i] = T(float64(row[i]) * inv)
		}
	}
	return out
}

// ArgMax returns, for every row over the last axis, the index of its
// largest element.
func ArgMax[T Float](t *Tensor[T]) []int {
	t.mustNotEmpty("ArgMax")
	cols := t.shape.Last()
	data := t.Data()
	idx := make([]int, len(data)/cols)
	for r := range idx {
		row := data[r*cols : (r+1)*cols]
		best := 0
		for i, x := range row {
			if x > row[best] {
				best = i
			}
		}
		idx[r] = best
	}
	return idx
}
