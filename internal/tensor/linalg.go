package tensor

import (
	"github.com/born-ml/ember/internal/gemm"
	"github.com/gomlx/exceptions"
)

// asMatrix views a rank-1 or rank-2 tensor as a matrix. A rank-1 tensor is
// a row vector when row is true and a column vector otherwise.
func asMatrix[T Float](op string, t *Tensor[T], row bool) (rows, cols int) {
	t.mustNotEmpty(op)
	switch t.Rank() {
	case 1:
		if row {
			return 1, t.shape[0]
		}
		return t.shape[0], 1
	case 2:
		return t.shape[0], t.shape[1]
	}
	exceptions.Panicf("%s: expected a rank 1 or 2 tensor, got shape %v", op, t.shape)
	return 0, 0
}

// Multiply returns the matrix product lhs·rhs. A rank-1 lhs is treated as
// a row vector and a rank-1 rhs as a column vector; the result is always
// rank 2.
func Multiply[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	return MatMul(lhs, false, rhs, false)
}

// MatMul returns op(lhs)·op(rhs), where op transposes its argument when the
// matching flag is set. The product runs on the default gemm dispatcher.
func MatMul[T Float](lhs *Tensor[T], lhsT bool, rhs *Tensor[T], rhsT bool) *Tensor[T] {
	lr, lc := asMatrix("Multiply", lhs, true)
	rr, rc := asMatrix("Multiply", rhs, false)
	m, n := lr, lc
	if lhsT {
		m, n = lc, lr
	}
	n2, k := rr, rc
	if rhsT {
		n2, k = rc, rr
	}
	if n != n2 {
		exceptions.Panicf("Multiply: inner dimensions differ, lhs %v (transposed=%v) and rhs %v (transposed=%v)",
			lhs.shape, lhsT, rhs.shape, rhsT)
	}
	out := Zeros[T](m, k)
	gemm.Gemm(gemm.Default(), lhs.Data(), lhsT, rhs.Data(), rhsT, m, n, k, out.Data())
	return out
}

// Transpose returns the transpose of a rank-2 tensor.
func Transpose[T Float](t *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("Transpose")
	if t.Rank() != 2 {
		exceptions.Panicf("Transpose: expected a rank 2 tensor, got shape %v", t.shape)
	}
	rows, cols := t.shape[0], t.shape[1]
	in := t.Data()
	out := make([]T, len(in))
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out[c*rows+r] = in[r*cols+c]
		}
	}
	return wrap(Shape{cols, rows}, out)
}

// Concatenate joins lhs and rhs along the last axis. All other extents
// must agree.
func Concatenate[T Float](lhs, rhs *Tensor[T]) *Tensor[T] {
	lhs.mustNotEmpty("Concatenate")
	rhs.mustNotEmpty("Concatenate")
	ls, rs := lhs.shape, rhs.shape
	if len(ls) != len(rs) || !ls[:len(ls)-1].Equal(rs[:len(rs)-1]) {
		exceptions.Panicf("Concatenate: shapes %v and %v differ outside the last axis", ls, rs)
	}
	lc, rc := ls.Last(), rs.Last()
	rows := lhs.Size() / lc
	ld, rd := lhs.Data(), rhs.Data()
	out := make([]T, 0, lhs.Size()+rhs.Size())
	for r := 0; r < rows; r++ {
		out = append(out, ld[r*lc:(r+1)*lc]...)
		out = append(out, rd[r*rc:(r+1)*rc]...)
	}
	shape := ls.Clone()
	shape[len(shape)-1] = lc + rc
	return wrap(shape, out)
}

// SplitLast is the inverse of Concatenate: it splits t along the last axis
// into a part with first columns and the remainder.
func SplitLast[T Float](t *Tensor[T], first int) (lhs, rhs *Tensor[T]) {
	t.mustNotEmpty("SplitLast")
	cols := t.shape.Last()
	if first <= 0 || first >= cols {
		exceptions.Panicf("SplitLast: split point %d out of range for shape %v", first, t.shape)
	}
	rows := t.Size() / cols
	in := t.Data()
	ld := make([]T, 0, rows*first)
	rd := make([]T, 0, rows*(cols-first))
	for r := 0; r < rows; r++ {
		ld = append(ld, in[r*cols:r*cols+first]...)
		rd = append(rd, in[r*cols+first:(r+1)*cols]...)
	}
	lshape, rshape := t.shape.Clone(), t.shape.Clone()
	lshape[len(lshape)-1] = first
	rshape[len(rshape)-1] = cols - first
	return wrap(lshape, ld), wrap(rshape, rd)
}
