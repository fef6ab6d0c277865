package tensor

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddBroadcast(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	b := mustFromSlice(t, []float32{10, 20, 30}, 3)

	got := Add(x, b)
	assert.Equal(t, Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Data())

	// The smaller operand may come first.
	got = Add(b, x)
	assert.Equal(t, Shape{2, 3}, got.Shape())
	assert.Equal(t, []float32{11, 22, 33, 14, 25, 36}, got.Data())

	// A shape {1} scalar broadcasts over anything.
	got = Sub(x, Scalar[float32](1))
	assert.Equal(t, []float32{0, 1, 2, 3, 4, 5}, got.Data())
}

func TestAddIncompatiblePanics(t *testing.T) {
	x := Ones[float64](2, 3)
	assert.Panics(t, func() { Add(x, Ones[float64](4)) })
	assert.Panics(t, func() { ElementwiseMultiply(Ones[float64](5), x) })
}

func TestAddMinusRoundTrip(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	for _, shapes := range [][2][]int{
		{{4, 5}, {4, 5}},
		{{4, 5}, {5}},
		{{2, 3, 4}, {1, 4}},
		{{6}, {1}},
	} {
		a := Randn[float64](rng, 0, 1, shapes[0]...)
		b := Randn[float64](rng, 0, 1, shapes[1]...)
		assert.True(t, AllClose(Minus(Add(a, b), b), a, 1e-12), "shapes %v", shapes)
	}
}

func TestElementwise(t *testing.T) {
	x := mustFromSlice(t, []float64{1, -2, 3, -4}, 2, 2)
	y := mustFromSlice(t, []float64{2, 4}, 2)

	assert.Equal(t, []float64{2, -8, 6, -16}, ElementwiseMultiply(x, y).Data())
	assert.Equal(t, []float64{0.5, -0.5, 1.5, -1}, ElementwiseDivide(x, y).Data())
	assert.Equal(t, []float64{-1, 2, -3, 4}, Negative(x).Data())
	assert.Equal(t, []float64{2, -4, 6, -8}, Scale(x, 2).Data())
	assert.Equal(t, []float64{1, -1, 1, -1}, Clip(x, -1, 1).Data())
	assert.Equal(t, []float64{1, 4, 9, 16}, Map(x, func(v float64) float64 { return v * v }).Data())
}

func TestInPlace(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2, 3, 4}, 2, 2)
	alias := x.Alias()
	x.AddInPlace(mustFromSlice(t, []float32{1, 1}, 2)).ScaleInPlace(2)
	assert.Equal(t, []float32{4, 6, 8, 10}, alias.Data())
	assert.Panics(t, func() { x.AddInPlace(Ones[float32](3)) })
}

func TestHasNaN(t *testing.T) {
	x := Zeros[float64](3)
	assert.False(t, HasNaN(x))
	x.Set(math.NaN(), 1)
	assert.True(t, HasNaN(x))
}

func TestReduce(t *testing.T) {
	x := mustFromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	s := Sum(x, 0, false)
	assert.Equal(t, Shape{3}, s.Shape())
	assert.Equal(t, []float64{5, 7, 9}, s.Data())

	s = Sum(x, 1, true)
	assert.Equal(t, Shape{2, 1}, s.Shape())
	assert.Equal(t, []float64{6, 15}, s.Data())

	s = Max(x, -1, false)
	assert.Equal(t, Shape{2}, s.Shape())
	assert.Equal(t, []float64{3, 6}, s.Data())

	assert.Equal(t, []float64{1, 2, 3}, Min(x, 0, false).Data())
	assert.Equal(t, []float64{2, 5}, Mean(x, 1, false).Data())

	// A rank-1 tensor reduces to shape {1}.
	assert.Equal(t, Shape{1}, Sum(mustFromSlice(t, []float64{1, 2}, 2), 0, false).Shape())

	assert.Equal(t, 21.0, ReduceSum(x).Item())
	assert.Equal(t, 3.5, ReduceMean(x).Item())

	assert.Panics(t, func() { Sum(x, 2, false) })
	assert.Panics(t, func() { Sum(x, -3, false) })
}

func TestReduceThreeD(t *testing.T) {
	x := Zeros[float32](2, 3, 4)
	for i := range x.Data() {
		x.Data()[i] = float32(i)
	}
	s := Sum(x, 1, false)
	require.Equal(t, Shape{2, 4}, s.Shape())
	// s[0,0] = x[0,0,0] + x[0,1,0] + x[0,2,0] = 0 + 4 + 8.
	assert.Equal(t, float32(12), s.At(0, 0))
	// s[1,3] = 15 + 19 + 23.
	assert.Equal(t, float32(57), s.At(1, 3))
}

func TestSoftmaxLargeInputs(t *testing.T) {
	x := mustFromSlice(t, []float32{1000, 1001, 1002, -1e4, 0, 1e4}, 2, 3)
	sm := Softmax(x)
	require.False(t, HasNaN(sm))
	row := Sum(sm, -1, false)
	assert.InDeltaSlice(t, []float32{1, 1}, row.Data(), 1e-5)
	assert.Greater(t, sm.At(0, 2), sm.At(0, 1))
	assert.InDelta(t, 1, sm.At(1, 2), 1e-6)
}

func TestArgMax(t *testing.T) {
	x := mustFromSlice(t, []float64{0.1, 0.7, 0.2, 0.9, 0.05, 0.05}, 2, 3)
	assert.Equal(t, []int{1, 0}, ArgMax(x))
}

func TestMultiply(t *testing.T) {
	a := mustFromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)
	b := mustFromSlice(t, []float64{7, 8, 9, 10, 11, 12}, 3, 2)

	c := Multiply(a, b)
	assert.Equal(t, Shape{2, 2}, c.Shape())
	assert.Equal(t, []float64{58, 64, 139, 154}, c.Data())

	// Rank-1 lhs is a row vector, rank-1 rhs a column vector.
	row := Multiply(mustFromSlice(t, []float64{1, 1, 1}, 3), b)
	assert.Equal(t, Shape{1, 2}, row.Shape())
	assert.Equal(t, []float64{27, 30}, row.Data())
	col := Multiply(a, mustFromSlice(t, []float64{1, 0, 1}, 3))
	assert.Equal(t, Shape{2, 1}, col.Shape())
	assert.Equal(t, []float64{4, 10}, col.Data())

	// Transposed operands.
	assert.True(t, Equal(MatMul(a, false, a, true), Multiply(a, Transpose(a))))
	assert.True(t, Equal(MatMul(b, true, b, false), Multiply(Transpose(b), b)))

	assert.Panics(t, func() { Multiply(a, a) })
	assert.Panics(t, func() { Multiply(Ones[float64](2, 2, 2), a) })
}

func TestTranspose(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	tr := Transpose(x)
	assert.Equal(t, Shape{3, 2}, tr.Shape())
	assert.Equal(t, []float32{1, 4, 2, 5, 3, 6}, tr.Data())
	assert.Panics(t, func() { Transpose(Ones[float32](3)) })
}

func TestConcatenateSplit(t *testing.T) {
	a := mustFromSlice(t, []float32{1, 2, 3, 4}, 2, 2)
	b := mustFromSlice(t, []float32{5, 6}, 2, 1)
	c := Concatenate(a, b)
	assert.Equal(t, Shape{2, 3}, c.Shape())
	assert.Equal(t, []float32{1, 2, 5, 3, 4, 6}, c.Data())

	l, r := SplitLast(c, 2)
	assert.True(t, Equal(l, a))
	assert.True(t, Equal(r, b))

	assert.Panics(t, func() { Concatenate(a, Ones[float32](3, 1)) })
}

func TestGlorotUniformBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(0))
	w := GlorotUniform[float64](rng, 10, 20)
	limit := math.Sqrt(6.0 / 30)
	for _, v := range w.Data() {
		assert.LessOrEqual(t, math.Abs(v), limit)
	}
}
