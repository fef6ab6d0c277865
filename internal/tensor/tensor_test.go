package tensor

import (
	"testing"

	"github.com/gomlx/exceptions"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustFromSlice[T Float](t *testing.T, data []T, shape ...int) *Tensor[T] {
	t.Helper()
	x, err := FromSlice(data, shape...)
	require.NoError(t, err)
	return x
}

func TestFromSlice(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 2, 3)
	assert.Equal(t, Shape{2, 3}, x.Shape())
	assert.Equal(t, 6, x.Size())
	assert.Equal(t, float32(6), x.At(1, 2))

	_, err := FromSlice([]float32{1, 2, 3}, 2, 2)
	require.Error(t, err)
	_, err = FromSlice([]float32{}, 0)
	require.Error(t, err)
}

func TestAliasSharesBuffer(t *testing.T) {
	a := Zeros[float64](2, 2)
	require.True(t, a.IsUnique())

	b := a.Alias()
	assert.Equal(t, a.ID(), b.ID())
	assert.False(t, a.IsUnique())

	b.Set(7, 1, 0)
	assert.Equal(t, 7.0, a.At(1, 0), "writes through an alias are visible")

	c := a.DeepCopy()
	assert.NotEqual(t, a.ID(), c.ID())
	c.Set(-1, 1, 0)
	assert.Equal(t, 7.0, a.At(1, 0), "deep copies are independent")

	b.Release()
	assert.True(t, b.IsEmpty())
	assert.True(t, a.IsUnique())
}

func TestReleaseLastHandle(t *testing.T) {
	a := Ones[float32](3)
	a.Release()
	assert.True(t, a.IsEmpty())
	assert.Panics(t, func() { a.Data() })
}

func TestEmptyTensorPanics(t *testing.T) {
	e := Empty[float32]()
	assert.True(t, e.IsEmpty())
	assert.Equal(t, 0, e.Size())

	err := exceptions.TryCatch[error](func() { Add(e, Ones[float32](2)) })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty tensor")

	assert.Panics(t, func() { Zeros[float32]() })
	assert.Panics(t, func() { Zeros[float32](2, 0) })
}

func TestReshape(t *testing.T) {
	x := mustFromSlice(t, []float64{1, 2, 3, 4, 5, 6}, 2, 3)

	y := x.Reshape(3, -1)
	assert.Equal(t, Shape{3, 2}, y.Shape())
	assert.Equal(t, x.ID(), y.ID())
	y.Set(100, 0, 0)
	assert.Equal(t, 100.0, x.At(0, 0))

	assert.Panics(t, func() { x.Reshape(4, -1) })
	assert.Panics(t, func() { x.Reshape(5) })
}

func TestSlice(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2, 3, 4, 5, 6}, 3, 2)
	rows := x.Slice(1, 3)
	assert.Equal(t, Shape{2, 2}, rows.Shape())
	assert.Equal(t, []float32{3, 4, 5, 6}, rows.Data())

	rows.Set(-3, 0, 0)
	assert.Equal(t, float32(-3), x.At(1, 0))

	assert.Panics(t, func() { x.Slice(2, 2) })
	assert.Panics(t, func() { x.Slice(0, 4) })
}

func TestCopyFrom(t *testing.T) {
	dst := Zeros[float64](2, 2)
	alias := dst.Alias()
	dst.CopyFrom(mustFromSlice(t, []float64{1, 2, 3, 4}, 4))
	assert.Equal(t, []float64{1, 2, 3, 4}, alias.Data())
	assert.Panics(t, func() { dst.CopyFrom(Ones[float64](3)) })
}

func TestIndexOutOfRange(t *testing.T) {
	x := Zeros[float32](2, 3)
	assert.Panics(t, func() { x.At(2, 0) })
	assert.Panics(t, func() { x.At(0) })
}

func TestString(t *testing.T) {
	x := mustFromSlice(t, []float32{1, 2.5}, 2)
	assert.Equal(t, "Tensor(2)[1 2.5]", x.String())
	assert.Equal(t, "Tensor(empty)", Empty[float32]().String())
}
