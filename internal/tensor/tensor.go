// Package tensor implements the dense N-dimensional arrays the ember engine
// computes on.
//
// A Tensor is a handle onto a reference-counted buffer. Alias returns a
// second handle on the same buffer, so a write through either is visible
// through both; DeepCopy returns independent storage. Elements are stored
// row-major. Tensors are float32 or float64 only.
//
// Contract violations (shape mismatches, empty tensors, out-of-range axes)
// panic through github.com/gomlx/exceptions; callers that want an error
// can wrap the call in exceptions.TryCatch.
package tensor

import (
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/born-ml/ember/internal/backend"
	"github.com/gomlx/exceptions"
)

// Float is the element type constraint: float32 or float64.
type Float = backend.Float

var lastID atomic.Int64

// NewID returns a fresh process-wide identifier. Tensors and graph nodes
// draw from the same sequence.
func NewID() int {
	return int(lastID.Add(1))
}

// buffer is the reference-counted storage shared by aliases.
type buffer[T Float] struct {
	data     []T
	refCount atomic.Int32
}

func newBuffer[T Float](data []T) *buffer[T] {
	b := &buffer[T]{data: data}
	b.refCount.Store(1)
	return b
}

func (b *buffer[T]) addRef() { b.refCount.Add(1) }

func (b *buffer[T]) release() {
	if b.refCount.Add(-1) == 0 {
		b.data = nil
	}
}

func (b *buffer[T]) isUnique() bool { return b.refCount.Load() == 1 }

// Tensor is a shaped view onto a shared buffer.
type Tensor[T Float] struct {
	id     int
	shape  Shape
	buf    *buffer[T]
	offset int
}

// Empty returns the invalid, empty tensor. Every data access on it panics.
func Empty[T Float]() *Tensor[T] {
	return &Tensor[T]{}
}

// wrap builds a tensor owning data. len(data) must match shape.
func wrap[T Float](shape Shape, data []T) *Tensor[T] {
	return &Tensor[T]{id: NewID(), shape: shape, buf: newBuffer(data)}
}

// ID returns the identifier of the tensor. Aliases and reshaped views share
// the identifier of their source; DeepCopy draws a new one.
func (t *Tensor[T]) ID() int { return t.id }

// Shape returns the extents. The returned slice must not be modified.
func (t *Tensor[T]) Shape() Shape { return t.shape }

// Rank returns the number of axes.
func (t *Tensor[T]) Rank() int { return len(t.shape) }

// Size returns the number of elements, 0 for the empty tensor.
func (t *Tensor[T]) Size() int { return t.shape.NumElements() }

// IsEmpty reports whether t is the invalid, empty tensor (including a nil
// handle and a released one).
func (t *Tensor[T]) IsEmpty() bool {
	return t == nil || t.buf == nil || len(t.shape) == 0 || t.buf.data == nil
}

// mustNotEmpty panics with the operation name if t is empty.
func (t *Tensor[T]) mustNotEmpty(op string) {
	if t.IsEmpty() {
		exceptions.Panicf("%s: empty tensor", op)
	}
}

// Data returns the elements of t as a flat row-major slice. The slice
// aliases the buffer: writes through it are visible to every alias of t.
func (t *Tensor[T]) Data() []T {
	t.mustNotEmpty("Data")
	return t.buf.data[t.offset : t.offset+t.Size()]
}

// Alias returns a new handle on the same buffer and identifier.
func (t *Tensor[T]) Alias() *Tensor[T] {
	t.mustNotEmpty("Alias")
	t.buf.addRef()
	return &Tensor[T]{id: t.id, shape: t.shape.Clone(), buf: t.buf, offset: t.offset}
}

// IsUnique reports whether t is the only live handle on its buffer.
func (t *Tensor[T]) IsUnique() bool {
	return !t.IsEmpty() && t.buf.isUnique()
}

// Release drops the reference held by t and turns t into the empty tensor.
// The buffer is freed once its last handle is released.
func (t *Tensor[T]) Release() {
	if t == nil || t.buf == nil {
		return
	}
	t.buf.release()
	t.buf = nil
	t.shape = nil
	t.offset = 0
}

// DeepCopy returns a tensor with the same shape and values but its own
// storage and identifier.
func (t *Tensor[T]) DeepCopy() *Tensor[T] {
	t.mustNotEmpty("DeepCopy")
	data := make([]T, t.Size())
	copy(data, t.Data())
	return wrap(t.shape.Clone(), data)
}

// CopyFrom overwrites the values of t with those of src, which must have
// the same number of elements. Aliases of t observe the change.
func (t *Tensor[T]) CopyFrom(src *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("CopyFrom")
	src.mustNotEmpty("CopyFrom")
	if t.Size() != src.Size() {
		exceptions.Panicf("CopyFrom: size mismatch, %v vs %v", t.shape, src.shape)
	}
	copy(t.Data(), src.Data())
	return t
}

// Reshape returns a view with a new shape over the same buffer. A single
// -1 extent is inferred from the element count.
func (t *Tensor[T]) Reshape(shape ...int) *Tensor[T] {
	t.mustNotEmpty("Reshape")
	newShape := Shape(append([]int(nil), shape...))
	infer := -1
	known := 1
	for i, d := range newShape {
		switch {
		case d == -1 && infer < 0:
			infer = i
		case d <= 0:
			exceptions.Panicf("Reshape: invalid target shape %v for tensor of shape %v", shape, t.shape)
		default:
			known *= d
		}
	}
	if infer >= 0 {
		if known == 0 || t.Size()%known != 0 {
			exceptions.Panicf("Reshape: cannot infer -1 in %v from %d elements", shape, t.Size())
		}
		newShape[infer] = t.Size() / known
	}
	if newShape.NumElements() != t.Size() {
		exceptions.Panicf("Reshape: %v has %d elements, tensor of shape %v has %d",
			newShape, newShape.NumElements(), t.shape, t.Size())
	}
	view := t.Alias()
	view.shape = newShape
	return view
}

// Slice returns a view of rows [start, end) along the first axis.
func (t *Tensor[T]) Slice(start, end int) *Tensor[T] {
	t.mustNotEmpty("Slice")
	if start < 0 || end > t.shape[0] || start >= end {
		exceptions.Panicf("Slice: range [%d, %d) invalid for first axis of shape %v", start, end, t.shape)
	}
	rowSize := t.Size() / t.shape[0]
	view := t.Alias()
	view.shape[0] = end - start
	view.offset = t.offset + start*rowSize
	return view
}

func (t *Tensor[T]) flatIndex(op string, idx []int) int {
	t.mustNotEmpty(op)
	if len(idx) != len(t.shape) {
		exceptions.Panicf("%s: %d indices for tensor of rank %d", op, len(idx), len(t.shape))
	}
	flat := 0
	for i, v := range idx {
		if v < 0 || v >= t.shape[i] {
			exceptions.Panicf("%s: index %v out of range for shape %v", op, idx, t.shape)
		}
		flat = flat*t.shape[i] + v
	}
	return flat
}

// At returns the element at the given multi-dimensional index.
func (t *Tensor[T]) At(idx ...int) T {
	return t.Data()[t.flatIndex("At", idx)]
}

// Set writes the element at the given multi-dimensional index.
func (t *Tensor[T]) Set(v T, idx ...int) {
	t.Data()[t.flatIndex("Set", idx)] = v
}

// Item returns the only element of a single-element tensor.
func (t *Tensor[T]) Item() T {
	if t.Size() != 1 {
		exceptions.Panicf("Item: tensor of shape %v has %d elements", t.shape, t.Size())
	}
	return t.Data()[0]
}

// Fill sets every element to v, in place.
func (t *Tensor[T]) Fill(v T) *Tensor[T] {
	data := t.Data()
	for i := range data {
		data[i] = v
	}
	return t
}

// String renders small tensors in full and large ones by shape only.
func (t *Tensor[T]) String() string {
	if t.IsEmpty() {
		return "Tensor(empty)"
	}
	if t.Size() > 64 {
		return fmt.Sprintf("Tensor%v[%d elements]", t.shape, t.Size())
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "Tensor%v", t.shape)
	sb.WriteString("[")
	for i, v := range t.Data() {
		if i > 0 {
			sb.WriteString(" ")
		}
		fmt.Fprintf(&sb, "%g", v)
	}
	sb.WriteString("]")
	return sb.String()
}
