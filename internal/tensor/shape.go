package tensor

import (
	"fmt"
	"strings"

	"github.com/gomlx/exceptions"
)

// Shape holds the extents of a tensor, outermost first. Every extent is
// positive; an empty Shape denotes the invalid, empty tensor (there are no
// rank-0 tensors, a scalar is Shape{1}).
type Shape []int

// NumElements returns the product of the extents, or 0 for an empty shape.
func (s Shape) NumElements() int {
	if len(s) == 0 {
		return 0
	}
	n := 1
	for _, dim := range s {
		n *= dim
	}
	return n
}

// Validate checks that the shape is non-empty and all extents are positive.
func (s Shape) Validate() error {
	if len(s) == 0 {
		return fmt.Errorf("empty shape")
	}
	for i, dim := range s {
		if dim <= 0 {
			return fmt.Errorf("invalid dimension at index %d: %d (must be > 0)", i, dim)
		}
	}
	return nil
}

// Equal checks if two shapes are equal.
func (s Shape) Equal(other Shape) bool {
	if len(s) != len(other) {
		return false
	}
	for i := range s {
		if s[i] != other[i] {
			return false
		}
	}
	return true
}

// Clone returns a copy of the shape.
func (s Shape) Clone() Shape {
	if s == nil {
		return nil
	}
	clone := make(Shape, len(s))
	copy(clone, s)
	return clone
}

// Last returns the innermost extent, 0 for an empty shape.
func (s Shape) Last() int {
	if len(s) == 0 {
		return 0
	}
	return s[len(s)-1]
}

// String renders the shape as "(2, 3)".
func (s Shape) String() string {
	parts := make([]string, len(s))
	for i, d := range s {
		parts[i] = fmt.Sprint(d)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// normalizeAxis resolves a possibly negative axis against rank, failing on
// out-of-range values.
func normalizeAxis(op string, axis, rank int) int {
	if axis < 0 {
		axis += rank
	}
	if axis < 0 || axis >= rank {
		exceptions.Panicf("%s: axis %d out of range for rank %d", op, axis, rank)
	}
	return axis
}

// mustValid fails fast on invalid shapes.
func mustValid(op string, s Shape) {
	if err := s.Validate(); err != nil {
		exceptions.Panicf("%s: invalid shape %v: %v", op, []int(s), err)
	}
}
