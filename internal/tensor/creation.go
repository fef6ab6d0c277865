package tensor

import (
	"math"
	"math/rand"

	"github.com/pkg/errors"
)

// Zeros creates a tensor filled with zeros.
func Zeros[T Float](shape ...int) *Tensor[T] {
	s := Shape(append([]int(nil), shape...))
	mustValid("Zeros", s)
	return wrap(s, make([]T, s.NumElements()))
}

// Ones creates a tensor filled with ones.
func Ones[T Float](shape ...int) *Tensor[T] {
	return Zeros[T](shape...).Fill(1)
}

// Full creates a tensor filled with value.
func Full[T Float](value T, shape ...int) *Tensor[T] {
	return Zeros[T](shape...).Fill(value)
}

// Scalar creates a shape {1} tensor holding v.
func Scalar[T Float](v T) *Tensor[T] {
	return Full(v, 1)
}

// ZerosLike creates a zero tensor with the shape of t.
func ZerosLike[T Float](t *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("ZerosLike")
	return Zeros[T](t.shape...)
}

// OnesLike creates a tensor of ones with the shape of t.
func OnesLike[T Float](t *Tensor[T]) *Tensor[T] {
	t.mustNotEmpty("OnesLike")
	return Ones[T](t.shape...)
}

// FromSlice creates a tensor with the given shape from a copy of data.
//
// Example:
//
//	t, err := tensor.FromSlice([]float32{1, 2, 3, 4, 5, 6}, 2, 3)
func FromSlice[T Float](data []T, shape ...int) (*Tensor[T], error) {
	s := Shape(append([]int(nil), shape...))
	if err := s.Validate(); err != nil {
		return nil, errors.Wrapf(err, "FromSlice: shape %v", shape)
	}
	if len(data) != s.NumElements() {
		return nil, errors.Errorf("FromSlice: data length %d doesn't match shape %v (%d elements)",
			len(data), shape, s.NumElements())
	}
	owned := make([]T, len(data))
	copy(owned, data)
	return wrap(s, owned), nil
}

// Randn creates a tensor of normally distributed values. Uses math/rand
// (not crypto/rand), seeded by the caller for reproducibility.
func Randn[T Float](rng *rand.Rand, mean, stddev float64, shape ...int) *Tensor[T] {
	t := Zeros[T](shape...)
	data := t.Data()
	for i := range data {
		data[i] = T(mean + stddev*rng.NormFloat64())
	}
	return t
}

// RandUniform creates a tensor of values uniformly distributed in [lo, hi).
func RandUniform[T Float](rng *rand.Rand, lo, hi float64, shape ...int) *Tensor[T] {
	t := Zeros[T](shape...)
	data := t.Data()
	for i := range data {
		data[i] = T(lo + (hi-lo)*rng.Float64())
	}
	return t
}

// GlorotUniform draws from U(-limit, limit) with limit = sqrt(6/(fanIn+fanOut)).
// For rank > 2 shapes the trailing axes count as the receptive field.
func GlorotUniform[T Float](rng *rand.Rand, shape ...int) *Tensor[T] {
	s := Shape(shape)
	mustValid("GlorotUniform", s)
	var fanIn, fanOut int
	switch len(s) {
	case 1:
		fanIn, fanOut = s[0], s[0]
	case 2:
		fanIn, fanOut = s[0], s[1]
	default:
		// Filters are [outChannels, rows, cols, inChannels].
		receptive := s.NumElements() / (s[0] * s[len(s)-1])
		fanIn, fanOut = s[len(s)-1]*receptive, s[0]*receptive
	}
	limit := math.Sqrt(6 / float64(fanIn+fanOut))
	return RandUniform[T](rng, -limit, limit, shape...)
}
