// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package tensor_test

import (
	"bufio"
	"bytes"
	"os"
	"testing"

	"github.com/born-ml/ember/backend"
	"github.com/born-ml/ember/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	backend.SetDefault(backend.NewDispatcher(backend.Config{Threshold: backend.Never}))
	os.Exit(m.Run())
}

func TestPublicAPI(t *testing.T) {
	x, err := tensor.FromSlice([]float64{1, 2, 3, 4, 5, 6}, 2, 3)
	require.NoError(t, err)

	y := tensor.Add(x, tensor.Ones[float64](3))
	assert.Equal(t, []float64{2, 3, 4, 5, 6, 7}, y.Data())

	z := tensor.Multiply(x, tensor.Transpose(x))
	assert.Equal(t, tensor.Shape{2, 2}, z.Shape())
	assert.Equal(t, []float64{14, 32, 32, 77}, z.Data())

	assert.Equal(t, []float64{5, 7, 9}, tensor.Sum(x, 0, false).Data())
	assert.Equal(t, []int{2, 2}, tensor.ArgMax(x))

	var buf bytes.Buffer
	require.NoError(t, tensor.Write(&buf, x))
	back, err := tensor.Read[float64](bufio.NewReader(&buf))
	require.NoError(t, err)
	assert.True(t, tensor.Equal(x, back))
}
