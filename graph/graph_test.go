// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package graph_test

import (
	"bytes"
	"os"
	"testing"

	"github.com/born-ml/ember/backend"
	"github.com/born-ml/ember/checkpoint"
	"github.com/born-ml/ember/graph"
	"github.com/born-ml/ember/optim"
	"github.com/born-ml/ember/tensor"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	backend.SetDefault(backend.NewDispatcher(backend.Config{Threshold: backend.Never}))
	os.Exit(m.Run())
}

// TestTrainAndCheckpoint fits y = 2x - 1 through the public packages and
// checks that a checkpoint restores the trained model.
func TestTrainAndCheckpoint(t *testing.T) {
	const n = 6
	xs, ys := make([]float32, n), make([]float32, n)
	for i := range n {
		xs[i] = float32(i)/(n-1)*2 - 1
		ys[i] = 2*xs[i] - 1
	}
	inputs, err := tensor.FromSlice(xs, n, 1)
	require.NoError(t, err)
	labels, err := tensor.FromSlice(ys, n, 1)
	require.NoError(t, err)

	s := graph.NewSession[float32]()
	defer s.Close()

	x := graph.NewPlaceholder[float32](1)
	w := graph.NewVariable(tensor.Zeros[float32](1, 1), graph.WithName("w"))
	b := graph.NewVariable(tensor.Zeros[float32](1), graph.WithName("b"))
	pred := graph.Plus(graph.Multiply[float32](x, w), graph.Node[float32](b))
	loss := graph.MSE(graph.Node[float32](graph.NewConstant(labels)), pred)
	s.Bind(x, inputs)

	opt, err := optim.New("adam", s, loss, 1, 0.05)
	require.NoError(t, err)
	initial := s.Run(loss).Item()
	opt.Step()
	for range 199 {
		s.Run(loss)
		opt.Step()
	}
	final := s.Run(loss).Item()
	assert.Less(t, final, initial/2)

	var buf bytes.Buffer
	require.NoError(t, checkpoint.Save(&buf, s))
	trained := w.Data().DeepCopy()
	w.Data().Fill(0)
	b.Data().Fill(0)
	require.NoError(t, checkpoint.Restore(&buf, s))
	assert.Equal(t, trained.Data(), w.Data().Data())
	assert.Equal(t, final, s.Run(loss).Item())
}
