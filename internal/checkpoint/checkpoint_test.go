package checkpoint

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"testing"

	"github.com/born-ml/ember/internal/graph"
	"github.com/born-ml/ember/internal/tensor"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustTensor(t *testing.T, data []float32, shape ...int) *tensor.Tensor[float32] {
	t.Helper()
	x, err := tensor.FromSlice(data, shape...)
	require.NoError(t, err)
	return x
}

// model returns a small graph over two variables and a session that has
// registered them.
func model(t *testing.T) (*graph.Session[float32], graph.Variable[float32], graph.Variable[float32]) {
	t.Helper()
	w := graph.NewVariable(mustTensor(t, []float32{1, 2, 3, 4}, 2, 2))
	b := graph.NewVariable(mustTensor(t, []float32{0.5, -0.25}, 2))
	s := graph.NewSession[float32]()
	s.Tap(graph.Plus[float32](w, b))
	return s, w, b
}

func TestWritePlainFormat(t *testing.T) {
	s, w, b := model(t)
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, WritePlain(&buf, s))
	want := fmt.Sprintf("%d %d\n2 2\n1 2 3 4\n2\n0.5 -0.25\n", w.ID(), b.ID())
	assert.Equal(t, want, buf.String())
}

func TestSaveRestore(t *testing.T) {
	s, w, b := model(t)
	defer s.Close()

	var buf bytes.Buffer
	require.NoError(t, Save(&buf, s))
	saved := buf.Bytes()

	w.Data().Fill(0)
	b.Data().Fill(9)
	require.NoError(t, Restore(bytes.NewReader(saved), s))
	assert.Equal(t, []float32{1, 2, 3, 4}, w.Data().Data())
	assert.Equal(t, []float32{0.5, -0.25}, b.Data().Data())
}

func TestRestoreIntoNewSession(t *testing.T) {
	s, w, b := model(t)
	var buf bytes.Buffer
	require.NoError(t, Save(&buf, s))
	s.Close()

	w.Data().Fill(0)
	b.Data().Fill(0)
	fresh := graph.NewSession[float32]()
	defer fresh.Close()
	fresh.Tap(graph.Plus[float32](w, b))
	require.NoError(t, Restore(&buf, fresh))
	assert.Equal(t, []float32{1, 2, 3, 4}, w.Data().Data())
}

func TestRestoreErrors(t *testing.T) {
	s, w, b := model(t)
	defer s.Close()

	t.Run("unknown_id", func(t *testing.T) {
		plain := fmt.Sprintf("%d\n1\n7\n", b.ID()+1000)
		err := ReadPlain(strings.NewReader(plain), s)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrUnknownVariable), err.Error())
	})

	t.Run("shape_mismatch_leaves_values", func(t *testing.T) {
		plain := fmt.Sprintf("%d %d\n2\n7 7\n4\n1 1 1 1\n", b.ID(), w.ID())
		err := ReadPlain(strings.NewReader(plain), s)
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrShapeMismatch), err.Error())
		assert.Equal(t, []float32{0.5, -0.25}, b.Data().Data(), "nothing restored on error")
	})

	t.Run("truncated", func(t *testing.T) {
		plain := fmt.Sprintf("%d %d\n2 2\n1 2 3 4\n", w.ID(), b.ID())
		require.Error(t, ReadPlain(strings.NewReader(plain), s))
	})

	t.Run("empty", func(t *testing.T) {
		require.Error(t, ReadPlain(strings.NewReader(""), s))
		require.Error(t, Restore(bytes.NewReader(nil), s))
	})

	t.Run("no_variables", func(t *testing.T) {
		empty := graph.NewSession[float32]()
		defer empty.Close()
		var buf bytes.Buffer
		assert.ErrorIs(t, Save(&buf, empty), ErrNoVariables)
	})
}

func TestFileRoundTrip(t *testing.T) {
	s, w, _ := model(t)
	defer s.Close()

	path := filepath.Join(t.TempDir(), "model.ckpt")
	require.NoError(t, SaveFile(path, s))
	w.Data().Fill(-1)
	require.NoError(t, RestoreFile(path, s))
	assert.Equal(t, []float32{1, 2, 3, 4}, w.Data().Data())

	err := RestoreFile(filepath.Join(t.TempDir(), "missing.ckpt"), s)
	require.Error(t, err)
}
