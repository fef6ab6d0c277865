package tensor

import (
	"bufio"
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteRead(t *testing.T) {
	x := mustFromSlice(t, []float32{1, -2.5, 0.1, 3e-7, 4, 5}, 3, 2)
	y := mustFromSlice(t, []float32{42}, 1)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, x))
	require.NoError(t, Write(&buf, y))
	assert.True(t, strings.HasPrefix(buf.String(), "3 2\n1 -2.5 0.1 3e-07 4 5\n"))

	r := bufio.NewReader(&buf)
	gotX, err := Read[float32](r)
	require.NoError(t, err)
	assert.True(t, Equal(x, gotX))
	gotY, err := Read[float32](r)
	require.NoError(t, err)
	assert.True(t, Equal(y, gotY))
}

func TestReadErrors(t *testing.T) {
	for name, input := range map[string]string{
		"empty":        "",
		"bad extent":   "2 x\n1 2\n",
		"zero extent":  "0\n\n",
		"short values": "2 2\n1 2 3\n",
		"bad value":    "2\n1 y\n",
		"no values":    "2\n",
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Read[float64](bufio.NewReader(strings.NewReader(input)))
			assert.Error(t, err)
		})
	}
}

func TestWriteEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, Empty[float64]()))
}
