package webgpu

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGemm_MatchesCPU(t *testing.T) {
	be, err := New()
	if err != nil {
		t.Skipf("webgpu unavailable: %v", err)
	}
	defer be.Release()

	a := []float32{1, 2, 3, 4, 5, 6}
	b := []float32{7, 8, 9, 10, 11, 12}

	c := make([]float32, 4)
	be.GemmFloat32(a, false, b, false, 2, 3, 2, c)
	assert.InDeltaSlice(t, []float32{58, 64, 139, 154}, c, 1e-4)

	// Both operands transposed: op(A) is 3×2, op(B) is 2×3.
	c = make([]float32, 9)
	be.GemmFloat32(a, true, b, true, 3, 2, 3, c)
	want := make([]float32, 9)
	be.fallback.GemmFloat32(a, true, b, true, 3, 2, 3, want)
	assert.InDeltaSlice(t, want, c, 1e-4)
}
