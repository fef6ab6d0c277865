package tensor

import (
	"os"
	"testing"

	"github.com/born-ml/ember/internal/gemm"
)

func TestMain(m *testing.M) {
	// Keep products on the CPU kernel so results are reproducible and no
	// calibration runs during tests.
	gemm.SetDefault(gemm.New(gemm.Config{Threshold: gemm.Never}))
	os.Exit(m.Run())
}
