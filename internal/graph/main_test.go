package graph

import (
	"os"
	"testing"

	"github.com/born-ml/ember/internal/gemm"
)

func TestMain(m *testing.M) {
	gemm.SetDefault(gemm.New(gemm.Config{Threshold: gemm.Never}))
	os.Exit(m.Run())
}
