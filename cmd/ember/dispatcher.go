package main

import (
	"github.com/born-ml/ember/backend"
	"github.com/born-ml/ember/backend/webgpu"
	"github.com/spf13/cobra"
	"k8s.io/klog/v2"
)

// gemmFlags selects the GEMM backends of a command.
type gemmFlags struct {
	gpu       bool
	threshold int
	maxSize   int
}

func (f *gemmFlags) register(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&f.gpu, "gpu", false, "Use WebGPU as the accelerated backend instead of BLAS")
	cmd.Flags().IntVar(&f.threshold, "threshold", 0, "m*n*k at which products move to the accelerated backend (0 = calibrate, -1 = never)")
	cmd.Flags().IntVar(&f.maxSize, "max-calibration-size", 0, "Largest square matrix edge timed during calibration (0 = default)")
}

// dispatcher builds the dispatcher described by the flags. The returned
// function releases GPU resources.
func (f *gemmFlags) dispatcher() (*backend.Dispatcher, func()) {
	cfg := backend.Config{Threshold: f.threshold, MaxCalibrationSize: f.maxSize}
	if f.threshold < 0 {
		cfg.Threshold = backend.Never
	}
	release := func() {}
	if f.gpu {
		gpu, err := webgpu.New()
		if err != nil {
			klog.Warningf("webgpu unavailable, falling back to blas: %v", err)
		} else {
			cfg.Accelerated = gpu
			release = gpu.Release
		}
	}
	return backend.NewDispatcher(cfg), release
}
