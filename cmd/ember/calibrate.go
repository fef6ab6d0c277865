package main

import (
	"fmt"
	"time"

	"github.com/born-ml/ember/backend"
	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
)

func newCalibrateCmd() *cobra.Command {
	var flags gemmFlags
	cmd := &cobra.Command{
		Use:   "calibrate",
		Short: "Measure the size at which the accelerated GEMM backend wins",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			d, release := flags.dispatcher()
			defer release()

			start := time.Now()
			threshold := d.Threshold()
			cpu, accel := d.Backends()
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "cpu backend:         %s\n", cpu.Name())
			fmt.Fprintf(out, "accelerated backend: %s\n", accel.Name())
			if threshold == backend.Never {
				fmt.Fprintf(out, "threshold:           never (%s never won)\n", accel.Name())
			} else {
				fmt.Fprintf(out, "threshold:           %s multiply-adds\n", humanize.Comma(int64(threshold)))
			}
			fmt.Fprintf(out, "calibrated in %s\n", time.Since(start).Round(time.Millisecond))
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}
