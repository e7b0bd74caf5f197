// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

// opts binds every subcommand's flags into one struct, cobra-style.
type opts struct {
	backend  string
	sim      string
	buffer   int
	cores    int
	count    int
	core     int
	mode     string
}

func main() {
	var o opts

	root := &cobra.Command{
		Use:   "vpmuctl",
		Short: "Drive and inspect a VPMU trace stream",
		Long: `vpmuctl builds a VPMU instruction stream, feeds it synthetic
references, and reports the aggregated counters each configured simulator
produces. It exists to exercise and demonstrate the trace streaming engine
outside of a full CPU emulator.`,
	}

	root.PersistentFlags().StringVar(&o.backend, "backend", "thread", "backend: inline|thread|process")
	root.PersistentFlags().StringVar(&o.sim, "sim", "CortexA9", "simulator name to bind")
	root.PersistentFlags().IntVar(&o.buffer, "buffer", 4096, "ring buffer capacity")
	root.PersistentFlags().IntVar(&o.cores, "cores", 1, "number of guest cores")

	root.AddCommand(
		newFeedCmd(&o),
		newStatsCmd(&o),
		newDumpCmd(&o),
		newSyncCmd(&o),
		newWorkerCmd(), // hidden: re-exec target for ProcessBackend
		newHeartbeatCmd(),
	)

	if err := root.Execute(); err != nil {
		slog.Error(err.Error())
		os.Exit(1)
	}
}
