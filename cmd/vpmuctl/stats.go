// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"code.hybscloud.com/vpmutrace"
	"github.com/spf13/cobra"
)

func newStatsCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Build a stream and print worker 0's aggregated counters",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildInstructionStream(o)
			if err != nil {
				return err
			}
			defer s.Destroy()
			if err := s.Sync(); err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 2, 4, 2, ' ', 0)
			defer w.Flush()
			fmt.Fprintln(w, "WORKER\tMODE\tTOTAL\tLOAD\tSTORE\tBRANCH\tTICKS")
			data := s.Data(0)
			printRow(w, 0, "user", data.User())
			printRow(w, 0, "system", data.System())
			printRow(w, 0, "interrupt", data.Interrupt())
			printRow(w, 0, "rest", data.Rest())
			return nil
		},
	}
}

func printRow(w *tabwriter.Writer, worker int, mode string, c vpmu.DataCell) {
	fmt.Fprintf(w, "%d\t%s\t%d\t%d\t%d\t%d\t%d\n", worker, mode, c.Total, c.Load, c.Store, c.HasBranch, c.Ticks)
}
