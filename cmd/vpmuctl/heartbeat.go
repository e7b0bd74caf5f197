// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"strconv"

	"code.hybscloud.com/vpmutrace"
	"github.com/spf13/cobra"
)

// newHeartbeatCmd is the re-exec target ProcessBackend.Build launches
// once per stream to supervise producer liveness. Hidden from --help.
func newHeartbeatCmd() *cobra.Command {
	var shm string
	var parentPID int

	cmd := &cobra.Command{
		Use:    "vpmuheartbeat",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			workerPIDs := make([]int, 0, len(args))
			for _, a := range args {
				pid, err := strconv.Atoi(a)
				if err != nil {
					continue
				}
				workerPIDs = append(workerPIDs, pid)
			}
			common, err := vpmu.MapSharedCommon(shm)
			if err != nil {
				return err
			}
			vpmu.RunHeartbeatSidecar(common, parentPID, workerPIDs, shm)
			return nil
		},
	}
	cmd.Flags().StringVar(&shm, "shm", "", "path to the shared-memory segment")
	cmd.Flags().IntVar(&parentPID, "parent", 0, "producer process id to monitor")
	return cmd
}
