// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"code.hybscloud.com/vpmutrace"
	"github.com/spf13/cobra"
)

// newWorkerCmd is the re-exec target ProcessBackend.Build launches one
// instance of per simulator. It is hidden from --help: nothing but the
// backend itself is meant to invoke it.
func newWorkerCmd() *cobra.Command {
	var kind, shm, sim string
	var workerIdx, numWorkers, buffer int

	cmd := &cobra.Command{
		Use:    "vpmuworker",
		Hidden: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWorker(kind, shm, sim, workerIdx, numWorkers, buffer)
		},
	}
	cmd.Flags().StringVar(&kind, "kind", "", "stream kind: cache|branch")
	cmd.Flags().StringVar(&shm, "shm", "", "path to the shared-memory segment")
	cmd.Flags().StringVar(&sim, "sim", "", "simulator name to build")
	cmd.Flags().IntVar(&workerIdx, "worker", 0, "this worker's index")
	cmd.Flags().IntVar(&numWorkers, "workers", 1, "total number of workers")
	cmd.Flags().IntVar(&buffer, "buffer", 4096, "ring buffer capacity")
	return cmd
}

func runWorker(kind, shm, sim string, workerIdx, numWorkers, buffer int) error {
	switch kind {
	case "cache":
		common, ctl, ring, err := vpmu.OpenShmWorkerRegion[vpmu.CachePacket, vpmu.CacheModel, vpmu.CacheData](shm, workerIdx, numWorkers, buffer)
		if err != nil {
			return err
		}
		simImpl, ok := vpmu.NewCacheSimulatorByName(sim)
		if !ok {
			return fmt.Errorf("vpmuworker: unknown cache simulator %q", sim)
		}
		vpmu.RunShmWorker(workerIdx, common, ctl, ring, simImpl, common.Platform)
		return nil
	case "branch":
		common, ctl, ring, err := vpmu.OpenShmWorkerRegion[vpmu.BranchPacket, vpmu.BranchModel, vpmu.BranchData](shm, workerIdx, numWorkers, buffer)
		if err != nil {
			return err
		}
		simImpl, ok := vpmu.NewBranchSimulatorByName(sim)
		if !ok {
			return fmt.Errorf("vpmuworker: unknown branch simulator %q", sim)
		}
		vpmu.RunShmWorker(workerIdx, common, ctl, ring, simImpl, common.Platform)
		return nil
	default:
		return fmt.Errorf("vpmuworker: unknown stream kind %q", kind)
	}
}
