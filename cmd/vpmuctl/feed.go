// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"code.hybscloud.com/vpmutrace"
	"github.com/spf13/cobra"
)

func newFeedCmd(o *opts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Build a stream, push synthetic references, and sync",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFeed(o)
		},
	}
	cmd.Flags().IntVar(&o.count, "count", 1000, "number of DATA references to push")
	cmd.Flags().IntVar(&o.core, "core", 0, "guest core to attribute references to")
	cmd.Flags().StringVar(&o.mode, "mode", "USR", "processor mode: USR|SVC|FIQ|IRQ")
	return cmd
}

func parseMode(name string) vpmu.ProcessorMode {
	switch name {
	case "SVC":
		return vpmu.ModeSVC
	case "FIQ":
		return vpmu.ModeFIQ
	case "IRQ":
		return vpmu.ModeIRQ
	case "ABT":
		return vpmu.ModeABT
	default:
		return vpmu.ModeUSR
	}
}

func runFeed(o *opts) error {
	s, err := buildInstructionStream(o)
	if err != nil {
		return err
	}
	defer s.Destroy()

	mode := parseMode(o.mode)
	for i := 0; i < o.count; i++ {
		ref := vpmu.InstructionPacket{
			Type: vpmu.PacketData,
			Core: uint8(o.core),
			Mode: mode,
			TBCounters: &vpmu.TBCounters{
				Total: 10, Load: 3, Store: 2, HasBranch: 1, Ticks: 12,
			},
		}
		if err := s.SendRef(o.core, ref); err != nil {
			return err
		}
	}
	if err := s.Sync(); err != nil {
		return err
	}
	data := s.Data(0)
	fmt.Printf("pushed %d references; worker 0 user.total=%d\n", o.count, data.User().Total)
	return nil
}
