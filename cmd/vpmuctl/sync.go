// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newSyncCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Build a stream, issue a non-blocking sync, then wait for it",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildInstructionStream(o)
			if err != nil {
				return err
			}
			defer s.Destroy()
			if err := s.IssueSync(); err != nil {
				return err
			}
			if err := s.WaitSync(); err != nil {
				return err
			}
			fmt.Println("sync acknowledged by every worker")
			return nil
		},
	}
}
