// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import "github.com/spf13/cobra"

func newDumpCmd(o *opts) *cobra.Command {
	return &cobra.Command{
		Use:   "dump",
		Short: "Build a stream and request a serialized console dump from every worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := buildInstructionStream(o)
			if err != nil {
				return err
			}
			defer s.Destroy()
			return s.Dump()
		},
	}
}
