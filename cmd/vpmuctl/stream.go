// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"code.hybscloud.com/vpmutrace"
)

func backendKind(name string) (vpmu.BackendKind, error) {
	switch name {
	case "inline":
		return vpmu.BackendInline, nil
	case "thread":
		return vpmu.BackendThread, nil
	case "process":
		return vpmu.BackendProcess, nil
	default:
		return 0, fmt.Errorf("unknown backend %q", name)
	}
}

// buildInstructionStream binds and builds a single-simulator instruction
// stream per the flags in o, for the demo subcommands to feed and read
// back.
func buildInstructionStream(o *opts) (*vpmu.Stream[vpmu.InstructionPacket, vpmu.InstructionModel, vpmu.InstructionData], error) {
	kind, err := backendKind(o.backend)
	if err != nil {
		return nil, err
	}
	s := vpmu.NewInstructionStream()
	if err := s.Bind([]vpmu.SimConfig{{"name": o.sim, "frequency": 1e9}}); err != nil {
		return nil, err
	}
	if err := s.Build(vpmu.Options{
		Backend:      kind,
		RingCapacity: o.buffer,
		NumCores:     o.cores,
	}); err != nil {
		return nil, err
	}
	return s, nil
}
