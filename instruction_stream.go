// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

var instructionFactories = map[string]Factory[InstructionPacket, InstructionModel, InstructionData]{}

// RegisterInstructionSimulator adds name to the instruction stream's
// name→constructor registry. Adding a new instruction-timing model is
// adding one call to this function, normally from an init() in the
// model's own file (see cortexa9.go).
func RegisterInstructionSimulator(name string, factory Factory[InstructionPacket, InstructionModel, InstructionData]) {
	instructionFactories[name] = factory
}

func instructionControlPacket(t PacketType) InstructionPacket {
	return InstructionPacket{Type: t}
}

// NewInstructionStream creates the instruction stream's front-end. Its
// packets carry a raw *TBCounters, so it is never ShmSafe: the process
// backend can never be selected for it (see the shared-memory ownership
// design note).
func NewInstructionStream() *Stream[InstructionPacket, InstructionModel, InstructionData] {
	return newStream(streamSpec[InstructionPacket, InstructionModel, InstructionData]{
		kind:           "instruction",
		shmSafe:        false,
		defaultBackend: BackendThread,
		factories:      instructionFactories,
		controlFactory: instructionControlPacket,
	})
}
