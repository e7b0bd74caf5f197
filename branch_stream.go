// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

var branchFactories = map[string]Factory[BranchPacket, BranchModel, BranchData]{}

// RegisterBranchSimulator adds name to the branch-predictor stream's
// registry.
func RegisterBranchSimulator(name string, factory Factory[BranchPacket, BranchModel, BranchData]) {
	branchFactories[name] = factory
}

func branchControlPacket(t PacketType) BranchPacket {
	return BranchPacket{Type: t}
}

// NewBranchSimulatorByName constructs a registered branch-predictor
// simulator by name, for the re-exec'd process-backend worker.
func NewBranchSimulatorByName(name string) (Simulator[BranchPacket, BranchModel, BranchData], bool) {
	factory, ok := branchFactories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// NewBranchStream creates the branch-predictor stream's front-end.
// BranchPacket and BranchModel/BranchData carry no pointers, so this
// stream may run on any backend including ProcessBackend.
func NewBranchStream() *Stream[BranchPacket, BranchModel, BranchData] {
	return newStream(streamSpec[BranchPacket, BranchModel, BranchData]{
		kind:               "branch",
		shmSafe:            true,
		defaultBackend:     BackendThread,
		factories:          branchFactories,
		controlFactory:     branchControlPacket,
		processBackendName: func() string { return "vpmu_branch_ring_buffer" },
	})
}
