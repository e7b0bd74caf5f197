// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"testing"

	"code.hybscloud.com/vpmutrace"
)

func buildBimodalPredictor(t *testing.T, cfg vpmu.SimConfig) vpmu.Simulator[vpmu.BranchPacket, vpmu.BranchModel, vpmu.BranchData] {
	t.Helper()
	sim, ok := vpmu.NewBranchSimulatorByName("Bimodal")
	if !ok {
		t.Fatalf("NewBranchSimulatorByName(Bimodal): not registered")
	}
	if err := sim.Bind(cfg); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	var model vpmu.BranchModel
	if err := sim.Build(&model); err != nil {
		t.Fatalf("Build: %v", err)
	}
	return sim
}

// TestBimodalPredictorLearnsTakenBranch checks the saturating-counter
// invariant: a branch repeatedly taken from the same PC trains the
// predictor to stop mispredicting.
func TestBimodalPredictorLearnsTakenBranch(t *testing.T) {
	sim := buildBimodalPredictor(t, vpmu.SimConfig{"table_entries": float64(64)})

	var data vpmu.BranchData
	ref := vpmu.BranchPacket{Type: vpmu.PacketData, Core: 0, PC: 0x100, Target: 0x200, Taken: true}
	for i := 0; i < 8; i++ {
		sim.PacketProcessor(ref, &data)
	}

	c := data.Cores[0]
	if c.Taken != 8 {
		t.Fatalf("Taken: got %d, want 8", c.Taken)
	}
	if c.Mispredicted >= 8 {
		t.Fatalf("Mispredicted: got %d of 8, predictor never learned the taken branch", c.Mispredicted)
	}
}

func TestBimodalPredictorResetRetrainsWeaklyNotTaken(t *testing.T) {
	sim := buildBimodalPredictor(t, vpmu.SimConfig{"table_entries": float64(64)})

	var data vpmu.BranchData
	ref := vpmu.BranchPacket{Type: vpmu.PacketData, Core: 0, PC: 0x100, Target: 0x200, Taken: true}
	for i := 0; i < 8; i++ {
		sim.PacketProcessor(ref, &data)
	}
	sim.Reset(&data)

	var zero vpmu.BranchData
	if data != zero {
		t.Fatalf("Reset: data = %+v, want zero", data)
	}

	// Weakly-not-taken state after reset mispredicts the first taken branch
	// again, proving the table itself (not just the tallies) was cleared.
	sim.PacketProcessor(ref, &data)
	if data.Cores[0].Mispredicted != 1 {
		t.Fatalf("post-reset first access: got %d mispredictions, want 1", data.Cores[0].Mispredicted)
	}
}
