// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "fmt"

func init() {
	RegisterBranchSimulator("Bimodal", func() Simulator[BranchPacket, BranchModel, BranchData] {
		return &BimodalPredictor{}
	})
}

// bimodalCounter is a 2-bit saturating counter: 0/1 predict not-taken,
// 2/3 predict taken.
type bimodalCounter = uint8

// BimodalPredictor is a classic 2-bit saturating-counter branch predictor
// indexed by the low bits of the branch PC. A small reference
// implementation of the branch stream's contract.
type BimodalPredictor struct {
	config   SimConfig
	model    BranchModel
	table    [][]bimodalCounter
	indexBits uint
	internal BranchData
}

func (p *BimodalPredictor) Bind(config SimConfig) error {
	p.config = config
	return nil
}

func (p *BimodalPredictor) Build(model *BranchModel) error {
	model.TableEntries = 1024
	model.MispredictPenalty = 15
	if v, ok := p.config["table_entries"]; ok {
		if f, ok := v.(float64); ok {
			model.TableEntries = int(f)
		}
	}
	p.model = *model
	p.indexBits = bitLen(model.TableEntries)
	p.table = make([][]bimodalCounter, MaxCPUCores)
	for core := range p.table {
		p.table[core] = make([]bimodalCounter, model.TableEntries)
		for i := range p.table[core] {
			p.table[core][i] = 1 // weakly not-taken
		}
	}
	return nil
}

func (p *BimodalPredictor) SetPlatformInfo(PlatformInfo) {}

func (p *BimodalPredictor) predict(core int, pc uint64) (predictTaken bool, idx uint64) {
	table := p.table[core]
	idx = pc % uint64(len(table))
	return table[idx] >= 2, idx
}

func (p *BimodalPredictor) update(core int, idx uint64, taken bool) {
	c := &p.table[core][idx]
	switch {
	case taken && *c < 3:
		*c++
	case !taken && *c > 0:
		*c--
	}
}

func (p *BimodalPredictor) PacketProcessor(ref BranchPacket, data *BranchData) {
	p.step(ref)
	*data = p.internal
}

func (p *BimodalPredictor) HotPacketProcessor(ref BranchPacket, data *BranchData) {
	p.step(ref)
}

func (p *BimodalPredictor) step(ref BranchPacket) {
	if int(ref.Core) >= MaxCPUCores {
		return
	}
	predictTaken, idx := p.predict(int(ref.Core), ref.PC)
	mispredicted := predictTaken != ref.Taken
	p.internal.Accumulate(ref, mispredicted)
	p.update(int(ref.Core), idx, ref.Taken)
}

func (p *BimodalPredictor) Barrier(data *BranchData) {
	*data = p.internal
}

func (p *BimodalPredictor) Reset(data *BranchData) {
	p.internal = BranchData{}
	*data = BranchData{}
	for core := range p.table {
		for i := range p.table[core] {
			p.table[core][i] = 1
		}
	}
}

func (p *BimodalPredictor) Dump(workerID int, data BranchData) {
	fmt.Printf("=== BimodalPredictor[%d] ===\n", workerID)
	for core := range data.Cores {
		c := data.Cores[core]
		if c.Taken == 0 && c.Mispredicted == 0 {
			continue
		}
		fmt.Printf("  core %d: taken=%d mispredicted=%d\n", core, c.Taken, c.Mispredicted)
	}
}
