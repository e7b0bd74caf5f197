// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// DataCell is one accumulation bucket: an instruction tally split by
// load/store/branch, plus elapsed ticks. InstructionData holds four of
// these per core — User, System, Interrupt, Rest — selected by the
// packet's ProcessorMode at accumulation time.
//
// All fields are uint64. The original C++ simulator accumulated into a
// plain int and silently overflowed on long-running guests; this type never
// repeats that mistake.
type DataCell struct {
	Total     uint64
	Load      uint64
	Store     uint64
	HasBranch uint64
	Ticks     uint64
}

// Add folds b's counters into a cell and returns the result. Used to sum
// one mode's cells across cores.
func (c DataCell) Add(b DataCell) DataCell {
	return DataCell{
		Total:     c.Total + b.Total,
		Load:      c.Load + b.Load,
		Store:     c.Store + b.Store,
		HasBranch: c.HasBranch + b.HasBranch,
		Ticks:     c.Ticks + b.Ticks,
	}
}

// classify routes a ProcessorMode to the DataCell it accumulates into,
// mirroring the original simulator's packet_processor mode switch:
// USR is user-space, SVC/ABT/UND/MON/HYP are kernel accounting buckets
// (System), FIQ/IRQ are Interrupt, and everything else falls to Rest.
func classify(mode ProcessorMode) int {
	switch mode {
	case ModeUSR:
		return cellUser
	case ModeSVC, ModeABT, ModeUND, ModeMON, ModeHYP:
		return cellSystem
	case ModeFIQ, ModeIRQ:
		return cellInterrupt
	default:
		return cellRest
	}
}

const (
	cellUser = iota
	cellSystem
	cellInterrupt
	cellRest
	numCells
)

// InstructionData is the instruction stream's per-core aggregate, the Go
// analogue of the original's VPMU_Insn::Data.
type InstructionData struct {
	Cores [MaxCPUCores][numCells]DataCell
}

// Accumulate folds one InstructionPacket's counters into the data cell its
// mode maps to, for the packet's core.
func (d *InstructionData) Accumulate(p InstructionPacket) {
	if int(p.Core) >= MaxCPUCores || p.TBCounters == nil {
		return
	}
	cell := &d.Cores[p.Core][classify(p.Mode)]
	c := p.TBCounters
	cell.Total += c.Total
	cell.Load += c.Load
	cell.Store += c.Store
	cell.HasBranch += c.HasBranch
	cell.Ticks += c.Ticks
}

// User returns the sum of every core's user-mode cell.
func (d InstructionData) User() DataCell  { return d.sum(cellUser) }
func (d InstructionData) System() DataCell { return d.sum(cellSystem) }
func (d InstructionData) Interrupt() DataCell { return d.sum(cellInterrupt) }
func (d InstructionData) Rest() DataCell  { return d.sum(cellRest) }

func (d InstructionData) sum(cell int) DataCell {
	var out DataCell
	for core := range d.Cores {
		out = out.Add(d.Cores[core][cell])
	}
	return out
}

// CacheData is the cache stream's per-core aggregate: hit/miss counts split
// by CPU/GPU origin, mirroring VPMU_Cache::Data.
type CacheData struct {
	Cores [MaxCPUCores]struct {
		CPUAccesses, CPUHits uint64
		GPUAccesses, GPUHits uint64
	}
}

// Accumulate folds one CachePacket into the per-core tallies. hit reports
// whether the reference hit in cache; the simulator computes this, not the
// packet itself.
func (d *CacheData) Accumulate(p CachePacket, hit bool) {
	if int(p.Core) >= MaxCPUCores {
		return
	}
	c := &d.Cores[p.Core]
	switch p.Processor {
	case ProcessorGPU:
		c.GPUAccesses++
		if hit {
			c.GPUHits++
		}
	default:
		c.CPUAccesses++
		if hit {
			c.CPUHits++
		}
	}
}

// BranchData is the branch-predictor stream's per-core aggregate: taken and
// mispredicted counts.
type BranchData struct {
	Cores [MaxCPUCores]struct {
		Taken, Mispredicted uint64
	}
}

// Accumulate folds one BranchPacket into the per-core tallies. mispredicted
// reports whether the predictor's guess for this branch was wrong.
func (d *BranchData) Accumulate(p BranchPacket, mispredicted bool) {
	if int(p.Core) >= MaxCPUCores {
		return
	}
	c := &d.Cores[p.Core]
	if p.Taken {
		c.Taken++
	}
	if mispredicted {
		c.Mispredicted++
	}
}
