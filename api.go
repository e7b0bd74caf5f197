// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// This file is the emulator-facing producer API: the small set of
// functions the translation/execution fast path calls directly. Each
// delegates to the default handle table's instruction stream. Embedders
// that want more than one stream instance should use Stream and Handles
// directly instead of these package-level functions.

// InstRef records one translation block's reference on core, in
// processor mode mode, carrying counters. The emulator owns counters and
// must keep it readable until every worker has drained the packet (see
// InstructionPacket's pointer-lifetime note).
func InstRef(core int, mode ProcessorMode, counters *TBCounters) error {
	return Default().Instruction.SendRef(core, InstructionPacket{
		Type:       PacketData,
		Core:       uint8(core),
		Mode:       mode,
		TBCounters: counters,
	})
}

// TotalInstCount sums total instructions retired across every core and
// mode for worker 0 of the default instruction stream.
func TotalInstCount() uint64 {
	data := Default().Instruction.Data(0)
	return data.User().Total + data.System().Total + data.Interrupt().Total + data.Rest().Total
}

// CPUCycleCount sums the tick counters across every mode for worker 0.
func CPUCycleCount() uint64 {
	data := Default().Instruction.Data(0)
	return data.User().Ticks + data.System().Ticks + data.Interrupt().Ticks + data.Rest().Ticks
}

// SysMemAccessCycleCount reports worker 0's system-mode memory accesses:
// the sum of the system cell's load and store instruction counts. No
// per-access cycle cost is applied.
func SysMemAccessCycleCount() uint64 {
	system := Default().Instruction.Data(0).System()
	return system.Load + system.Store
}

// IOMemAccessCycleCount reports worker 0's interrupt-mode memory accesses
// (the interrupt cell's load plus store instruction counts, with no
// per-access cycle cost applied), the closest analogue this module has to
// device I/O accounting.
func IOMemAccessCycleCount() uint64 {
	interrupt := Default().Instruction.Data(0).Interrupt()
	return interrupt.Load + interrupt.Store
}

// DumpReadableMessage requests a human-readable summary from every
// configured stream's workers, serialized across workers so output never
// interleaves.
func DumpReadableMessage() error {
	h := Default()
	if err := h.Instruction.Dump(); err != nil {
		return err
	}
	if err := h.Cache.Dump(); err != nil {
		return err
	}
	return h.Branch.Dump()
}
