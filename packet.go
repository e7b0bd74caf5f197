// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// PacketType tags the family a [Packet] belongs to: a tallied event or one
// of the in-band control commands described in the control protocol.
type PacketType uint16

const (
	// PacketData carries pre-tallied counters for one translation block
	// (or, for the cache/branch streams, one memory access).
	PacketData PacketType = iota
	// PacketHot is the low-overhead variant of PacketData used on the
	// hottest producer paths; simulators must accumulate it exactly like
	// PacketData but may skip bookkeeping that only PacketData needs.
	PacketHot
	// PacketBarrier asks every worker to publish a consistent snapshot of
	// its counters so the producer can sample them.
	PacketBarrier
	// PacketReset asks every worker to zero all internal and aggregated
	// state.
	PacketReset
	// PacketDumpInfo asks every worker to print a human-readable summary,
	// serialized across workers by the shared token.
	PacketDumpInfo
	// PacketSyncData asks a worker to publish a snapshot under the
	// sync_flag handshake (see Stream.IssueSync / Stream.WaitSync).
	PacketSyncData
)

// String renders the packet type the way the package's fatal-error
// messages name it.
func (t PacketType) String() string {
	switch t {
	case PacketData:
		return "DATA"
	case PacketHot:
		return "HOT_DATA"
	case PacketBarrier:
		return "BARRIER"
	case PacketReset:
		return "RESET"
	case PacketDumpInfo:
		return "DUMP_INFO"
	case PacketSyncData:
		return "SYNC_DATA"
	default:
		return "UNKNOWN"
	}
}

// ProcessorMode is the ARM CPU mode encoding the original simulator reads
// off the guest's CPSR, carried forward unchanged from
// arch/arm/vpmu-arm-translate.cc's mode constants.
type ProcessorMode uint8

const (
	ModeUSR ProcessorMode = 0x10
	ModeFIQ ProcessorMode = 0x11
	ModeIRQ ProcessorMode = 0x12
	ModeSVC ProcessorMode = 0x13
	ModeMON ProcessorMode = 0x16
	ModeABT ProcessorMode = 0x17
	ModeHYP ProcessorMode = 0x1a
	ModeUND ProcessorMode = 0x1b
	ModeSYS ProcessorMode = 0x1f
)

// ProcessorKind distinguishes CPU-origin from GPU-origin references in the
// cache stream, matching the original's CPU=0/GPU=1 encoding.
type ProcessorKind uint8

const (
	ProcessorCPU ProcessorKind = 0
	ProcessorGPU ProcessorKind = 1
)

// MaxCPUCores bounds the per-core arrays embedded in aggregated Data types.
// The original's VPMU_MAX_CPU_CORES; kept as a small fixed bound so Data
// stays a plain value type that copies cheaply across the shared control
// block.
const MaxCPUCores = 8

// Packet is implemented by every stream kind's wire packet. It exposes just
// enough to route control packets generically inside the ring/batcher/
// backend plumbing; the kind-specific payload is read directly off the
// concrete type by that kind's Simulator.
type Packet interface {
	PacketType() PacketType
	PacketCore() uint8
}

// TBCounters is the per-translation-block counter record the emulator
// pre-tallies and the instruction stream's DATA packets point at. Its
// lifetime must exceed the stream latency: the producer owns it and must
// not mutate or free it until every worker has drained the packet
// referencing it.
type TBCounters struct {
	Total     uint64
	Load      uint64
	Store     uint64
	HasBranch uint64
	Ticks     uint64
}

// InstructionPacket is the instruction stream's wire packet. It is the one
// packet family in this module that carries a raw pointer (TBCounters) into
// producer-owned memory; per spec.md's design notes, this means the
// instruction stream may only ever run with backends whose workers share
// the producer's address space. See streamSpec.shmSafe.
type InstructionPacket struct {
	Type       PacketType
	NumExSlots uint8
	Core       uint8
	Mode       ProcessorMode
	TBCounters *TBCounters
}

func (p InstructionPacket) PacketType() PacketType { return p.Type }
func (p InstructionPacket) PacketCore() uint8       { return p.Core }

// CachePacket is the cache stream's wire packet: one memory access, fixed
// size, 8-byte aligned (mirroring the original's #pragma pack(8) layout).
type CachePacket struct {
	Type       PacketType
	NumExSlots uint8
	Core       uint8
	Processor  ProcessorKind
	Addr       uint64
	Size       uint16
}

func (p CachePacket) PacketType() PacketType { return p.Type }
func (p CachePacket) PacketCore() uint8       { return p.Core }

// BranchPacket is the branch-predictor stream's wire packet.
type BranchPacket struct {
	Type       PacketType
	NumExSlots uint8
	Core       uint8
	Mode       ProcessorMode
	PC         uint64
	Target     uint64
	Taken      bool
}

func (p BranchPacket) PacketType() PacketType { return p.Type }
func (p BranchPacket) PacketCore() uint8       { return p.Core }

// PlatformInfo is the emulator-wide configuration written once at stream
// build time and read by every worker; copied by value into shared memory
// for the process backend.
type PlatformInfo struct {
	CPUCores int
	GPUCores int
}
