// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package vpmu is the trace streaming engine for a virtual performance
// monitoring unit embedded in a full-system CPU emulator.
//
// As the emulator translates and executes guest code it emits references —
// fixed-size packets naming a CPU core, a processor mode, and (for the
// instruction stream) a pointer to a per-translation-block counter record.
// A pool of pluggable timing simulators consumes these references in
// parallel and maintains per-simulator aggregated counters the emulator can
// read back on demand.
//
// # Quick Start
//
//	stream := vpmu.NewInstructionStream()
//	err := stream.Bind([]vpmu.SimConfig{{"name": "CortexA9", "frequency": 1e9}})
//	if err != nil {
//	    // configuration error
//	}
//	if err := stream.Build(vpmu.Options{Backend: vpmu.BackendThread}); err != nil {
//	    // no simulator matched, or workers failed to come up
//	}
//	defer stream.Destroy()
//
//	stream.SendRef(0, vpmu.InstructionPacket{
//	    Type: vpmu.PacketData,
//	    Core: 0,
//	    Mode: vpmu.ModeUSR,
//	    TBCounters: &vpmu.TBCounters{Total: 10, Load: 3, Store: 2, HasBranch: 1, Ticks: 12},
//	})
//	if err := stream.Sync(); err != nil {
//	    // a worker did not respond within the sync deadline
//	}
//	data := stream.Data(0)
//
// # Backends
//
// Three interchangeable backends implement the same [Backend] contract:
//
//   - [InlineBackend]: runs simulators in-line on the producer goroutine.
//     No ring, no semaphore. Used for determinism and debugging.
//   - [ThreadBackend]: workers are goroutines draining a process-local
//     [Ring].
//   - [ProcessBackend]: workers are re-exec'd OS processes draining a
//     [ShmRing] mapped into shared memory, supervised by a heartbeat sidecar
//     that kills workers if the producer dies.
//
// # Ring buffer
//
// [Ring] is a broadcast multi-consumer circular queue: every packet pushed
// by the single producer is delivered to every registered reader, each at
// its own independent cursor. This is a broadcast structure, not a
// work-distributing queue.
//
// # Control protocol
//
// In-band control packets travel the same ring as data, guaranteeing FIFO
// ordering with surrounding data: RESET, BARRIER (used by [Stream.Sync]),
// DUMP_INFO (used by [Stream.Dump], serialized across workers by a shared
// token so output never interleaves), and SYNC_DATA (used by
// [Stream.IssueSync] / [Stream.WaitSync]).
package vpmu
