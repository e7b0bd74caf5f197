// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// Simulator is the contract every pluggable timing model implements. P is
// the stream kind's packet type, M its model descriptor, D its aggregated
// data type.
//
// A worker owns exactly one Simulator instance for its whole lifetime.
// For the inline and thread backends, Stream.Build creates and binds it on
// the producer goroutine before the backend starts the worker; a
// re-exec'd process-backend worker creates its own by name. The
// streaming engine never holds two simulators concurrently reachable from
// each other: simulators do not call across to one another's state.
type Simulator[P Packet, M any, D any] interface {
	// Bind records a per-worker configuration document. Called once,
	// before Build, by Stream.Build. A re-exec'd process-backend worker
	// builds its simulator without calling Bind.
	Bind(config SimConfig) error

	// Build initialises model from the bound configuration. Called once
	// per worker, before the worker starts draining its ring reader.
	Build(model *M) error

	// SetPlatformInfo records emulator-wide configuration (core counts)
	// written once at stream build time.
	SetPlatformInfo(info PlatformInfo)

	// PacketProcessor accumulates one DATA packet into data.
	PacketProcessor(ref P, data *D)

	// HotPacketProcessor accumulates one HOT_* packet into data. Must
	// produce the same counters as PacketProcessor for the equivalent
	// DATA packet; it may skip bookkeeping PacketProcessor performs for
	// packet kinds that need it (e.g. per-reference logging).
	HotPacketProcessor(ref P, data *D)

	// Barrier publishes a consistent snapshot of internal state into
	// data so a BARRIER-triggered producer read observes a coherent
	// sample.
	Barrier(data *D)

	// Reset zeros all simulator-internal state and data.
	Reset(data *D)

	// Dump prints a human-readable summary of data to the console. The
	// caller guarantees DUMP output across workers never interleaves
	// (see the shared token protocol in control.go).
	Dump(workerID int, data D)
}

// Factory constructs a new, unbound Simulator instance by name. Each
// stream kind maintains its own name→Factory registry; adding a new model
// is adding an entry to that registry.
type Factory[P Packet, M any, D any] func() Simulator[P, M, D]
