// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// Backend is the interchangeable implementation of "build common
// resources; spawn workers; accept sends; propagate control packets".
// Three backends implement it: InlineBackend, ThreadBackend,
// ProcessBackend.
type Backend[P Packet, M any, D any] interface {
	// Build allocates the ring (if any) and control block, then spawns
	// one worker per entry in workers.
	Build(bufferSize int, workers []Simulator[P, M, D], platform PlatformInfo) error

	// Send pushes a batch of refs, back-pressuring until there is room.
	Send(refs []P) error

	// SendOne pushes a single ref.
	SendOne(ref P) error

	// Reset flushes a RESET control packet to every worker.
	Reset() error

	// Sync performs the double-barrier handshake: BARRIER, wait for every
	// reader to drain, BARRIER again, wait again. Stream.Sync flushes the
	// batchers before calling it.
	Sync() error

	// SyncNonBlocking sends a single BARRIER without waiting.
	SyncNonBlocking() error

	// Dump resets the serialization token, sends DUMP_INFO, and blocks
	// until every worker has printed its summary.
	Dump() error

	// IssueSync resets every worker's sync flag and sends SYNC_DATA.
	IssueSync() error

	// WaitSync polls every worker's sync flag until set or the 5s
	// deadline elapses.
	WaitSync() error

	// NumWorkers reports how many workers are running.
	NumWorkers() int

	// Data returns a snapshot of worker workerID's aggregated data.
	Data(workerID int) (D, error)

	// Model returns worker workerID's model descriptor.
	Model(workerID int) (M, error)

	// Destroy tears down every worker and frees backend resources.
	Destroy() error
}
