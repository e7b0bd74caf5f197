// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"time"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// syncDeadline bounds the producer→worker SYNC_DATA handshake (WaitSynced).
// Exceeding it is fatal, per the liveness-failure error kind. Build does
// not wait for worker readiness, so no deadline applies there.
const syncDeadline = 5 * time.Second

// DefaultSyncPeriod is how many bulk sends ThreadBackend makes before
// auto-injecting a BARRIER, giving the producer a bounded-lag view of
// worker counters without an explicit sync call. ProcessBackend does not
// auto-inject BARRIERs. The two source
// backends this module is descended from used different periods (2 and 4
// batches); both values are within the documented [2,4] tuning range, and
// this single default replaces the discrepancy. Correctness never depends
// on this value.
const DefaultSyncPeriod = 3

// WorkerControl is the per-worker slice of the shared control block: a job
// semaphore, the worker's model and aggregated data, and the sync
// handshake fields. Model is written once at build and never touched
// again; Data is single-writer (this worker) except during the sync
// handshake, where the producer only reads after observing syncFlag true.
type WorkerControl[M any, D any] struct {
	_         pad
	id        int
	semaphore atomix.Int64 // counting: number of pending wake-ups
	_         pad
	syncCounter atomix.Uint64
	syncFlag    atomix.Bool
	cancel      atomix.Bool
	_           pad
	Model M
	Data  D
}

// Post wakes the worker once, incrementing its pending-wakeup count. The
// producer calls this after every batch push.
func (c *WorkerControl[M, D]) Post() {
	c.semaphore.AddAcqRel(1)
}

// Wait blocks (spin-napping) until at least one pending wake-up is
// available, then consumes it. Returns false if Cancel has been requested,
// letting the worker loop exit at this deferred cancellation point instead
// of relying on OS thread cancellation.
func (c *WorkerControl[M, D]) Wait() (ok bool) {
	sw := spin.Wait{}
	for {
		if c.cancel.LoadAcquire() {
			return false
		}
		n := c.semaphore.LoadAcquire()
		if n > 0 && c.semaphore.CompareAndSwapAcqRel(n, n-1) {
			return true
		}
		sw.Once()
	}
}

// Cancel requests the worker loop exit at its next Wait.
func (c *WorkerControl[M, D]) Cancel() {
	c.cancel.StoreRelease(true)
}

// ResetSyncFlag clears syncFlag ahead of a SYNC_DATA handshake. Single
// writer: the producer.
func (c *WorkerControl[M, D]) ResetSyncFlag() {
	c.syncFlag.StoreRelease(false)
}

// PublishSync increments syncCounter and sets syncFlag, completing the
// worker side of a SYNC_DATA handshake.
func (c *WorkerControl[M, D]) PublishSync() {
	c.syncCounter.AddAcqRel(1)
	c.syncFlag.StoreRelease(true)
}

// WaitSynced polls syncFlag until true or syncDeadline elapses. Returns
// ErrSimulatorsDown on timeout.
func (c *WorkerControl[M, D]) WaitSynced() error {
	deadline := time.Now().Add(syncDeadline)
	sw := spin.Wait{}
	for !c.syncFlag.LoadAcquire() {
		if time.Now().After(deadline) {
			return ErrSimulatorsDown
		}
		sw.Once()
	}
	return nil
}

// SharedCommon is the part of the control block shared across every
// worker of a stream: platform info, the DUMP serialization token, and the
// producer-liveness heartbeat counter (multi-process backend only).
type SharedCommon struct {
	_        pad
	Platform PlatformInfo
	token    atomix.Uint64
	_        pad
	heartbeat atomix.Uint64
	_         pad
}

// ResetToken zeros the DUMP serialization token, called by the producer
// before issuing a DUMP_INFO packet.
func (s *SharedCommon) ResetToken() {
	s.token.StoreRelease(0)
}

// AwaitTurn spin-waits until the token equals workerID, giving that worker
// its exclusive slice of console output. It does not advance the token;
// the worker calls AdvanceTurn when it has finished printing.
func (s *SharedCommon) AwaitTurn(workerID int) {
	sw := spin.Wait{}
	for s.token.LoadAcquire() != uint64(workerID) {
		sw.Once()
	}
}

// AdvanceTurn hands DUMP ownership to workerID+1, called after a worker
// finishes printing its DUMP output.
func (s *SharedCommon) AdvanceTurn(workerID int) {
	s.token.StoreRelease(uint64(workerID) + 1)
}

// WaitAllDumped spin-waits until the token reaches numWorkers, meaning
// every worker has printed its DUMP output.
func (s *SharedCommon) WaitAllDumped(numWorkers int) {
	sw := spin.Wait{}
	for s.token.LoadAcquire() != uint64(numWorkers) {
		sw.Once()
	}
}

// Beat increments the producer-liveness heartbeat. The producer calls
// this roughly every 100ms; see RunHeartbeatSidecar for the supervisor
// side.
func (s *SharedCommon) Beat() {
	s.heartbeat.AddAcqRel(1)
}

// HeartbeatValue returns the current heartbeat count.
func (s *SharedCommon) HeartbeatValue() uint64 {
	return s.heartbeat.LoadAcquire()
}
