// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"os"
	"os/exec"
	"syscall"
	"time"
)

// beatInterval is how often the producer-side goroutine increments the
// shared heartbeat counter.
const beatInterval = 100 * time.Millisecond

// pollInterval is how often the sidecar samples the heartbeat counter.
const pollInterval = 500 * time.Millisecond

// heartbeat is the producer-side half of the liveness protocol: a
// goroutine, living in the producer's own process, that increments
// SharedCommon's heartbeat counter on a fixed tick. It cannot itself
// detect producer death (it dies along with the producer) — that is the
// sidecar's job, run via RunHeartbeatSidecar in a separate re-exec'd
// process (see ProcessBackend.Build).
type heartbeat struct {
	common *SharedCommon
	cmds   []*exec.Cmd
	done   chan struct{}
}

func newHeartbeat(common *SharedCommon, parentPID int, cmds []*exec.Cmd) *heartbeat {
	_ = parentPID
	return &heartbeat{common: common, cmds: cmds, done: make(chan struct{})}
}

func (h *heartbeat) start() {
	go func() {
		t := time.NewTicker(beatInterval)
		defer t.Stop()
		for {
			select {
			case <-h.done:
				return
			case <-t.C:
				h.common.Beat()
			}
		}
	}()
}

func (h *heartbeat) stop() {
	close(h.done)
}

// RunHeartbeatSidecar is the body of the re-exec'd heartbeat supervisor
// process. It samples common's heartbeat counter every pollInterval; if
// the counter hasn't moved AND the producer process is no longer alive
// (kill(parentPID, 0) returns ESRCH), it SIGKILLs every worker pid,
// unlinks the named shm segment, and returns. If the producer is merely
// stopped (e.g. under a debugger) — kill succeeds — the sidecar keeps
// waiting rather than killing.
//
// This never returns on its own under a live producer; callers run it as
// the entire body of a dedicated subprocess.
func RunHeartbeatSidecar(common *SharedCommon, parentPID int, workerPIDs []int, shmPath string) {
	last := common.HeartbeatValue()
	for {
		time.Sleep(pollInterval)
		cur := common.HeartbeatValue()
		if cur != last {
			last = cur
			continue
		}
		if processAlive(parentPID) {
			continue
		}
		for _, pid := range workerPIDs {
			_ = syscall.Kill(pid, syscall.SIGKILL)
		}
		if shmPath != "" {
			_ = os.Remove(shmPath)
		}
		return
	}
}

// processAlive reports whether pid still exists, via the kill(pid, 0)
// idiom: no signal is sent, but the existence check still happens.
func processAlive(pid int) bool {
	err := syscall.Kill(pid, 0)
	if err == nil {
		return true
	}
	return err != syscall.ESRCH
}
