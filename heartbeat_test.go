// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"os/exec"
	"testing"
	"time"

	"code.hybscloud.com/vpmutrace"
)

// TestHeartbeatSidecarKillsWorkersWhenProducerDies is end-to-end scenario
// 4's liveness half: when the heartbeat counter stalls and the producer
// pid no longer exists, RunHeartbeatSidecar kills every worker pid.
func TestHeartbeatSidecarKillsWorkersWhenProducerDies(t *testing.T) {
	sleepPath, err := exec.LookPath("sleep")
	if err != nil {
		t.Skip("no sleep binary available to stand in for a worker process")
	}

	worker := exec.Command(sleepPath, "30")
	if err := worker.Start(); err != nil {
		t.Fatalf("start worker stand-in: %v", err)
	}

	deadParent := exec.Command(sleepPath, "0")
	if err := deadParent.Run(); err != nil {
		t.Fatalf("run short-lived stand-in for a dead producer: %v", err)
	}
	deadPID := deadParent.Process.Pid

	var common vpmu.SharedCommon
	done := make(chan struct{})
	go func() {
		vpmu.RunHeartbeatSidecar(&common, deadPID, []int{worker.Process.Pid}, "")
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		_ = worker.Process.Kill()
		t.Fatalf("RunHeartbeatSidecar did not return within 5s of a dead producer")
	}

	waitErr := worker.Wait()
	if waitErr == nil {
		t.Fatalf("worker stand-in exited cleanly, want it killed by the sidecar")
	}
}
