// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"bytes"
	"io"
	"os"
	"testing"

	"code.hybscloud.com/vpmutrace"
)

func newBoundInstructionStream(t *testing.T, backend vpmu.BackendKind, numSims int, ringCap int) *vpmu.Stream[vpmu.InstructionPacket, vpmu.InstructionModel, vpmu.InstructionData] {
	t.Helper()
	s := vpmu.NewInstructionStream()
	cfgs := make([]vpmu.SimConfig, numSims)
	for i := range cfgs {
		cfgs[i] = vpmu.SimConfig{"name": "CortexA9"}
	}
	if err := s.Bind(cfgs); err != nil {
		t.Fatalf("Bind: %v", err)
	}
	if err := s.Build(vpmu.Options{Backend: backend, RingCapacity: ringCap, NumCores: 1}); err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(func() { _ = s.Destroy() })
	return s
}

// TestThreadBackendThreeUserPackets is end-to-end scenario 1 against the
// concurrent backend: one worker, one core, 3 DATA refs, verified after a
// blocking Sync.
func TestThreadBackendThreeUserPackets(t *testing.T) {
	s := newBoundInstructionStream(t, vpmu.BackendThread, 1, 64)

	tb := &vpmu.TBCounters{Total: 10, Load: 3, Store: 2, HasBranch: 1, Ticks: 12}
	for i := 0; i < 3; i++ {
		if err := s.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeUSR, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef(%d): %v", i, err)
		}
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	user := s.Data(0).User()
	if user.Total != 30 || user.Load != 9 || user.Store != 6 || user.HasBranch != 3 || user.Ticks != 36 {
		t.Fatalf("User(): got %+v, want total=30 load=9 store=6 branch=3 ticks=36", user)
	}
}

// TestThreadBackendBackPressureScenario is end-to-end scenario 3: a small
// ring forces the producer to observe back-pressure at some point while
// still losing no packets across 1000 refs batched at up to 256.
func TestThreadBackendBackPressureScenario(t *testing.T) {
	s := newBoundInstructionStream(t, vpmu.BackendThread, 1, 64)

	tb := &vpmu.TBCounters{Total: 1, Load: 0, Store: 0, HasBranch: 0, Ticks: 1}
	const n = 1000
	for i := 0; i < n; i++ {
		if err := s.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeUSR, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef(%d): %v", i, err)
		}
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}
	if got := s.Data(0).User().Total; got != n {
		t.Fatalf("User().Total: got %d, want %d (no packets may be dropped under back-pressure)", got, n)
	}
}

// TestThreadBackendResetIdempotence is end-to-end scenario 5:
// reset(); send 50; sync(); reset(); sync() must land on the all-zero state.
func TestThreadBackendResetIdempotence(t *testing.T) {
	s := newBoundInstructionStream(t, vpmu.BackendThread, 1, 64)

	if err := s.Reset(); err != nil {
		t.Fatalf("Reset: %v", err)
	}
	tb := &vpmu.TBCounters{Total: 2, Load: 1, Store: 1, HasBranch: 0, Ticks: 2}
	for i := 0; i < 50; i++ {
		if err := s.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeUSR, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef(%d): %v", i, err)
		}
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync after first batch: %v", err)
	}
	if err := s.Reset(); err != nil {
		t.Fatalf("second Reset: %v", err)
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync after reset: %v", err)
	}

	data := s.Data(0)
	var zero vpmu.InstructionData
	if data != zero {
		t.Fatalf("final Data: got %+v, want all-zero", data)
	}
}

// TestThreadBackendIRQRouting is end-to-end scenario 6: 2 workers, 1 core,
// 5 IRQ-mode refs — interrupt tallies the trace sum, user stays zero.
func TestThreadBackendIRQRouting(t *testing.T) {
	s := newBoundInstructionStream(t, vpmu.BackendThread, 2, 64)

	tb := &vpmu.TBCounters{Total: 3, Load: 1, Store: 1, HasBranch: 0, Ticks: 3}
	for i := 0; i < 5; i++ {
		if err := s.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeIRQ, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef(%d): %v", i, err)
		}
	}
	if err := s.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	for w := 0; w < 2; w++ {
		data := s.Data(w)
		if data.Interrupt().Total != 15 {
			t.Fatalf("worker %d Interrupt().Total: got %d, want 15", w, data.Interrupt().Total)
		}
		if data.User().Total != 0 {
			t.Fatalf("worker %d User().Total: got %d, want 0", w, data.User().Total)
		}
	}
}

// TestThreadBackendDumpSerialization is end-to-end scenario 2: DUMP output
// across workers never interleaves and appears in ascending worker order.
func TestThreadBackendDumpSerialization(t *testing.T) {
	s := newBoundInstructionStream(t, vpmu.BackendThread, 2, 64)

	if err := s.SyncNonBlocking(); err != nil {
		t.Fatalf("SyncNonBlocking: %v", err)
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatalf("Pipe: %v", err)
	}
	orig := os.Stdout
	os.Stdout = w
	dumpErr := s.Dump()
	os.Stdout = orig
	w.Close()
	out, _ := io.ReadAll(r)
	if dumpErr != nil {
		t.Fatalf("Dump: %v", dumpErr)
	}

	first := bytes.Index(out, []byte("CortexA9[0]"))
	second := bytes.Index(out, []byte("CortexA9[1]"))
	if first < 0 || second < 0 {
		t.Fatalf("Dump output missing a worker section: %q", out)
	}
	if first > second {
		t.Fatalf("Dump output: worker 0's section must precede worker 1's, got %q", out)
	}
}

// TestInlineAndThreadBackendsAgree is the backend equivalence check: one
// fixed mixed-mode trace through both backends must land on the same final
// Data.
func TestInlineAndThreadBackendsAgree(t *testing.T) {
	trace := []vpmu.InstructionPacket{}
	modes := []vpmu.ProcessorMode{vpmu.ModeUSR, vpmu.ModeSVC, vpmu.ModeIRQ, vpmu.ModeUSR}
	for i, m := range modes {
		trace = append(trace, vpmu.InstructionPacket{
			Type: vpmu.PacketData,
			Core: 0,
			Mode: m,
			TBCounters: &vpmu.TBCounters{
				Total: uint64(i + 1), Load: 1, Store: 1, HasBranch: 0, Ticks: uint64(2 * (i + 1)),
			},
		})
	}

	run := func(backend vpmu.BackendKind) vpmu.InstructionData {
		s := newBoundInstructionStream(t, backend, 1, 64)
		for _, ref := range trace {
			if err := s.SendRef(0, ref); err != nil {
				t.Fatalf("SendRef: %v", err)
			}
		}
		if err := s.Sync(); err != nil {
			t.Fatalf("Sync: %v", err)
		}
		return s.Data(0)
	}

	inline := run(vpmu.BackendInline)
	thread := run(vpmu.BackendThread)
	if inline != thread {
		t.Fatalf("inline and thread backends diverged: inline=%+v thread=%+v", inline, thread)
	}
}

// TestBatcherEquivalence is property 6: delivering a trace one ref at a
// time (the inline backend dispatches each ref on its own) must produce the
// same final Data as delivering it through ring pushes of batches of up to
// 256 (the thread backend).
func TestBatcherEquivalence(t *testing.T) {
	const n = 600
	tb := &vpmu.TBCounters{Total: 1, Load: 1, Store: 0, HasBranch: 0, Ticks: 1}

	oneByOne := newBoundInstructionStream(t, vpmu.BackendInline, 1, 64)
	for i := 0; i < n; i++ {
		if err := oneByOne.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeUSR, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef: %v", err)
		}
	}
	if err := oneByOne.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	batched := newBoundInstructionStream(t, vpmu.BackendThread, 1, 64)
	for i := 0; i < n; i++ {
		if err := batched.SendRef(0, vpmu.InstructionPacket{Type: vpmu.PacketData, Core: 0, Mode: vpmu.ModeUSR, TBCounters: tb}); err != nil {
			t.Fatalf("SendRef: %v", err)
		}
	}
	if err := batched.Sync(); err != nil {
		t.Fatalf("Sync: %v", err)
	}

	a, b := oneByOne.Data(0), batched.Data(0)
	if a != b {
		t.Fatalf("batching changed the delivered multiset: one-by-one=%+v batched=%+v", a, b)
	}
}
