// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"syscall"
	"unsafe"

	"code.hybscloud.com/iox"
)

// shmDir is where named shared-memory segments are created. Linux mounts
// /dev/shm as tmpfs; this gives POSIX shm_open-style semantics (a name any
// process can map by path) without cgo.
const shmDir = "/dev/shm"

// ProcessBackend runs each simulator as a re-exec'd OS process mapping a
// shared-memory segment. Go cannot safely fork() mid-process (goroutines,
// runtime-owned threads, the GC would all be left in an inconsistent
// state), so where the source forks, this backend re-execs the current
// binary into a worker subcommand instead.
//
// Only enabled for stream kinds whose packet and Data/Model types carry no
// pointers — streamSpec.shmSafe records this per stream kind. The instruction stream
// carries a raw *TBCounters in its packet and is never ShmSafe.
type ProcessBackend[P Packet, M any, D any] struct {
	name     string
	shmPath  string
	mem      []byte
	common   *SharedCommon
	control  []*WorkerControl[M, D]
	ring     *ShmRing[P]
	cmds     []*exec.Cmd
	sidecar  *exec.Cmd
	hb       *heartbeat
	workerBin string
	kind      string
	simNames  []string
	factory   ControlFactory[P]
}

// NewProcessBackend creates a backend whose workers are separate OS
// processes. name becomes the shared-memory segment's basename
// ("vpmu_<kind>_ring_buffer" per the wire layout). kind and simNames let
// the re-exec'd worker look itself up in that stream kind's simulator
// registry; workerBin is the path to re-exec (normally os.Executable()).
// factory synthesizes control-only packets of type P, same role as in
// ThreadBackend.
func NewProcessBackend[P Packet, M any, D any](name, kind string, simNames []string, workerBin string, factory ControlFactory[P]) *ProcessBackend[P, M, D] {
	return &ProcessBackend[P, M, D]{name: name, kind: kind, simNames: simNames, workerBin: workerBin, factory: factory}
}

func controlBlockSize[M any, D any]() uintptr {
	var zero WorkerControl[M, D]
	return unsafe.Sizeof(zero)
}

func (b *ProcessBackend[P, M, D]) Build(bufferSize int, workers []Simulator[P, M, D], platform PlatformInfo) error {
	if len(workers) == 0 {
		return ErrNoSimulators
	}
	_ = workers // the parent never builds simulators itself; workers do

	n := len(b.simNames)
	if n != len(workers) {
		return fatalf("process backend: %d simulator names for %d workers", n, len(workers))
	}

	commonSize := unsafe.Sizeof(SharedCommon{})
	ctlSize := controlBlockSize[M, D]()
	ringLayout := ShmRingLayout{Capacity: bufferSize, NumReaders: n}
	var zeroP P
	ringSize := ringLayout.Size(unsafe.Sizeof(zeroP))

	total := commonSize + uintptr(n)*ctlSize + ringSize

	b.shmPath = filepath.Join(shmDir, b.name)
	_ = os.Remove(b.shmPath) // unlink stale state before (re)creating, per the wire layout note

	f, err := os.OpenFile(b.shmPath, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fatalf("process backend: create shm segment: %w", err)
	}
	defer f.Close()
	if err := f.Truncate(int64(total)); err != nil {
		return fatalf("process backend: size shm segment: %w", err)
	}
	mem, err := syscall.Mmap(int(f.Fd()), 0, int(total), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return fatalf("process backend: mmap shm segment: %w", err)
	}
	b.mem = mem

	off := uintptr(0)
	b.common = (*SharedCommon)(unsafe.Pointer(&mem[off]))
	b.common.Platform = platform
	off += commonSize

	b.control = make([]*WorkerControl[M, D], n)
	for i := 0; i < n; i++ {
		ctl := (*WorkerControl[M, D])(unsafe.Pointer(&mem[off]))
		ctl.id = i
		b.control[i] = ctl
		off += ctlSize
	}

	b.ring = ShmRingAt[P](mem[off:], ringLayout)

	b.cmds = make([]*exec.Cmd, n)
	for i, simName := range b.simNames {
		cmd := exec.Command(b.workerBin, "vpmuworker",
			"--kind", b.kind,
			"--shm", b.shmPath,
			"--worker", fmt.Sprint(i),
			"--workers", fmt.Sprint(n),
			"--buffer", fmt.Sprint(bufferSize),
			"--sim", simName,
		)
		cmd.Stdout = os.Stdout
		cmd.Stderr = os.Stderr
		if err := cmd.Start(); err != nil {
			return fatalf("process backend: start worker %d: %w", i, err)
		}
		b.cmds[i] = cmd
	}

	b.hb = newHeartbeat(b.common, os.Getpid(), b.cmds)
	b.hb.start()

	workerPIDs := make([]string, 0, n)
	for _, cmd := range b.cmds {
		workerPIDs = append(workerPIDs, fmt.Sprint(cmd.Process.Pid))
	}
	sidecarArgs := append([]string{"vpmuheartbeat", "--shm", b.shmPath, "--parent", fmt.Sprint(os.Getpid())}, workerPIDs...)
	sidecar := exec.Command(b.workerBin, sidecarArgs...)
	sidecar.Stdout = os.Stdout
	sidecar.Stderr = os.Stderr
	if err := sidecar.Start(); err != nil {
		return fatalf("process backend: start heartbeat sidecar: %w", err)
	}
	b.sidecar = sidecar

	return nil
}

func (b *ProcessBackend[P, M, D]) postAll() {
	for _, ctl := range b.control {
		ctl.Post()
	}
}

func (b *ProcessBackend[P, M, D]) pushBackoff(refs []P) error {
	bo := iox.Backoff{}
	for {
		err := b.ring.Push(refs)
		if err == nil {
			return nil
		}
		if !IsWouldBlock(err) {
			return err
		}
		bo.Wait()
	}
}

func (b *ProcessBackend[P, M, D]) Send(refs []P) error {
	if err := b.pushBackoff(refs); err != nil {
		return err
	}
	b.postAll()
	b.common.Beat()
	return nil
}

func (b *ProcessBackend[P, M, D]) SendOne(ref P) error { return b.Send([]P{ref}) }

func (b *ProcessBackend[P, M, D]) Reset() error {
	return b.Send([]P{b.factory(PacketReset)})
}

func (b *ProcessBackend[P, M, D]) SyncNonBlocking() error {
	return b.Send([]P{b.factory(PacketBarrier)})
}

func (b *ProcessBackend[P, M, D]) Sync() error {
	if err := b.pushBackoff([]P{b.factory(PacketBarrier)}); err != nil {
		return err
	}
	b.postAll()
	b.ring.WaitEmpty()
	if err := b.pushBackoff([]P{b.factory(PacketBarrier)}); err != nil {
		return err
	}
	b.postAll()
	b.ring.WaitEmpty()
	return nil
}

func (b *ProcessBackend[P, M, D]) Dump() error {
	b.common.ResetToken()
	if err := b.pushBackoff([]P{b.factory(PacketDumpInfo)}); err != nil {
		return err
	}
	b.postAll()
	b.common.WaitAllDumped(len(b.control))
	return nil
}

func (b *ProcessBackend[P, M, D]) IssueSync() error {
	for _, ctl := range b.control {
		ctl.ResetSyncFlag()
	}
	return b.pushBackoff([]P{b.factory(PacketSyncData)})
}

func (b *ProcessBackend[P, M, D]) WaitSync() error {
	b.postAll()
	for _, ctl := range b.control {
		if err := ctl.WaitSynced(); err != nil {
			return err
		}
	}
	return nil
}

func (b *ProcessBackend[P, M, D]) NumWorkers() int { return len(b.control) }

func (b *ProcessBackend[P, M, D]) Data(workerID int) (D, error) {
	if workerID < 0 || workerID >= len(b.control) {
		var zero D
		return zero, ErrWorkerIndex
	}
	return b.control[workerID].Data, nil
}

func (b *ProcessBackend[P, M, D]) Model(workerID int) (M, error) {
	if workerID < 0 || workerID >= len(b.control) {
		var zero M
		return zero, ErrWorkerIndex
	}
	return b.control[workerID].Model, nil
}

func (b *ProcessBackend[P, M, D]) Destroy() error {
	if b.hb != nil {
		b.hb.stop()
	}
	if b.sidecar != nil && b.sidecar.Process != nil {
		_ = b.sidecar.Process.Kill()
		_ = b.sidecar.Wait()
	}
	for _, cmd := range b.cmds {
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
	}
	for _, cmd := range b.cmds {
		_ = cmd.Wait()
	}
	if b.mem != nil {
		_ = syscall.Munmap(b.mem)
	}
	if b.shmPath != "" {
		_ = os.Remove(b.shmPath)
	}
	return nil
}
