// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"os"
	"syscall"
	"unsafe"

	"code.hybscloud.com/spin"
)

// MapSharedCommon maps just enough of the named shared-memory segment to
// read its leading SharedCommon region, for the heartbeat sidecar (which
// needs only the heartbeat counter, not any worker's control block or the
// ring).
func MapSharedCommon(shmPath string) (*SharedCommon, error) {
	size := unsafe.Sizeof(SharedCommon{})
	f, err := os.OpenFile(shmPath, os.O_RDWR, 0600)
	if err != nil {
		return nil, fatalf("heartbeat: open shm segment: %w", err)
	}
	defer f.Close()
	mem, err := syscall.Mmap(int(f.Fd()), 0, int(size), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, fatalf("heartbeat: mmap shm segment: %w", err)
	}
	return (*SharedCommon)(unsafe.Pointer(&mem[0])), nil
}

// OpenShmWorkerRegion maps the named shared-memory segment a
// ProcessBackend created and returns this worker's control block and
// ring, using the exact same offset arithmetic ProcessBackend.Build used.
// Called once by the re-exec'd worker process before it starts draining.
func OpenShmWorkerRegion[P Packet, M any, D any](shmPath string, workerIndex, numWorkers, bufferSize int) (*SharedCommon, *WorkerControl[M, D], *ShmRing[P], error) {
	commonSize := unsafe.Sizeof(SharedCommon{})
	ctlSize := controlBlockSize[M, D]()
	ringLayout := ShmRingLayout{Capacity: bufferSize, NumReaders: numWorkers}
	var zeroP P
	ringSize := ringLayout.Size(unsafe.Sizeof(zeroP))
	total := commonSize + uintptr(numWorkers)*ctlSize + ringSize

	f, err := os.OpenFile(shmPath, os.O_RDWR, 0600)
	if err != nil {
		return nil, nil, nil, fatalf("worker: open shm segment: %w", err)
	}
	defer f.Close()
	mem, err := syscall.Mmap(int(f.Fd()), 0, int(total), syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
	if err != nil {
		return nil, nil, nil, fatalf("worker: mmap shm segment: %w", err)
	}

	common := (*SharedCommon)(unsafe.Pointer(&mem[0]))
	ctlOff := commonSize + uintptr(workerIndex)*ctlSize
	ctl := (*WorkerControl[M, D])(unsafe.Pointer(&mem[ctlOff]))
	ring := ShmRingAt[P](mem[commonSize+uintptr(numWorkers)*ctlSize:], ringLayout)

	return common, ctl, ring, nil
}

// RunShmWorker is the full worker loop body for the process backend,
// shared by every stream kind's re-exec'd worker subcommand: bind
// platform info, build the simulator, then drain the ring exactly like
// ThreadBackend's goroutine workers do, dispatching control packets
// through the same token/sync-flag protocol. Never returns under normal
// operation; returns only if Cancel is observed (which nothing currently
// sets from outside this process — teardown is via SIGKILL from the
// parent or the heartbeat sidecar).
func RunShmWorker[P Packet, M any, D any](id int, common *SharedCommon, ctl *WorkerControl[M, D], ring *ShmRing[P], sim Simulator[P, M, D], platform PlatformInfo) {
	sim.SetPlatformInfo(platform)
	if err := sim.Build(&ctl.Model); err != nil {
		panic(fatalf("worker %d: build: %w", id, err))
	}

	buf := make([]P, popBatchSize)
	for ctl.Wait() {
		for {
			n, err := ring.Pop(id, buf, popBatchSize)
			if IsWouldBlock(err) {
				break
			}
			for i := 0; i < n; i++ {
				dispatchShm(id, common, sim, ctl, buf[i])
			}
		}
	}
}

func dispatchShm[P Packet, M any, D any](id int, common *SharedCommon, sim Simulator[P, M, D], ctl *WorkerControl[M, D], ref P) {
	switch ref.PacketType() {
	case PacketData:
		sim.PacketProcessor(ref, &ctl.Data)
	case PacketHot:
		sim.HotPacketProcessor(ref, &ctl.Data)
	case PacketBarrier:
		sim.Barrier(&ctl.Data)
	case PacketReset:
		sim.Reset(&ctl.Data)
	case PacketDumpInfo:
		common.AwaitTurn(id)
		sim.Dump(id, ctl.Data)
		common.AdvanceTurn(id)
	case PacketSyncData:
		sw := spin.Wait{}
		for ctl.syncFlag.LoadAcquire() {
			sw.Once()
		}
		sim.Barrier(&ctl.Data)
		ctl.PublishSync()
	default:
		panic(fatalf("worker %d: %w: %v", id, ErrUnexpectedPacket, ref.PacketType()))
	}
}
