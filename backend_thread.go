// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"sync"

	"code.hybscloud.com/iox"
	"code.hybscloud.com/spin"
)

// ControlFactory builds a control-only packet of the given type for stream
// kind P. Each stream kind knows its own packet layout, so the typed
// front-end supplies this at backend construction time.
type ControlFactory[P Packet] func(t PacketType) P

// popBatchSize is how many packets a worker drains from the ring per Pop
// call, matching the 1024-slot local buffer in the source multi-thread
// backend.
const popBatchSize = 1024

// ThreadBackend runs one goroutine per simulator, all draining a shared,
// process-local Ring. The producer posts every worker's job semaphore
// after each batch push; workers block in WorkerControl.Wait between
// batches.
type ThreadBackend[P Packet, M any, D any] struct {
	ring       *Ring[P]
	control    []*WorkerControl[M, D]
	common     *SharedCommon
	wg         sync.WaitGroup
	sims       []Simulator[P, M, D]
	factory    ControlFactory[P]
	sendCount  uint64
	syncPeriod uint64
}

// NewThreadBackend creates a backend whose workers run as goroutines.
// factory lets the backend synthesize control packets (BARRIER, RESET,
// DUMP_INFO, SYNC_DATA) of the stream's concrete packet type.
func NewThreadBackend[P Packet, M any, D any](factory ControlFactory[P]) *ThreadBackend[P, M, D] {
	return &ThreadBackend[P, M, D]{
		factory:    factory,
		syncPeriod: DefaultSyncPeriod,
	}
}

func (b *ThreadBackend[P, M, D]) Build(bufferSize int, workers []Simulator[P, M, D], platform PlatformInfo) error {
	if len(workers) == 0 {
		return ErrNoSimulators
	}
	b.ring = NewRing[P](bufferSize)
	b.common = &SharedCommon{Platform: platform}
	b.sims = workers
	b.control = make([]*WorkerControl[M, D], len(workers))

	for i, sim := range workers {
		readerID := b.ring.RegisterReader()
		if readerID != i {
			return fatalf("thread backend: reader id %d does not match worker index %d", readerID, i)
		}
		ctl := &WorkerControl[M, D]{id: i}
		b.control[i] = ctl
		sim.SetPlatformInfo(platform)
		if err := sim.Build(&ctl.Model); err != nil {
			return fatalf("thread backend: build worker %d: %w", i, err)
		}
		b.wg.Add(1)
		go b.runWorker(i, sim, ctl)
	}
	return nil
}

func (b *ThreadBackend[P, M, D]) runWorker(id int, sim Simulator[P, M, D], ctl *WorkerControl[M, D]) {
	defer b.wg.Done()
	buf := make([]P, popBatchSize)
	for ctl.Wait() {
		for {
			n, err := b.ring.Pop(id, buf, popBatchSize)
			if IsWouldBlock(err) {
				break
			}
			for i := 0; i < n; i++ {
				b.dispatch(id, sim, ctl, buf[i])
			}
		}
	}
}

func (b *ThreadBackend[P, M, D]) dispatch(id int, sim Simulator[P, M, D], ctl *WorkerControl[M, D], ref P) {
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
		b.common.AwaitTurn(id)
		sim.Dump(id, ctl.Data)
		b.common.AdvanceTurn(id)
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

func (b *ThreadBackend[P, M, D]) postAll() {
	for _, ctl := range b.control {
		ctl.Post()
	}
}

// pushBackoff pushes refs in chunks of at most capacity/2 (the most one
// Ring.Push accepts), posting every worker after each chunk so they can
// drain while the rest of the batch waits for room.
func (b *ThreadBackend[P, M, D]) pushBackoff(refs []P) error {
	bo := iox.Backoff{}
	maxChunk := b.ring.Cap() / 2
	for len(refs) > 0 {
		n := min(len(refs), maxChunk)
		err := b.ring.Push(refs[:n])
		if err == nil {
			b.postAll()
			refs = refs[n:]
			continue
		}
		if !IsWouldBlock(err) {
			return err
		}
		bo.Wait()
	}
	return nil
}

func (b *ThreadBackend[P, M, D]) Send(refs []P) error {
	if err := b.pushBackoff(refs); err != nil {
		return err
	}
	b.postAll()
	b.sendCount++
	if b.syncPeriod > 0 && b.sendCount%b.syncPeriod == 0 {
		return b.SyncNonBlocking()
	}
	return nil
}

func (b *ThreadBackend[P, M, D]) SendOne(ref P) error {
	return b.Send([]P{ref})
}

func (b *ThreadBackend[P, M, D]) Reset() error {
	return b.Send([]P{b.factory(PacketReset)})
}

func (b *ThreadBackend[P, M, D]) SyncNonBlocking() error {
	return b.Send([]P{b.factory(PacketBarrier)})
}

func (b *ThreadBackend[P, M, D]) Sync() error {
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

func (b *ThreadBackend[P, M, D]) Dump() error {
	b.common.ResetToken()
	if err := b.pushBackoff([]P{b.factory(PacketDumpInfo)}); err != nil {
		return err
	}
	b.postAll()
	b.common.WaitAllDumped(len(b.control))
	return nil
}

func (b *ThreadBackend[P, M, D]) IssueSync() error {
	for _, ctl := range b.control {
		ctl.ResetSyncFlag()
	}
	return b.pushBackoff([]P{b.factory(PacketSyncData)})
}

func (b *ThreadBackend[P, M, D]) WaitSync() error {
	b.postAll()
	for _, ctl := range b.control {
		if err := ctl.WaitSynced(); err != nil {
			return err
		}
	}
	return nil
}

func (b *ThreadBackend[P, M, D]) NumWorkers() int { return len(b.control) }

func (b *ThreadBackend[P, M, D]) Data(workerID int) (D, error) {
	if workerID < 0 || workerID >= len(b.control) {
		var zero D
		return zero, ErrWorkerIndex
	}
	return b.control[workerID].Data, nil
}

func (b *ThreadBackend[P, M, D]) Model(workerID int) (M, error) {
	if workerID < 0 || workerID >= len(b.control) {
		var zero M
		return zero, ErrWorkerIndex
	}
	return b.control[workerID].Model, nil
}

func (b *ThreadBackend[P, M, D]) Destroy() error {
	for _, ctl := range b.control {
		ctl.Cancel()
	}
	b.postAll()
	b.wg.Wait()
	return nil
}
