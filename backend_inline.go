// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// InlineBackend runs every simulator on the producer goroutine, on every
// Send call. No ring, no semaphore, no concurrency: used for determinism
// and debugging, and as the reference implementation the concurrent
// backends must agree with (see TestInlineAndThreadBackendsAgree).
type InlineBackend[P Packet, M any, D any] struct {
	sims     []Simulator[P, M, D]
	models   []M
	data     []D
	platform PlatformInfo
}

func NewInlineBackend[P Packet, M any, D any]() *InlineBackend[P, M, D] {
	return &InlineBackend[P, M, D]{}
}

func (b *InlineBackend[P, M, D]) Build(_ int, workers []Simulator[P, M, D], platform PlatformInfo) error {
	if len(workers) == 0 {
		return ErrNoSimulators
	}
	b.sims = workers
	b.models = make([]M, len(workers))
	b.data = make([]D, len(workers))
	b.platform = platform
	for i, s := range b.sims {
		s.SetPlatformInfo(platform)
		if err := s.Build(&b.models[i]); err != nil {
			return fatalf("inline backend: build worker %d: %w", i, err)
		}
	}
	return nil
}

func (b *InlineBackend[P, M, D]) dispatchOne(ref P) error {
	switch ref.PacketType() {
	case PacketData:
		for i, s := range b.sims {
			s.PacketProcessor(ref, &b.data[i])
		}
	case PacketHot:
		for i, s := range b.sims {
			s.HotPacketProcessor(ref, &b.data[i])
		}
	case PacketBarrier:
		for i, s := range b.sims {
			s.Barrier(&b.data[i])
		}
	case PacketReset:
		for i, s := range b.sims {
			s.Reset(&b.data[i])
		}
	case PacketDumpInfo:
		for i, s := range b.sims {
			s.Dump(i, b.data[i])
		}
	case PacketSyncData:
		for i, s := range b.sims {
			s.Barrier(&b.data[i])
		}
	default:
		return ErrUnexpectedPacket
	}
	return nil
}

func (b *InlineBackend[P, M, D]) Send(refs []P) error {
	for _, ref := range refs {
		if err := b.dispatchOne(ref); err != nil {
			return err
		}
	}
	return nil
}

func (b *InlineBackend[P, M, D]) SendOne(ref P) error {
	return b.dispatchOne(ref)
}

func (b *InlineBackend[P, M, D]) Reset() error {
	for i, s := range b.sims {
		s.Reset(&b.data[i])
	}
	return nil
}

func (b *InlineBackend[P, M, D]) Sync() error  { return nil }
func (b *InlineBackend[P, M, D]) SyncNonBlocking() error { return nil }

func (b *InlineBackend[P, M, D]) Dump() error {
	for i, s := range b.sims {
		s.Dump(i, b.data[i])
	}
	return nil
}

func (b *InlineBackend[P, M, D]) IssueSync() error {
	for i, s := range b.sims {
		s.Barrier(&b.data[i])
	}
	return nil
}

func (b *InlineBackend[P, M, D]) WaitSync() error { return nil }

func (b *InlineBackend[P, M, D]) NumWorkers() int { return len(b.sims) }

func (b *InlineBackend[P, M, D]) Data(workerID int) (D, error) {
	if workerID < 0 || workerID >= len(b.data) {
		var zero D
		return zero, ErrWorkerIndex
	}
	return b.data[workerID], nil
}

func (b *InlineBackend[P, M, D]) Model(workerID int) (M, error) {
	if workerID < 0 || workerID >= len(b.models) {
		var zero M
		return zero, ErrWorkerIndex
	}
	return b.models[workerID], nil
}

func (b *InlineBackend[P, M, D]) Destroy() error {
	b.sims = nil
	b.models = nil
	b.data = nil
	return nil
}
