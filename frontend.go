// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "sync"

// DefaultRingCapacity is used when a Stream is built without an explicit
// buffer size override.
const DefaultRingCapacity = 4096

// BackendKind selects which Backend implementation Stream.Build spawns.
type BackendKind int

const (
	// BackendDefault lets the stream kind pick its own preferred backend
	// (set_default_stream_impl in the source).
	BackendDefault BackendKind = iota
	BackendInline
	BackendThread
	BackendProcess
)

// Options configures a Stream build.
type Options struct {
	Backend      BackendKind
	RingCapacity int
	NumCores     int
	Platform     PlatformInfo
}

// streamSpec is what a typed stream (NewInstructionStream, etc.) supplies
// to the generic Stream so it never has to know stream-kind-specific
// construction details.
type streamSpec[P Packet, M any, D any] struct {
	kind         string
	shmSafe      bool
	defaultBackend BackendKind
	factories    map[string]Factory[P, M, D]
	simNames     map[string]string // not set by any stream kind; Build passes matched names to the process backend directly
	controlFactory ControlFactory[P]
	processBackendName func() string
}

// Stream is the producer-facing, per-kind front-end: bind configuration,
// build workers behind one backend, expose send_ref/reset/sync/dump, and
// the per-worker Data/Model getters for reporting.
type Stream[P Packet, M any, D any] struct {
	mu      sync.Mutex
	spec    streamSpec[P, M, D]
	config  []SimConfig
	backend Backend[P, M, D]
	workers []Simulator[P, M, D]
	batchers []LocalBatcher[P]
	opts    Options
}

func newStream[P Packet, M any, D any](spec streamSpec[P, M, D]) *Stream[P, M, D] {
	return &Stream[P, M, D]{spec: spec}
}

// Bind records the stream's simulator configuration. Safe to call again
// before the next Build; Build always tears down and recreates workers.
func (s *Stream[P, M, D]) Bind(config []SimConfig) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.config = config
	return nil
}

// Build tears down any backend left by an earlier Build, then creates a
// backend and one worker per matched configuration entry, and runs them.
// Returns ErrNoSimulators if no configured name matched a registered
// factory.
func (s *Stream[P, M, D]) Build(opts Options) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if opts.NumCores <= 0 {
		opts.NumCores = 1
	}
	if opts.RingCapacity <= 0 {
		opts.RingCapacity = DefaultRingCapacity
	}
	s.opts = opts

	var workers []Simulator[P, M, D]
	var names []string
	for _, cfg := range s.config {
		name := cfg.Name()
		factory, ok := s.spec.factories[name]
		if !ok {
			continue // unrecognised name: simulator skipped
		}
		sim := factory()
		if err := sim.Bind(cfg); err != nil {
			return fatalf("stream %s: bind simulator %q: %w", s.spec.kind, name, err)
		}
		workers = append(workers, sim)
		names = append(names, name)
	}
	if len(workers) == 0 {
		return ErrNoSimulators
	}

	if s.backend != nil {
		if err := s.backend.Destroy(); err != nil {
			return err
		}
		s.backend = nil
	}

	kind := opts.Backend
	if kind == BackendDefault {
		kind = s.spec.defaultBackend
	}

	switch kind {
	case BackendInline:
		s.backend = NewInlineBackend[P, M, D]()
	case BackendThread:
		s.backend = NewThreadBackend[P, M, D](s.spec.controlFactory)
	case BackendProcess:
		if !s.spec.shmSafe {
			return fatalf("stream %s: process backend unavailable: packet type carries a pointer payload", s.spec.kind)
		}
		exe, err := currentExecutable()
		if err != nil {
			return fatalf("stream %s: resolve worker binary: %w", s.spec.kind, err)
		}
		s.backend = NewProcessBackend[P, M, D](s.spec.processBackendName(), s.spec.kind, names, exe, s.spec.controlFactory)
	default:
		return fatalf("stream %s: unknown backend kind %d", s.spec.kind, kind)
	}

	if err := s.backend.Build(opts.RingCapacity, workers, opts.Platform); err != nil {
		return err
	}
	s.workers = workers
	s.batchers = make([]LocalBatcher[P], opts.NumCores)
	return nil
}

// Destroy tears down the backend and drops all workers. The stream can be
// Bind/Build again afterward.
func (s *Stream[P, M, D]) Destroy() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	err := s.backend.Destroy()
	s.backend = nil
	s.workers = nil
	s.batchers = nil
	return err
}

// SendRef stages ref in core's batcher, flushing to the backend when full.
func (s *Stream[P, M, D]) SendRef(core int, ref P) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return fatalf("stream %s: send_ref before build", s.spec.kind)
	}
	if core < 0 || core >= len(s.batchers) {
		return ErrWorkerIndex
	}
	if s.batchers[core].Push(ref) {
		return s.backend.Send(s.batchers[core].Drain())
	}
	return nil
}

// Flush force-drains every core's batcher through the backend.
func (s *Stream[P, M, D]) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked()
}

func (s *Stream[P, M, D]) flushLocked() error {
	if s.backend == nil {
		return nil
	}
	for i := range s.batchers {
		if s.batchers[i].Len() == 0 {
			continue
		}
		if err := s.backend.Send(s.batchers[i].Drain()); err != nil {
			return err
		}
	}
	return nil
}

// Reset flushes batchers then sends a RESET control packet. A no-op if
// the stream was never built.
func (s *Stream[P, M, D]) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.backend.Reset()
}

// Sync performs the blocking double-barrier handshake. A no-op if the
// stream was never built.
func (s *Stream[P, M, D]) Sync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.backend.Sync()
}

// SyncNonBlocking sends one BARRIER without waiting for readers to drain.
// A no-op if the stream was never built.
func (s *Stream[P, M, D]) SyncNonBlocking() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.backend.SyncNonBlocking()
}

// Dump flushes batchers then requests serialized per-worker console
// output. A no-op if the stream was never built.
func (s *Stream[P, M, D]) Dump() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.backend.Dump()
}

// IssueSync resets every worker's sync flag and sends SYNC_DATA. A no-op
// if the stream was never built.
func (s *Stream[P, M, D]) IssueSync() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return nil
	}
	if err := s.flushLocked(); err != nil {
		return err
	}
	return s.backend.IssueSync()
}

// WaitSync polls every worker's sync flag until raised or the deadline
// elapses.
func (s *Stream[P, M, D]) WaitSync() error {
	s.mu.Lock()
	b := s.backend
	s.mu.Unlock()
	if b == nil {
		return nil
	}
	return b.WaitSync()
}

// NumWorkers reports how many workers are currently running.
func (s *Stream[P, M, D]) NumWorkers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.backend == nil {
		return 0
	}
	return s.backend.NumWorkers()
}

// Data returns worker workerIdx's aggregated Data snapshot.
func (s *Stream[P, M, D]) Data(workerIdx int) D {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero D
	if s.backend == nil {
		return zero
	}
	d, err := s.backend.Data(workerIdx)
	if err != nil {
		return zero
	}
	return d
}

// Model returns worker workerIdx's Model descriptor.
func (s *Stream[P, M, D]) Model(workerIdx int) M {
	s.mu.Lock()
	defer s.mu.Unlock()
	var zero M
	if s.backend == nil {
		return zero
	}
	m, err := s.backend.Model(workerIdx)
	if err != nil {
		return zero
	}
	return m
}
