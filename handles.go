// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "sync"

// Handles is a process-wide table of the three stream front-ends. The
// source keeps one global stream singleton per kind reachable only
// through free functions; this type keeps that same shape for the
// C-callable API in api.go, while keeping the streams themselves ordinary
// values an embedder can construct and tear down explicitly instead of
// reaching for package-level globals directly.
type Handles struct {
	mu          sync.RWMutex
	Instruction *Stream[InstructionPacket, InstructionModel, InstructionData]
	Cache       *Stream[CachePacket, CacheModel, CacheData]
	Branch      *Stream[BranchPacket, BranchModel, BranchData]
}

// NewHandles creates an unbuilt handle table: callers still need to Bind
// and Build each stream they intend to use.
func NewHandles() *Handles {
	return &Handles{
		Instruction: NewInstructionStream(),
		Cache:       NewCacheStream(),
		Branch:      NewBranchStream(),
	}
}

// DestroyAll tears down every stream in the table.
func (h *Handles) DestroyAll() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	var firstErr error
	if err := h.Instruction.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := h.Cache.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	if err := h.Branch.Destroy(); err != nil && firstErr == nil {
		firstErr = err
	}
	return firstErr
}

var (
	defaultMu      sync.Mutex
	defaultHandles *Handles
)

// InitDefault installs h as the process-wide default handle table used by
// the package-level C-callable API functions in api.go. Embedders that
// want explicit construction/teardown should use Handles directly instead
// and ignore this function entirely.
func InitDefault(h *Handles) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultHandles = h
}

// Default returns the process-wide default handle table, creating one on
// first use.
func Default() *Handles {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultHandles == nil {
		defaultHandles = NewHandles()
	}
	return defaultHandles
}
