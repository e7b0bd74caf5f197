// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// batcherSize is the fixed staging width per guest core. 256-wide batching
// amortizes ring synchronization across hundreds of micro-events on the
// producer's hot path.
const batcherSize = 256

// LocalBatcher is a thread-private, fixed-size staging array owned by one
// guest CPU/GPU core. Producer threads on distinct cores never share a
// batcher, so pushes never contend.
type LocalBatcher[T any] struct {
	slots [batcherSize]T
	n     int
}

// Push appends ref to the batch. It reports whether the batch is now full
// and should be flushed.
func (b *LocalBatcher[T]) Push(ref T) (full bool) {
	b.slots[b.n] = ref
	b.n++
	return b.n == batcherSize
}

// Len reports how many refs are currently staged.
func (b *LocalBatcher[T]) Len() int { return b.n }

// Drain returns the staged refs and resets the batch to empty. The
// returned slice aliases the batcher's internal array and is only valid
// until the next Push.
func (b *LocalBatcher[T]) Drain() []T {
	out := b.slots[:b.n]
	b.n = 0
	return out
}
