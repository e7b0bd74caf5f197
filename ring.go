// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// MaxRingReaders bounds the number of readers a Ring can register. One
// reader per worker; a small fixed bound keeps the reader cursor array a
// plain value that can be copied into shared memory for the process
// backend.
const MaxRingReaders = 64

// Ring is a fixed-capacity, single-producer / many-consumer broadcast
// circular queue. Unlike a work-distributing queue, every packet pushed by
// the producer is delivered to every registered reader — each reader
// advances its own cursor independently and the producer only recycles a
// slot once the slowest reader has passed it.
//
// Readers must all register with RegisterReader before the first Push;
// registering afterward produces undefined back-pressure accounting.
type Ring[T any] struct {
	_        pad
	write    atomix.Uint64 // producer cursor W
	_        pad
	readers  [MaxRingReaders]atomix.Uint64 // per-reader cursors R[i]
	_        pad
	numReaders atomix.Uint64
	buffer   []T
	capacity uint64 // n, power of two
	mask     uint64
}

// NewRing creates a Ring with the given capacity, rounded up to the next
// power of two.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 2 {
		panic("vpmu: ring capacity must be >= 2")
	}
	n := uint64(roundToPow2(capacity))
	return &Ring[T]{
		buffer:   make([]T, n),
		capacity: n,
		mask:     n - 1,
	}
}

// RegisterReader allocates a new reader cursor and returns its id. Must be
// called before the first Push.
func (r *Ring[T]) RegisterReader() int {
	id := r.numReaders.AddAcqRel(1) - 1
	if id >= MaxRingReaders {
		panic("vpmu: too many ring readers")
	}
	r.readers[id].StoreRelease(r.write.LoadAcquire())
	return int(id)
}

// Cap returns the ring's usable capacity.
func (r *Ring[T]) Cap() int { return int(r.capacity) }

// minReaderCursor returns the slowest registered reader's cursor.
func (r *Ring[T]) minReaderCursor() uint64 {
	n := r.numReaders.LoadAcquire()
	if n == 0 {
		return r.write.LoadAcquire()
	}
	min := r.readers[0].LoadAcquire()
	for i := uint64(1); i < n; i++ {
		c := r.readers[i].LoadAcquire()
		if c < min {
			min = c
		}
	}
	return min
}

// RemainingSpace returns the capacity available to the producer: the
// distance between the write cursor and the slowest reader's cursor,
// subtracted from capacity.
func (r *Ring[T]) RemainingSpace() int {
	w := r.write.LoadAcquire()
	min := r.minReaderCursor()
	return int(r.capacity - (w - min))
}

// Push copies refs into the ring as a single atomic-with-respect-to-readers
// batch. Returns ErrWouldBlock if there is not enough free space for the
// whole batch; callers must spin-nap and retry (see Backend back-pressure).
//
// Single-producer only: concurrent Push calls are not safe.
func (r *Ring[T]) Push(refs []T) error {
	n := uint64(len(refs))
	if n == 0 {
		return nil
	}
	if n > r.capacity/2 {
		panic("vpmu: ring push batch exceeds capacity/2")
	}
	w := r.write.LoadRelaxed()
	min := r.minReaderCursor()
	free := r.capacity - (w - min)
	if free < n {
		return ErrWouldBlock
	}
	for i, ref := range refs {
		r.buffer[(w+uint64(i))&r.mask] = ref
	}
	r.write.StoreRelease(w + n)
	return nil
}

// Pop drains up to max packets for the given reader id into out, returning
// the count copied. Returns (0, ErrWouldBlock) if nothing is available.
func (r *Ring[T]) Pop(id int, out []T, max int) (int, error) {
	cur := r.readers[id].LoadRelaxed()
	w := r.write.LoadAcquire()
	avail := w - cur
	if avail == 0 {
		return 0, ErrWouldBlock
	}
	n := avail
	if n > uint64(max) {
		n = uint64(max)
	}
	if n > uint64(len(out)) {
		n = uint64(len(out))
	}
	for i := uint64(0); i < n; i++ {
		out[i] = r.buffer[(cur+i)&r.mask]
	}
	r.readers[id].StoreRelease(cur + n)
	return int(n), nil
}

// Empty reports whether the given reader has drained every packet the
// producer has published so far.
func (r *Ring[T]) Empty(id int) bool {
	return r.readers[id].LoadAcquire() == r.write.LoadAcquire()
}

// WaitEmpty spin-waits until every registered reader has drained the ring,
// used by the BARRIER handshake (see Stream.Sync).
func (r *Ring[T]) WaitEmpty() {
	sw := spin.Wait{}
	n := int(r.numReaders.LoadAcquire())
	for i := 0; i < n; i++ {
		for !r.Empty(i) {
			sw.Once()
		}
	}
}

// roundToPow2 rounds n up to the next power of 2.
func roundToPow2(n int) int {
	if n < 2 {
		return 2
	}
	n--
	n |= n >> 1
	n |= n >> 2
	n |= n >> 4
	n |= n >> 8
	n |= n >> 16
	n |= n >> 32
	return n + 1
}

// pad is cache line padding to prevent false sharing, carried over from
// code.hybscloud.com/lfq's layout idiom.
type pad [64]byte

// padShort is padding to fill a cache line after an 8-byte field.
type padShort [64 - 8]byte
