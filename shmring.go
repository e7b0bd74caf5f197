// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"unsafe"

	"code.hybscloud.com/atomix"
	"code.hybscloud.com/spin"
)

// ShmRing is the process-backend analogue of Ring: the same broadcast
// multi-consumer algorithm, but every cursor and the packet storage itself
// live at fixed byte offsets inside a memory-mapped region so a re-exec'd
// worker process can find them after mapping the same named segment.
//
// Per the design note on shared-memory ownership, no pointer is ever
// stored inside the mapped bytes: each process computes its own local
// *ShmRing pointing into its own mapping of the same physical pages, using
// fixed offsets, not addresses read back out of shared memory.
type ShmRing[T any] struct {
	write    *atomix.Uint64
	readers  []*atomix.Uint64
	buffer   []T
	capacity uint64
	mask     uint64
}

// ShmRingLayout describes the byte layout this package carves out of a
// shared-memory segment for one stream's ring: the write cursor, one
// cursor per reader, then the packet storage array.
type ShmRingLayout struct {
	Capacity   int
	NumReaders int
}

// Size returns the number of bytes ShmRingAt needs, given a zero-value T
// for sizing.
func (l ShmRingLayout) Size(elemSize uintptr) uintptr {
	n := uintptr(roundToPow2(l.Capacity))
	cursors := uintptr(8 * (1 + l.NumReaders))
	// 64-byte align the packet storage start to avoid false sharing with
	// the last cursor's cache line.
	cursors = (cursors + 63) &^ 63
	return cursors + n*elemSize
}

// ShmRingAt carves a ShmRing out of mem, which must be at least
// layout.Size(unsafe.Sizeof(T{})) bytes and must stay pinned for the
// ShmRing's lifetime (it aliases mem; it does not copy it).
func ShmRingAt[T any](mem []byte, layout ShmRingLayout) *ShmRing[T] {
	n := uint64(roundToPow2(layout.Capacity))
	r := &ShmRing[T]{capacity: n, mask: n - 1}

	off := uintptr(0)
	r.write = (*atomix.Uint64)(unsafe.Pointer(&mem[off]))
	off += 8
	r.readers = make([]*atomix.Uint64, layout.NumReaders)
	for i := range r.readers {
		r.readers[i] = (*atomix.Uint64)(unsafe.Pointer(&mem[off]))
		off += 8
	}
	off = (off + 63) &^ 63

	var zero T
	elemSize := unsafe.Sizeof(zero)
	bufBytes := mem[off : off+uintptr(n)*elemSize]
	r.buffer = unsafe.Slice((*T)(unsafe.Pointer(&bufBytes[0])), n)
	return r
}

func (r *ShmRing[T]) Cap() int { return int(r.capacity) }

func (r *ShmRing[T]) minReaderCursor() uint64 {
	if len(r.readers) == 0 {
		return r.write.LoadAcquire()
	}
	min := r.readers[0].LoadAcquire()
	for _, c := range r.readers[1:] {
		v := c.LoadAcquire()
		if v < min {
			min = v
		}
	}
	return min
}

func (r *ShmRing[T]) RemainingSpace() int {
	return int(r.capacity - (r.write.LoadAcquire() - r.minReaderCursor()))
}

// Push is single-producer only, the same algorithm as Ring.Push except
// that the batch size is not checked against capacity/2.
func (r *ShmRing[T]) Push(refs []T) error {
	n := uint64(len(refs))
	if n == 0 {
		return nil
	}
	w := r.write.LoadRelaxed()
	free := r.capacity - (w - r.minReaderCursor())
	if free < n {
		return ErrWouldBlock
	}
	for i, ref := range refs {
		r.buffer[(w+uint64(i))&r.mask] = ref
	}
	r.write.StoreRelease(w + n)
	return nil
}

// Pop drains up to max packets for reader id into out.
func (r *ShmRing[T]) Pop(id int, out []T, max int) (int, error) {
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

func (r *ShmRing[T]) Empty(id int) bool {
	return r.readers[id].LoadAcquire() == r.write.LoadAcquire()
}

func (r *ShmRing[T]) WaitEmpty() {
	sw := spin.Wait{}
	for i := range r.readers {
		for !r.Empty(i) {
			sw.Once()
		}
	}
}
