// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"errors"
	"testing"

	"code.hybscloud.com/vpmutrace"
)

func TestRingCapacityRoundsToPow2(t *testing.T) {
	r := vpmu.NewRing[int](5)
	if r.Cap() != 8 {
		t.Fatalf("Cap: got %d, want 8", r.Cap())
	}
}

func TestRingBroadcastDeliversToEveryReader(t *testing.T) {
	r := vpmu.NewRing[int](8)
	r0 := r.RegisterReader()
	r1 := r.RegisterReader()
	r2 := r.RegisterReader()

	if err := r.Push([]int{1, 2, 3}); err != nil {
		t.Fatalf("Push: %v", err)
	}

	for _, id := range []int{r0, r1, r2} {
		out := make([]int, 3)
		n, err := r.Pop(id, out, 3)
		if err != nil {
			t.Fatalf("Pop(%d): %v", id, err)
		}
		if n != 3 {
			t.Fatalf("Pop(%d): got %d packets, want 3", id, n)
		}
		if out[0] != 1 || out[1] != 2 || out[2] != 3 {
			t.Fatalf("Pop(%d): got %v, want [1 2 3]", id, out)
		}
	}
}

func TestRingPopEmptyReturnsWouldBlock(t *testing.T) {
	r := vpmu.NewRing[int](4)
	id := r.RegisterReader()
	out := make([]int, 1)
	if _, err := r.Pop(id, out, 1); !errors.Is(err, vpmu.ErrWouldBlock) {
		t.Fatalf("Pop on empty: got %v, want ErrWouldBlock", err)
	}
}

// TestRingBackPressureByLatecomer verifies the slowest reader bounds
// RemainingSpace: the producer cannot overwrite slots the laggard has not
// yet drained.
func TestRingBackPressureByLatecomer(t *testing.T) {
	r := vpmu.NewRing[int](4)
	fast := r.RegisterReader()
	slow := r.RegisterReader()

	if err := r.Push([]int{1, 2}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	out := make([]int, 2)
	if _, err := r.Pop(fast, out, 2); err != nil {
		t.Fatalf("Pop(fast): %v", err)
	}
	if r.RemainingSpace() != 2 {
		t.Fatalf("RemainingSpace after fast drain: got %d, want 2 (bounded by slow)", r.RemainingSpace())
	}

	if err := r.Push([]int{3, 4}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	// Ring is now full from slow's perspective (4 unread).
	if err := r.Push([]int{5}); !errors.Is(err, vpmu.ErrWouldBlock) {
		t.Fatalf("Push while slow reader lags: got %v, want ErrWouldBlock", err)
	}

	if _, err := r.Pop(slow, out, 2); err != nil {
		t.Fatalf("Pop(slow): %v", err)
	}
	if r.RemainingSpace() != 2 {
		t.Fatalf("RemainingSpace after slow partial drain: got %d, want 2", r.RemainingSpace())
	}
}

func TestRingPushBatchExceedingHalfCapacityPanics(t *testing.T) {
	r := vpmu.NewRing[int](4)
	r.RegisterReader()
	defer func() {
		if recover() == nil {
			t.Fatalf("Push with batch > capacity/2: want panic, got none")
		}
	}()
	_ = r.Push([]int{1, 2, 3})
}

func TestRingEmptyAndWaitEmpty(t *testing.T) {
	r := vpmu.NewRing[int](4)
	id := r.RegisterReader()
	if !r.Empty(id) {
		t.Fatalf("Empty on fresh reader: got false, want true")
	}
	if err := r.Push([]int{1}); err != nil {
		t.Fatalf("Push: %v", err)
	}
	if r.Empty(id) {
		t.Fatalf("Empty after push: got true, want false")
	}
	out := make([]int, 1)
	if _, err := r.Pop(id, out, 1); err != nil {
		t.Fatalf("Pop: %v", err)
	}
	r.WaitEmpty() // must return promptly once every reader has drained
}

func TestRingConcurrentReadersSeeTheSameStream(t *testing.T) {
	if vpmu.RaceEnabled {
		t.Skip("acquire/release ordering across the write and per-reader cursors is not visible to the race detector")
	}
	const n = 4096
	r := vpmu.NewRing[int](256)
	numReaders := 4
	ids := make([]int, numReaders)
	for i := range ids {
		ids[i] = r.RegisterReader()
	}

	done := make(chan []int, numReaders)
	for _, id := range ids {
		go func(id int) {
			got := make([]int, 0, n)
			buf := make([]int, 64)
			for len(got) < n {
				k, err := r.Pop(id, buf, len(buf))
				if err != nil {
					continue
				}
				got = append(got, buf[:k]...)
			}
			done <- got
		}(id)
	}

	batch := make([]int, 8)
	for i := 0; i < n; i += len(batch) {
		for j := range batch {
			batch[j] = i + j
		}
		for {
			if err := r.Push(batch); err == nil {
				break
			}
		}
	}

	for i := 0; i < numReaders; i++ {
		got := <-done
		for i, v := range got {
			if v != i {
				t.Fatalf("reader saw out-of-order/missing value at %d: got %d, want %d", i, v, i)
			}
		}
	}
}
