// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"testing"

	"code.hybscloud.com/vpmutrace"
)

func TestLocalBatcherFillsAndDrains(t *testing.T) {
	var b vpmu.LocalBatcher[int]
	for i := 0; i < 255; i++ {
		if full := b.Push(i); full {
			t.Fatalf("Push(%d): reported full early", i)
		}
	}
	if b.Len() != 255 {
		t.Fatalf("Len: got %d, want 255", b.Len())
	}
	if full := b.Push(255); !full {
		t.Fatalf("Push(255): want full, got not full")
	}

	out := b.Drain()
	if len(out) != 256 {
		t.Fatalf("Drain: got %d refs, want 256", len(out))
	}
	for i, v := range out {
		if v != i {
			t.Fatalf("Drain[%d]: got %d, want %d", i, v, i)
		}
	}
	if b.Len() != 0 {
		t.Fatalf("Len after Drain: got %d, want 0", b.Len())
	}
}

func TestLocalBatcherDrainResetsForNextBatch(t *testing.T) {
	var b vpmu.LocalBatcher[string]
	b.Push("a")
	b.Push("b")
	first := append([]string(nil), b.Drain()...)
	if len(first) != 2 {
		t.Fatalf("first drain: got %d, want 2", len(first))
	}

	b.Push("c")
	second := b.Drain()
	if len(second) != 1 || second[0] != "c" {
		t.Fatalf("second drain: got %v, want [c]", second)
	}
}
