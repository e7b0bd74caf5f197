// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu_test

import (
	"os"
	"path/filepath"
	"testing"
	"unsafe"

	"code.hybscloud.com/vpmutrace"
)

// segmentSize computes the same total layout ProcessBackend.Build uses,
// for a single-worker cache-stream segment.
func segmentSize(t *testing.T, capacity, numWorkers int) int64 {
	t.Helper()
	commonSize := unsafe.Sizeof(vpmu.SharedCommon{})
	var ctl vpmu.WorkerControl[vpmu.CacheModel, vpmu.CacheData]
	ctlSize := unsafe.Sizeof(ctl)
	layout := vpmu.ShmRingLayout{Capacity: capacity, NumReaders: numWorkers}
	var zero vpmu.CachePacket
	ringSize := layout.Size(unsafe.Sizeof(zero))
	return int64(commonSize) + int64(numWorkers)*int64(ctlSize) + int64(ringSize)
}

// TestOpenShmWorkerRegionSharesStateAcrossMappings stands in for the real
// producer/worker process pair with two independent mmaps of the same
// backing file in this single test process: OpenShmWorkerRegion must
// recompute identical offsets each time it is called, so a push through
// one mapping's ring is visible to a pop through the other.
func TestOpenShmWorkerRegionSharesStateAcrossMappings(t *testing.T) {
	path := filepath.Join(t.TempDir(), "vpmu_cache_ring_buffer")
	size := segmentSize(t, 8, 1)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		t.Fatalf("create backing file: %v", err)
	}
	if err := f.Truncate(size); err != nil {
		t.Fatalf("truncate backing file: %v", err)
	}
	f.Close()

	_, _, producerRing, err := vpmu.OpenShmWorkerRegion[vpmu.CachePacket, vpmu.CacheModel, vpmu.CacheData](path, 0, 1, 8)
	if err != nil {
		t.Fatalf("OpenShmWorkerRegion (producer view): %v", err)
	}
	common, _, workerRing, err := vpmu.OpenShmWorkerRegion[vpmu.CachePacket, vpmu.CacheModel, vpmu.CacheData](path, 0, 1, 8)
	if err != nil {
		t.Fatalf("OpenShmWorkerRegion (worker view): %v", err)
	}

	ref := vpmu.CachePacket{Type: vpmu.PacketData, Core: 0, Addr: 0xdead}
	if err := producerRing.Push([]vpmu.CachePacket{ref}); err != nil {
		t.Fatalf("Push via producer mapping: %v", err)
	}

	out := make([]vpmu.CachePacket, 1)
	n, err := workerRing.Pop(0, out, 1)
	if err != nil {
		t.Fatalf("Pop via worker mapping: %v", err)
	}
	if n != 1 || out[0].Addr != 0xdead {
		t.Fatalf("Pop via worker mapping: got %+v, want the pushed ref", out[:n])
	}

	common.Beat()
	commonViaHeartbeatPath, err := vpmu.MapSharedCommon(path)
	if err != nil {
		t.Fatalf("MapSharedCommon: %v", err)
	}
	if commonViaHeartbeatPath.HeartbeatValue() != 1 {
		t.Fatalf("HeartbeatValue across mappings: got %d, want 1", commonViaHeartbeatPath.HeartbeatValue())
	}
}
