// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "fmt"

func init() {
	RegisterCacheSimulator("DirectMapped", func() Simulator[CachePacket, CacheModel, CacheData] {
		return &DirectMappedCache{}
	})
}

// DirectMappedCache is a single-level direct-mapped cache model: per
// guest core, a tag array sized by the configured level. It is a small
// reference implementation of the cache stream's contract, not a
// faithful microarchitectural model.
type DirectMappedCache struct {
	config   SimConfig
	model    CacheModel
	tags     [MaxCPUCores][]uint64
	lineBits uint
	internal CacheData
}

func (s *DirectMappedCache) Bind(config SimConfig) error {
	s.config = config
	return nil
}

func (s *DirectMappedCache) Build(model *CacheModel) error {
	level := CacheLevel{SizeBytes: 32 * 1024, Associativity: 1, LineBytes: 64, HitLatency: 1, MissLatency: 30}
	if v, ok := s.config["size_bytes"]; ok {
		if f, ok := v.(float64); ok {
			level.SizeBytes = uint64(f)
		}
	}
	if v, ok := s.config["line_bytes"]; ok {
		if f, ok := v.(float64); ok {
			level.LineBytes = int(f)
		}
	}
	model.NumLevels = 1
	model.Levels[0] = level
	s.model = *model

	lines := level.SizeBytes / uint64(level.LineBytes)
	s.lineBits = bitLen(level.LineBytes)
	for core := range s.tags {
		s.tags[core] = make([]uint64, lines)
	}
	return nil
}

func bitLen(n int) uint {
	var bits uint
	for n > 1 {
		n >>= 1
		bits++
	}
	return bits
}

func (s *DirectMappedCache) SetPlatformInfo(PlatformInfo) {}

func (s *DirectMappedCache) hit(core int, addr uint64) bool {
	lines := s.tags[core]
	if len(lines) == 0 {
		return false
	}
	line := addr >> s.lineBits
	idx := line % uint64(len(lines))
	tag := line / uint64(len(lines))
	if lines[idx] == tag+1 {
		return true
	}
	lines[idx] = tag + 1
	return false
}

func (s *DirectMappedCache) PacketProcessor(ref CachePacket, data *CacheData) {
	if int(ref.Core) >= MaxCPUCores {
		return
	}
	hit := s.hit(int(ref.Core), ref.Addr)
	s.internal.Accumulate(ref, hit)
	*data = s.internal
}

func (s *DirectMappedCache) HotPacketProcessor(ref CachePacket, data *CacheData) {
	if int(ref.Core) >= MaxCPUCores {
		return
	}
	hit := s.hit(int(ref.Core), ref.Addr)
	s.internal.Accumulate(ref, hit)
}

func (s *DirectMappedCache) Barrier(data *CacheData) {
	*data = s.internal
}

func (s *DirectMappedCache) Reset(data *CacheData) {
	s.internal = CacheData{}
	*data = CacheData{}
	for core := range s.tags {
		for i := range s.tags[core] {
			s.tags[core][i] = 0
		}
	}
}

func (s *DirectMappedCache) Dump(workerID int, data CacheData) {
	fmt.Printf("=== DirectMappedCache[%d] ===\n", workerID)
	for core := range data.Cores {
		c := data.Cores[core]
		if c.CPUAccesses == 0 && c.GPUAccesses == 0 {
			continue
		}
		fmt.Printf("  core %d: cpu %d/%d hits, gpu %d/%d hits\n",
			core, c.CPUHits, c.CPUAccesses, c.GPUHits, c.GPUAccesses)
	}
}
