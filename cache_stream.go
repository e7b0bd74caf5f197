// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

var cacheFactories = map[string]Factory[CachePacket, CacheModel, CacheData]{}

// RegisterCacheSimulator adds name to the cache stream's registry.
func RegisterCacheSimulator(name string, factory Factory[CachePacket, CacheModel, CacheData]) {
	cacheFactories[name] = factory
}

func cacheControlPacket(t PacketType) CachePacket {
	return CachePacket{Type: t}
}

// NewCacheSimulatorByName constructs a registered cache simulator by name,
// for the re-exec'd process-backend worker to look itself up by the name
// the parent passed on its command line.
func NewCacheSimulatorByName(name string) (Simulator[CachePacket, CacheModel, CacheData], bool) {
	factory, ok := cacheFactories[name]
	if !ok {
		return nil, false
	}
	return factory(), true
}

// NewCacheStream creates the cache stream's front-end. CachePacket and
// CacheModel/CacheData carry no pointers, so this stream may run on any
// backend including ProcessBackend.
func NewCacheStream() *Stream[CachePacket, CacheModel, CacheData] {
	return newStream(streamSpec[CachePacket, CacheModel, CacheData]{
		kind:               "cache",
		shmSafe:            true,
		defaultBackend:     BackendThread,
		factories:          cacheFactories,
		controlFactory:     cacheControlPacket,
		processBackendName: func() string { return "vpmu_cache_ring_buffer" },
	})
}
