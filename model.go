// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

// InstructionModel carries the timing parameters the instruction stream's
// reference simulator needs: clock frequency and whether the modeled core
// can retire two instructions per cycle. Mirrors VPMU_Insn::Model.
type InstructionModel struct {
	FrequencyHz     uint64
	DualIssue       bool
	PenaltyBranch   uint64
	PenaltyLoad     uint64
	PenaltyStore    uint64
}

// MaxCacheLevels bounds CacheModel.Levels. A fixed array, not a slice,
// keeps CacheModel plain-old-data so the process backend can place it
// directly inside shared memory (see the shared-memory ownership design
// note: no pointers, including slice headers, may live in mapped bytes).
const MaxCacheLevels = 4

// CacheModel carries a cache hierarchy's shape: one entry per level, each
// giving the level's size, associativity, line size, and hit/miss latency
// in cycles. Mirrors VPMU_Cache::Model.
type CacheModel struct {
	NumLevels int
	Levels    [MaxCacheLevels]CacheLevel
}

// CacheLevel describes one level of a CacheModel.
type CacheLevel struct {
	SizeBytes    uint64
	Associativity int
	LineBytes    int
	HitLatency   uint64
	MissLatency  uint64
}

// BranchModel carries a branch predictor's shape: table size and the
// misprediction penalty in cycles. Mirrors VPMU_BranchPredict::Model.
type BranchModel struct {
	TableEntries       int
	MispredictPenalty  uint64
}

// SimConfig is a per-stream simulator configuration document: a free-form
// {"name": ..., ...} object, mirroring the original's nlohmann::json
// per-simulator config blocks. Stream.Build resolves the "name" key against
// the stream's registered factories; the matched simulator's Build reads
// the keys it knows into its Model.
type SimConfig map[string]any

// Name returns the "name" key, or "" if absent or not a string.
func (c SimConfig) Name() string {
	if v, ok := c["name"]; ok {
		if s, ok := v.(string); ok {
			return s
		}
	}
	return ""
}
