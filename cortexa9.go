// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "fmt"

func init() {
	RegisterInstructionSimulator("CortexA9", func() Simulator[InstructionPacket, InstructionModel, InstructionData] {
		return &CortexA9{}
	})
}

// CortexA9 is the reference instruction-timing simulator: an in-order
// pipeline charging the translation block's pre-tallied tick count per
// DATA packet. The dual_issue option is recorded in the model but does not
// change the charged ticks. It is the instruction stream's one simulator;
// the cache and branch streams ship DirectMappedCache and
// BimodalPredictor, and any other model only needs to satisfy the
// Simulator contract.
type CortexA9 struct {
	config   SimConfig
	platform PlatformInfo
	internal InstructionData
}

func (c *CortexA9) Bind(config SimConfig) error {
	c.config = config
	return nil
}

func (c *CortexA9) Build(model *InstructionModel) error {
	model.FrequencyHz = 1_000_000_000
	if v, ok := c.config["frequency"]; ok {
		if f, ok := v.(float64); ok {
			model.FrequencyHz = uint64(f)
		}
	}
	if v, ok := c.config["dual_issue"]; ok {
		if b, ok := v.(bool); ok {
			model.DualIssue = b
		}
	}
	return nil
}

func (c *CortexA9) SetPlatformInfo(info PlatformInfo) {
	c.platform = info
}

func (c *CortexA9) PacketProcessor(ref InstructionPacket, data *InstructionData) {
	c.accumulate(ref)
	*data = c.internal
}

func (c *CortexA9) HotPacketProcessor(ref InstructionPacket, data *InstructionData) {
	// Same accumulation as PacketProcessor; HOT_* packets skip the
	// coherent-snapshot copy to data, trading visibility lag for
	// avoiding an extra struct copy on the hottest path. Barrier closes
	// that lag when the producer needs a consistent read.
	c.accumulate(ref)
}

func (c *CortexA9) accumulate(ref InstructionPacket) {
	if ref.TBCounters == nil || int(ref.Core) >= MaxCPUCores {
		return
	}
	c.internal.Accumulate(ref)
}

func (c *CortexA9) Barrier(data *InstructionData) {
	*data = c.internal
}

func (c *CortexA9) Reset(data *InstructionData) {
	c.internal = InstructionData{}
	*data = InstructionData{}
}

func (c *CortexA9) Dump(workerID int, data InstructionData) {
	user := data.User()
	system := data.System()
	interrupt := data.Interrupt()
	fmt.Printf("=== CortexA9[%d] ===\n", workerID)
	fmt.Printf("  user:      total=%d load=%d store=%d branch=%d ticks=%d\n",
		user.Total, user.Load, user.Store, user.HasBranch, user.Ticks)
	fmt.Printf("  system:    total=%d load=%d store=%d branch=%d ticks=%d\n",
		system.Total, system.Load, system.Store, system.HasBranch, system.Ticks)
	fmt.Printf("  interrupt: total=%d load=%d store=%d branch=%d ticks=%d\n",
		interrupt.Total, interrupt.Load, interrupt.Store, interrupt.HasBranch, interrupt.Ticks)
}
