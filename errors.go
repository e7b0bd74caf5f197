// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import (
	"errors"
	"fmt"

	"code.hybscloud.com/iox"
)

// ErrWouldBlock indicates a ring operation cannot proceed immediately:
// Push is back-pressured, or Pop found nothing for that reader.
//
// This is a control flow signal, not a failure: callers spin-nap and retry
// rather than propagating it. This is an alias for [iox.ErrWouldBlock] for
// ecosystem consistency with code.hybscloud.com/lfq.
var ErrWouldBlock = iox.ErrWouldBlock

// IsWouldBlock reports whether err indicates the operation would block.
func IsWouldBlock(err error) bool {
	return iox.IsWouldBlock(err)
}

// ErrNoSimulators is returned by Stream.Build when no configured simulator
// name matched a registered factory. This is fatal: the stream cannot run.
var ErrNoSimulators = errors.New("vpmu: no simulator matched configuration")

// ErrSimulatorsDown is returned when a SYNC_DATA handshake exceeds its
// deadline. Per spec, this is always fatal — the caller
// should abort rather than continue with a stream that cannot be trusted.
var ErrSimulatorsDown = errors.New("vpmu: some simulators are down")

// ErrUnexpectedPacket signals a programming error: a worker's dispatcher
// received a packet type it does not know how to handle.
var ErrUnexpectedPacket = errors.New("vpmu: unexpected packet type")

// ErrWorkerIndex is returned when a caller requests a worker index outside
// [0, num_workers).
var ErrWorkerIndex = errors.New("vpmu: worker index out of range")

// fatalf wraps an error with context the way a production worker's
// dispatcher would log it before aborting.
func fatalf(format string, args ...any) error {
	return fmt.Errorf("vpmu: "+format, args...)
}
