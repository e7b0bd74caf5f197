// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

//go:build race

package vpmu

// RaceEnabled is true when the race detector is active.
// Used by tests to skip concurrency stress tests for the ring buffer,
// which trigger false positives due to cross-variable memory ordering
// the race detector cannot observe (acquire/release on separate atomics).
const RaceEnabled = true
