// ©Hayabusa Cloud Co., Ltd. 2026. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package vpmu

import "os"

// currentExecutable resolves the path to re-exec for the process backend's
// worker and heartbeat-sidecar subprocesses. Go has no safe fork(); a
// cross-address-space worker is instead the current binary re-invoked with
// a subcommand: cmd/vpmuctl's root command dispatches to its hidden
// vpmuworker and vpmuheartbeat subcommands.
func currentExecutable() (string, error) {
	return os.Executable()
}
