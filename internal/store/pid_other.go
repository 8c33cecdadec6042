//go:build !linux && !darwin

package store

import "os"

// pidAlive falls back to os.FindProcess, which on non-unix platforms
// (notably Windows) only succeeds for processes that actually exist.
func pidAlive(pid int) bool {
	_, err := os.FindProcess(pid)
	return err == nil
}
