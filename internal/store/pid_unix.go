//go:build linux || darwin

package store

import "golang.org/x/sys/unix"

// pidAlive signals pid with signal 0: delivered to no one, but the
// kernel still reports ESRCH if the process is gone, EPERM if it
// exists but we lack permission (still "alive" for lock purposes).
func pidAlive(pid int) bool {
	err := unix.Kill(pid, 0)
	return err == nil || err == unix.EPERM
}
