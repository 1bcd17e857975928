//go:build linux

package gpu

import "golang.org/x/sys/unix"

func currentThreadID() int {
	return unix.Gettid()
}
