//go:build linux && arm && !arm64

package v4l2

import "syscall"

func makeTimeval(timeoutMs int) *syscall.Timeval {
	return &syscall.Timeval{
		Sec:  int32(timeoutMs / 1000),
		Usec: int32((timeoutMs % 1000) * 1000),
	}
}

// fdSet marks fd in set. FdSet words are 32 bits wide on 32-bit ARM.
func fdSet(fd int, set *syscall.FdSet) {
	set.Bits[fd/32] |= 1 << (uint(fd) % 32)
}
