//go:build linux

package v4l2

import (
	"errors"
	"syscall"
	"unsafe"
)

// ioctl issues a single ioctl on fd. Declared as a variable so white-box
// tests can substitute simulated kernel responses.
var ioctl = func(fd int, req uint, arg unsafe.Pointer) error {
	_, _, errno := syscall.Syscall(syscall.SYS_IOCTL, uintptr(fd), uintptr(req), uintptr(arg))
	if errno != 0 {
		return errno
	}
	return nil
}

// Mapping seams, overridable in tests alongside ioctl.
var (
	mmap   = syscall.Mmap
	munmap = syscall.Munmap
)

// xioctl retries an ioctl that was interrupted by a benign signal.
// Any other failure is returned to the caller.
func xioctl(fd int, req uint, arg unsafe.Pointer) error {
	for {
		err := ioctl(fd, req, arg)
		if err == nil || !errors.Is(err, syscall.EINTR) {
			return err
		}
	}
}

func openNonblock(path string) (int, error) {
	return syscall.Open(path, syscall.O_RDWR|syscall.O_NONBLOCK, 0)
}
