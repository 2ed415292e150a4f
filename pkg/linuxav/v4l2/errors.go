//go:build linux

package v4l2

import (
	"errors"
	"fmt"
)

// ErrorCode identifies a class of device failure.
type ErrorCode string

// Error codes.
const (
	ErrCodeDeviceNotFound      ErrorCode = "DEVICE_NOT_FOUND"
	ErrCodeNotCharDevice       ErrorCode = "NOT_CHAR_DEVICE"
	ErrCodeNotCaptureDevice    ErrorCode = "NOT_CAPTURE_DEVICE"
	ErrCodeNoStreamingSupport  ErrorCode = "NO_STREAMING_SUPPORT"
	ErrCodeMmapUnsupported     ErrorCode = "MMAP_UNSUPPORTED"
	ErrCodeInsufficientBuffers ErrorCode = "INSUFFICIENT_BUFFERS"
	ErrCodeMapFailure          ErrorCode = "MAP_FAILURE"
	ErrCodeIoctlFailed         ErrorCode = "IOCTL_FAILED"
)

// Error is a device error carrying the failed operation and error class.
type Error struct {
	Code ErrorCode
	Op   string
	Path string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s %s: %v", e.Code, e.Op, e.Path, e.Err)
	}
	return fmt.Sprintf("%s: %s %s", e.Code, e.Op, e.Path)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// HasCode reports whether err is a *Error with the given code.
func HasCode(err error, code ErrorCode) bool {
	var de *Error
	return errors.As(err, &de) && de.Code == code
}

func newError(code ErrorCode, op, path string, cause error) *Error {
	return &Error{Code: code, Op: op, Path: path, Err: cause}
}

// Flow-control sentinels. These mark conditions the acquisition loop
// handles specially rather than hard failures of a single call.
var (
	// ErrWaitTimeout is returned when a readiness wait elapses with no
	// buffer dequeuable.
	ErrWaitTimeout = errors.New("v4l2: timeout waiting for frame")

	// ErrInterrupted is returned when a readiness wait is cut short by a
	// signal. The caller should re-arm the wait.
	ErrInterrupted = errors.New("v4l2: wait interrupted by signal")

	// ErrNoBufferReady is returned by Dequeue when no buffer can be handed
	// over this cycle (EAGAIN, or a non-fatal EIO from the driver).
	ErrNoBufferReady = errors.New("v4l2: no buffer ready")

	// ErrBufferConsumed is returned when a LockedBuffer is used after it
	// has been requeued.
	ErrBufferConsumed = errors.New("v4l2: buffer already requeued")
)
