package events

import "time"

// Event type constants for kelindar/event.
const (
	TypeDeviceOpened uint32 = iota + 1
	TypeFrameCaptured
	TypeFrameSkipped
	TypeCaptureError
)

// Event interface required by kelindar/event.
type Event interface {
	Type() uint32
}

// DeviceOpenedEvent is published once the capture device has been
// validated and its format negotiated.
type DeviceOpenedEvent struct {
	DevicePath string
	Driver     string
	Card       string
	Width      uint32
	Height     uint32
	PixelFmt   string
}

// Type returns the event type identifier for DeviceOpenedEvent.
func (e DeviceOpenedEvent) Type() uint32 { return TypeDeviceOpened }

// FrameCapturedEvent is published after a frame has been converted and
// persisted.
type FrameCapturedEvent struct {
	Path      string
	Sequence  uint64
	Bytes     int
	Timestamp time.Time
	Elapsed   time.Duration // convert + write time
}

// Type returns the event type identifier for FrameCapturedEvent.
func (e FrameCapturedEvent) Type() uint32 { return TypeFrameCaptured }

// FrameSkippedEvent is published when a capture cycle produced no frame
// because the dequeue reported a transient condition. Interrupted readiness
// waits re-arm silently and are not reported.
type FrameSkippedEvent struct {
	Reason string
}

// Type returns the event type identifier for FrameSkippedEvent.
func (e FrameSkippedEvent) Type() uint32 { return TypeFrameSkipped }

// CaptureErrorEvent is published when the acquisition loop terminates
// with a fatal error.
type CaptureErrorEvent struct {
	DevicePath string
	Op         string
	Error      string
}

// Type returns the event type identifier for CaptureErrorEvent.
func (e CaptureErrorEvent) Type() uint32 { return TypeCaptureError }
