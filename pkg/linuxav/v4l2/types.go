//go:build linux

package v4l2

// DeviceInfo contains information about a V4L2 device.
type DeviceInfo struct {
	DevicePath string
	DeviceName string
	DeviceID   string // Stable identifier (from /dev/v4l/by-id/ or synthetic)
	Caps       uint32
}

// Geometry is the frame layout requested from a device.
type Geometry struct {
	Width       uint32
	Height      uint32
	PixelFormat uint32
}

// FrameFormat is the frame layout actually in effect after negotiation.
// BytesPerLine and SizeImage are clamped to the geometric minimums even
// when the driver reports smaller values.
type FrameFormat struct {
	Width        uint32
	Height       uint32
	PixelFormat  uint32
	BytesPerLine uint32
	SizeImage    uint32
}

// Ownership tags which side of the queue protocol currently holds a
// mapped buffer. Buffer memory may only be touched while WithProcess.
type Ownership int

// Buffer ownership states.
const (
	WithKernel Ownership = iota
	WithProcess
)

func (o Ownership) String() string {
	if o == WithProcess {
		return "with-process"
	}
	return "with-kernel"
}

// Capability flags.
const (
	capVideoCapture = 0x00000001
	capStreaming    = 0x04000000
	capDeviceCaps   = 0x80000000
)

// Common pixel formats.
const (
	PixelFormatYUYV  = 0x56595559 // 'YUYV'
	PixelFormatMJPEG = 0x47504A4D // 'MJPG'
	PixelFormatH264  = 0x34363248 // 'H264'
	PixelFormatNV12  = 0x3231564E // 'NV12'
)

// Buffer type, memory mode, and field order used for capture.
const (
	bufTypeVideoCapture = 1
	memoryMmap          = 1
	fieldNone           = 1
)

// FormatFourCC converts a 4-byte pixel format to a human-readable string.
func FormatFourCC(format uint32) string {
	b := make([]byte, 4)
	b[0] = byte(format & 0xFF)
	b[1] = byte((format >> 8) & 0xFF)
	b[2] = byte((format >> 16) & 0xFF)
	b[3] = byte((format >> 24) & 0xFF)
	return string(b)
}
