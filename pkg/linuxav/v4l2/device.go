//go:build linux

package v4l2

import (
	"bytes"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
	"unsafe"
)

// Device is an open V4L2 capture device. A valid Device always supports
// both video capture and streaming I/O; Open refuses anything else.
type Device struct {
	path   string
	fd     int
	driver string
	card   string
	closed bool
}

// Open validates that path is a character device, opens it in
// non-blocking read/write mode, and verifies capture and streaming
// capabilities. Devices without streaming I/O are rejected; this package
// does not fall back to read()-based capture.
func Open(path string) (*Device, error) {
	st, err := os.Stat(path)
	if err != nil {
		return nil, newError(ErrCodeDeviceNotFound, "stat", path, err)
	}
	if st.Mode()&os.ModeCharDevice == 0 {
		return nil, newError(ErrCodeNotCharDevice, "open", path, nil)
	}

	fd, err := openNonblock(path)
	if err != nil {
		return nil, newError(ErrCodeDeviceNotFound, "open", path, err)
	}

	cap := v4l2Capability{}
	if err := xioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
		syscall.Close(fd)
		return nil, newError(ErrCodeIoctlFailed, "VIDIOC_QUERYCAP", path, err)
	}

	caps := cap.capabilities
	if caps&capDeviceCaps != 0 {
		caps = cap.deviceCaps
	}
	if caps&capVideoCapture == 0 {
		syscall.Close(fd)
		return nil, newError(ErrCodeNotCaptureDevice, "VIDIOC_QUERYCAP", path, nil)
	}
	if caps&capStreaming == 0 {
		syscall.Close(fd)
		return nil, newError(ErrCodeNoStreamingSupport, "VIDIOC_QUERYCAP", path, nil)
	}

	return &Device{
		path:   path,
		fd:     fd,
		driver: cstr(cap.driver[:]),
		card:   cstr(cap.card[:]),
	}, nil
}

// Path returns the device node path.
func (d *Device) Path() string { return d.path }

// Driver returns the kernel driver name reported by the device.
func (d *Device) Driver() string { return d.driver }

// Card returns the device name reported by the device.
func (d *Device) Card() string { return d.card }

// Close releases the file descriptor. Safe to call more than once.
func (d *Device) Close() error {
	if d.closed {
		return nil
	}
	d.closed = true
	if err := syscall.Close(d.fd); err != nil {
		return newError(ErrCodeIoctlFailed, "close", d.path, err)
	}
	return nil
}

// WaitReady blocks until the device signals that a buffer can be
// dequeued without blocking, or until timeout elapses. It returns
// ErrWaitTimeout when nothing became ready and ErrInterrupted when the
// wait was cut short by a signal; the caller decides whether to re-arm.
func (d *Device) WaitReady(timeout time.Duration) error {
	var fds syscall.FdSet
	fdSet(d.fd, &fds)

	tv := makeTimeval(int(timeout.Milliseconds()))
	n, err := syscall.Select(d.fd+1, &fds, nil, nil, tv)
	if err != nil {
		if err == syscall.EINTR {
			return ErrInterrupted
		}
		return newError(ErrCodeIoctlFailed, "select", d.path, err)
	}
	if n == 0 {
		return ErrWaitTimeout
	}
	return nil
}

// FindDevices finds all V4L2 video capture devices on the system.
func FindDevices() ([]DeviceInfo, error) {
	entries, err := os.ReadDir("/sys/class/video4linux")
	if err != nil {
		if os.IsNotExist(err) {
			return []DeviceInfo{}, nil
		}
		return nil, fmt.Errorf("failed to read video4linux directory: %w", err)
	}

	var devices []DeviceInfo

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}

		devicePath := "/dev/" + entry.Name()

		fd, err := openNonblock(devicePath)
		if err != nil {
			slog.With("module", "v4l2").Debug("failed to open video device", "path", devicePath, "error", err)
			continue
		}

		cap := v4l2Capability{}
		if err := xioctl(fd, vidiocQuerycap, unsafe.Pointer(&cap)); err != nil {
			slog.With("module", "v4l2").Debug("failed to query device capabilities", "path", devicePath, "error", err)
			syscall.Close(fd)
			continue
		}
		syscall.Close(fd)

		// Get the effective capabilities
		caps := cap.capabilities
		if caps&capDeviceCaps != 0 {
			caps = cap.deviceCaps
		}

		// Only include video capture devices
		if caps&capVideoCapture == 0 {
			continue
		}

		// Get device index from sysfs
		indexPath := filepath.Join("/sys/class/video4linux", entry.Name(), "index")
		indexValue := readSysfsInt(indexPath)

		// Find stable ID from /dev/v4l/by-id/
		stableID := findStableID(entry.Name(), indexValue)
		if stableID == "" {
			// Fallback: synthetic ID from bus_info + index
			busInfo := cstr(cap.busInfo[:])
			if strings.HasPrefix(busInfo, "usb-") {
				stableID = fmt.Sprintf("%s-video-index%d", busInfo, indexValue)
			} else {
				stableID = fmt.Sprintf("platform-%s-video-index%d", busInfo, indexValue)
			}
		}

		devices = append(devices, DeviceInfo{
			DevicePath: devicePath,
			DeviceName: cstr(cap.card[:]),
			DeviceID:   stableID,
			Caps:       caps,
		})
	}

	return devices, nil
}

// findStableID looks for a stable ID symlink in /dev/v4l/by-id/
func findStableID(deviceName string, indexValue int) string {
	byIDDir := "/dev/v4l/by-id"
	entries, err := os.ReadDir(byIDDir)
	if err != nil {
		return ""
	}

	expectedSuffix := fmt.Sprintf("-video-index%d", indexValue)

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}

		linkPath := filepath.Join(byIDDir, entry.Name())
		target, err := os.Readlink(linkPath)
		if err != nil {
			continue
		}

		targetBase := filepath.Base(target)
		if targetBase == deviceName && strings.HasSuffix(entry.Name(), expectedSuffix) {
			return entry.Name()
		}
	}

	return ""
}

// readSysfsInt reads an integer value from a sysfs file.
func readSysfsInt(path string) int {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0
	}
	val, _ := strconv.Atoi(strings.TrimSpace(string(data)))
	return val
}

// cstr converts a null-terminated byte slice to a Go string.
func cstr(b []byte) string {
	if i := bytes.IndexByte(b, 0); i >= 0 {
		return string(b[:i])
	}
	return string(b)
}
