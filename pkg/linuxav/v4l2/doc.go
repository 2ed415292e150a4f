//go:build linux

// Package v4l2 provides pure Go bindings to the Video4Linux2 (V4L2) API
// for memory-mapped streaming capture.
//
// This package does not use cgo, enabling simple cross-compilation for
// different Linux architectures (amd64, arm64, arm).
//
// # Device Lifecycle
//
// Open a capture device, negotiate a frame format, and map a kernel
// buffer pool:
//
//	dev, err := v4l2.Open("/dev/video0")
//	format, err := dev.Negotiate(v4l2.Geometry{Width: 320, Height: 240, PixelFormat: v4l2.PixelFormatYUYV}, true)
//	pool, err := dev.RequestBuffers(6)
//
// # Acquisition
//
// Start streaming, wait for a buffer, read it, and hand it back:
//
//	pool.StreamOn()
//	dev.WaitReady(2 * time.Second)
//	buf, _ := pool.Dequeue()
//	process(buf.Bytes())
//	buf.Requeue()
//	pool.StreamOff()
//	pool.Release()
//	dev.Close()
//
// Buffer memory is shared with the kernel. A buffer's contents may only
// be read between Dequeue and Requeue; the LockedBuffer handle enforces
// that window.
//
// # Device Enumeration
//
// Use FindDevices to discover all V4L2 video capture devices:
//
//	devices, err := v4l2.FindDevices()
//	for _, dev := range devices {
//	    fmt.Printf("%s: %s\n", dev.DevicePath, dev.DeviceName)
//	}
package v4l2
