//go:build linux

package acquire

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/smazurov/framegrab/internal/convert"
	"github.com/smazurov/framegrab/pkg/linuxav/v4l2"
)

// DeviceConfig selects and configures a V4L2 capture device.
type DeviceConfig struct {
	Path        string
	Width       uint32
	Height      uint32
	ForceFormat bool   // command the device to adopt Width x Height YUYV
	Buffers     uint32 // requested mmap buffer count
}

// DeviceSource streams frames from a memory-mapped V4L2 capture device.
type DeviceSource struct {
	dev    *v4l2.Device
	pool   *v4l2.BufferPool
	format v4l2.FrameFormat
	logger *slog.Logger
	closed bool
}

// OpenDevice opens and validates the device, negotiates the frame
// format, maps the buffer pool, and starts streaming. On success the
// source is ready for WaitReady/Dequeue cycles.
func OpenDevice(cfg DeviceConfig, logger *slog.Logger) (*DeviceSource, error) {
	dev, err := v4l2.Open(cfg.Path)
	if err != nil {
		return nil, err
	}

	format, err := dev.Negotiate(v4l2.Geometry{
		Width:       cfg.Width,
		Height:      cfg.Height,
		PixelFormat: v4l2.PixelFormatYUYV,
	}, cfg.ForceFormat)
	if err != nil {
		dev.Close()
		return nil, err
	}

	pool, err := dev.RequestBuffers(cfg.Buffers)
	if err != nil {
		dev.Close()
		return nil, err
	}

	if err := pool.StreamOn(); err != nil {
		pool.Release()
		dev.Close()
		return nil, err
	}

	logger.Info("Capture device streaming",
		"path", cfg.Path,
		"driver", dev.Driver(),
		"card", dev.Card(),
		"format", v4l2.FormatFourCC(format.PixelFormat),
		"width", format.Width,
		"height", format.Height,
		"stride", format.BytesPerLine,
		"buffers", pool.Count(),
	)

	return &DeviceSource{dev: dev, pool: pool, format: format, logger: logger}, nil
}

// Device returns the underlying open device.
func (s *DeviceSource) Device() *v4l2.Device { return s.dev }

// Format reports the negotiated frame layout.
func (s *DeviceSource) Format() Format {
	return Format{
		Width:     s.format.Width,
		Height:    s.format.Height,
		Encoding:  convert.Encoding(s.format.PixelFormat),
		FrameSize: s.format.SizeImage,
	}
}

// WaitReady blocks until a buffer is dequeuable or timeout elapses.
func (s *DeviceSource) WaitReady(timeout time.Duration) error {
	err := s.dev.WaitReady(timeout)
	switch {
	case errors.Is(err, v4l2.ErrWaitTimeout):
		return ErrWaitTimeout
	case errors.Is(err, v4l2.ErrInterrupted):
		return ErrInterrupted
	default:
		return err
	}
}

// Dequeue takes the next filled buffer. The returned frame's Release
// requeues the buffer to the kernel.
func (s *DeviceSource) Dequeue() (*Frame, error) {
	buf, err := s.pool.Dequeue()
	if err != nil {
		if errors.Is(err, v4l2.ErrNoBufferReady) {
			return nil, ErrNoFrame
		}
		return nil, err
	}
	return NewFrame(buf.Bytes(), time.Now(), buf.Requeue), nil
}

// Close drains the device: stream off, unmap the pool, close the
// handle. Safe to call more than once.
func (s *DeviceSource) Close() error {
	if s.closed {
		return nil
	}
	s.closed = true

	var errs []error
	if err := s.pool.StreamOff(); err != nil {
		errs = append(errs, err)
	}
	if err := s.pool.Release(); err != nil {
		errs = append(errs, err)
	}
	if err := s.dev.Close(); err != nil {
		errs = append(errs, err)
	}
	if len(errs) > 0 {
		return fmt.Errorf("closing capture source: %w", errors.Join(errs...))
	}
	s.logger.Info("Capture device closed", "path", s.dev.Path())
	return nil
}
