// Package acquire runs the frame acquisition loop: wait for a buffer,
// dequeue it, convert it, hand the buffer back, persist the result, and
// pace the next cycle.
package acquire

import (
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/smazurov/framegrab/internal/convert"
	"github.com/smazurov/framegrab/internal/events"
	"github.com/smazurov/framegrab/internal/ppm"
)

// Defaults for the loop timing knobs.
const (
	DefaultWaitTimeout = 2 * time.Second
	DefaultDelay       = 50 * time.Millisecond
)

// Config tunes the acquisition loop.
type Config struct {
	// WaitTimeout bounds each readiness wait. Elapsing is fatal.
	WaitTimeout time.Duration

	// Delay is the pacing pause after each processed frame. Adjustable
	// while the loop runs via SetDelay.
	Delay time.Duration

	// FrameLimit stops the loop after this many frames. Zero means run
	// until the continue flag drops.
	FrameLimit uint64
}

// Loop coordinates one Source with the converter/writer pipeline. It is
// strictly sequential: no frame overlaps another, and cancellation is
// only observed between cycles.
type Loop struct {
	src    Source
	conv   *convert.Converter
	writer *ppm.Writer
	bus    *events.Bus
	logger *slog.Logger

	waitTimeout time.Duration
	frameLimit  uint64
	delay       atomic.Int64

	state  State
	frames uint64
}

// New builds a loop for src. The converter's scratch buffer is sized
// from the source's negotiated frame size.
func New(src Source, writer *ppm.Writer, bus *events.Bus, logger *slog.Logger, cfg Config) *Loop {
	if cfg.WaitTimeout <= 0 {
		cfg.WaitTimeout = DefaultWaitTimeout
	}
	if cfg.Delay <= 0 {
		cfg.Delay = DefaultDelay
	}

	l := &Loop{
		src:         src,
		conv:        convert.New(int(src.Format().FrameSize)),
		writer:      writer,
		bus:         bus,
		logger:      logger,
		waitTimeout: cfg.WaitTimeout,
		frameLimit:  cfg.FrameLimit,
		state:       StateIdle,
	}
	l.delay.Store(int64(cfg.Delay))
	return l
}

// SetDelay changes the inter-frame pacing delay. Takes effect from the
// next processed frame.
func (l *Loop) SetDelay(d time.Duration) {
	if d < 0 {
		return
	}
	l.delay.Store(int64(d))
	l.logger.Info("Pacing delay updated", "delay", d)
}

// State returns the loop's current phase.
func (l *Loop) State() State { return l.state }

// Frames returns the number of frames processed so far.
func (l *Loop) Frames() uint64 { return l.frames }

// Run drives the loop until the continue flag drops, the frame limit is
// reached, or a fatal condition occurs. The flag is polled between
// cycles only; an in-progress wait or write is never preempted.
//
// The Source is not closed by Run; the caller owns the drain sequence
// (stream off, unmap, close device).
func (l *Loop) Run(continueCapture func() bool) error {
	defer func() { l.state = StateDraining }()

	for {
		if !continueCapture() {
			l.logger.Info("Capture flag dropped, draining", "frames", l.frames)
			return nil
		}
		if l.frameLimit > 0 && l.frames >= l.frameLimit {
			l.logger.Info("Frame limit reached, draining", "frames", l.frames)
			return nil
		}

		l.state = StateWaiting
		err := l.src.WaitReady(l.waitTimeout)
		switch {
		case errors.Is(err, ErrInterrupted):
			// Benign signal during the wait: re-arm.
			l.state = StateIdle
			continue
		case errors.Is(err, ErrWaitTimeout):
			return l.fatal("wait", fmt.Errorf("no frame within %v: %w", l.waitTimeout, err))
		case err != nil:
			return l.fatal("wait", err)
		}

		l.state = StateReady
		frame, err := l.src.Dequeue()
		if errors.Is(err, ErrNoFrame) {
			// Transient condition; no frame this cycle.
			l.logger.Debug("No frame this cycle")
			l.bus.Publish(events.FrameSkippedEvent{Reason: "no buffer ready"})
			l.state = StateIdle
			continue
		}
		if err != nil {
			return l.fatal("dequeue", err)
		}

		l.state = StateProcessing
		if err := l.process(frame); err != nil {
			return l.fatal("process", err)
		}
		l.frames++

		time.Sleep(time.Duration(l.delay.Load()))
		l.state = StateIdle
	}
}

// process converts one frame, recycles its buffer, and persists the
// result. The buffer is handed back before the write so the kernel can
// refill it while the file is flushed.
func (l *Loop) process(frame *Frame) error {
	ts := frame.CaptureTime
	start := time.Now()
	rgb, err := l.conv.Convert(frame.Data, l.src.Format().Encoding)
	if err != nil {
		_ = frame.Release()
		return err
	}
	if err := frame.Release(); err != nil {
		return err
	}

	path, err := l.writer.Write(rgb, ts)
	if err != nil {
		return err
	}

	l.logger.Debug("Wrote frame", "path", path, "bytes", len(rgb), "sequence", l.writer.Sequence())
	l.bus.Publish(events.FrameCapturedEvent{
		Path:      path,
		Sequence:  l.writer.Sequence(),
		Bytes:     len(rgb),
		Timestamp: ts,
		Elapsed:   time.Since(start),
	})
	return nil
}

// fatal reports a terminal loop error with its operation context.
func (l *Loop) fatal(op string, err error) error {
	l.logger.Error("Acquisition failed", "op", op, "error", err)
	l.bus.Publish(events.CaptureErrorEvent{Op: op, Error: err.Error()})
	return fmt.Errorf("acquire: %s: %w", op, err)
}
