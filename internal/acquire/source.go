package acquire

import (
	"errors"
	"time"

	"github.com/smazurov/framegrab/internal/convert"
)

// Flow-control conditions a Source reports to the loop.
var (
	// ErrWaitTimeout means the readiness wait elapsed with nothing to
	// dequeue. The loop treats this as fatal: a capture device that stays
	// silent past the timeout is presumed wedged.
	ErrWaitTimeout = errors.New("acquire: readiness wait timed out")

	// ErrInterrupted means the readiness wait was cut short by a signal.
	// The loop re-arms the wait without counting a failure.
	ErrInterrupted = errors.New("acquire: readiness wait interrupted")

	// ErrNoFrame means a dequeue came up empty this cycle (transient
	// driver condition). The loop skips the cycle silently.
	ErrNoFrame = errors.New("acquire: no frame this cycle")
)

// Format describes the frames a Source delivers.
type Format struct {
	Width     uint32
	Height    uint32
	Encoding  convert.Encoding
	FrameSize uint32 // upper bound on bytes per delivered frame
}

// Frame is exclusive access to one captured frame. Data references
// memory shared with the producer and is only valid until Release.
type Frame struct {
	Data        []byte
	CaptureTime time.Time

	release func() error
}

// NewFrame wraps frame data with its release action. release may be nil
// for sources without buffer recycling.
func NewFrame(data []byte, ts time.Time, release func() error) *Frame {
	return &Frame{Data: data, CaptureTime: ts, release: release}
}

// Release hands the underlying buffer back to the producer. The frame
// data must not be touched afterwards.
func (f *Frame) Release() error {
	f.Data = nil
	if f.release == nil {
		return nil
	}
	return f.release()
}

// Source is a streaming frame producer the acquisition loop drives.
// Implementations translate their transport's transient conditions into
// the sentinel errors above.
type Source interface {
	// Format reports the negotiated frame layout.
	Format() Format

	// WaitReady blocks until a frame can be dequeued without blocking,
	// the timeout elapses (ErrWaitTimeout), or a signal interrupts the
	// wait (ErrInterrupted).
	WaitReady(timeout time.Duration) error

	// Dequeue takes the next filled frame, or ErrNoFrame when the
	// producer has nothing deliverable this cycle.
	Dequeue() (*Frame, error)

	// Close stops streaming and releases producer resources.
	Close() error
}
