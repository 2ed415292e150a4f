package ppm

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func testWriter(t *testing.T) *Writer {
	t.Helper()
	return &Writer{
		Dir:    t.TempDir(),
		Prefix: "test",
		Width:  320,
		Height: 240,
	}
}

func TestWriteHeaderRoundTrip(t *testing.T) {
	w := testWriter(t)
	ts := time.Unix(1756184461, 37*int64(time.Millisecond))
	rgb := make([]byte, 320*240*3)

	path, err := w.Write(rgb, ts)
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening written frame: %v", err)
	}
	defer f.Close()

	h, err := DecodeHeader(f)
	if err != nil {
		t.Fatalf("DecodeHeader() error: %v", err)
	}
	if h.Width != 320 || h.Height != 240 {
		t.Errorf("dimensions = %dx%d, want 320x240", h.Width, h.Height)
	}
	if h.MaxValue != 255 {
		t.Errorf("max value = %d, want 255", h.MaxValue)
	}
	if h.Seconds != 1756184461 || h.Millis != 37 {
		t.Errorf("timestamp = %d sec %d msec, want 1756184461 sec 37 msec", h.Seconds, h.Millis)
	}
	if h.DataBytes != len(rgb) {
		t.Errorf("pixel bytes = %d, want %d", h.DataBytes, len(rgb))
	}
}

func TestWriteHeaderIsZeroPadded(t *testing.T) {
	w := testWriter(t)
	path, err := w.Write([]byte{0, 0, 0}, time.Unix(7, 5*int64(time.Millisecond)))
	if err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading frame: %v", err)
	}
	want := "P6\n#0000000007 sec 0000000005 msec \n320 240\n255\n\x00\x00\x00"
	if string(data) != want {
		t.Errorf("file contents = %q, want %q", data, want)
	}
}

func TestWriteSequenceNumbering(t *testing.T) {
	w := testWriter(t)
	ts := time.Now()

	for i := 1; i <= 3; i++ {
		path, err := w.Write([]byte{1, 2, 3}, ts)
		if err != nil {
			t.Fatalf("Write() #%d error: %v", i, err)
		}
		want := fmt.Sprintf("test%08d.ppm", i)
		if filepath.Base(path) != want {
			t.Errorf("frame %d written to %s, want %s", i, filepath.Base(path), want)
		}
	}
	if w.Sequence() != 3 {
		t.Errorf("Sequence() = %d, want 3", w.Sequence())
	}
}

func TestWriteFailureDoesNotAdvanceSequence(t *testing.T) {
	w := testWriter(t)
	w.Dir = filepath.Join(w.Dir, "missing-subdir")

	_, err := w.Write([]byte{1, 2, 3}, time.Now())
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("Write() error = %v, want *WriteError", err)
	}
	if w.Sequence() != 0 {
		t.Errorf("Sequence() = %d after failed write, want 0", w.Sequence())
	}
}

// chunkWriter accepts at most chunk bytes per call and reports the short
// write the way os.File does.
type chunkWriter struct {
	buf   []byte
	chunk int
}

func (c *chunkWriter) Write(p []byte) (int, error) {
	if len(p) > c.chunk {
		c.buf = append(c.buf, p[:c.chunk]...)
		return c.chunk, io.ErrShortWrite
	}
	c.buf = append(c.buf, p...)
	return len(p), nil
}

// stallWriter makes no progress at all.
type stallWriter struct{ calls int }

func (s *stallWriter) Write(p []byte) (int, error) {
	s.calls++
	return 0, io.ErrShortWrite
}

type failWriter struct{ err error }

func (f *failWriter) Write(p []byte) (int, error) { return 0, f.err }

func TestWriteAllRetriesShortWrites(t *testing.T) {
	data := []byte("0123456789")
	dst := &chunkWriter{chunk: 3}

	if err := writeAll(dst, data, "frame.ppm"); err != nil {
		t.Fatalf("writeAll() error: %v", err)
	}
	if string(dst.buf) != string(data) {
		t.Errorf("destination got %q, want %q", dst.buf, data)
	}
}

func TestWriteAllBoundsStalledWriter(t *testing.T) {
	dst := &stallWriter{}

	err := writeAll(dst, []byte("0123456789"), "frame.ppm")
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("writeAll() error = %v, want *WriteError", err)
	}
	if werr.Written != 0 {
		t.Errorf("Written = %d, want 0", werr.Written)
	}
	if werr.Err != nil {
		t.Errorf("Err = %v, want nil for a stalled destination", werr.Err)
	}
	if dst.calls != maxWriteAttempts {
		t.Errorf("destination called %d times, want %d", dst.calls, maxWriteAttempts)
	}
}

func TestWriteAllPartialProgressPastBudget(t *testing.T) {
	// One byte per attempt cannot finish a payload longer than the budget.
	dst := &chunkWriter{chunk: 1}
	data := make([]byte, maxWriteAttempts+4)

	err := writeAll(dst, data, "frame.ppm")
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("writeAll() error = %v, want *WriteError", err)
	}
	if werr.Written != maxWriteAttempts {
		t.Errorf("Written = %d, want %d", werr.Written, maxWriteAttempts)
	}
}

func TestWriteAllHardErrorAborts(t *testing.T) {
	hard := errors.New("device gone")
	dst := &failWriter{err: hard}

	err := writeAll(dst, []byte("0123456789"), "frame.ppm")
	if !errors.Is(err, hard) {
		t.Fatalf("writeAll() error = %v, want wrapped %v", err, hard)
	}
	var werr *WriteError
	if !errors.As(err, &werr) {
		t.Fatalf("writeAll() error = %v, want *WriteError", err)
	}
	if werr.Written != 0 {
		t.Errorf("Written = %d, want 0", werr.Written)
	}
}

func TestDecodeHeaderRejectsForeignFormats(t *testing.T) {
	f, err := os.Open("/dev/null")
	if err != nil {
		t.Skip("no /dev/null")
	}
	defer f.Close()
	if _, err := DecodeHeader(f); err == nil {
		t.Error("DecodeHeader(empty) succeeded, want error")
	}
}
