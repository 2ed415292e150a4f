// Package ppm persists RGB frames as binary portable-pixmap (P6) files
// with the capture timestamp embedded in a header comment.
package ppm

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// maxWriteAttempts bounds the partial-write retry loop. A destination
// that makes no progress within the budget surfaces a *WriteError
// instead of spinning forever.
const maxWriteAttempts = 8

// WriteError reports a failed or stalled frame write.
type WriteError struct {
	Path    string
	Written int
	Err     error
}

func (e *WriteError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("ppm: writing %s after %d bytes: %v", e.Path, e.Written, e.Err)
	}
	return fmt.Sprintf("ppm: write to %s stalled after %d bytes", e.Path, e.Written)
}

func (e *WriteError) Unwrap() error { return e.Err }

// Writer emits sequentially numbered frame files into a directory. It
// owns the sequence counter: numbering starts at 1 and increments only
// on a successful write, so the on-disk sequence has no gaps or repeats.
type Writer struct {
	Dir    string
	Prefix string
	Width  uint32
	Height uint32

	seq uint64
}

// Sequence returns the number of frames successfully written so far.
func (w *Writer) Sequence() uint64 { return w.seq }

// header renders the P6 header with the capture time as zero-padded
// whole seconds and milliseconds.
func header(ts time.Time, width, height uint32) string {
	return fmt.Sprintf("P6\n#%010d sec %010d msec \n%d %d\n255\n",
		ts.Unix(), ts.Nanosecond()/int(time.Millisecond), width, height)
}

// Write persists one RGB frame and returns the path of the file it
// created. The filename is the prefix followed by the 8-digit
// zero-padded sequence number.
func (w *Writer) Write(rgb []byte, ts time.Time) (string, error) {
	name := fmt.Sprintf("%s%08d.ppm", w.Prefix, w.seq+1)
	path := filepath.Join(w.Dir, name)

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o666)
	if err != nil {
		return "", &WriteError{Path: path, Err: err}
	}

	err = writeAll(f, []byte(header(ts, w.Width, w.Height)), path)
	if err == nil {
		err = writeAll(f, rgb, path)
	}
	if closeErr := f.Close(); err == nil && closeErr != nil {
		err = &WriteError{Path: path, Written: len(rgb), Err: closeErr}
	}
	if err != nil {
		return "", err
	}

	w.seq++
	return path, nil
}

// writeAll pushes data to w, retrying short writes up to the attempt
// budget. A short write (io.ErrShortWrite, or fewer bytes than asked
// with no error) consumes an attempt and retries the remainder; any
// other error aborts immediately. A destination that stalls past the
// budget surfaces a *WriteError carrying the bytes that did land.
func writeAll(w io.Writer, data []byte, path string) error {
	total := 0
	for attempt := 0; total < len(data); attempt++ {
		if attempt >= maxWriteAttempts {
			return &WriteError{Path: path, Written: total}
		}
		n, err := w.Write(data[total:])
		if n > 0 {
			total += n
		}
		if err != nil && !errors.Is(err, io.ErrShortWrite) {
			return &WriteError{Path: path, Written: total, Err: err}
		}
	}
	return nil
}

// Header is the parsed leading portion of a P6 frame file.
type Header struct {
	Width     uint32
	Height    uint32
	MaxValue  int
	Seconds   int64
	Millis    int64
	DataBytes int
}

// DecodeHeader parses the header of a frame file produced by Writer and
// reports the pixel byte count that follows it.
func DecodeHeader(r io.Reader) (Header, error) {
	br := bufio.NewReader(r)

	var h Header
	magic, err := br.ReadString('\n')
	if err != nil {
		return h, fmt.Errorf("ppm: reading magic: %w", err)
	}
	if magic != "P6\n" {
		return h, fmt.Errorf("ppm: not a binary pixmap: %q", magic)
	}

	comment, err := br.ReadString('\n')
	if err != nil {
		return h, fmt.Errorf("ppm: reading timestamp comment: %w", err)
	}
	if _, err := fmt.Sscanf(comment, "#%d sec %d msec", &h.Seconds, &h.Millis); err != nil {
		return h, fmt.Errorf("ppm: malformed timestamp %q: %w", comment, err)
	}

	if _, err := fmt.Fscanf(br, "%d %d\n%d\n", &h.Width, &h.Height, &h.MaxValue); err != nil {
		return h, fmt.Errorf("ppm: malformed dimensions: %w", err)
	}

	n, err := io.Copy(io.Discard, br)
	if err != nil {
		return h, fmt.Errorf("ppm: reading pixel data: %w", err)
	}
	h.DataBytes = int(n)
	return h, nil
}
