//go:build linux

package v4l2

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"
)

// mappedBuffer is one kernel-allocated capture buffer mapped into the
// process. The memory belongs to the kernel; owner tracks which side of
// the queue protocol may touch it.
type mappedBuffer struct {
	data  []byte
	owner Ownership
}

// BufferPool is a fixed set of memory-mapped capture buffers shared with
// the kernel. Buffers move between the kernel's fill queue and the
// process via Dequeue and LockedBuffer.Requeue; the pool refuses reads
// outside that window.
type BufferPool struct {
	dev       *Device
	bufs      []mappedBuffer
	streaming bool
	released  bool
}

// RequestBuffers asks the kernel for count memory-mapped capture buffers
// and maps each granted buffer into the process with shared read/write
// access. The kernel may grant fewer than requested; fewer than two is a
// hard failure since the queue protocol needs one buffer filling while
// another is read.
func (d *Device) RequestBuffers(count uint32) (*BufferPool, error) {
	req := v4l2RequestBuffers{
		count:  count,
		typ:    bufTypeVideoCapture,
		memory: memoryMmap,
	}
	if err := xioctl(d.fd, vidiocReqbufs, unsafe.Pointer(&req)); err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return nil, newError(ErrCodeMmapUnsupported, "VIDIOC_REQBUFS", d.path, err)
		}
		return nil, newError(ErrCodeIoctlFailed, "VIDIOC_REQBUFS", d.path, err)
	}
	if req.count < 2 {
		return nil, newError(ErrCodeInsufficientBuffers, "VIDIOC_REQBUFS", d.path,
			fmt.Errorf("kernel granted %d buffers", req.count))
	}

	pool := &BufferPool{
		dev:  d,
		bufs: make([]mappedBuffer, req.count),
	}

	for i := uint32(0); i < req.count; i++ {
		buf := v4l2Buffer{
			typ:    bufTypeVideoCapture,
			memory: memoryMmap,
			index:  i,
		}
		if err := xioctl(d.fd, vidiocQuerybuf, unsafe.Pointer(&buf)); err != nil {
			pool.unmapAll()
			return nil, newError(ErrCodeIoctlFailed, "VIDIOC_QUERYBUF", d.path, err)
		}

		data, err := mmap(d.fd, int64(buf.offset), int(buf.length),
			syscall.PROT_READ|syscall.PROT_WRITE, syscall.MAP_SHARED)
		if err != nil {
			pool.unmapAll()
			return nil, newError(ErrCodeMapFailure, "mmap", d.path,
				fmt.Errorf("buffer %d: %w", i, err))
		}
		pool.bufs[i] = mappedBuffer{data: data, owner: WithProcess}
	}

	return pool, nil
}

// Count returns the number of buffers the kernel granted.
func (p *BufferPool) Count() int { return len(p.bufs) }

// StreamOn primes the capture queue by handing every buffer to the
// kernel, then starts streaming.
func (p *BufferPool) StreamOn() error {
	for i := range p.bufs {
		if err := p.enqueue(uint32(i)); err != nil {
			return err
		}
	}

	bufType := uint32(bufTypeVideoCapture)
	if err := xioctl(p.dev.fd, vidiocStreamon, unsafe.Pointer(&bufType)); err != nil {
		return newError(ErrCodeIoctlFailed, "VIDIOC_STREAMON", p.dev.path, err)
	}
	p.streaming = true
	return nil
}

// StreamOff stops streaming. The kernel implicitly removes all buffers
// from its queue, so every slot returns to process ownership.
func (p *BufferPool) StreamOff() error {
	bufType := uint32(bufTypeVideoCapture)
	if err := xioctl(p.dev.fd, vidiocStreamoff, unsafe.Pointer(&bufType)); err != nil {
		return newError(ErrCodeIoctlFailed, "VIDIOC_STREAMOFF", p.dev.path, err)
	}
	p.streaming = false
	for i := range p.bufs {
		p.bufs[i].owner = WithProcess
	}
	return nil
}

// Dequeue takes the next filled buffer from the kernel and returns a
// scoped handle to its contents. ErrNoBufferReady means no frame this
// cycle: the driver reported EAGAIN, or EIO, which drivers are supposed
// to reserve for serious errors but some raise for recoverable ones.
func (p *BufferPool) Dequeue() (*LockedBuffer, error) {
	buf := v4l2Buffer{
		typ:    bufTypeVideoCapture,
		memory: memoryMmap,
	}
	if err := xioctl(p.dev.fd, vidiocDqbuf, unsafe.Pointer(&buf)); err != nil {
		if errors.Is(err, syscall.EAGAIN) || errors.Is(err, syscall.EIO) {
			return nil, ErrNoBufferReady
		}
		return nil, newError(ErrCodeIoctlFailed, "VIDIOC_DQBUF", p.dev.path, err)
	}

	if int(buf.index) >= len(p.bufs) {
		return nil, newError(ErrCodeIoctlFailed, "VIDIOC_DQBUF", p.dev.path,
			fmt.Errorf("kernel returned out-of-range buffer index %d", buf.index))
	}
	slot := &p.bufs[buf.index]
	if slot.owner == WithProcess {
		return nil, newError(ErrCodeIoctlFailed, "VIDIOC_DQBUF", p.dev.path,
			fmt.Errorf("buffer %d dequeued while already owned by process", buf.index))
	}
	slot.owner = WithProcess

	n := int(buf.bytesused)
	if n > len(slot.data) {
		n = len(slot.data)
	}
	return &LockedBuffer{pool: p, index: buf.index, data: slot.data[:n]}, nil
}

// enqueue hands buffer index back to the kernel's fill queue.
func (p *BufferPool) enqueue(index uint32) error {
	buf := v4l2Buffer{
		typ:    bufTypeVideoCapture,
		memory: memoryMmap,
		index:  index,
	}
	if err := xioctl(p.dev.fd, vidiocQbuf, unsafe.Pointer(&buf)); err != nil {
		return newError(ErrCodeIoctlFailed, "VIDIOC_QBUF", p.dev.path, err)
	}
	p.bufs[index].owner = WithKernel
	return nil
}

// Release unmaps every buffer. Must be called exactly once, after
// streaming has been stopped.
func (p *BufferPool) Release() error {
	if p.released {
		return nil
	}
	p.released = true
	return p.unmapAll()
}

func (p *BufferPool) unmapAll() error {
	var firstErr error
	for i := range p.bufs {
		if p.bufs[i].data == nil {
			continue
		}
		if err := munmap(p.bufs[i].data); err != nil && firstErr == nil {
			firstErr = newError(ErrCodeMapFailure, "munmap", p.dev.path,
				fmt.Errorf("buffer %d: %w", i, err))
		}
		p.bufs[i].data = nil
	}
	return firstErr
}

// LockedBuffer is exclusive access to one dequeued buffer. The handle is
// consumed by Requeue; holding the byte slice after that point violates
// the sharing protocol with the kernel.
type LockedBuffer struct {
	pool     *BufferPool
	index    uint32
	data     []byte
	requeued bool
}

// Index returns the pool slot this buffer occupies.
func (b *LockedBuffer) Index() uint32 { return b.index }

// Bytes returns the filled portion of the buffer. Valid only until
// Requeue is called.
func (b *LockedBuffer) Bytes() []byte {
	if b.requeued {
		return nil
	}
	return b.data
}

// Requeue hands the buffer back to the kernel and consumes the handle.
func (b *LockedBuffer) Requeue() error {
	if b.requeued {
		return ErrBufferConsumed
	}
	b.requeued = true
	b.data = nil
	return b.pool.enqueue(b.index)
}
