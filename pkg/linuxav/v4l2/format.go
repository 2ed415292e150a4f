//go:build linux

package v4l2

import (
	"errors"
	"syscall"
	"unsafe"
)

// pix gives access to the v4l2PixFormat member of the format union.
func (f *v4l2Format) pix() *v4l2PixFormat {
	return (*v4l2PixFormat)(unsafe.Pointer(&f.raw[0]))
}

// Negotiate establishes the frame format for capture. When force is
// true the device is commanded to adopt desired; otherwise the format
// currently in effect is queried and accepted as-is (preserving whatever
// v4l2-ctl set up, for example).
//
// The returned BytesPerLine and SizeImage are clamped upward to the
// geometric minimums. Some drivers under-report buffer requirements and
// the mapped buffers must be large enough regardless.
func (d *Device) Negotiate(desired Geometry, force bool) (FrameFormat, error) {
	d.resetCrop()

	format := v4l2Format{typ: bufTypeVideoCapture}
	pix := format.pix()

	if force {
		pix.width = desired.Width
		pix.height = desired.Height
		pix.pixelformat = desired.PixelFormat
		pix.field = fieldNone

		if err := xioctl(d.fd, vidiocSFmt, unsafe.Pointer(&format)); err != nil {
			return FrameFormat{}, newError(ErrCodeIoctlFailed, "VIDIOC_S_FMT", d.path, err)
		}
	} else {
		if err := xioctl(d.fd, vidiocGFmt, unsafe.Pointer(&format)); err != nil {
			return FrameFormat{}, newError(ErrCodeIoctlFailed, "VIDIOC_G_FMT", d.path, err)
		}
	}

	return clampFormat(FrameFormat{
		Width:        pix.width,
		Height:       pix.height,
		PixelFormat:  pix.pixelformat,
		BytesPerLine: pix.bytesperline,
		SizeImage:    pix.sizeimage,
	}), nil
}

// clampFormat enforces the stride and frame-size minimums on a
// driver-reported format.
func clampFormat(f FrameFormat) FrameFormat {
	if min := f.Width * 2; f.BytesPerLine < min {
		f.BytesPerLine = min
	}
	if min := f.BytesPerLine * f.Height; f.SizeImage < min {
		f.SizeImage = min
	}
	return f
}

// resetCrop restores the device's default crop rectangle. Devices
// without cropping support are left alone; all failures here are
// ignored.
func (d *Device) resetCrop() {
	cropcap := v4l2Cropcap{typ: bufTypeVideoCapture}
	if err := xioctl(d.fd, vidiocCropcap, unsafe.Pointer(&cropcap)); err != nil {
		return
	}

	crop := v4l2Crop{typ: bufTypeVideoCapture, c: cropcap.defrect}
	if err := xioctl(d.fd, vidiocSCrop, unsafe.Pointer(&crop)); err != nil {
		if errors.Is(err, syscall.EINVAL) {
			return // cropping not supported
		}
	}
}
