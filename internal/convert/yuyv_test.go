package convert

import (
	"bytes"
	"errors"
	"testing"
)

func TestConvertBlackAndWhite(t *testing.T) {
	tests := []struct {
		name  string
		group []byte
		want  []byte
	}{
		{
			name:  "nominal black",
			group: []byte{16, 128, 16, 128},
			want:  []byte{0, 0, 0, 0, 0, 0},
		},
		{
			name:  "nominal white",
			group: []byte{235, 128, 235, 128},
			want:  []byte{255, 255, 255, 255, 255, 255},
		},
	}

	conv := New(len(tests[0].group))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := conv.Convert(tt.group, EncodingYUYV)
			if err != nil {
				t.Fatalf("Convert() error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("Convert(%v) = %v, want %v", tt.group, got, tt.want)
			}
		})
	}
}

func TestConvertOutputLength(t *testing.T) {
	conv := New(64)
	for _, groups := range []int{0, 1, 2, 5, 160} {
		in := make([]byte, groups*4)
		out, err := conv.Convert(in, EncodingYUYV)
		if err != nil {
			t.Fatalf("Convert(%d groups) error: %v", groups, err)
		}
		if len(out) != groups*6 {
			t.Errorf("Convert(%d bytes) produced %d bytes, want %d", len(in), len(out), groups*6)
		}
	}
}

func TestConvertClipsOutOfRange(t *testing.T) {
	conv := New(8)

	// Maximum chroma offsets drive the matrix well past [0,255] in both
	// directions; every output byte must still land in range (bytes can't
	// escape [0,255], so verify the known saturation points instead).
	hot, err := conv.Convert([]byte{255, 255, 255, 0}, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if hot[2] != 255 { // B = 298*239 + 516*127 >> 8, far above 255
		t.Errorf("blue channel = %d, want saturated 255", hot[2])
	}

	cold, err := conv.Convert([]byte{0, 128, 0, 128}, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	for i, v := range cold {
		if v != 0 { // zero chroma offset, Y below 16: every channel negative pre-clip
			t.Errorf("byte %d = %d, want clipped 0", i, v)
		}
	}
}

func TestConvertIsPure(t *testing.T) {
	in := []byte{90, 54, 200, 240, 16, 128, 235, 128}

	conv := New(len(in))
	first, err := conv.Convert(in, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	snapshot := append([]byte(nil), first...)

	// Interleave an unrelated conversion, then repeat the original input:
	// identical input bytes must yield identical output bytes.
	if _, err := conv.Convert([]byte{1, 2, 3, 4}, EncodingYUYV); err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	again, err := conv.Convert(in, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if !bytes.Equal(snapshot, again) {
		t.Errorf("repeat conversion differs: %v then %v", snapshot, again)
	}
}

func TestConvertSharedChromaIndependentLuma(t *testing.T) {
	conv := New(4)
	out, err := conv.Convert([]byte{16, 128, 235, 128}, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	black, white := out[:3], out[3:]
	if !bytes.Equal(black, []byte{0, 0, 0}) {
		t.Errorf("first pixel = %v, want black", black)
	}
	if !bytes.Equal(white, []byte{255, 255, 255}) {
		t.Errorf("second pixel = %v, want white", white)
	}
}

func TestConvertRejectsUnsupportedEncoding(t *testing.T) {
	conv := New(4)
	if _, err := conv.Convert([]byte{0, 0, 0, 0}, Encoding(0x3231564E)); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Errorf("Convert(NV12) = %v, want ErrUnsupportedEncoding", err)
	}
}

func TestConvertRejectsPartialGroup(t *testing.T) {
	conv := New(8)
	if _, err := conv.Convert([]byte{16, 128, 16}, EncodingYUYV); !errors.Is(err, ErrBadGroupLength) {
		t.Errorf("Convert(3 bytes) = %v, want ErrBadGroupLength", err)
	}
}

func TestConvertGrowsBeyondInitialCapacity(t *testing.T) {
	conv := New(4)
	in := make([]byte, 400)
	out, err := conv.Convert(in, EncodingYUYV)
	if err != nil {
		t.Fatalf("Convert() error: %v", err)
	}
	if len(out) != 600 {
		t.Errorf("output length = %d, want 600", len(out))
	}
}
