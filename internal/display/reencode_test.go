package display

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"
)

// TestReencodeVectors checks the three normative conversions: RGB565,
// an 8-pixel 3-bit pack with an 8-bit right pad, and 8-bit passthrough.
func TestReencodeVectors(t *testing.T) {
	cases := []struct {
		name string
		src  []byte
		f    PixelFormat
		want []byte
	}{
		{
			name: "rgb565",
			src:  []byte{0xFF, 0xFF, 0xFF},
			f:    PixelFormat{Widths: []uint8{5, 6, 5}},
			want: []byte{0xFF, 0xFF},
		},
		{
			name: "3bit pack with right pad",
			src:  []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			f:    PixelFormat{Widths: []uint8{3, 3, 3, 3, 3, 3, 3, 3}, RightPad: 8},
			want: []byte{0x00, 0xFF, 0xFF, 0xFF},
		},
		{
			name: "8bit passthrough",
			src:  []byte{0xFF},
			f:    PixelFormat{Widths: []uint8{8}},
			want: []byte{0xFF},
		},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := Reencode(c.src, 8, c.f)
			if err != nil {
				t.Fatalf("Reencode: %v", err)
			}
			if !bytes.Equal(got, c.want) {
				t.Fatalf("got %#v, want %#v", got, c.want)
			}
		})
	}
}

func TestReencodeRejectsMisalignedGroup(t *testing.T) {
	f := PixelFormat{Widths: []uint8{5, 6, 5}}
	if _, err := Reencode([]byte{0xFF, 0xFF}, 8, f); err == nil {
		t.Fatal("expected an error for a source length not a multiple of the group size")
	}
}

func TestReencodeRejectsBadChunkSize(t *testing.T) {
	f := PixelFormat{Widths: []uint8{3}} // 3 bits, not a multiple of 8.
	if _, err := Reencode([]byte{0xFF}, 8, f); err == nil {
		t.Fatal("expected an error for a non-byte-aligned chunk size")
	}
}

func TestGeneratePatternWhiteBlack(t *testing.T) {
	white := GeneratePattern(PatternWhite, 4, 4, 0)
	for i, b := range white {
		if b != 0xFF {
			t.Fatalf("white pattern byte %d = %#x, want 0xff", i, b)
		}
	}
	black := GeneratePattern(PatternBlack, 4, 4, 0)
	for i, b := range black {
		if b != 0 {
			t.Fatalf("black pattern byte %d = %#x, want 0", i, b)
		}
	}
}

func TestSweepMax(t *testing.T) {
	got := SweepMax(PixelFormat{Widths: []uint8{5, 6, 5}})
	if got != 31 { // min width is 5 -> 2^5 - 1.
		t.Fatalf("got %d, want 31", got)
	}
}

func TestDecodeMaskGray(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	img.SetGray(0, 0, color.Gray{Y: 0x10})
	img.SetGray(1, 0, color.Gray{Y: 0x20})
	img.SetGray(0, 1, color.Gray{Y: 0x30})
	img.SetGray(1, 1, color.Gray{Y: 0x40})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}

	out, w, h, err := DecodeMask(buf.Bytes())
	if err != nil {
		t.Fatalf("DecodeMask: %v", err)
	}
	if w != 2 || h != 2 {
		t.Fatalf("got dims %dx%d, want 2x2", w, h)
	}
	want := []byte{0x10, 0x20, 0x30, 0x40}
	if !bytes.Equal(out, want) {
		t.Fatalf("got %#v, want %#v", out, want)
	}
}

func TestDecodeMaskRejectsGarbage(t *testing.T) {
	if _, _, _, err := DecodeMask([]byte("not a png")); err == nil {
		t.Fatal("expected an error decoding non-PNG bytes")
	}
}
