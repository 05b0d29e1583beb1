/*
DESCRIPTION
  decode.go decodes a PNG layer mask into the grayscale image
  reencode.go expects.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

package display

import (
	"bytes"
	"fmt"
	"image"
	"image/png"

	"github.com/resinforge/printctl/internal/perr"
)

// DecodeMask decodes a slicer-emitted PNG mask into a flat greyscale
// buffer (one byte per pixel, row-major) at 8 bits per pixel, ready for
// Reencode. Colour or paletted masks are flattened to luminance; this
// matches the source material (sliced masks are authored greyscale) and
// keeps the re-encoder's contract to a single 8-bit buffer shape.
func DecodeMask(pngBytes []byte) (buf []byte, width, height int, err error) {
	img, err := png.Decode(bytes.NewReader(pngBytes))
	if err != nil {
		return nil, 0, 0, perr.PrintErr(fmt.Errorf("decoding mask PNG: %w", err))
	}

	bounds := img.Bounds()
	width, height = bounds.Dx(), bounds.Dy()

	if gray, ok := img.(*image.Gray); ok && bounds.Min == (image.Point{}) {
		out := make([]byte, len(gray.Pix))
		copy(out, gray.Pix)
		return out, width, height, nil
	}

	out := make([]byte, width*height)
	i := 0
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			// RGBA returns 16-bit channels; pack to 8-bit luminance.
			lum := (19595*r + 38470*g + 7471*b + 1<<15) >> 24
			out[i] = byte(lum)
			i++
		}
	}
	return out, width, height, nil
}
