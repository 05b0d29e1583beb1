/*
DESCRIPTION
  reencode.go converts an 8-bit-per-pixel mask into the
  display's native bit-packed pixel format.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package display implements the mask display's pixel re-encoder (C2)
// and the memory-mapped frame-buffer sink (C1).
package display

import (
	"fmt"

	"github.com/resinforge/printctl/internal/perr"
)

// PixelFormat describes a panel's native pixel layout: an ordered list
// of per-subpixel bit widths, plus left and right padding bits. The
// chunk size (left pad + sum(widths) + right pad) must be a positive
// multiple of 8.
type PixelFormat struct {
	Widths   []uint8
	LeftPad  uint8
	RightPad uint8
}

// GroupSize is the number of source pixels consumed per output chunk.
func (f PixelFormat) GroupSize() int { return len(f.Widths) }

// ChunkBits is left pad + the sum of subpixel widths + right pad.
func (f PixelFormat) ChunkBits() int {
	total := int(f.LeftPad) + int(f.RightPad)
	for _, w := range f.Widths {
		total += int(w)
	}
	return total
}

// Validate checks that the format describes a byte-aligned chunk.
func (f PixelFormat) Validate() error {
	if len(f.Widths) == 0 {
		return perr.ConfigurationErr(fmt.Errorf("pixel format has no subpixel widths"))
	}
	bits := f.ChunkBits()
	if bits <= 0 || bits%8 != 0 {
		return perr.ConfigurationErr(fmt.Errorf("pixel format chunk size %d bits is not a positive multiple of 8", bits))
	}
	return nil
}

// isNoOp reports whether this format is the identity mapping: one
// source pixel per chunk, full source depth, no padding.
func (f PixelFormat) isNoOp(sourceDepth int) bool {
	return len(f.Widths) == 1 && int(f.Widths[0]) == sourceDepth && f.LeftPad == 0 && f.RightPad == 0
}

// Reencode converts src, one byte per source pixel at sourceDepth bits
// (8 or 16; for 16-bit sources the caller supplies the high byte),
// into the panel's packed pixel format described by f.
//
// Per group of k = len(f.Widths) source pixels: an accumulator wide
// enough for the chunk is built by truncating each pixel to its
// subpixel width (keeping the high-order bits) and shifting it into
// place from the most-significant end (after left pad) down; the
// accumulator is then emitted least-significant byte first.
func Reencode(src []byte, sourceDepth int, f PixelFormat) ([]byte, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	if sourceDepth != 8 && sourceDepth != 16 {
		return nil, perr.ConfigurationErr(fmt.Errorf("unsupported source bit depth %d", sourceDepth))
	}

	k := f.GroupSize()
	if len(src)%k != 0 {
		return nil, perr.PrintErr(fmt.Errorf("source buffer length %d is not a multiple of group size %d", len(src), k))
	}

	if f.isNoOp(sourceDepth) {
		out := make([]byte, len(src))
		copy(out, src)
		return out, nil
	}

	chunkBits := f.ChunkBits()
	chunkBytes := chunkBits / 8
	groups := len(src) / k
	out := make([]byte, groups*chunkBytes)

	for g := 0; g < groups; g++ {
		var acc uint64
		shift := chunkBits - int(f.LeftPad)
		for i := 0; i < k; i++ {
			w := int(f.Widths[i])
			shift -= w
			pixel := uint64(src[g*k+i])
			truncated := pixel >> uint(sourceDepth-w)
			acc |= truncated << uint(shift)
		}
		for b := 0; b < chunkBytes; b++ {
			out[g*chunkBytes+b] = byte(acc >> uint(8*b))
		}
	}
	return out, nil
}

// TestPattern names one of the built-in commissioning patterns.
type TestPattern int

const (
	PatternWhite TestPattern = iota
	PatternBlack
	PatternStripe
	PatternSweep
)

// GeneratePattern renders pattern at sourceDepth 8 for a panel
// width x height, ready to be passed to Reencode. stripeWidth sets the
// diagonal stripe period (pixels) for PatternStripe and is ignored
// otherwise.
func GeneratePattern(pattern TestPattern, width, height, stripeWidth int) []byte {
	buf := make([]byte, width*height)
	switch pattern {
	case PatternWhite:
		for i := range buf {
			buf[i] = 0xFF
		}
	case PatternBlack:
		// buf is already zeroed.
	case PatternStripe:
		if stripeWidth < 1 {
			stripeWidth = 1
		}
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				if ((x+y)/stripeWidth)%2 == 0 {
					buf[y*width+x] = 0xFF
				}
			}
		}
	case PatternSweep:
		for y := 0; y < height; y++ {
			for x := 0; x < width; x++ {
				buf[y*width+x] = byte((x * 256) / width)
			}
		}
	}
	return buf
}

// SweepMax returns the maximum value (2^min(W) - 1) a horizontal-sweep
// pattern should reach for the given pixel format, per spec.
func SweepMax(f PixelFormat) int {
	min := int(f.Widths[0])
	for _, w := range f.Widths[1:] {
		if int(w) < min {
			min = int(w)
		}
	}
	return (1 << uint(min)) - 1
}
