/*
DESCRIPTION
  archive.go dispatches a sliced print file to the reader for
  its extension.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package archive defines the capability set that any sliced-archive
// format exposes to the print state machine, and dispatches to a
// concrete implementation by file extension.
package archive

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/resinforge/printctl/internal/perr"
)

// ThumbnailSize selects which embedded thumbnail to fetch.
type ThumbnailSize int

const (
	ThumbnailSmall ThumbnailSize = iota
	ThumbnailLarge
)

// Layer is one exposure: the mask bytes, its source file name (for
// logs), and the exposure time computed for this specific layer.
type Layer struct {
	FileName        string
	PNGBytes        []byte
	ExposureTimeSec float64
}

// Metadata describes a print job independent of any one layer.
type Metadata struct {
	UsedMaterial       float64
	PrintTimeSeconds   float64
	LayerHeightMM      float64
	LayerHeightMicrons uint32
	LayerCount         int

	// Per-archive overrides; nil means "use the configured default".
	LiftMM                *float64
	UpSpeedMMPerSec       *float64
	DownSpeedMMPerSec     *float64
	WaitBeforeExposureSec *float64
	WaitAfterExposureSec  *float64
}

// PrintFile is the capability set a sliced archive must expose. SL1 is
// the reference implementation; additional slicer output formats
// implement the same set and are selected by file extension in Open.
type PrintFile interface {
	// Layer returns layer i's bytes and this-layer exposure time, or
	// ok=false if i is out of range.
	Layer(i int) (Layer, bool)

	LayerCount() int
	LayerHeightMM() float64
	LayerHeightMicrons() uint32
	Metadata() Metadata

	// Thumbnail returns the bytes of the requested embedded thumbnail.
	Thumbnail(size ThumbnailSize) ([]byte, error)

	// Close releases any open file handles.
	Close() error
}

// Opener constructs a PrintFile from a path on disk.
type Opener func(path string) (PrintFile, error)

var openers = map[string]Opener{}

// Register associates a file extension (including the leading dot,
// lower-case) with an Opener. Called from each format package's init.
func Register(ext string, open Opener) {
	openers[strings.ToLower(ext)] = open
}

// Open dispatches to the registered Opener for path's extension.
func Open(path string) (PrintFile, error) {
	ext := strings.ToLower(filepath.Ext(path))
	open, ok := openers[ext]
	if !ok {
		return nil, perr.PrintErr(fmt.Errorf("unrecognised sliced archive extension %q", ext)).WithStatus(400)
	}
	return open(path)
}
