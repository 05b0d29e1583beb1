/*
DESCRIPTION
  sink.go writes re-encoded frames to the memory-mapped
  frame-buffer device.

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
	"fmt"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/resinforge/printctl/internal/perr"
)

// Logger is the structured logger every component takes, matching
// github.com/ausocean/utils/logging.Logger's call shape.
type Logger interface {
	Debug(msg string, params ...interface{})
	Info(msg string, params ...interface{})
	Warning(msg string, params ...interface{})
	Error(msg string, params ...interface{})
}

// Sink owns the panel's memory-mapped frame buffer. Opening the device
// is attempted once, at construction; if that fails (e.g. no hardware
// present, as on a developer workstation) the Sink silently discards
// writes instead of failing. Writes are not synchronised internally:
// the caller (the print state machine) is the single writer.
type Sink struct {
	log    Logger
	path   string
	size   int
	file   *os.File
	region []byte
	mu     sync.Mutex // guards close-on-shutdown only.
}

// NewSink opens path and mmaps size bytes of it. size must equal
// screenWidth * screenHeight * chunkBytes / groupSize for the
// configured pixel format.
func NewSink(log Logger, path string, size int) *Sink {
	s := &Sink{log: log, path: path, size: size}

	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		log.Warning("frame buffer device unavailable, writes will be discarded", "path", path, "error", err.Error())
		return s
	}

	region, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		log.Warning("failed to map frame buffer device, writes will be discarded", "path", path, "error", err.Error())
		f.Close()
		return s
	}

	s.file = f
	s.region = region
	log.Info("frame buffer device mapped", "path", path, "size", size)
	return s
}

// WriteFrame overwrites the mapped region with buf, which must be
// exactly the size in bytes given to NewSink. If the device was
// never successfully mapped, the write is a silent no-op.
func (s *Sink) WriteFrame(buf []byte) error {
	if len(buf) != s.size {
		return perr.PrintErr(fmt.Errorf("frame buffer write: got %d bytes, want %d", len(buf), s.size))
	}
	if s.region == nil {
		return nil
	}
	copy(s.region, buf)
	return nil
}

// Close unmaps and closes the device, if it was opened.
func (s *Sink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.region == nil {
		return nil
	}
	err := unix.Munmap(s.region)
	s.region = nil
	if cerr := s.file.Close(); err == nil {
		err = cerr
	}
	return err
}
