/*
DESCRIPTION
  xattrmeta.go stores optional user metadata for an uploaded
  print file as extended attributes.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package xattrmeta stores per-archive operator metadata (print count,
// rating, favourite) as filesystem extended attributes on the archive
// file itself, so no database is needed. Any failure reading them
// degrades silently to "no metadata". Writes ignore only a filesystem
// without xattr support; any other write failure is returned.
package xattrmeta

import (
	"encoding/binary"
	"errors"

	"golang.org/x/sys/unix"
)

const (
	attrPrintCount = "user.odyssey.print_count"
	attrRating     = "user.odyssey.print_rating"
	attrFavorite   = "user.odyssey.favorite"
)

// Meta is the operator metadata attached to one archive file.
type Meta struct {
	PrintCount uint32
	Rating     uint8
	Favorite   bool
}

// unsupported reports whether err indicates the filesystem has no
// xattr support at all, as opposed to the attribute simply being
// absent (ENODATA), which callers treat as a zero value.
func unsupported(err error) bool {
	return errors.Is(err, unix.ENOTSUP) || errors.Is(err, unix.EOPNOTSUPP)
}

// Read loads the metadata attached to path. Any failure — missing
// attributes, an unsupported filesystem, a permission error — yields
// the zero Meta rather than an error, matching the "optional interface"
// contract.
func Read(path string) Meta {
	var m Meta

	buf := make([]byte, 4)
	if n, err := unix.Getxattr(path, attrPrintCount, buf); err == nil && n == 4 {
		m.PrintCount = binary.BigEndian.Uint32(buf)
	}

	buf = buf[:1]
	if n, err := unix.Getxattr(path, attrRating, buf); err == nil && n == 1 {
		m.Rating = buf[0]
	}
	if n, err := unix.Getxattr(path, attrFavorite, buf); err == nil && n == 1 {
		m.Favorite = buf[0] != 0
	}

	return m
}

// WritePrintCount persists an incremented print count. An unsupported
// filesystem is not reported as an error; any other failure is
// returned.
func WritePrintCount(path string, count uint32) error {
	buf := make([]byte, 4)
	binary.BigEndian.PutUint32(buf, count)
	return setxattrIgnoringUnsupported(path, attrPrintCount, buf)
}

// WriteRating persists a 0-255 rating.
func WriteRating(path string, rating uint8) error {
	return setxattrIgnoringUnsupported(path, attrRating, []byte{rating})
}

// WriteFavorite persists the favourite flag.
func WriteFavorite(path string, favorite bool) error {
	var b byte
	if favorite {
		b = 1
	}
	return setxattrIgnoringUnsupported(path, attrFavorite, []byte{b})
}

func setxattrIgnoringUnsupported(path, attr string, value []byte) error {
	err := unix.Setxattr(path, attr, value, 0)
	if err != nil && unsupported(err) {
		return nil
	}
	return err
}
