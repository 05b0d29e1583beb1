/*
DESCRIPTION
  sl1.go reads the zip-based .sl1 print archive format: its
  config.ini metadata and its per-layer PNG masks.

AUTHORS
  Resinforge Engineering <engineering@resinforge.dev>

LICENSE
  Copyright (C) 2026 Resinforge. All Rights Reserved.

  The Software and all intellectual property rights associated
  therewith, including but not limited to copyrights, trademarks,
  patents, and trade secrets, are and will remain the exclusive
  property of Resinforge.
*/

// Package sl1 implements archive.PrintFile for PrusaSlicer-style .sl1
// archives: a ZIP container holding an INI config, lexicographically
// sorted per-layer PNG masks, and two embedded thumbnails.
package sl1

import (
	"archive/zip"
	"bufio"
	"fmt"
	"io"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/resinforge/printctl/internal/archive"
	"github.com/resinforge/printctl/internal/perr"
)

const (
	configFile      = "config.ini"
	thumbnailSmall  = "thumbnail/thumbnail400x400.png"
	thumbnailLarge  = "thumbnail/thumbnail800x480.png"
)

func init() {
	archive.Register(".sl1", func(path string) (archive.PrintFile, error) {
		return Open(path)
	})
}

// config holds the parsed config.ini fields this reader recognises.
type config struct {
	action                 string
	expTime                float64
	expTimeFirst           float64
	expUserProfile         int
	fileCreationTimestamp  string
	hollow                 int
	jobDir                 string
	layerHeight            float64
	materialName           string
	numFade                int
	numFast                int
	numSlow                int
	printProfile           string
	printTime              float64
	printerModel           string
	printerProfile         string
	printerVariant         string
	prusaSlicerVersion     string
	usedMaterial           float64
}

// exposureTime implements the fade-exposure rule: for i < numFade,
// exposure ramps linearly from expTimeFirst down to expTime.
func (c config) exposureTime(i int) float64 {
	if c.numFade > 0 && i < c.numFade {
		fadeRate := float64(c.numFade-i) / float64(c.numFade)
		return c.expTime + (c.expTimeFirst-c.expTime)*fadeRate
	}
	return c.expTime
}

// Reader is the SL1 archive.PrintFile implementation.
type Reader struct {
	zr      *zip.ReadCloser
	cfg     config
	layers  []string // sorted *.png file names, layer order.
	meta    archive.Metadata
}

// Open parses the archive at path: zip directory, config.ini and the
// sorted mask list. It fails with a File error if the archive can't be
// read and a Configuration error if config.ini is missing or malformed.
func Open(path string) (*Reader, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, perr.FileErr(fmt.Errorf("opening sl1 archive %s: %w", path, err))
	}

	var cfgFile *zip.File
	var layers []string
	for _, f := range zr.File {
		switch {
		case f.Name == configFile:
			cfgFile = f
		case strings.HasSuffix(f.Name, ".png") && !strings.Contains(f.Name, "/"):
			layers = append(layers, f.Name)
		}
	}
	if cfgFile == nil {
		zr.Close()
		return nil, perr.ConfigurationErr(fmt.Errorf("%s: missing %s", path, configFile))
	}
	sort.Strings(layers)

	cfg, err := readConfig(cfgFile)
	if err != nil {
		zr.Close()
		return nil, err
	}

	layerHeightMicrons := uint32(math.Trunc(cfg.layerHeight * 1000))
	r := &Reader{
		zr:     zr,
		cfg:    cfg,
		layers: layers,
		meta: archive.Metadata{
			UsedMaterial:       cfg.usedMaterial,
			PrintTimeSeconds:   cfg.printTime,
			LayerHeightMM:      cfg.layerHeight,
			LayerHeightMicrons: layerHeightMicrons,
			LayerCount:         len(layers),
		},
	}
	return r, nil
}

// requiredKeys are every config.ini key this reader must see.
var requiredKeys = []string{
	"action", "expTime", "expTimeFirst", "expUserProfile",
	"fileCreationTimestamp", "hollow", "jobDir", "layerHeight",
	"materialName", "numFade", "numFast", "numSlow", "printProfile",
	"printTime", "printerModel", "printerProfile", "printerVariant",
	"prusaSlicerVersion", "usedMaterial",
}

func readConfig(f *zip.File) (config, error) {
	rc, err := f.Open()
	if err != nil {
		return config{}, perr.FileErr(fmt.Errorf("opening %s: %w", configFile, err))
	}
	defer rc.Close()

	raw := map[string]string{}
	scanner := bufio.NewScanner(rc)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, ";") || strings.HasPrefix(line, "#") {
			continue
		}
		key, val, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		raw[strings.TrimSpace(key)] = strings.TrimSpace(val)
	}
	if err := scanner.Err(); err != nil {
		return config{}, perr.FileErr(fmt.Errorf("reading %s: %w", configFile, err))
	}

	for _, k := range requiredKeys {
		if _, ok := raw[k]; !ok {
			return config{}, perr.ConfigurationErr(fmt.Errorf("%s: missing key %q", configFile, k))
		}
	}

	parseFloat := func(k string) (float64, error) {
		v, err := strconv.ParseFloat(raw[k], 64)
		if err != nil {
			return 0, perr.ConfigurationErr(fmt.Errorf("%s: key %q is not a number: %q", configFile, k, raw[k]))
		}
		return v, nil
	}
	parseInt := func(k string) (int, error) {
		v, err := strconv.Atoi(raw[k])
		if err != nil {
			return 0, perr.ConfigurationErr(fmt.Errorf("%s: key %q is not an integer: %q", configFile, k, raw[k]))
		}
		return v, nil
	}

	var cfg config
	var errs []error
	must := func(v float64, err error) float64 {
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}
	mustInt := func(v int, err error) int {
		if err != nil {
			errs = append(errs, err)
		}
		return v
	}

	cfg.action = raw["action"]
	cfg.expTime = must(parseFloat("expTime"))
	cfg.expTimeFirst = must(parseFloat("expTimeFirst"))
	cfg.expUserProfile = mustInt(parseInt("expUserProfile"))
	cfg.fileCreationTimestamp = raw["fileCreationTimestamp"]
	cfg.hollow = mustInt(parseInt("hollow"))
	cfg.jobDir = raw["jobDir"]
	cfg.layerHeight = must(parseFloat("layerHeight"))
	cfg.materialName = raw["materialName"]
	cfg.numFade = mustInt(parseInt("numFade"))
	cfg.numFast = mustInt(parseInt("numFast"))
	cfg.numSlow = mustInt(parseInt("numSlow"))
	cfg.printProfile = raw["printProfile"]
	cfg.printTime = must(parseFloat("printTime"))
	cfg.printerModel = raw["printerModel"]
	cfg.printerProfile = raw["printerProfile"]
	cfg.printerVariant = raw["printerVariant"]
	cfg.prusaSlicerVersion = raw["prusaSlicerVersion"]
	cfg.usedMaterial = must(parseFloat("usedMaterial"))

	if len(errs) > 0 {
		return config{}, errs[0].(*perr.Error)
	}
	return cfg, nil
}

// Layer implements archive.PrintFile.
func (r *Reader) Layer(i int) (archive.Layer, bool) {
	if i < 0 || i >= len(r.layers) {
		return archive.Layer{}, false
	}
	f, err := r.zr.Open(r.layers[i])
	if err != nil {
		return archive.Layer{}, false
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return archive.Layer{}, false
	}

	return archive.Layer{
		FileName:        r.layers[i],
		PNGBytes:        data,
		ExposureTimeSec: r.cfg.exposureTime(i),
	}, true
}

func (r *Reader) LayerCount() int             { return len(r.layers) }
func (r *Reader) LayerHeightMM() float64      { return r.cfg.layerHeight }
func (r *Reader) LayerHeightMicrons() uint32  { return r.meta.LayerHeightMicrons }
func (r *Reader) Metadata() archive.Metadata  { return r.meta }

// Thumbnail implements archive.PrintFile.
func (r *Reader) Thumbnail(size archive.ThumbnailSize) ([]byte, error) {
	name := thumbnailSmall
	if size == archive.ThumbnailLarge {
		name = thumbnailLarge
	}
	f, err := r.zr.Open(name)
	if err != nil {
		return nil, perr.FileErr(fmt.Errorf("opening thumbnail %s: %w", name, err))
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return nil, perr.FileErr(fmt.Errorf("reading thumbnail %s: %w", name, err))
	}
	return data, nil
}

// Close implements archive.PrintFile.
func (r *Reader) Close() error { return r.zr.Close() }
