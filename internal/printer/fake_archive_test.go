package printer

import (
	"bytes"
	"image"
	"image/color"
	"image/png"

	"github.com/resinforge/printctl/internal/archive"
)

// fakeArchive is a minimal archive.PrintFile double: a fixed number of
// identical 2x2 layers, each with a short exposure time so tests run
// fast.
type fakeArchive struct {
	layers  int
	meta    archive.Metadata
	closed  bool
	maskPNG []byte
}

func newFakeArchive(layers int) *fakeArchive {
	var buf bytes.Buffer
	img := image.NewGray(image.Rect(0, 0, 2, 2))
	for y := 0; y < 2; y++ {
		for x := 0; x < 2; x++ {
			img.SetGray(x, y, color.Gray{Y: 0xFF})
		}
	}
	if err := png.Encode(&buf, img); err != nil {
		panic(err)
	}
	return &fakeArchive{
		layers:  layers,
		maskPNG: buf.Bytes(),
		meta: archive.Metadata{
			LayerCount:    layers,
			LayerHeightMM: 0.05,
		},
	}
}

func (f *fakeArchive) Layer(i int) (archive.Layer, bool) {
	if i < 0 || i >= f.layers {
		return archive.Layer{}, false
	}
	return archive.Layer{
		FileName:        "layer.png",
		PNGBytes:        f.maskPNG,
		ExposureTimeSec: 0.001,
	}, true
}

func (f *fakeArchive) LayerCount() int            { return f.layers }
func (f *fakeArchive) LayerHeightMM() float64      { return f.meta.LayerHeightMM }
func (f *fakeArchive) LayerHeightMicrons() uint32  { return uint32(f.meta.LayerHeightMM * 1000) }
func (f *fakeArchive) Metadata() archive.Metadata  { return f.meta }
func (f *fakeArchive) Thumbnail(archive.ThumbnailSize) ([]byte, error) {
	return nil, nil
}
func (f *fakeArchive) Close() error {
	f.closed = true
	return nil
}
