package sl1

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"testing"
)

const baseConfig = `action = print
expTime = 8.0
expTimeFirst = 35.0
expUserProfile = 0
fileCreationTimestamp = 2026-01-01 at 00:00:00 UTC
hollow = 0
jobDir = test_job
layerHeight = 0.05
materialName = Generic Resin
numFade = 3
numFast = 2
numSlow = 0
printProfile = 0.05 Normal
printTime = 3600.1
printerModel = TestPrinter
printerProfile = Default
printerVariant = default
prusaSlicerVersion = PrusaSlicer-2.6.0
usedMaterial = 54.321
`

// buildArchive writes a minimal .sl1 zip with n layers, a config.ini
// (overridden by cfgOverride if non-empty) and two placeholder
// thumbnails, returning its path.
func buildArchive(t *testing.T, n int, cfgOverride string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "job.sl1")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	cfg := cfgOverride
	if cfg == "" {
		cfg = baseConfig
	}
	w, err := zw.Create(configFile)
	if err != nil {
		t.Fatalf("creating config entry: %v", err)
	}
	if _, err := w.Write([]byte(cfg)); err != nil {
		t.Fatalf("writing config: %v", err)
	}

	for i := 0; i < n; i++ {
		name := fmt.Sprintf("test_job%05d.png", i)
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating layer %d: %v", i, err)
		}
		if _, err := w.Write([]byte{0x89, 'P', 'N', 'G'}); err != nil {
			t.Fatalf("writing layer %d: %v", i, err)
		}
	}

	for _, name := range []string{thumbnailSmall, thumbnailLarge} {
		w, err := zw.Create(name)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		if _, err := w.Write([]byte("thumb")); err != nil {
			t.Fatalf("writing %s: %v", name, err)
		}
	}

	if err := zw.Close(); err != nil {
		t.Fatalf("closing zip: %v", err)
	}
	return path
}

func TestOpenParsesMetadataAndLayers(t *testing.T) {
	r, err := Open(buildArchive(t, 5, ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if r.LayerCount() != 5 {
		t.Errorf("got layer count %d, want 5", r.LayerCount())
	}
	if r.LayerHeightMM() != 0.05 {
		t.Errorf("got layer height %v, want 0.05", r.LayerHeightMM())
	}
	meta := r.Metadata()
	if meta.LayerHeightMicrons != 50 {
		t.Errorf("got layer height microns %d, want 50", meta.LayerHeightMicrons)
	}
	if meta.UsedMaterial != 54.321 {
		t.Errorf("got used material %v, want 54.321", meta.UsedMaterial)
	}
}

func TestLayersAreLexicographicallySorted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "job.sl1")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create(configFile)
	w.Write([]byte(baseConfig))
	// Written out of order; sort.Strings must fix this.
	for _, name := range []string{"test_job00002.png", "test_job00000.png", "test_job00001.png"} {
		w, _ := zw.Create(name)
		w.Write([]byte(name))
	}
	zw.Close()
	f.Close()

	r, err := Open(path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	for i, want := range []string{"test_job00000.png", "test_job00001.png", "test_job00002.png"} {
		layer, ok := r.Layer(i)
		if !ok {
			t.Fatalf("layer %d not found", i)
		}
		if layer.FileName != want {
			t.Errorf("layer %d: got %q, want %q", i, layer.FileName, want)
		}
		if string(layer.PNGBytes) != want {
			t.Errorf("layer %d: got bytes %q, want %q (sorted out of write order)", i, layer.PNGBytes, want)
		}
	}
}

func TestExposureTimeFadesThenHoldsSteady(t *testing.T) {
	r, err := Open(buildArchive(t, 5, ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	// numFade=3: layers 0,1,2 ramp from expTimeFirst(35) down to expTime(8).
	layer0, _ := r.Layer(0)
	if layer0.ExposureTimeSec != 35.0 {
		t.Errorf("layer 0: got %v, want 35.0 (full first-layer time)", layer0.ExposureTimeSec)
	}
	layer2, _ := r.Layer(2)
	want2 := 8.0 + (35.0-8.0)*(1.0/3.0)
	if layer2.ExposureTimeSec != want2 {
		t.Errorf("layer 2: got %v, want %v", layer2.ExposureTimeSec, want2)
	}
	// Past numFade, exposure is flat at expTime.
	layer4, _ := r.Layer(4)
	if layer4.ExposureTimeSec != 8.0 {
		t.Errorf("layer 4: got %v, want 8.0 (steady state)", layer4.ExposureTimeSec)
	}
}

func TestLayerOutOfRange(t *testing.T) {
	r, err := Open(buildArchive(t, 2, ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	if _, ok := r.Layer(99); ok {
		t.Fatal("expected ok=false for an out-of-range layer index")
	}
}

func TestThumbnailDispatchBySize(t *testing.T) {
	r, err := Open(buildArchive(t, 1, ""))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer r.Close()

	small, err := r.Thumbnail(0)
	if err != nil || string(small) != "thumb" {
		t.Fatalf("small thumbnail: got (%q, %v)", small, err)
	}
	large, err := r.Thumbnail(1)
	if err != nil || string(large) != "thumb" {
		t.Fatalf("large thumbnail: got (%q, %v)", large, err)
	}
}

func TestOpenFailsOnMissingConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "noconfig.sl1")
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	zw := zip.NewWriter(f)
	w, _ := zw.Create("test_job00000.png")
	w.Write([]byte("x"))
	zw.Close()
	f.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("expected an error opening an archive with no config.ini")
	}
}

func TestOpenFailsOnMissingRequiredKey(t *testing.T) {
	broken := bytes.Replace([]byte(baseConfig), []byte("layerHeight = 0.05\n"), nil, 1)
	path := buildArchive(t, 1, string(broken))
	if _, err := Open(path); err == nil {
		t.Fatal("expected an error for config.ini missing a required key")
	}
}

func TestOpenFailsOnNonexistentFile(t *testing.T) {
	if _, err := Open(filepath.Join(t.TempDir(), "missing.sl1")); err == nil {
		t.Fatal("expected an error opening a nonexistent archive")
	}
}
