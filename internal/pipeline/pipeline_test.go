package pipeline

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

func solidImage(t *testing.T, rows, cols int, b, g, r float64) *safe.Mat {
	t.Helper()
	m, err := safe.Adopt(gocv.NewMatWithSizeFromScalar(gocv.NewScalar(b, g, r, 0), rows, cols, gocv.MatTypeCV8UC3), "fixture")
	if err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	return m
}

func TestOutputPathKeepsExtension(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"/photos/cat.jpg", "out/enhanced_cat.jpg"},
		{"dog.JPEG", "out/enhanced_dog.JPEG"},
		{"a/b/scan.tiff", "out/enhanced_scan.tiff"},
		{"noext", "out/enhanced_noext"},
	}
	for _, tt := range tests {
		if got := OutputPath(tt.in, "out"); got != filepath.FromSlash(tt.want) {
			t.Errorf("OutputPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestEncodeParams(t *testing.T) {
	s := NewSaver(DefaultJPEGQuality, DefaultPNGCompression, nil, nil)

	tests := []struct {
		path string
		want []int
	}{
		{"x.jpg", []int{int(gocv.IMWriteJpegQuality), 98}},
		{"x.JPEG", []int{int(gocv.IMWriteJpegQuality), 98}},
		{"x.png", []int{int(gocv.IMWritePngCompression), 1}},
		{"x.bmp", nil},
		{"x.tif", nil},
	}
	for _, tt := range tests {
		if got := s.EncodeParams(tt.path); !reflect.DeepEqual(got, tt.want) {
			t.Errorf("EncodeParams(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestSaveAndLoadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "nested", "out")
	img := solidImage(t, 12, 20, 30, 60, 90)
	defer img.Close()

	saver := NewSaver(DefaultJPEGQuality, DefaultPNGCompression, nil, nil)
	loader := NewLoader(nil, nil)

	for _, name := range []string{"a.png", "b.jpg", "c.bmp"} {
		out, err := saver.Save(img, filepath.Join(dir, name), outDir)
		if err != nil {
			t.Fatalf("Save(%s) error = %v", name, err)
		}
		if filepath.Base(out) != "enhanced_"+name {
			t.Errorf("Save(%s) wrote %s", name, out)
		}

		data, err := loader.Load(out)
		if err != nil {
			t.Fatalf("Load(%s) error = %v", out, err)
		}
		if data.Width != 20 || data.Height != 12 || data.Channels != 3 {
			t.Errorf("Load(%s) = %dx%dx%d, want 20x12x3", out, data.Width, data.Height, data.Channels)
		}
		if name == "a.png" && data.Mat.Bytes()[2] != 90 {
			t.Errorf("lossless PNG pixel red = %d, want 90", data.Mat.Bytes()[2])
		}
		data.Close()
	}
}

func TestLoadRejectsMissingAndCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	corrupt := filepath.Join(dir, "bad.jpg")
	if err := os.WriteFile(corrupt, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}

	loader := NewLoader(nil, nil)
	for _, path := range []string{filepath.Join(dir, "missing.jpg"), corrupt, dir} {
		if _, err := loader.Load(path); !errors.Is(err, models.ErrInputNotFound) {
			t.Errorf("Load(%s) error = %v, want ErrInputNotFound", path, err)
		}
	}
}

func TestSaveToUnwritableDirectory(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0o644); err != nil {
		t.Fatal(err)
	}
	img := solidImage(t, 4, 4, 0, 0, 0)
	defer img.Close()

	_, err := NewSaver(DefaultJPEGQuality, DefaultPNGCompression, nil, nil).Save(img, "x.png", filepath.Join(blocker, "out"))
	if !errors.Is(err, models.ErrOutputWrite) {
		t.Errorf("Save() error = %v, want ErrOutputWrite", err)
	}
}

func TestPSNR(t *testing.T) {
	a := solidImage(t, 8, 8, 100, 100, 100)
	defer a.Close()
	b := solidImage(t, 8, 8, 110, 110, 110)
	defer b.Close()
	c := solidImage(t, 4, 8, 100, 100, 100)
	defer c.Close()

	if got, err := PSNR(a, a); err != nil || got != MaxPSNR {
		t.Errorf("PSNR(a, a) = %v, %v, want %v", got, err, MaxPSNR)
	}

	// Uniform difference of 10 gives MSE 100.
	got, err := PSNR(a, b)
	if err != nil {
		t.Fatalf("PSNR(a, b) error = %v", err)
	}
	if want := 28.1308; got < want-0.001 || got > want+0.001 {
		t.Errorf("PSNR(a, b) = %v, want %v", got, want)
	}

	if _, err := PSNR(a, c); err == nil {
		t.Error("PSNR with mismatched geometry succeeded, want error")
	}
}

func TestOpenVideoMissing(t *testing.T) {
	if _, err := OpenVideo(filepath.Join(t.TempDir(), "none.mp4")); !errors.Is(err, models.ErrInputNotFound) {
		t.Errorf("OpenVideo() error = %v, want ErrInputNotFound", err)
	}
}

func TestVideoRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clip.avi")
	info := models.VideoInfo{Width: 32, Height: 24, FPS: 10}

	w, err := CreateVideo(path, "MJPG", info)
	if err != nil {
		t.Skipf("MJPG writer unavailable: %v", err)
	}
	frame := solidImage(t, 24, 32, 50, 100, 150)
	defer frame.Close()
	for i := 0; i < 5; i++ {
		if err := w.Write(frame); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
	}
	wrong := solidImage(t, 10, 10, 0, 0, 0)
	defer wrong.Close()
	if err := w.Write(wrong); !errors.Is(err, models.ErrOutputWrite) {
		t.Errorf("Write(wrong size) error = %v, want ErrOutputWrite", err)
	}
	w.Close()

	r, err := OpenVideo(path)
	if err != nil {
		t.Fatalf("OpenVideo() error = %v", err)
	}
	defer r.Close()

	if got := r.Info(); got.Width != 32 || got.Height != 24 {
		t.Errorf("Info() = %+v, want 32x24", got)
	}

	frames := 0
	for {
		m, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("Read() error = %v", err)
		}
		m.Close()
		frames++
	}
	if frames != 5 {
		t.Errorf("read %d frames, want 5", frames)
	}
}
