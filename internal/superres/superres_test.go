package superres

import (
	"errors"
	"path/filepath"
	"testing"

	"photo-enhancer/internal/models"
)

func TestNewModelLoaderDefaults(t *testing.T) {
	l := NewModelLoader("", 0)
	if l.Path() != DefaultModelFile {
		t.Errorf("Path() = %q, want %q", l.Path(), DefaultModelFile)
	}
	if l.scale != DefaultScale {
		t.Errorf("scale = %d, want %d", l.scale, DefaultScale)
	}
}

func TestLoadMissingModel(t *testing.T) {
	l := NewModelLoader(filepath.Join(t.TempDir(), "EDSR_x4.pb"), 4)
	defer l.Close()

	for i := 0; i < 2; i++ {
		up, err := l.Load()
		if !errors.Is(err, models.ErrModelMissing) {
			t.Fatalf("Load() error = %v, want ErrModelMissing", err)
		}
		if up != nil {
			t.Error("Load() returned an upscaler for a missing model")
		}
	}
	if l.Loaded() {
		t.Error("Loaded() = true after failed loads")
	}
}
