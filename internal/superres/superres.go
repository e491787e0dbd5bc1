// Package superres loads and runs the EDSR super-resolution network.
package superres

import (
	"fmt"
	"image"
	"os"
	"sync"

	"photo-enhancer/internal/models"

	"gocv.io/x/gocv"
)

const (
	// DefaultModelFile is looked up relative to the working directory.
	DefaultModelFile = "EDSR_x4.pb"
	DefaultScale     = 4
)

// Mean BGR pixel the EDSR weights were trained around.
var edsrMean = [3]float64{103.1545782, 111.561547, 114.35629}

// Upscaler enlarges an 8-bit BGR image by Scale in both dimensions. The returned Mat is
// owned by the caller.
type Upscaler interface {
	Upscale(img gocv.Mat) (gocv.Mat, error)
	Scale() int
}

// Loader hands out the job's upscaler, loading it on first use.
type Loader interface {
	Load() (Upscaler, error)
}

// ModelLoader reads a TensorFlow EDSR graph from disk. A successful load is cached until Close;
// a missing file is re-checked on every call.
type ModelLoader struct {
	path  string
	scale int

	mu    sync.Mutex
	model *EDSR
}

func NewModelLoader(path string, scale int) *ModelLoader {
	if path == "" {
		path = DefaultModelFile
	}
	if scale <= 0 {
		scale = DefaultScale
	}
	return &ModelLoader{path: path, scale: scale}
}

func (l *ModelLoader) Path() string {
	return l.path
}

func (l *ModelLoader) Load() (Upscaler, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.model != nil {
		return l.model, nil
	}

	if _, err := os.Stat(l.path); err != nil {
		return nil, fmt.Errorf("model %s: %w", l.path, models.ErrModelMissing)
	}

	net := gocv.ReadNetFromTensorflow(l.path)
	if net.Empty() {
		net.Close()
		return nil, fmt.Errorf("model %s could not be read: %w", l.path, models.ErrModelRuntime)
	}

	l.model = &EDSR{net: net, scale: l.scale}
	return l.model, nil
}

// Loaded reports whether the network is currently held in memory.
func (l *ModelLoader) Loaded() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.model != nil
}

func (l *ModelLoader) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.model != nil {
		l.model.close()
		l.model = nil
	}
}

// EDSR runs a loaded network. Calls are serialised because a dnn.Net is not safe for
// concurrent Forward.
type EDSR struct {
	mu    sync.Mutex
	net   gocv.Net
	scale int
}

func (e *EDSR) Scale() int {
	return e.scale
}

func (e *EDSR) Upscale(img gocv.Mat) (result gocv.Mat, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	defer func() {
		if r := recover(); r != nil {
			result = gocv.NewMat()
			err = fmt.Errorf("network panicked: %v: %w", r, models.ErrModelRuntime)
		}
	}()

	if img.Empty() || img.Channels() != 3 {
		return gocv.NewMat(), fmt.Errorf("upscale needs a 3-channel image: %w", models.ErrModelRuntime)
	}

	blob := gocv.BlobFromImage(img, 1.0, image.Point{X: img.Cols(), Y: img.Rows()},
		gocv.NewScalar(edsrMean[0], edsrMean[1], edsrMean[2], 0), false, false)
	defer blob.Close()

	e.net.SetInput(blob, "")
	output := e.net.Forward("")
	defer output.Close()

	wantRows, wantCols := img.Rows()*e.scale, img.Cols()*e.scale
	if dims := output.Size(); len(dims) != 4 || dims[1] != 3 || dims[2] != wantRows || dims[3] != wantCols {
		return gocv.NewMat(), fmt.Errorf("unexpected output shape %v, want [1 3 %d %d]: %w",
			dims, wantRows, wantCols, models.ErrModelRuntime)
	}

	return blobToImage(output)
}

// blobToImage converts an NCHW float blob back into an 8-bit BGR image, restoring the mean.
func blobToImage(blob gocv.Mat) (gocv.Mat, error) {
	planes := make([]gocv.Mat, 3)
	for c := range planes {
		plane := gocv.GetBlobChannel(blob, 0, c)
		plane.AddFloat(float32(edsrMean[c]))
		planes[c] = plane
	}
	defer func() {
		for i := range planes {
			planes[i].Close()
		}
	}()

	merged := gocv.NewMat()
	defer merged.Close()
	if err := gocv.Merge(planes, &merged); err != nil {
		return gocv.NewMat(), fmt.Errorf("failed to merge network output: %v: %w", err, models.ErrModelRuntime)
	}

	out := gocv.NewMat()
	if err := merged.ConvertTo(&out, gocv.MatTypeCV8UC3); err != nil || out.Empty() {
		out.Close()
		return gocv.NewMat(), fmt.Errorf("failed to convert network output: %v: %w", err, models.ErrModelRuntime)
	}
	return out, nil
}

func (e *EDSR) close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.net.Close()
}
