package filters

import (
	"context"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"sync"

	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// DefaultCascadeFile is the frontal face Haar cascade shipped with OpenCV.
const DefaultCascadeFile = "haarcascade_frontalface_default.xml"

// CascadeSearchDirs are searched, after $OPENCV_DATA_DIR, for a bare cascade file name that is
// not present in the working directory. They cover the usual OpenCV package layouts.
var CascadeSearchDirs = []string{
	"/usr/share/opencv4/haarcascades",
	"/usr/local/share/opencv4/haarcascades",
	"/usr/share/opencv/haarcascades",
	"/usr/local/share/opencv/haarcascades",
	"/opt/homebrew/share/opencv4/haarcascades",
}

// ResolveCascadePath returns path unchanged when it exists or has a directory part. A bare file
// name that is missing locally is looked up in OpenCV's data directories; if no copy is found
// the original name is returned so the load error names it.
func ResolveCascadePath(path string) string {
	if _, err := os.Stat(path); err == nil || filepath.Base(path) != path {
		return path
	}

	var dirs []string
	if dataDir := os.Getenv("OPENCV_DATA_DIR"); dataDir != "" {
		dirs = append(dirs, filepath.Join(dataDir, "haarcascades"), dataDir)
	}
	dirs = append(dirs, CascadeSearchDirs...)

	for _, dir := range dirs {
		candidate := filepath.Join(dir, path)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate
		}
	}
	return path
}

// FaceDetector finds face rectangles on a single-channel image.
type FaceDetector interface {
	Detect(gray gocv.Mat) ([]image.Rectangle, error)
}

// CascadeDetector loads its Haar cascade on first use and keeps it until Close.
type CascadeDetector struct {
	path         string
	ScaleFactor  float64
	MinNeighbors int
	MinSize      image.Point

	mu         sync.Mutex
	classifier *gocv.CascadeClassifier
	loadErr    error
}

func NewCascadeDetector(path string) *CascadeDetector {
	if path == "" {
		path = DefaultCascadeFile
	}
	return &CascadeDetector{
		path:         ResolveCascadePath(path),
		ScaleFactor:  1.1,
		MinNeighbors: 5,
		MinSize:      image.Point{X: 30, Y: 30},
	}
}

func (c *CascadeDetector) Path() string {
	return c.path
}

func (c *CascadeDetector) load() (*gocv.CascadeClassifier, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.classifier != nil {
		return c.classifier, nil
	}
	if c.loadErr != nil {
		return nil, c.loadErr
	}

	if _, err := os.Stat(c.path); err != nil {
		c.loadErr = fmt.Errorf("cascade %s: %w", c.path, models.ErrDetectorMissing)
		return nil, c.loadErr
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(c.path) {
		classifier.Close()
		c.loadErr = fmt.Errorf("cascade %s could not be parsed: %w", c.path, models.ErrDetectorMissing)
		return nil, c.loadErr
	}

	c.classifier = &classifier
	return c.classifier, nil
}

func (c *CascadeDetector) Detect(gray gocv.Mat) ([]image.Rectangle, error) {
	classifier, err := c.load()
	if err != nil {
		return nil, err
	}

	return classifier.DetectMultiScaleWithParams(gray, c.ScaleFactor, c.MinNeighbors, 0, c.MinSize, image.Point{}), nil
}

// Close releases the classifier. A closed detector reloads on next use.
func (c *CascadeDetector) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.classifier != nil {
		c.classifier.Close()
		c.classifier = nil
	}
	c.loadErr = nil
}

// BeautifyFace blends a strongly smoothed copy into every detected face region.
type BeautifyFace struct {
	Detector       FaceDetector
	Diameter       int
	SigmaColor     float64
	SigmaSpace     float64
	SmoothedWeight float64
}

func NewBeautifyFace(detector FaceDetector) *BeautifyFace {
	return &BeautifyFace{
		Detector:       detector,
		Diameter:       9,
		SigmaColor:     100,
		SigmaSpace:     100,
		SmoothedWeight: 0.7,
	}
}

func (b *BeautifyFace) Name() string {
	return "beautify_face"
}

func (b *BeautifyFace) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, b.Name()); err != nil {
		return nil, err
	}

	if b.Detector == nil {
		return passThrough(input, fmt.Errorf("no detector configured: %w", models.ErrDetectorMissing))
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(input.GetMat(), &gray, gocv.ColorBGRToGray); err != nil {
		return nil, cvFailed(b.Name(), "CvtColor", err)
	}

	faces, err := b.Detector.Detect(gray)
	if err != nil {
		if models.IsRecoverable(err) {
			return passThrough(input, err)
		}
		return nil, fmt.Errorf("face detection failed: %w", err)
	}

	result, err := input.Clone()
	if err != nil {
		return nil, err
	}

	bounds := image.Rect(0, 0, input.Cols(), input.Rows())
	var regions []image.Rectangle
	for _, face := range faces {
		if r := face.Intersect(bounds); !r.Empty() {
			regions = append(regions, r)
		}
	}
	if len(regions) == 0 {
		return result, nil
	}

	smoothed := gocv.NewMat()
	defer smoothed.Close()
	if err := gocv.BilateralFilter(input.GetMat(), &smoothed, b.Diameter, b.SigmaColor, b.SigmaSpace); err != nil {
		return nil, cvFailed(b.Name(), "BilateralFilter", err, result)
	}

	resultMat := result.GetMat()
	for _, r := range regions {
		target := resultMat.Region(r)
		source := smoothed.Region(r)
		err := gocv.AddWeighted(target, 1-b.SmoothedWeight, source, b.SmoothedWeight, 0, &target)
		source.Close()
		target.Close()
		if err != nil {
			return nil, cvFailed(b.Name(), "AddWeighted", err, result)
		}
	}

	return result, nil
}

// passThrough returns an unchanged copy of input together with a recoverable warning.
func passThrough(input *safe.Mat, warning error) (*safe.Mat, error) {
	out, err := input.Clone()
	if err != nil {
		return nil, err
	}
	return out, warning
}
