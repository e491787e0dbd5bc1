package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

type Loader struct {
	logger        logger.Logger
	timingTracker *timing.Tracker
}

func NewLoader(log logger.Logger, tracker *timing.Tracker) *Loader {
	if log == nil {
		log = logger.Nop()
	}
	return &Loader{logger: log, timingTracker: tracker}
}

func (l *Loader) Load(path string) (*ImageData, error) {
	start := time.Now()
	defer func() { l.timingTracker.Record("load_image", time.Since(start)) }()

	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, models.ErrInputNotFound)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory: %w", path, models.ErrInputNotFound)
	}

	mat := gocv.IMRead(path, gocv.IMReadColor)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("%s could not be decoded: %w", path, models.ErrInputNotFound)
	}

	safeMat, err := safe.Adopt(mat, "loaded_image")
	if err != nil {
		return nil, fmt.Errorf("%s: %v: %w", path, err, models.ErrInputNotFound)
	}

	imageData := &ImageData{
		Mat:      safeMat,
		Path:     path,
		Width:    safeMat.Cols(),
		Height:   safeMat.Rows(),
		Channels: safeMat.Channels(),
		Format:   FormatFromExtension(path),
	}

	l.logger.Debug("ImageLoader", "image loaded", map[string]interface{}{
		"path":     path,
		"width":    imageData.Width,
		"height":   imageData.Height,
		"channels": imageData.Channels,
		"format":   imageData.Format,
	})

	return imageData, nil
}

// FormatFromExtension names the container format implied by a file name.
func FormatFromExtension(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".tiff", ".tif":
		return "tiff"
	case ".jpg", ".jpeg":
		return "jpeg"
	case ".png":
		return "png"
	case ".bmp":
		return "bmp"
	default:
		return "unknown"
	}
}
