package pipeline

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	DefaultJPEGQuality    = 98
	DefaultPNGCompression = 1

	// OutputPrefix is prepended to every enhanced file name.
	OutputPrefix = "enhanced_"
)

type Saver struct {
	JPEGQuality    int
	PNGCompression int

	logger        logger.Logger
	timingTracker *timing.Tracker
}

func NewSaver(jpegQuality, pngCompression int, log logger.Logger, tracker *timing.Tracker) *Saver {
	if log == nil {
		log = logger.Nop()
	}
	return &Saver{
		JPEGQuality:    jpegQuality,
		PNGCompression: pngCompression,
		logger:         log,
		timingTracker:  tracker,
	}
}

// OutputPath returns <outputDir>/enhanced_<stem><ext>, keeping the extension as written.
func OutputPath(inputPath, outputDir string) string {
	return filepath.Join(outputDir, OutputPrefix+filepath.Base(inputPath))
}

// EncodeParams returns the OpenCV encoder flags for the output file's format.
func (s *Saver) EncodeParams(path string) []int {
	switch FormatFromExtension(path) {
	case "jpeg":
		return []int{int(gocv.IMWriteJpegQuality), s.JPEGQuality}
	case "png":
		return []int{int(gocv.IMWritePngCompression), s.PNGCompression}
	default:
		return nil
	}
}

func (s *Saver) Save(img *safe.Mat, inputPath, outputDir string) (string, error) {
	start := time.Now()
	defer func() { s.timingTracker.Record("save_image", time.Since(start)) }()

	if err := safe.ValidateMatForOperation(img, "save"); err != nil {
		return "", fmt.Errorf("%s: %v: %w", inputPath, err, models.ErrOutputWrite)
	}

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %v: %w", outputDir, err, models.ErrOutputWrite)
	}

	out := OutputPath(inputPath, outputDir)
	params := s.EncodeParams(out)

	var ok bool
	if params == nil {
		ok = gocv.IMWrite(out, img.GetMat())
	} else {
		ok = gocv.IMWriteWithParams(out, img.GetMat(), params)
	}
	if !ok {
		return "", fmt.Errorf("encode %s: %w", out, models.ErrOutputWrite)
	}

	s.logger.Debug("ImageSaver", "image saved", map[string]interface{}{
		"path":   out,
		"format": FormatFromExtension(out),
		"width":  img.Cols(),
		"height": img.Rows(),
	})

	return out, nil
}
