// Package pipeline holds the I/O stages around the filter chain: image decode and encode,
// video capture and writing, and quality metrics.
package pipeline

import (
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"
)

// ImageLoader decodes one image file into an 8-bit BGR Mat.
type ImageLoader interface {
	Load(path string) (*ImageData, error)
}

// ImageSaver encodes an enhanced image next to its siblings in outputDir and returns the
// path written.
type ImageSaver interface {
	Save(img *safe.Mat, inputPath, outputDir string) (string, error)
}

// FrameSource yields successive frames. Read returns io.EOF at end of stream.
type FrameSource interface {
	Info() models.VideoInfo
	Read() (*safe.Mat, error)
	Close() error
}

// FrameSink accepts frames of the geometry it was created with.
type FrameSink interface {
	Write(frame *safe.Mat) error
	Close() error
}

// ImageData is a decoded image and what is known about its source file.
type ImageData struct {
	Mat      *safe.Mat
	Path     string
	Width    int
	Height   int
	Channels int
	Format   string
}

// Close releases the pixel buffer.
func (d *ImageData) Close() {
	if d != nil && d.Mat != nil {
		d.Mat.Close()
	}
}
