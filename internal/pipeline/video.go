package pipeline

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

const (
	DefaultVideoCodec = "mp4v"
	// VideoOutputName is the fixed file name of an enhanced video.
	VideoOutputName = "enhanced_video.mp4"
	fallbackFPS     = 30
)

// VideoReader is a FrameSource backed by an OpenCV capture.
type VideoReader struct {
	capture *gocv.VideoCapture
	info    models.VideoInfo
	path    string
}

func OpenVideo(path string) (*VideoReader, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%s: %w", path, models.ErrInputNotFound)
	}

	capture, err := gocv.VideoCaptureFile(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %v: %w", path, err, models.ErrInputNotFound)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("open %s: %w", path, models.ErrInputNotFound)
	}

	info := models.VideoInfo{
		Width:      int(capture.Get(gocv.VideoCaptureFrameWidth)),
		Height:     int(capture.Get(gocv.VideoCaptureFrameHeight)),
		FPS:        capture.Get(gocv.VideoCaptureFPS),
		FrameCount: int(capture.Get(gocv.VideoCaptureFrameCount)),
	}
	if info.Width <= 0 || info.Height <= 0 {
		capture.Close()
		return nil, fmt.Errorf("%s reports no frame size: %w", path, models.ErrInputNotFound)
	}

	return &VideoReader{capture: capture, info: info, path: path}, nil
}

func (r *VideoReader) Info() models.VideoInfo {
	return r.info
}

func (r *VideoReader) Read() (*safe.Mat, error) {
	frame := gocv.NewMat()
	if ok := r.capture.Read(&frame); !ok || frame.Empty() {
		frame.Close()
		return nil, io.EOF
	}
	return safe.Adopt(frame, "video_frame")
}

func (r *VideoReader) Close() error {
	return r.capture.Close()
}

// VideoWriter is a FrameSink encoding to a file.
type VideoWriter struct {
	writer *gocv.VideoWriter
	path   string
	width  int
	height int
}

// CreateVideo opens path for writing with the size and rate from info. A missing rate
// falls back to 30 fps.
func CreateVideo(path, codec string, info models.VideoInfo) (*VideoWriter, error) {
	if codec == "" {
		codec = DefaultVideoCodec
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create %s: %v: %w", filepath.Dir(path), err, models.ErrOutputWrite)
	}

	fps := info.FPS
	if fps <= 0 {
		fps = fallbackFPS
	}

	writer, err := gocv.VideoWriterFile(path, codec, fps, info.Width, info.Height, true)
	if err != nil {
		return nil, fmt.Errorf("create %s: %v: %w", path, err, models.ErrOutputWrite)
	}
	if !writer.IsOpened() {
		writer.Close()
		os.Remove(path)
		return nil, fmt.Errorf("create %s with codec %s: %w", path, codec, models.ErrOutputWrite)
	}

	return &VideoWriter{writer: writer, path: path, width: info.Width, height: info.Height}, nil
}

func (w *VideoWriter) Path() string {
	return w.path
}

func (w *VideoWriter) Write(frame *safe.Mat) error {
	if frame.Cols() != w.width || frame.Rows() != w.height {
		return fmt.Errorf("frame %dx%d does not match video %dx%d: %w",
			frame.Cols(), frame.Rows(), w.width, w.height, models.ErrOutputWrite)
	}
	if err := w.writer.Write(frame.GetMat()); err != nil {
		return fmt.Errorf("write frame to %s: %v: %w", w.path, err, models.ErrOutputWrite)
	}
	return nil
}

func (w *VideoWriter) Close() error {
	return w.writer.Close()
}
