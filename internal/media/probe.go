package media

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"strings"
	"time"

	"github.com/evanoberholster/imagemeta"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
)

// Info is what can be learnt about an image from its header and EXIF block.
type Info struct {
	Path     string    `json:"path"`
	Format   string    `json:"format"`
	Width    int       `json:"width"`
	Height   int       `json:"height"`
	Camera   string    `json:"camera,omitempty"`
	Taken    time.Time `json:"taken,omitempty"`
	HasEXIF  bool      `json:"has_exif"`
	FileSize int64     `json:"file_size"`
}

// Probe reads dimensions from the file header and, when present, camera and capture date
// from EXIF. Missing EXIF is not an error.
func Probe(path string) (*Info, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	stat, err := file.Stat()
	if err != nil {
		return nil, fmt.Errorf("failed to stat file: %w", err)
	}

	cfg, format, err := image.DecodeConfig(file)
	if err != nil {
		return nil, fmt.Errorf("failed to read image header of %s: %w", path, err)
	}

	info := &Info{
		Path:     path,
		Format:   format,
		Width:    cfg.Width,
		Height:   cfg.Height,
		FileSize: stat.Size(),
	}

	if _, err := file.Seek(0, 0); err != nil {
		return info, nil
	}
	if exif, err := imagemeta.Decode(file); err == nil {
		info.HasEXIF = true
		info.Camera = strings.TrimSpace(strings.TrimSpace(exif.Make) + " " + strings.TrimSpace(exif.Model))
		switch {
		case !exif.DateTimeOriginal().IsZero():
			info.Taken = exif.DateTimeOriginal()
		case !exif.CreateDate().IsZero():
			info.Taken = exif.CreateDate()
		}
	}

	return info, nil
}
