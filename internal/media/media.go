// Package media discovers enhanceable files and reads their headers without a full decode.
package media

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"photo-enhancer/internal/logger"
)

const component = "Media"

var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".bmp":  true,
	".tiff": true,
	".tif":  true,
}

var videoExtensions = map[string]bool{
	".mp4": true,
	".avi": true,
	".mov": true,
	".mkv": true,
	".flv": true,
}

// IsImage reports whether path has a supported image extension, in any case.
func IsImage(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// IsVideo reports whether path has a supported video extension, in any case.
func IsVideo(path string) bool {
	return videoExtensions[strings.ToLower(filepath.Ext(path))]
}

// ScanOptions configures directory scanning.
type ScanOptions struct {
	// MaxDepth limits recursion. 0 = unlimited, 1 = top-level only.
	MaxDepth int

	// Limit caps the number of files returned. 0 = unlimited.
	Limit int
}

// ScanDirectory returns the supported images under dir, sorted by path. Unreadable entries
// and symlinked directories are skipped.
func ScanDirectory(dir string, opts ScanOptions, log logger.Logger) ([]string, error) {
	if log == nil {
		log = logger.Nop()
	}

	info, err := os.Stat(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("directory not found: %s", dir)
		}
		return nil, fmt.Errorf("failed to stat directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("path is not a directory: %s", dir)
	}

	root := filepath.Clean(dir)
	baseDepth := strings.Count(root, string(os.PathSeparator))

	var files []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Warning(component, "error accessing path, skipping", map[string]interface{}{
				"path":  path,
				"error": err.Error(),
			})
			return nil
		}

		if d.IsDir() {
			if opts.MaxDepth > 0 && path != root &&
				strings.Count(path, string(os.PathSeparator))-baseDepth >= opts.MaxDepth {
				return fs.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 {
			target, err := os.Stat(path)
			if err != nil || target.IsDir() {
				return nil
			}
		}

		if !IsImage(path) {
			return nil
		}
		if opts.Limit > 0 && len(files) >= opts.Limit {
			return fs.SkipAll
		}

		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk directory: %w", err)
	}

	sort.Strings(files)

	log.Debug(component, "directory scanned", map[string]interface{}{
		"directory": dir,
		"images":    len(files),
	})
	return files, nil
}

// ExpandInputs resolves command line arguments into image paths: files are kept as given
// (in order), directories are replaced by their scanned contents.
func ExpandInputs(args []string, opts ScanOptions, log logger.Logger) ([]string, error) {
	var inputs []string
	for _, arg := range args {
		info, err := os.Stat(arg)
		if err == nil && info.IsDir() {
			found, err := ScanDirectory(arg, opts, log)
			if err != nil {
				return nil, err
			}
			inputs = append(inputs, found...)
			continue
		}
		inputs = append(inputs, arg)
	}
	return inputs, nil
}
