// Package report writes job results to disk as JSON, optionally zstd compressed.
package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// CompressedExt selects zstd compression when it ends the report path.
const CompressedExt = ".zst"

// Write encodes v as indented JSON to path. Paths ending in .zst are zstd compressed.
// The file is written to a temporary name first and renamed into place.
func Write(path string, v interface{}) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create report directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".report-*")
	if err != nil {
		return fmt.Errorf("failed to create report file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := encode(tmp, v, strings.HasSuffix(path, CompressedExt)); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close report file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move report into place: %w", err)
	}
	return nil
}

func encode(w io.Writer, v interface{}, compress bool) error {
	if !compress {
		return writeJSON(w, v)
	}

	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	if err := writeJSON(enc, v); err != nil {
		enc.Close()
		return err
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to flush zstd stream: %w", err)
	}
	return nil
}

func writeJSON(w io.Writer, v interface{}) error {
	e := json.NewEncoder(w)
	e.SetIndent("", "  ")
	if err := e.Encode(v); err != nil {
		return fmt.Errorf("failed to encode report: %w", err)
	}
	return nil
}

// Read decodes a report written by Write into v.
func Read(path string, v interface{}) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open report: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedExt) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return fmt.Errorf("failed to create zstd decoder: %w", err)
		}
		defer dec.Close()
		r = dec
	}

	if err := json.NewDecoder(r).Decode(v); err != nil {
		return fmt.Errorf("failed to decode report: %w", err)
	}
	return nil
}
