package report

import (
	"bytes"
	"os"
	"path/filepath"
	"reflect"
	"testing"
)

type sample struct {
	JobID   string   `json:"job_id"`
	Outputs []string `json:"outputs"`
	PSNR    float64  `json:"psnr"`
}

func TestWriteRead(t *testing.T) {
	want := sample{JobID: "abc", Outputs: []string{"out/enhanced_a.jpg", "out/enhanced_b.png"}, PSNR: 31.5}

	tests := []struct {
		name       string
		file       string
		compressed bool
	}{
		{"plain", "report.json", false},
		{"zstd", "report.json.zst", true},
		{"nested", "a/b/report.json", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), filepath.FromSlash(tt.file))
			if err := Write(path, want); err != nil {
				t.Fatalf("Write() error = %v", err)
			}

			raw, err := os.ReadFile(path)
			if err != nil {
				t.Fatal(err)
			}
			isJSON := bytes.HasPrefix(raw, []byte("{"))
			if isJSON == tt.compressed {
				t.Errorf("Write(%s) plain JSON = %v, want %v", tt.file, isJSON, !tt.compressed)
			}

			var got sample
			if err := Read(path, &got); err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, want) {
				t.Errorf("Read() = %+v, want %+v", got, want)
			}
		})
	}
}

func TestWriteLeavesNoTempFiles(t *testing.T) {
	dir := t.TempDir()
	if err := Write(filepath.Join(dir, "r.json"), sample{JobID: "x"}); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Name() != "r.json" {
		t.Errorf("directory contents = %v, want only r.json", entries)
	}
}

func TestWriteUnencodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	if err := Write(path, map[string]interface{}{"c": make(chan int)}); err == nil {
		t.Fatal("Write(chan) succeeded, want error")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("failed Write left %s behind", path)
	}
}

func TestReadMissing(t *testing.T) {
	if err := Read(filepath.Join(t.TempDir(), "none.json"), &sample{}); err == nil {
		t.Error("Read(missing) succeeded, want error")
	}
}
