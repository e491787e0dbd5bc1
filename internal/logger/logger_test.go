package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLevelFromEnv(t *testing.T) {
	t.Setenv("ENHANCER_LOG_LEVEL", "")
	t.Setenv("DEBUG", "1")
	if got := LevelFromEnv(); got != zerolog.DebugLevel {
		t.Errorf("LevelFromEnv() with DEBUG=1 = %v, want debug", got)
	}

	t.Setenv("ENHANCER_LOG_LEVEL", "error")
	if got := LevelFromEnv(); got != zerolog.ErrorLevel {
		t.Errorf("LevelFromEnv() = %v, want error", got)
	}
}

func TestZerologAdapterFields(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.DebugLevel)

	log.Info("PhotoService", "item written", map[string]interface{}{"index": 2})
	log.Error("VideoService", errors.New("boom"), nil)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("got %d log lines, want 2", len(lines))
	}

	var first map[string]interface{}
	if err := json.Unmarshal([]byte(lines[0]), &first); err != nil {
		t.Fatalf("first line is not JSON: %v", err)
	}
	if first["component"] != "PhotoService" || first["message"] != "item written" {
		t.Errorf("first line = %v, want component and message set", first)
	}
	if first["index"] != float64(2) {
		t.Errorf("index field = %v, want 2", first["index"])
	}

	if !strings.Contains(lines[1], `"error":"boom"`) {
		t.Errorf("error line %q missing error field", lines[1])
	}
}

func TestZerologAdapterLevelFilter(t *testing.T) {
	var buf bytes.Buffer
	log := NewZerolog(&buf, zerolog.WarnLevel)

	log.Debug("c", "hidden", nil)
	log.Info("c", "hidden", nil)
	log.Warning("c", "shown", nil)

	if got := strings.Count(buf.String(), "\n"); got != 1 {
		t.Errorf("wrote %d lines, want 1", got)
	}
}
