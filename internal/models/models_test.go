package models

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

func TestParseMode(t *testing.T) {
	tests := []struct {
		in      string
		want    EnhancementMode
		wantErr bool
	}{
		{"Normal", ModeNormal, false},
		{"normal", ModeNormal, false},
		{"HighQuality", ModeHighQuality, false},
		{"high-quality", ModeHighQuality, false},
		{"HIGH_QUALITY", ModeHighQuality, false},
		{"High Quality", ModeHighQuality, false},
		{"hdr-beautify", ModeHDRBeautify, false},
		{"AISuperResolution", ModeAISuperResolution, false},
		{"ai-super-resolution", ModeAISuperResolution, false},
		{"Yüksek Kalite", 0, true},
		{"", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseMode(tt.in)
		if tt.wantErr {
			if !errors.Is(err, ErrUnknownMode) {
				t.Errorf("ParseMode(%q) error = %v, want ErrUnknownMode", tt.in, err)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Errorf("ParseMode(%q) = %v, %v, want %v", tt.in, got, err, tt.want)
		}
	}
}

func TestModeStringRoundTrip(t *testing.T) {
	for _, m := range Modes() {
		got, err := ParseMode(m.String())
		if err != nil || got != m {
			t.Errorf("ParseMode(%q) = %v, %v, want %v", m.String(), got, err, m)
		}
	}
	if EnhancementMode(42).Valid() {
		t.Error("EnhancementMode(42).Valid() = true, want false")
	}
}

func TestNewProcessingJobValidation(t *testing.T) {
	tests := []struct {
		name    string
		inputs  []string
		out     string
		mode    EnhancementMode
		wantErr bool
	}{
		{"valid", []string{"a.jpg"}, "/tmp/out", ModeNormal, false},
		{"no inputs", nil, "/tmp/out", ModeNormal, true},
		{"blank input", []string{" "}, "/tmp/out", ModeNormal, true},
		{"no output", []string{"a.jpg"}, "", ModeNormal, true},
		{"bad mode", []string{"a.jpg"}, "/tmp/out", EnhancementMode(9), true},
	}

	for _, tt := range tests {
		job, err := NewProcessingJob(tt.inputs, tt.out, tt.mode, nil, nil)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidJob) {
				t.Errorf("%s: error = %v, want ErrInvalidJob", tt.name, err)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.name, err)
		}
		if job.ID == "" || job.Cancel == nil || job.Progress == nil {
			t.Errorf("%s: job not fully initialised: %+v", tt.name, job)
		}
	}
}

func TestJobIDsAreUnique(t *testing.T) {
	a, _ := NewProcessingJob([]string{"a.jpg"}, "out", ModeNormal, nil, nil)
	b, _ := NewProcessingJob([]string{"a.jpg"}, "out", ModeNormal, nil, nil)
	if a.ID == b.ID {
		t.Errorf("two jobs share ID %q", a.ID)
	}
}

func TestJobCancelled(t *testing.T) {
	job, _ := NewProcessingJob([]string{"a.jpg"}, "out", ModeNormal, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())

	if job.Cancelled(ctx) {
		t.Fatal("fresh job reports cancelled")
	}
	cancel()
	if !job.Cancelled(ctx) {
		t.Error("Cancelled() = false after context cancel")
	}

	job2, _ := NewProcessingJob([]string{"a.jpg"}, "out", ModeNormal, nil, nil)
	job2.Cancel.Cancel()
	if !job2.Cancelled(context.Background()) {
		t.Error("Cancelled() = false after token cancel")
	}
}

func TestCancellationTokenConcurrent(t *testing.T) {
	token := NewCancellationToken()
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		token.Cancel()
	}()
	go func() {
		defer wg.Done()
		for !token.IsCancelled() {
		}
	}()
	wg.Wait()

	var nilToken *CancellationToken
	if nilToken.IsCancelled() {
		t.Error("nil token reports cancelled")
	}
}

func TestProgressPercent(t *testing.T) {
	tests := []struct {
		p    Progress
		want float64
	}{
		{Progress{Done: 40, Total: 100}, 40},
		{Progress{Done: 3, Total: 3}, 100},
		{Progress{Done: 5, Total: 0}, 0},
	}
	for _, tt := range tests {
		if got := tt.p.Percent(); got != tt.want {
			t.Errorf("%+v.Percent() = %v, want %v", tt.p, got, tt.want)
		}
	}
}

func TestChannelSinkKeepsNewest(t *testing.T) {
	sink := NewChannelSink(2)
	for i := 1; i <= 10; i++ {
		sink.OnProgress(Progress{Done: i, Total: 10})
	}
	sink.Close()

	var got []int
	for p := range sink.Updates() {
		got = append(got, p.Done)
	}
	if len(got) != 2 || got[len(got)-1] != 10 {
		t.Errorf("updates = %v, want two entries ending with 10", got)
	}
}

func TestBatchResultFinish(t *testing.T) {
	tests := []struct {
		name      string
		items     []ItemStatus
		cancelled bool
		want      Status
	}{
		{"all written", []ItemStatus{ItemWritten, ItemWritten}, false, StatusSucceeded},
		{"one skipped", []ItemStatus{ItemWritten, ItemSkipped}, false, StatusPartial},
		{"nothing written", []ItemStatus{ItemSkipped, ItemFailed}, false, StatusFailed},
		{"cancelled", []ItemStatus{ItemWritten}, true, StatusCancelled},
	}

	for _, tt := range tests {
		var r BatchResult
		for i, s := range tt.items {
			r.Add(ItemOutcome{Index: i, Status: s, Output: fmt.Sprintf("o%d", i)})
		}
		r.Finish(tt.cancelled)
		if r.Status != tt.want {
			t.Errorf("%s: Status = %v, want %v", tt.name, r.Status, tt.want)
		}
	}
}

func TestItemOutcomeJSON(t *testing.T) {
	item := ItemOutcome{
		Index:    1,
		Input:    "a.jpg",
		Status:   ItemWritten,
		Warnings: []error{fmt.Errorf("a.jpg: %w", ErrModelMissing)},
	}
	data, err := json.Marshal(item)
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	if !strings.Contains(string(data), ErrModelMissing.Error()) {
		t.Errorf("JSON %s missing warning text", data)
	}
}

func TestIsRecoverable(t *testing.T) {
	if !IsRecoverable(fmt.Errorf("x: %w", ErrModelMissing)) {
		t.Error("wrapped ErrModelMissing not recoverable")
	}
	if !IsRecoverable(ErrDetectorMissing) {
		t.Error("ErrDetectorMissing not recoverable")
	}
	if IsRecoverable(ErrOutputWrite) {
		t.Error("ErrOutputWrite reported recoverable")
	}
}
