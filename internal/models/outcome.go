package models

import (
	"encoding/json"
	"time"
)

// Status is the terminal state of a job.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusPartial   Status = "partial"
	StatusCancelled Status = "cancelled"
	StatusFailed    Status = "failed"
)

// ItemStatus is the state of a single photo in a batch.
type ItemStatus string

const (
	ItemWritten ItemStatus = "written"
	ItemSkipped ItemStatus = "skipped"
	ItemFailed  ItemStatus = "failed"
)

// ItemOutcome describes what happened to one photo.
type ItemOutcome struct {
	Index    int                `json:"index"`
	Input    string             `json:"input"`
	Output   string             `json:"output,omitempty"`
	Status   ItemStatus         `json:"status"`
	Params   AdaptiveParameters `json:"params"`
	Warnings []error            `json:"-"`
	Err      error              `json:"-"`
	PSNR     float64            `json:"psnr,omitempty"`
	Duration time.Duration      `json:"duration"`
}

func (o ItemOutcome) MarshalJSON() ([]byte, error) {
	type plain ItemOutcome
	return json.Marshal(struct {
		plain
		Warnings []string `json:"warnings,omitempty"`
		Error    string   `json:"error,omitempty"`
	}{
		plain:    plain(o),
		Warnings: errorStrings(o.Warnings),
		Error:    errorString(o.Err),
	})
}

// BatchResult is the terminal outcome of a photo batch.
type BatchResult struct {
	JobID    string          `json:"job_id"`
	Mode     EnhancementMode `json:"mode"`
	Status   Status          `json:"status"`
	Total    int             `json:"total"`
	Written  int             `json:"written"`
	Skipped  int             `json:"skipped"`
	Failed   int             `json:"failed"`
	Warnings int             `json:"warnings"`
	Items    []ItemOutcome   `json:"items"`
	Elapsed  time.Duration   `json:"elapsed"`
}

// Add records an item and updates the counters.
func (r *BatchResult) Add(item ItemOutcome) {
	r.Items = append(r.Items, item)
	switch item.Status {
	case ItemWritten:
		r.Written++
	case ItemSkipped:
		r.Skipped++
	case ItemFailed:
		r.Failed++
	}
	r.Warnings += len(item.Warnings)
}

// Finish derives the terminal status. Cancellation wins over everything else.
func (r *BatchResult) Finish(cancelled bool) {
	switch {
	case cancelled:
		r.Status = StatusCancelled
	case r.Written == 0:
		r.Status = StatusFailed
	case r.Skipped+r.Failed > 0:
		r.Status = StatusPartial
	default:
		r.Status = StatusSucceeded
	}
}

// Outputs lists the files written by the batch.
func (r *BatchResult) Outputs() []string {
	var out []string
	for _, item := range r.Items {
		if item.Status == ItemWritten {
			out = append(out, item.Output)
		}
	}
	return out
}

// VideoInfo describes a video stream.
type VideoInfo struct {
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FPS        float64 `json:"fps"`
	FrameCount int     `json:"frame_count"`
}

// VideoResult is the terminal outcome of a video job.
type VideoResult struct {
	JobID         string        `json:"job_id"`
	Status        Status        `json:"status"`
	Input         string        `json:"input"`
	Output        string        `json:"output,omitempty"`
	Info          VideoInfo     `json:"info"`
	FramesWritten int           `json:"frames_written"`
	Err           error         `json:"-"`
	Elapsed       time.Duration `json:"elapsed"`
}

func (r VideoResult) MarshalJSON() ([]byte, error) {
	type plain VideoResult
	return json.Marshal(struct {
		plain
		Error string `json:"error,omitempty"`
	}{plain: plain(r), Error: errorString(r.Err)})
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

func errorStrings(errs []error) []string {
	if len(errs) == 0 {
		return nil
	}
	out := make([]string, len(errs))
	for i, err := range errs {
		out[i] = err.Error()
	}
	return out
}
