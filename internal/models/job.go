package models

import (
	"context"
	"strings"

	"github.com/google/uuid"
)

// AdaptiveParameters are tuning values derived from an image's pixel area.
type AdaptiveParameters struct {
	DenoiseStrength  float64 `json:"denoise_strength"`
	SharpenFactor    float64 `json:"sharpen_factor"`
	SaturationFactor float64 `json:"saturation_factor"`
}

// ProcessingJob carries everything one batch or one video run needs.
// It holds no reference to any presentation layer.
type ProcessingJob struct {
	ID        string
	Inputs    []string
	OutputDir string
	Mode      EnhancementMode
	Cancel    *CancellationToken
	Progress  ProgressSink
}

// NewProcessingJob validates the request and assigns a job ID. A nil token or sink is
// replaced with a fresh token and a no-op sink.
func NewProcessingJob(inputs []string, outputDir string, mode EnhancementMode, cancel *CancellationToken, progress ProgressSink) (*ProcessingJob, error) {
	if len(inputs) == 0 {
		return nil, NewValidationError("inputs", inputs, "at least one input is required")
	}
	for _, in := range inputs {
		if strings.TrimSpace(in) == "" {
			return nil, NewValidationError("inputs", in, "input path is empty")
		}
	}
	if strings.TrimSpace(outputDir) == "" {
		return nil, NewValidationError("output_dir", outputDir, "output directory is required")
	}
	if !mode.Valid() {
		return nil, NewValidationError("mode", int(mode), ErrUnknownMode.Error())
	}

	if cancel == nil {
		cancel = NewCancellationToken()
	}
	if progress == nil {
		progress = ProgressFunc(func(Progress) {})
	}

	return &ProcessingJob{
		ID:        uuid.NewString(),
		Inputs:    append([]string(nil), inputs...),
		OutputDir: outputDir,
		Mode:      mode,
		Cancel:    cancel,
		Progress:  progress,
	}, nil
}

// Cancelled reports whether the job token or the context has been cancelled.
func (j *ProcessingJob) Cancelled(ctx context.Context) bool {
	if j.Cancel.IsCancelled() {
		return true
	}
	return ctx != nil && ctx.Err() != nil
}

// Report forwards progress to the job sink.
func (j *ProcessingJob) Report(done, total int) {
	if j.Progress != nil {
		j.Progress.OnProgress(Progress{Done: done, Total: total})
	}
}

// Emit streams an item outcome when the sink also listens for items.
func (j *ProcessingJob) Emit(item ItemOutcome) {
	if sink, ok := j.Progress.(ItemSink); ok {
		sink.OnItem(item)
	}
}
