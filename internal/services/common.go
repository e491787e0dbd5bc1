package services

import (
	"context"
	"errors"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/opencv/memory"
	"photo-enhancer/internal/processing/filters"
	"photo-enhancer/internal/processing/modes"
	"photo-enhancer/internal/superres"
)

// faceDetector is a detector that holds native resources until Close.
type faceDetector interface {
	filters.FaceDetector
	Close()
}

// modelLoader is a super-resolution loader that holds the network until Close.
type modelLoader interface {
	superres.Loader
	Close()
}

// jobResources are created per job and released when the job's loop exits.
type jobResources struct {
	detector faceDetector
	model    modelLoader
	scale    int
}

func (r *jobResources) modes() modes.Resources {
	res := modes.Resources{Scale: r.scale}
	if r.detector != nil {
		res.Faces = r.detector
	}
	if r.model != nil {
		res.Upscaler = r.model
	}
	return res
}

func (r *jobResources) Close() {
	if r.detector != nil {
		r.detector.Close()
	}
	if r.model != nil {
		r.model.Close()
	}
}

// finishJob logs step timings and Mat accounting once a job has ended.
func finishJob(log logger.Logger, mem *memory.Manager, tracker *timing.Tracker, component, jobID string) {
	for _, s := range tracker.Summaries() {
		log.Debug(component, "step timing", map[string]interface{}{
			"job_id":     jobID,
			"step":       s.Operation,
			"count":      s.Count,
			"total_ms":   s.Total.Milliseconds(),
			"average_ms": s.Average.Milliseconds(),
			"max_ms":     s.Max.Milliseconds(),
		})
	}
	if mem != nil {
		mem.Report(component)
	}
}

// interrupted reports whether err, or the context it ran under, signals cancellation.
func interrupted(ctx context.Context, err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) || ctx.Err() != nil
}
