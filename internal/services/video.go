package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/memory"
	"photo-enhancer/internal/pipeline"
	"photo-enhancer/internal/processing/chain"
	"photo-enhancer/internal/processing/modes"
)

const videoComponent = "VideoService"

type VideoOptions struct {
	Codec      string
	Saturation float64
}

// VideoService enhances a single video frame by frame.
type VideoService struct {
	memoryManager *memory.Manager
	logger        logger.Logger
	opts          VideoOptions

	openSource func(path string) (pipeline.FrameSource, error)
	createSink func(path, codec string, info models.VideoInfo) (pipeline.FrameSink, error)
}

func NewVideoService(memMgr *memory.Manager, log logger.Logger, opts VideoOptions) *VideoService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.Codec == "" {
		opts.Codec = pipeline.DefaultVideoCodec
	}
	if opts.Saturation <= 0 {
		opts.Saturation = modes.DefaultVideoSaturation
	}
	return &VideoService{
		memoryManager: memMgr,
		logger:        log,
		opts:          opts,
		openSource: func(path string) (pipeline.FrameSource, error) {
			return pipeline.OpenVideo(path)
		},
		createSink: func(path, codec string, info models.VideoInfo) (pipeline.FrameSink, error) {
			return pipeline.CreateVideo(path, codec, info)
		},
	}
}

// Process enhances job.Inputs[0] into <OutputDir>/enhanced_video.mp4. A cancelled or failed
// run leaves no output file behind. Cancellation is reported through the result status and
// never as an error.
func (vs *VideoService) Process(ctx context.Context, job *models.ProcessingJob) (*models.VideoResult, error) {
	if len(job.Inputs) != 1 {
		return nil, models.NewValidationError("inputs", job.Inputs, "video jobs take exactly one input")
	}

	start := time.Now()
	tracker := timing.NewTracker()
	input := job.Inputs[0]
	result := &models.VideoResult{JobID: job.ID, Input: input}
	defer func() { result.Elapsed = time.Since(start) }()

	source, err := vs.openSource(input)
	if err != nil {
		return vs.fail(result, err), err
	}
	result.Info = source.Info()

	outPath := filepath.Join(job.OutputDir, pipeline.VideoOutputName)
	sink, err := vs.createSink(outPath, vs.opts.Codec, result.Info)
	if err != nil {
		source.Close()
		return vs.fail(result, err), err
	}

	vs.logger.Info(videoComponent, "video started", map[string]interface{}{
		"job_id": job.ID,
		"input":  input,
		"output": outPath,
		"width":  result.Info.Width,
		"height": result.Info.Height,
		"fps":    result.Info.FPS,
		"frames": result.Info.FrameCount,
	})

	pc := modes.Video(vs.opts.Saturation).WithTiming(tracker)
	cancelled, loopErr := vs.run(ctx, job, source, sink, pc, result)

	source.Close()
	if cerr := sink.Close(); cerr != nil && loopErr == nil && !cancelled {
		loopErr = fmt.Errorf("finalize %s: %v: %w", outPath, cerr, models.ErrOutputWrite)
	}

	finishJob(vs.logger, vs.memoryManager, tracker, videoComponent, job.ID)

	switch {
	case cancelled:
		vs.discard(outPath)
		result.Status = models.StatusCancelled
		vs.logger.Info(videoComponent, "video cancelled", map[string]interface{}{
			"job_id":         job.ID,
			"frames_written": result.FramesWritten,
		})
		return result, nil
	case loopErr != nil:
		vs.discard(outPath)
		return vs.fail(result, loopErr), loopErr
	}

	result.Status = models.StatusSucceeded
	result.Output = outPath
	vs.logger.Info(videoComponent, "video finished", map[string]interface{}{
		"job_id":         job.ID,
		"frames_written": result.FramesWritten,
		"output":         outPath,
	})
	return result, nil
}

func (vs *VideoService) run(ctx context.Context, job *models.ProcessingJob, source pipeline.FrameSource, sink pipeline.FrameSink, pc *chain.ProcessingChain, result *models.VideoResult) (bool, error) {
	total := result.Info.FrameCount

	for {
		if job.Cancelled(ctx) {
			return true, nil
		}

		frame, err := source.Read()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read frame %d: %w", result.FramesWritten+1, err)
		}

		out, err := pc.Execute(ctx, frame)
		frame.Close()
		if err != nil {
			if interrupted(ctx, err) {
				return true, nil
			}
			return false, fmt.Errorf("frame %d: %w", result.FramesWritten+1, err)
		}

		err = sink.Write(out.Mat)
		out.Mat.Close()
		if err != nil {
			return false, err
		}

		result.FramesWritten++
		job.Report(result.FramesWritten, total)
	}
}

func (vs *VideoService) fail(result *models.VideoResult, err error) *models.VideoResult {
	result.Status = models.StatusFailed
	result.Err = err
	result.Output = ""
	vs.logger.Error(videoComponent, err, map[string]interface{}{
		"job_id": result.JobID,
		"input":  result.Input,
	})
	return result
}

func (vs *VideoService) discard(path string) {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		vs.logger.Warning(videoComponent, "could not remove partial output", map[string]interface{}{
			"path":  path,
			"error": err.Error(),
		})
	}
}
