package services

import (
	"context"
	"fmt"
	"time"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/memory"
	"photo-enhancer/internal/pipeline"
	"photo-enhancer/internal/processing/adaptive"
	"photo-enhancer/internal/processing/filters"
	"photo-enhancer/internal/processing/modes"
	"photo-enhancer/internal/superres"
)

const photoComponent = "PhotoService"

// PhotoOptions locate the optional assets some modes use.
type PhotoOptions struct {
	ModelPath   string
	ModelScale  int
	CascadePath string
}

// PhotoService enhances a batch of photos one after another.
type PhotoService struct {
	loader        pipeline.ImageLoader
	saver         pipeline.ImageSaver
	memoryManager *memory.Manager
	logger        logger.Logger
	opts          PhotoOptions

	newDetector func(path string) faceDetector
	newModel    func(path string, scale int) modelLoader
}

func NewPhotoService(loader pipeline.ImageLoader, saver pipeline.ImageSaver, memMgr *memory.Manager, log logger.Logger, opts PhotoOptions) *PhotoService {
	if log == nil {
		log = logger.Nop()
	}
	if opts.ModelScale <= 0 {
		opts.ModelScale = superres.DefaultScale
	}
	return &PhotoService{
		loader:        loader,
		saver:         saver,
		memoryManager: memMgr,
		logger:        log,
		opts:          opts,
		newDetector: func(path string) faceDetector {
			return filters.NewCascadeDetector(path)
		},
		newModel: func(path string, scale int) modelLoader {
			return superres.NewModelLoader(path, scale)
		},
	}
}

// Process runs job.Mode over every input in order. Unreadable inputs are skipped, failed
// writes are recorded, and cancellation stops before the next input. Progress is reported
// after every input.
func (ps *PhotoService) Process(ctx context.Context, job *models.ProcessingJob) *models.BatchResult {
	start := time.Now()
	tracker := timing.NewTracker()
	total := len(job.Inputs)

	result := &models.BatchResult{JobID: job.ID, Mode: job.Mode, Total: total}

	res := ps.resourcesFor(job.Mode)
	defer res.Close()

	ps.logger.Info(photoComponent, "batch started", map[string]interface{}{
		"job_id": job.ID,
		"mode":   job.Mode.String(),
		"inputs": total,
		"output": job.OutputDir,
	})

	cancelled := false
	for i, input := range job.Inputs {
		if job.Cancelled(ctx) {
			cancelled = true
			break
		}

		item, stopped := ps.processOne(ctx, job, i, input, res, tracker)
		if stopped {
			cancelled = true
			break
		}

		result.Add(item)
		job.Emit(item)
		job.Report(i+1, total)
	}

	result.Finish(cancelled)
	result.Elapsed = time.Since(start)

	ps.logger.Info(photoComponent, "batch finished", map[string]interface{}{
		"job_id":   job.ID,
		"status":   string(result.Status),
		"written":  result.Written,
		"skipped":  result.Skipped,
		"failed":   result.Failed,
		"warnings": result.Warnings,
		"elapsed":  result.Elapsed.String(),
	})
	finishJob(ps.logger, ps.memoryManager, tracker, photoComponent, job.ID)

	return result
}

// processOne handles a single input. stopped is true when the job was cancelled while the
// image was in the chain; nothing is written in that case.
func (ps *PhotoService) processOne(ctx context.Context, job *models.ProcessingJob, index int, input string, res *jobResources, tracker *timing.Tracker) (item models.ItemOutcome, stopped bool) {
	start := time.Now()
	item = models.ItemOutcome{Index: index, Input: input}
	defer func() { item.Duration = time.Since(start) }()

	data, err := ps.loader.Load(input)
	if err != nil {
		item.Status = models.ItemSkipped
		item.Err = err
		ps.logger.Warning(photoComponent, "input skipped", map[string]interface{}{
			"job_id": job.ID,
			"input":  input,
			"error":  err.Error(),
		})
		return item, false
	}
	defer data.Close()

	item.Params = adaptive.ForMat(data.Mat)

	pc, err := modes.Select(job.Mode, item.Params, res.modes())
	if err != nil {
		item.Status = models.ItemFailed
		item.Err = err
		return item, false
	}

	out, err := pc.WithTiming(tracker).Execute(ctx, data.Mat)
	if err != nil {
		if interrupted(ctx, err) {
			return item, true
		}
		item.Status = models.ItemFailed
		item.Err = fmt.Errorf("%s: %w", input, err)
		ps.logger.Error(photoComponent, item.Err, map[string]interface{}{
			"job_id": job.ID,
			"input":  input,
		})
		return item, false
	}
	defer out.Mat.Close()

	item.Warnings = out.Warnings
	for _, w := range out.Warnings {
		ps.logger.Warning(photoComponent, "step degraded", map[string]interface{}{
			"job_id":  job.ID,
			"input":   input,
			"warning": w.Error(),
		})
	}

	if out.Mat.SameGeometry(data.Mat) {
		if psnr, err := pipeline.PSNR(data.Mat, out.Mat); err == nil {
			item.PSNR = psnr
		}
	}

	path, err := ps.saver.Save(out.Mat, input, job.OutputDir)
	if err != nil {
		item.Status = models.ItemFailed
		item.Err = err
		ps.logger.Error(photoComponent, err, map[string]interface{}{
			"job_id": job.ID,
			"input":  input,
		})
		return item, false
	}

	item.Status = models.ItemWritten
	item.Output = path
	ps.logger.Debug(photoComponent, "photo enhanced", map[string]interface{}{
		"job_id":     job.ID,
		"input":      input,
		"output":     path,
		"saturation": item.Params.SaturationFactor,
		"psnr":       item.PSNR,
	})

	return item, false
}

func (ps *PhotoService) resourcesFor(mode models.EnhancementMode) *jobResources {
	res := &jobResources{scale: ps.opts.ModelScale}
	switch mode {
	case models.ModeHDRBeautify:
		res.detector = ps.newDetector(ps.opts.CascadePath)
	case models.ModeAISuperResolution:
		res.model = ps.newModel(ps.opts.ModelPath, ps.opts.ModelScale)
	}
	return res
}
