package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/media"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/pipeline"
	"photo-enhancer/internal/report"
	"photo-enhancer/internal/services"
)

var modeFlag string

var photosCmd = &cobra.Command{
	Use:   "photos <file-or-directory>...",
	Short: "Enhance a batch of photos",
	Long: `Enhance photos with one of the modes:
  normal               denoise, CLAHE, saturation, sharpen
  high-quality         stronger detail and saturation
  hdr-beautify         HDR-style detail plus face smoothing (needs the face cascade)
  ai-super-resolution  EDSR upscaling (needs the model file; skipped with a warning otherwise)

The face cascade defaults to haarcascade_frontalface_default.xml, taken from the working
directory or else from $OPENCV_DATA_DIR and the usual OpenCV install locations
(/usr/share/opencv4/haarcascades, ...). Point --cascade at the file if it lives elsewhere;
without it hdr-beautify skips face smoothing with a warning.

Directories are scanned for .jpg .jpeg .png .bmp .tif .tiff files. Written files are
listed on stdout, one per line.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runPhotos,
}

func init() {
	photosCmd.Flags().StringVarP(&modeFlag, "mode", "m", models.ModeNormal.String(), "Enhancement mode")
}

func runPhotos(cmd *cobra.Command, args []string) error {
	mode, err := models.ParseMode(modeFlag)
	if err != nil {
		return err
	}

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	inputs, err := media.ExpandInputs(args, media.ScanOptions{MaxDepth: maxDepthFlag, Limit: limitFlag}, env.log)
	if err != nil {
		return err
	}
	if len(inputs) == 0 {
		return fmt.Errorf("no supported images found in %v", args)
	}

	progress := newConsoleProgress(os.Stderr, "photos", len(inputs))
	token := models.NewCancellationToken()
	env.shutdown.Register(token)

	job, err := models.NewProcessingJob(inputs, outputFlag, mode, token, progress)
	if err != nil {
		progress.Finish()
		return err
	}

	tracker := timing.NewTracker()
	service := services.NewPhotoService(
		pipeline.NewLoader(env.log, tracker),
		pipeline.NewSaver(env.cfg.JPEGQuality, env.cfg.PNGCompression, env.log, tracker),
		env.memory,
		env.log,
		services.PhotoOptions{
			ModelPath:   env.cfg.ModelPath,
			ModelScale:  env.cfg.ModelScale,
			CascadePath: env.cfg.CascadePath,
		},
	)

	result := service.Process(env.shutdown.Context(), job)
	progress.Finish()

	for _, s := range tracker.Summaries() {
		env.log.Debug("Main", "I/O timing", map[string]interface{}{
			"operation": s.Operation,
			"count":     s.Count,
			"average":   s.Average.String(),
		})
	}

	for _, path := range result.Outputs() {
		fmt.Fprintln(os.Stdout, path)
	}
	fmt.Fprintf(os.Stderr, "%s: %d written, %d skipped, %d failed, %d warnings in %s\n",
		result.Status, result.Written, result.Skipped, result.Failed, result.Warnings, result.Elapsed.Round(1e6))

	if reportFlag != "" {
		if err := report.Write(reportFlag, result); err != nil {
			return err
		}
	}

	switch result.Status {
	case models.StatusCancelled:
		return &exitError{code: exitCancelled}
	case models.StatusFailed:
		return &exitError{code: 1, err: fmt.Errorf("no photo could be enhanced")}
	}
	return nil
}
