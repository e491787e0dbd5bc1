package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"photo-enhancer/internal/media"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/report"
	"photo-enhancer/internal/services"
)

var videoCmd = &cobra.Command{
	Use:   "video <file>",
	Short: "Enhance every frame of a video",
	Long: `Runs brightness/contrast, denoise, CLAHE and saturation over each frame and writes
<output>/enhanced_video.mp4 with the source size and frame rate. Ctrl-C stops the job
and removes the partial output.`,
	Args: cobra.ExactArgs(1),
	RunE: runVideo,
}

func runVideo(cmd *cobra.Command, args []string) error {
	if !media.IsVideo(args[0]) {
		fmt.Fprintf(os.Stderr, "warning: %s does not have a known video extension\n", args[0])
	}

	env, err := setup()
	if err != nil {
		return err
	}
	defer env.close()

	progress := newConsoleProgress(os.Stderr, "frames", 0)
	token := models.NewCancellationToken()
	env.shutdown.Register(token)

	job, err := models.NewProcessingJob(args, outputFlag, models.ModeNormal, token, progress)
	if err != nil {
		progress.Finish()
		return err
	}

	service := services.NewVideoService(env.memory, env.log, services.VideoOptions{
		Codec:      env.cfg.VideoCodec,
		Saturation: env.cfg.VideoSaturation,
	})

	result, procErr := service.Process(env.shutdown.Context(), job)
	progress.Finish()

	if result != nil {
		fmt.Fprintf(os.Stdout, "%s: %d frames in %s", result.Status, result.FramesWritten, result.Elapsed.Round(1e6))
		if result.Output != "" {
			fmt.Fprintf(os.Stdout, " -> %s", result.Output)
		}
		fmt.Fprintln(os.Stdout)

		if reportFlag != "" {
			if err := report.Write(reportFlag, result); err != nil {
				return err
			}
		}
	}

	if procErr != nil {
		return procErr
	}
	if result.Status == models.StatusCancelled {
		return &exitError{code: exitCancelled}
	}
	return nil
}
