package main

import (
	"errors"
	"fmt"
	"os"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"

	"photo-enhancer/internal/config"
	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/opencv/memory"
	"photo-enhancer/internal/opencv/safe"
	"photo-enhancer/internal/shutdown"
)

const AppVersion = "1.0.0"

// Exit codes beyond the default 1.
const (
	exitCancelled = 130
)

var (
	envFileFlag  string
	outputFlag   string
	reportFlag   string
	modelFlag    string
	cascadeFlag  string
	logLevelFlag string
	maxDepthFlag int
	limitFlag    int
)

var rootCmd = &cobra.Command{
	Use:   "photo-enhancer",
	Short: "Enhance photos and videos with fixed OpenCV filter pipelines",
	Long: `Photo Enhancer applies one of four enhancement modes to a batch of photos, or a
fixed enhancement pipeline to every frame of a video. Filter strength adapts to each
photo's resolution. Outputs are written as enhanced_<name> in the output directory.

Examples:
  photo-enhancer photos ./holiday --mode high-quality -o ./out
  photo-enhancer photos a.jpg b.png --mode ai-super-resolution --model ./EDSR_x4.pb
  photo-enhancer video clip.mp4 -o ./out --report out/report.json.zst
  photo-enhancer plan ./holiday --max-depth 1`,
	Version:       AppVersion,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&envFileFlag, "env-file", ".env", "Optional .env file with ENHANCER_* settings")
	pf.StringVarP(&outputFlag, "output", "o", "enhanced", "Output directory")
	pf.StringVar(&reportFlag, "report", "", "Write a JSON job report here (.zst suffix compresses it)")
	pf.StringVar(&modelFlag, "model", "", "Super-resolution model file (overrides ENHANCER_MODEL_PATH)")
	pf.StringVar(&cascadeFlag, "cascade", "", "Face cascade file (overrides ENHANCER_CASCADE_PATH)")
	pf.StringVar(&logLevelFlag, "log-level", "", "debug, info, warn or error (overrides ENHANCER_LOG_LEVEL)")
	pf.IntVar(&maxDepthFlag, "max-depth", 0, "Maximum directory recursion depth (0 = unlimited)")
	pf.IntVar(&limitFlag, "limit", 0, "Maximum photos taken from each directory (0 = unlimited)")

	rootCmd.AddCommand(photosCmd, videoCmd, planCmd)
}

func main() {
	configureRuntime()

	err := rootCmd.Execute()
	var ce *exitError
	switch {
	case err == nil:
	case errors.As(err, &ce):
		if ce.err != nil {
			fmt.Fprintln(os.Stderr, "Error:", ce.err)
		}
		os.Exit(ce.code)
	default:
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func configureRuntime() {
	runtime.GOMAXPROCS(runtime.NumCPU())
	// Pixel buffers live in C memory; keep the Go heap small so finalizers run promptly.
	debug.SetGCPercent(50)
}

// exitError carries a specific process exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

// environment is the shared state every command builds before running.
type environment struct {
	cfg      config.Config
	log      logger.Logger
	memory   *memory.Manager
	shutdown *shutdown.Manager
}

func setup() (*environment, error) {
	cfg, err := config.Load(envFileFlag)
	if err != nil {
		return nil, err
	}
	if modelFlag != "" {
		cfg.ModelPath = modelFlag
	}
	if cascadeFlag != "" {
		cfg.CascadePath = cascadeFlag
	}
	if logLevelFlag != "" {
		cfg.LogLevel = logLevelFlag
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	log := logger.NewConsoleLogger(logger.ParseLevel(cfg.LogLevel))
	memMgr := memory.NewManager(log)
	safe.SetTracker(memMgr)

	sm := shutdown.NewManager(log)
	sm.Listen()

	log.Debug("Main", "configuration loaded", map[string]interface{}{
		"model":            cfg.ModelPath,
		"model_scale":      cfg.ModelScale,
		"cascade":          cfg.CascadePath,
		"jpeg_quality":     cfg.JPEGQuality,
		"png_compression":  cfg.PNGCompression,
		"video_codec":      cfg.VideoCodec,
		"video_saturation": cfg.VideoSaturation,
	})

	return &environment{cfg: cfg, log: log, memory: memMgr, shutdown: sm}, nil
}

func (env *environment) close() {
	env.shutdown.Stop()
	env.memory.Report("Main")
}
