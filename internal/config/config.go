// Package config resolves enhancer settings from defaults, an optional .env file and the
// environment.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"

	"photo-enhancer/internal/logger"
	"photo-enhancer/internal/pipeline"
	"photo-enhancer/internal/processing/filters"
	"photo-enhancer/internal/processing/modes"
	"photo-enhancer/internal/superres"
)

const (
	EnvModelPath       = "ENHANCER_MODEL_PATH"
	EnvModelScale      = "ENHANCER_MODEL_SCALE"
	EnvCascadePath     = "ENHANCER_CASCADE_PATH"
	EnvJPEGQuality     = "ENHANCER_JPEG_QUALITY"
	EnvPNGCompression  = "ENHANCER_PNG_COMPRESSION"
	EnvVideoCodec      = "ENHANCER_VIDEO_CODEC"
	EnvVideoSaturation = "ENHANCER_VIDEO_SATURATION"
	EnvLogLevel        = "ENHANCER_LOG_LEVEL"
)

type Config struct {
	ModelPath       string
	ModelScale      int
	CascadePath     string
	JPEGQuality     int
	PNGCompression  int
	VideoCodec      string
	VideoSaturation float64
	LogLevel        string
}

func Default() Config {
	return Config{
		ModelPath:       superres.DefaultModelFile,
		ModelScale:      superres.DefaultScale,
		CascadePath:     filters.DefaultCascadeFile,
		JPEGQuality:     pipeline.DefaultJPEGQuality,
		PNGCompression:  pipeline.DefaultPNGCompression,
		VideoCodec:      pipeline.DefaultVideoCodec,
		VideoSaturation: modes.DefaultVideoSaturation,
		LogLevel:        "info",
	}
}

// Load applies envFile (when non-empty and present) to the process environment, then reads
// overrides on top of the defaults. Variables already set in the environment win over the file.
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	cfg := Default()
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) applyEnv() error {
	str := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) error {
		v := strings.TrimSpace(os.Getenv(key))
		if v == "" {
			return nil
		}
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", key, v)
		}
		*dst = n
		return nil
	}

	str(EnvModelPath, &c.ModelPath)
	str(EnvCascadePath, &c.CascadePath)
	str(EnvVideoCodec, &c.VideoCodec)
	if v := strings.TrimSpace(os.Getenv(EnvLogLevel)); v != "" {
		c.LogLevel = v
	} else {
		// DEBUG=1 shortcut.
		c.LogLevel = logger.LevelFromEnv().String()
	}

	if err := num(EnvModelScale, &c.ModelScale); err != nil {
		return err
	}
	if err := num(EnvJPEGQuality, &c.JPEGQuality); err != nil {
		return err
	}
	if err := num(EnvPNGCompression, &c.PNGCompression); err != nil {
		return err
	}
	if v := strings.TrimSpace(os.Getenv(EnvVideoSaturation)); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("%s: %q is not a number", EnvVideoSaturation, v)
		}
		c.VideoSaturation = f
	}
	return nil
}

func (c Config) Validate() error {
	switch {
	case c.ModelScale < 2 || c.ModelScale > 8:
		return fmt.Errorf("model scale %d out of range [2,8]", c.ModelScale)
	case c.JPEGQuality < 1 || c.JPEGQuality > 100:
		return fmt.Errorf("jpeg quality %d out of range [1,100]", c.JPEGQuality)
	case c.PNGCompression < 0 || c.PNGCompression > 9:
		return fmt.Errorf("png compression %d out of range [0,9]", c.PNGCompression)
	case len(c.VideoCodec) != 4:
		return fmt.Errorf("video codec %q must be a four character code", c.VideoCodec)
	case c.VideoSaturation <= 0:
		return fmt.Errorf("video saturation %v must be positive", c.VideoSaturation)
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log level %q", c.LogLevel)
	}
	return nil
}
