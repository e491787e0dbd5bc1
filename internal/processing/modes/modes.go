// Package modes maps each enhancement mode to its fixed, ordered list of filters.
package modes

import (
	"fmt"

	"photo-enhancer/internal/models"
	"photo-enhancer/internal/processing/chain"
	"photo-enhancer/internal/processing/filters"
	"photo-enhancer/internal/superres"
)

// DefaultVideoSaturation is applied to every video frame regardless of resolution.
const DefaultVideoSaturation = 1.3

// Resources are the job-scoped assets some modes need. Nil members degrade to a
// pass-through step with a warning.
type Resources struct {
	Faces    filters.FaceDetector
	Upscaler superres.Loader
	Scale    int
}

// Select returns the chain for mode, tuned with params.
func Select(mode models.EnhancementMode, params models.AdaptiveParameters, res Resources) (*chain.ProcessingChain, error) {
	sat := params.SaturationFactor

	var steps []chain.ProcessingStep
	switch mode {
	case models.ModeNormal:
		steps = []chain.ProcessingStep{
			filters.NewBrightnessContrast(),
			filters.NewDenoise(),
			filters.NewEnhanceContrast(),
			filters.NewAdjustSaturation(sat),
			filters.NewSharpen(),
		}
	case models.ModeHighQuality:
		steps = []chain.ProcessingStep{
			filters.NewBrightnessContrast(),
			filters.NewDenoise(),
			filters.NewEnhanceContrast(),
			filters.NewAdjustSaturation(sat * 1.1),
			filters.NewSharpen(),
			filters.NewSharpen(),
			filters.NewBilateralSmooth(),
		}
	case models.ModeHDRBeautify:
		steps = []chain.ProcessingStep{
			filters.NewBrightnessContrast(),
			filters.NewDenoise(),
			filters.NewDetailEnhance(),
			filters.NewBeautifyFace(res.Faces),
			filters.NewAdjustSaturation(sat * 0.9),
			filters.NewEnhanceContrast(),
		}
	case models.ModeAISuperResolution:
		steps = []chain.ProcessingStep{
			filters.NewBrightnessContrast(),
			filters.NewDenoise(),
			filters.NewSuperResolve(res.Upscaler, res.Scale),
			filters.NewAdjustSaturation(sat),
			filters.NewEnhanceContrast(),
		}
	default:
		return nil, fmt.Errorf("mode %d: %w", int(mode), models.ErrUnknownMode)
	}

	return chain.NewProcessingChain(steps), nil
}

// Video returns the per-frame chain.
func Video(saturation float64) *chain.ProcessingChain {
	return chain.NewProcessingChain([]chain.ProcessingStep{
		filters.NewBrightnessContrast(),
		filters.NewDenoise(),
		filters.NewEnhanceContrast(),
		filters.NewAdjustSaturation(saturation),
	})
}
