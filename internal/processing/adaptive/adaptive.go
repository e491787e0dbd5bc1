// Package adaptive derives per-image tuning values from resolution.
package adaptive

import (
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"
)

// ReferenceArea is the Full HD pixel count every image is normalised against.
const ReferenceArea = 1920 * 1080

type bounds struct {
	scale, min, max float64
}

var (
	denoiseBounds    = bounds{scale: 7, min: 3, max: 15}
	sharpenBounds    = bounds{scale: 1.3, min: 1.0, max: 2.0}
	saturationBounds = bounds{scale: 1.4, min: 1.1, max: 1.8}
)

// Compute returns the clamped parameters for an image of the given size.
func Compute(width, height int) models.AdaptiveParameters {
	sizeFactor := float64(width) * float64(height) / ReferenceArea

	return models.AdaptiveParameters{
		DenoiseStrength:  denoiseBounds.apply(sizeFactor),
		SharpenFactor:    sharpenBounds.apply(sizeFactor),
		SaturationFactor: saturationBounds.apply(sizeFactor),
	}
}

// ForMat computes the parameters for a loaded image.
func ForMat(mat *safe.Mat) models.AdaptiveParameters {
	return Compute(mat.Cols(), mat.Rows())
}

func (b bounds) apply(sizeFactor float64) float64 {
	return clamp(b.scale*sizeFactor, b.min, b.max)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
