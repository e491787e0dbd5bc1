package pipeline

import (
	"fmt"
	"math"

	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// MaxPSNR is reported for identical images.
const MaxPSNR = 100.0

// PSNR returns the peak signal-to-noise ratio in dB between two 8-bit images of equal geometry.
func PSNR(original, processed *safe.Mat) (float64, error) {
	if err := safe.ValidateMatForOperation(original, "psnr"); err != nil {
		return 0, err
	}
	if err := safe.ValidateMatForOperation(processed, "psnr"); err != nil {
		return 0, err
	}
	if !original.SameGeometry(processed) || original.Type() != processed.Type() {
		return 0, fmt.Errorf("psnr needs matching images, got %dx%dx%d and %dx%dx%d",
			original.Cols(), original.Rows(), original.Channels(),
			processed.Cols(), processed.Rows(), processed.Channels())
	}

	l2 := gocv.NormWithMats(original.GetMat(), processed.GetMat(), gocv.NormL2)
	samples := float64(original.Rows() * original.Cols() * original.Channels())
	mse := l2 * l2 / samples
	if mse == 0 {
		return MaxPSNR, nil
	}

	return math.Min(MaxPSNR, 10*math.Log10(255*255/mse)), nil
}
