package filters

import (
	"context"
	"fmt"
	"image"

	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// EnhanceContrast equalizes lightness with CLAHE in Lab space, leaving chroma untouched.
type EnhanceContrast struct {
	ClipLimit float64
	TileGrid  int
}

func NewEnhanceContrast() *EnhanceContrast {
	return &EnhanceContrast{ClipLimit: 2.0, TileGrid: 8}
}

func (e *EnhanceContrast) Name() string {
	return "enhance_contrast"
}

func (e *EnhanceContrast) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, e.Name()); err != nil {
		return nil, err
	}
	if e.TileGrid <= 0 {
		return nil, fmt.Errorf("%s: tile grid must be positive, got %d", e.Name(), e.TileGrid)
	}

	lab := gocv.NewMat()
	defer lab.Close()
	if err := gocv.CvtColor(input.GetMat(), &lab, gocv.ColorBGRToLab); err != nil {
		return nil, cvFailed(e.Name(), "CvtColor", err)
	}

	channels := gocv.Split(lab)
	defer closeAll(channels)
	if len(channels) != 3 {
		return nil, fmt.Errorf("%s: expected 3 Lab channels, got %d", e.Name(), len(channels))
	}

	clahe := gocv.NewCLAHEWithParams(e.ClipLimit, image.Point{X: e.TileGrid, Y: e.TileGrid})
	defer clahe.Close()

	equalized := gocv.NewMat()
	if err := clahe.Apply(channels[0], &equalized); err != nil {
		equalized.Close()
		return nil, cvFailed(e.Name(), "CLAHE", err)
	}
	channels[0].Close()
	channels[0] = equalized

	return mergeInto(input, channels, gocv.ColorLabToBGR, e.Name())
}

// AdjustSaturation scales the HSV saturation channel by Factor, saturating at 255.
type AdjustSaturation struct {
	Factor float64
}

func NewAdjustSaturation(factor float64) *AdjustSaturation {
	return &AdjustSaturation{Factor: factor}
}

func (a *AdjustSaturation) Name() string {
	return "adjust_saturation"
}

func (a *AdjustSaturation) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, a.Name()); err != nil {
		return nil, err
	}
	if a.Factor < 0 {
		return nil, fmt.Errorf("%s: negative factor %v", a.Name(), a.Factor)
	}

	hsv := gocv.NewMat()
	defer hsv.Close()
	if err := gocv.CvtColor(input.GetMat(), &hsv, gocv.ColorBGRToHSV); err != nil {
		return nil, cvFailed(a.Name(), "CvtColor", err)
	}

	channels := gocv.Split(hsv)
	defer closeAll(channels)
	if len(channels) != 3 {
		return nil, fmt.Errorf("%s: expected 3 HSV channels, got %d", a.Name(), len(channels))
	}

	scaled := gocv.NewMat()
	if err := channels[1].ConvertToWithParams(&scaled, gocv.MatTypeCV8U, float32(a.Factor), 0); err != nil {
		scaled.Close()
		return nil, cvFailed(a.Name(), "ConvertTo", err)
	}
	channels[1].Close()
	channels[1] = scaled

	return mergeInto(input, channels, gocv.ColorHSVToBGR, a.Name())
}

// mergeInto merges channels and converts them back to BGR in a new Mat shaped like input.
func mergeInto(input *safe.Mat, channels []gocv.Mat, code gocv.ColorConversionCode, op string) (*safe.Mat, error) {
	merged := gocv.NewMat()
	defer merged.Close()
	if err := gocv.Merge(channels, &merged); err != nil {
		return nil, cvFailed(op, "Merge", err)
	}

	dst, err := newLike(input, op)
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	if err := gocv.CvtColor(merged, &dstMat, code); err != nil {
		return nil, cvFailed(op, "CvtColor", err, dst)
	}

	return dst, nil
}

func closeAll(mats []gocv.Mat) {
	for i := range mats {
		mats[i].Close()
	}
}
