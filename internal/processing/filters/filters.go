// Package filters holds the pixel-level enhancement primitives. Every filter reads an 8-bit
// BGR image and returns a new one of the same geometry; SuperResolve is the one filter that
// may enlarge its input.
package filters

import (
	"context"
	"fmt"

	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// prepare runs the checks every filter does before touching pixels.
func prepare(ctx context.Context, input *safe.Mat, operation string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}

	return safe.ValidateColorImage(input, operation)
}

// newLike allocates a Mat with the geometry and type of src.
func newLike(src *safe.Mat, tag string) (*safe.Mat, error) {
	dst, err := safe.NewMatWithTag(src.Rows(), src.Cols(), src.Type(), tag)
	if err != nil {
		return nil, fmt.Errorf("failed to create destination Mat: %w", err)
	}
	return dst, nil
}

// cvFailed closes the partially built outputs and names the OpenCV call that failed.
func cvFailed(op, call string, err error, release ...*safe.Mat) error {
	for _, m := range release {
		if m != nil {
			m.Close()
		}
	}
	return fmt.Errorf("%s: %s failed: %w", op, call, err)
}

// BrightnessContrast applies a linear brightness shift followed by a contrast stretch around
// mid-grey, each as out = in*alpha + gamma with 8-bit saturation.
type BrightnessContrast struct {
	Brightness float64
	Contrast   float64
}

func NewBrightnessContrast() *BrightnessContrast {
	return &BrightnessContrast{Brightness: 5, Contrast: 1.1}
}

func (b *BrightnessContrast) Name() string {
	return "brightness_contrast"
}

// Coefficients returns the (alpha, gamma) pairs applied in order. A neutral setting
// contributes no pair.
func (b *BrightnessContrast) Coefficients() [][2]float64 {
	var passes [][2]float64

	if b.Brightness != 0 {
		shadow, highlight := b.Brightness, 255.0
		if b.Brightness < 0 {
			shadow, highlight = 0, 255+b.Brightness
		}
		passes = append(passes, [2]float64{(highlight - shadow) / 255, shadow})
	}

	if b.Contrast != 1 {
		f := 131 * (b.Contrast + 127) / (127 * (131 - b.Contrast))
		passes = append(passes, [2]float64{f, 127 * (1 - f)})
	}

	return passes
}

func (b *BrightnessContrast) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, b.Name()); err != nil {
		return nil, err
	}

	current, err := input.Clone()
	if err != nil {
		return nil, err
	}

	for _, pass := range b.Coefficients() {
		next, err := newLike(input, b.Name())
		if err != nil {
			current.Close()
			return nil, err
		}

		src := current.GetMat()
		dst := next.GetMat()
		if err := gocv.AddWeighted(src, pass[0], src, 0, pass[1], &dst); err != nil {
			return nil, cvFailed(b.Name(), "AddWeighted", err, current, next)
		}

		current.Close()
		current = next
	}

	return current, nil
}

// Denoise runs colored non-local means with fixed strengths.
type Denoise struct {
	H                  float32
	HColor             float32
	TemplateWindowSize int
	SearchWindowSize   int
}

func NewDenoise() *Denoise {
	return &Denoise{H: 8, HColor: 8, TemplateWindowSize: 7, SearchWindowSize: 21}
}

func (d *Denoise) Name() string {
	return "denoise"
}

func (d *Denoise) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, d.Name()); err != nil {
		return nil, err
	}

	dst, err := newLike(input, d.Name())
	if err != nil {
		return nil, err
	}

	dstMat := dst.GetMat()
	if err := gocv.FastNlMeansDenoisingColoredWithParams(input.GetMat(), &dstMat,
		d.H, d.HColor, d.TemplateWindowSize, d.SearchWindowSize); err != nil {
		return nil, cvFailed(d.Name(), "FastNlMeansDenoisingColored", err, dst)
	}

	return dst, nil
}
