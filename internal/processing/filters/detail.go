package filters

import (
	"context"
	"fmt"
	"image"

	"photo-enhancer/internal/opencv/safe"

	"gocv.io/x/gocv"
)

// Sharpen convolves with a softened high-boost kernel and blends the result 50/50 with the input.
type Sharpen struct {
	Center float32
	Blend  float64
}

func NewSharpen() *Sharpen {
	return &Sharpen{Center: 9.5, Blend: 0.5}
}

func (s *Sharpen) Name() string {
	return "sharpen"
}

func (s *Sharpen) kernel() (gocv.Mat, error) {
	kernel := gocv.NewMatWithSize(3, 3, gocv.MatTypeCV32F)
	if kernel.Empty() {
		kernel.Close()
		return kernel, fmt.Errorf("failed to allocate sharpen kernel")
	}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			kernel.SetFloatAt(row, col, -1)
		}
	}
	kernel.SetFloatAt(1, 1, s.Center)
	return kernel, nil
}

func (s *Sharpen) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, s.Name()); err != nil {
		return nil, err
	}

	kernel, err := s.kernel()
	if err != nil {
		return nil, err
	}
	defer kernel.Close()

	src := input.GetMat()
	sharpened := gocv.NewMat()
	defer sharpened.Close()
	if err := gocv.Filter2D(src, &sharpened, -1, kernel, image.Point{X: -1, Y: -1}, 0, gocv.BorderDefault); err != nil {
		return nil, cvFailed(s.Name(), "Filter2D", err)
	}

	dst, err := newLike(input, s.Name())
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	if err := gocv.AddWeighted(src, 1-s.Blend, sharpened, s.Blend, 0, &dstMat); err != nil {
		return nil, cvFailed(s.Name(), "AddWeighted", err, dst)
	}

	return dst, nil
}

// DetailEnhance boosts local detail with OpenCV's edge-preserving detail filter.
type DetailEnhance struct {
	SigmaS float32
	SigmaR float32
}

func NewDetailEnhance() *DetailEnhance {
	return &DetailEnhance{SigmaS: 12, SigmaR: 0.15}
}

func (d *DetailEnhance) Name() string {
	return "detail_enhance"
}

func (d *DetailEnhance) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, d.Name()); err != nil {
		return nil, err
	}

	dst, err := newLike(input, d.Name())
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	if err := gocv.DetailEnhance(input.GetMat(), &dstMat, d.SigmaS, d.SigmaR); err != nil {
		return nil, cvFailed(d.Name(), "DetailEnhance", err, dst)
	}

	return dst, nil
}

type BilateralSmooth struct {
	Diameter   int
	SigmaColor float64
	SigmaSpace float64
}

func NewBilateralSmooth() *BilateralSmooth {
	return &BilateralSmooth{Diameter: 5, SigmaColor: 75, SigmaSpace: 75}
}

func (b *BilateralSmooth) Name() string {
	return "bilateral_smooth"
}

func (b *BilateralSmooth) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, b.Name()); err != nil {
		return nil, err
	}

	dst, err := newLike(input, b.Name())
	if err != nil {
		return nil, err
	}
	dstMat := dst.GetMat()
	if err := gocv.BilateralFilter(input.GetMat(), &dstMat, b.Diameter, b.SigmaColor, b.SigmaSpace); err != nil {
		return nil, cvFailed(b.Name(), "BilateralFilter", err, dst)
	}

	return dst, nil
}
