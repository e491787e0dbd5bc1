package filters

import (
	"context"
	"fmt"

	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"
	"photo-enhancer/internal/superres"

	"gocv.io/x/gocv"
)

// SuperResolve upscales with the job's neural model and then restores fine detail. When the
// model is missing or fails, the input is passed through with a recoverable error.
type SuperResolve struct {
	Loader superres.Loader
	Scale  int
	Detail *DetailEnhance
}

func NewSuperResolve(loader superres.Loader, scale int) *SuperResolve {
	if scale <= 0 {
		scale = superres.DefaultScale
	}
	return &SuperResolve{
		Loader: loader,
		Scale:  scale,
		Detail: &DetailEnhance{SigmaS: 5, SigmaR: 0.1},
	}
}

func (s *SuperResolve) Name() string {
	return "super_resolve"
}

func (s *SuperResolve) ChangesGeometry() bool {
	return true
}

func (s *SuperResolve) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	if err := prepare(ctx, input, s.Name()); err != nil {
		return nil, err
	}

	if s.Loader == nil {
		return passThrough(input, fmt.Errorf("no model configured: %w", models.ErrModelMissing))
	}

	upscaler, err := s.Loader.Load()
	if err != nil {
		return passThrough(input, asModelError(err))
	}
	if upscaler.Scale() != s.Scale {
		return passThrough(input, fmt.Errorf("model scale %d, want %d: %w",
			upscaler.Scale(), s.Scale, models.ErrModelRuntime))
	}

	raw, err := upscaler.Upscale(input.GetMat())
	if err != nil {
		raw.Close()
		return passThrough(input, asModelError(err))
	}

	wantRows, wantCols := input.Rows()*s.Scale, input.Cols()*s.Scale
	if raw.Empty() || raw.Rows() != wantRows || raw.Cols() != wantCols || raw.Type() != gocv.MatTypeCV8UC3 {
		got := fmt.Sprintf("%dx%d", raw.Cols(), raw.Rows())
		raw.Close()
		return passThrough(input, fmt.Errorf("upscaled image is %s, want %dx%d: %w",
			got, wantCols, wantRows, models.ErrModelRuntime))
	}

	upscaled, err := safe.Adopt(raw, s.Name())
	if err != nil {
		return passThrough(input, asModelError(err))
	}
	defer upscaled.Close()

	return s.Detail.Apply(ctx, upscaled)
}

func asModelError(err error) error {
	if models.IsRecoverable(err) {
		return err
	}
	return fmt.Errorf("%v: %w", err, models.ErrModelRuntime)
}
