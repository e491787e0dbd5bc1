package chain

import (
	"context"
	"errors"
	"fmt"
	"image"
	"reflect"
	"testing"

	"gocv.io/x/gocv"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/memory"
	"photo-enhancer/internal/opencv/safe"
)

// addStep adds a constant to every channel.
type addStep struct {
	name  string
	value float64
}

func (s addStep) Name() string { return s.name }

func (s addStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	out := gocv.NewMat()
	offset := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(s.value, s.value, s.value, 0),
		input.Rows(), input.Cols(), input.Type())
	defer offset.Close()
	gocv.Add(input.GetMat(), offset, &out)
	return safe.Adopt(out, s.name)
}

type resizeStep struct {
	declared bool
}

func (s resizeStep) Name() string { return "resize" }

func (s resizeStep) ChangesGeometry() bool { return s.declared }

func (s resizeStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	out := gocv.NewMat()
	if err := gocv.Resize(input.GetMat(), &out, image.Point{}, 2, 2, gocv.InterpolationLinear); err != nil {
		out.Close()
		return nil, err
	}
	return safe.Adopt(out, "resize")
}

type warnStep struct{}

func (warnStep) Name() string { return "warn" }

func (warnStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	out, err := input.Clone()
	if err != nil {
		return nil, err
	}
	return out, fmt.Errorf("model.pb: %w", models.ErrModelMissing)
}

type failStep struct{}

func (failStep) Name() string { return "fail" }

func (failStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	return nil, errors.New("boom")
}

type cancelStep struct {
	cancel context.CancelFunc
}

func (s cancelStep) Name() string { return "cancel" }

func (s cancelStep) Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error) {
	s.cancel()
	return input.Clone()
}

func newInput(t *testing.T) *safe.Mat {
	t.Helper()
	raw := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(10, 20, 30, 0), 4, 6, gocv.MatTypeCV8UC3)
	m, err := safe.Adopt(raw, "input")
	if err != nil {
		t.Fatalf("Adopt() error = %v", err)
	}
	return m
}

func trackMats(t *testing.T) *memory.Manager {
	t.Helper()
	mgr := memory.NewManager(nil)
	safe.SetTracker(mgr)
	t.Cleanup(func() { safe.SetTracker(nil) })
	return mgr
}

func TestExecuteAppliesStepsInOrder(t *testing.T) {
	mgr := trackMats(t)
	input := newInput(t)

	pc := NewProcessingChain([]ProcessingStep{addStep{"a", 1}, addStep{"b", 2}, addStep{"c", 3}})
	res, err := pc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}

	px := res.Mat.Bytes()[:3]
	if px[0] != 16 || px[1] != 26 || px[2] != 36 {
		t.Errorf("first pixel = %v, want [16 26 36]", px)
	}
	if in := input.Bytes()[:3]; in[0] != 10 {
		t.Errorf("input modified: %v", in)
	}

	res.Mat.Close()
	input.Close()
	if got := mgr.GetStats().ActiveMats; got != 0 {
		t.Errorf("ActiveMats = %d, want 0 (open: %v)", got, mgr.ActiveTags())
	}
}

func TestExecuteRejectsUndeclaredGeometryChange(t *testing.T) {
	mgr := trackMats(t)
	input := newInput(t)
	defer input.Close()

	_, err := NewProcessingChain([]ProcessingStep{addStep{"a", 1}, resizeStep{}}).Execute(context.Background(), input)
	if err == nil {
		t.Fatal("Execute() succeeded, want geometry error")
	}

	if got := mgr.GetStats().ActiveMats; got != 1 {
		t.Errorf("ActiveMats = %d, want 1 (input only)", got)
	}
}

func TestExecuteAllowsDeclaredResize(t *testing.T) {
	input := newInput(t)
	defer input.Close()

	res, err := NewProcessingChain([]ProcessingStep{resizeStep{declared: true}}).Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer res.Mat.Close()

	if res.Mat.Cols() != 12 || res.Mat.Rows() != 8 {
		t.Errorf("size = %dx%d, want 12x8", res.Mat.Cols(), res.Mat.Rows())
	}
}

func TestExecuteCollectsRecoverableWarnings(t *testing.T) {
	input := newInput(t)
	defer input.Close()

	res, err := NewProcessingChain([]ProcessingStep{warnStep{}, addStep{"a", 1}}).Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer res.Mat.Close()

	if len(res.Warnings) != 1 || !errors.Is(res.Warnings[0], models.ErrModelMissing) {
		t.Errorf("Warnings = %v, want one ErrModelMissing", res.Warnings)
	}
}

func TestExecuteStopsOnFailure(t *testing.T) {
	mgr := trackMats(t)
	input := newInput(t)
	defer input.Close()

	_, err := NewProcessingChain([]ProcessingStep{addStep{"a", 1}, failStep{}, addStep{"b", 1}}).Execute(context.Background(), input)
	if err == nil {
		t.Fatal("Execute() succeeded, want error")
	}
	if got := mgr.GetStats().ActiveMats; got != 1 {
		t.Errorf("ActiveMats = %d, want 1 (input only)", got)
	}
}

func TestExecuteHonoursCancellation(t *testing.T) {
	input := newInput(t)
	defer input.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	_, err := NewProcessingChain([]ProcessingStep{cancelStep{cancel}, addStep{"a", 1}}).Execute(ctx, input)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Execute() error = %v, want context.Canceled", err)
	}
}

func TestEmptyChainReturnsCopy(t *testing.T) {
	input := newInput(t)
	defer input.Close()

	res, err := NewProcessingChain(nil).Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	defer res.Mat.Close()

	if res.Mat == input {
		t.Error("Execute() returned the input itself")
	}
}

func TestStepNamesAndTiming(t *testing.T) {
	tracker := timing.NewTracker()
	pc := NewProcessingChain([]ProcessingStep{addStep{"a", 1}, addStep{"b", 1}}).WithTiming(tracker)

	if got := pc.GetStepNames(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("GetStepNames() = %v, want [a b]", got)
	}

	input := newInput(t)
	defer input.Close()
	res, err := pc.Execute(context.Background(), input)
	if err != nil {
		t.Fatalf("Execute() error = %v", err)
	}
	res.Mat.Close()

	got := map[string]int{}
	for _, s := range tracker.Summaries() {
		got[s.Operation] = s.Count
	}
	if !reflect.DeepEqual(got, map[string]int{"a": 1, "b": 1}) {
		t.Errorf("timings = %v, want one per step", got)
	}
}
