package chain

import (
	"context"
	"errors"
	"fmt"

	"photo-enhancer/internal/debug/timing"
	"photo-enhancer/internal/models"
	"photo-enhancer/internal/opencv/safe"
)

// ProcessingStep transforms one image into a new one. Apply must not modify or close input.
//
// A step that cannot do its work but can still hand back a usable image returns both the
// image and a recoverable error (see models.IsRecoverable); the chain records it as a
// warning and continues.
type ProcessingStep interface {
	Apply(ctx context.Context, input *safe.Mat) (*safe.Mat, error)
	Name() string
}

// Resizer is implemented by steps that are allowed to change width and height.
type Resizer interface {
	ChangesGeometry() bool
}

type Result struct {
	Mat      *safe.Mat
	Warnings []error
}

type ProcessingChain struct {
	steps  []ProcessingStep
	timing *timing.Tracker
}

func NewProcessingChain(steps []ProcessingStep) *ProcessingChain {
	return &ProcessingChain{
		steps: steps,
	}
}

// WithTiming records the duration of every step under its name.
func (pc *ProcessingChain) WithTiming(tracker *timing.Tracker) *ProcessingChain {
	pc.timing = tracker
	return pc
}

// Execute runs every step in order. The caller keeps ownership of input and receives
// ownership of Result.Mat, which is never the input itself.
func (pc *ProcessingChain) Execute(ctx context.Context, input *safe.Mat) (*Result, error) {
	if err := safe.ValidateMatForOperation(input, "chain"); err != nil {
		return nil, err
	}

	current := input
	release := func() {
		if current != input {
			current.Close()
		}
	}
	var warnings []error

	for _, step := range pc.steps {
		select {
		case <-ctx.Done():
			release()
			return nil, ctx.Err()
		default:
		}

		stepCtx := pc.timing.StartTiming(ctx, step.Name())
		result, err := step.Apply(stepCtx, current)
		pc.timing.EndTiming(stepCtx)

		if err != nil && !(result != nil && models.IsRecoverable(err)) {
			discard(result, current, input)
			release()
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, err
			}
			return nil, fmt.Errorf("step %s failed: %w", step.Name(), err)
		}
		if result == nil {
			release()
			return nil, fmt.Errorf("step %s returned no image", step.Name())
		}
		if err != nil {
			warnings = append(warnings, fmt.Errorf("%s: %w", step.Name(), err))
		}

		if gerr := checkGeometry(step, current, result); gerr != nil {
			discard(result, current, input)
			release()
			return nil, gerr
		}

		if result != current {
			release()
			current = result
		}
	}

	if current == input {
		clone, err := input.Clone()
		if err != nil {
			return nil, fmt.Errorf("chain passthrough: %w", err)
		}
		current = clone
	}

	return &Result{Mat: current, Warnings: warnings}, nil
}

func checkGeometry(step ProcessingStep, before, after *safe.Mat) error {
	if after.Channels() != before.Channels() {
		return fmt.Errorf("step %s changed channels from %d to %d", step.Name(), before.Channels(), after.Channels())
	}
	if r, ok := step.(Resizer); ok && r.ChangesGeometry() {
		return nil
	}
	if !after.SameGeometry(before) {
		return fmt.Errorf("step %s changed geometry from %dx%d to %dx%d",
			step.Name(), before.Cols(), before.Rows(), after.Cols(), after.Rows())
	}
	return nil
}

func discard(result, current, input *safe.Mat) {
	if result != nil && result != current && result != input {
		result.Close()
	}
}

func (pc *ProcessingChain) Steps() []ProcessingStep {
	steps := make([]ProcessingStep, len(pc.steps))
	copy(steps, pc.steps)
	return steps
}

func (pc *ProcessingChain) GetStepNames() []string {
	names := make([]string, len(pc.steps))
	for i, step := range pc.steps {
		names[i] = step.Name()
	}
	return names
}
