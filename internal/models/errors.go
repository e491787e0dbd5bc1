package models

import "errors"

var (
	// ErrInputNotFound marks an image or video that could not be opened or decoded.
	ErrInputNotFound = errors.New("input not found or unreadable")

	// ErrModelMissing marks an absent super-resolution model asset.
	ErrModelMissing = errors.New("super-resolution model missing")

	// ErrModelRuntime marks a failure while running the super-resolution model.
	ErrModelRuntime = errors.New("super-resolution model failed")

	// ErrDetectorMissing marks an absent or unloadable face detector definition.
	ErrDetectorMissing = errors.New("face detector unavailable")

	// ErrOutputWrite marks an output directory, encode or write failure.
	ErrOutputWrite = errors.New("output write failed")

	ErrUnknownMode = errors.New("unknown enhancement mode")
	ErrInvalidJob  = errors.New("invalid processing job")
)

// IsRecoverable reports whether err describes a condition where the image passes through
// unchanged and processing continues with a warning.
func IsRecoverable(err error) bool {
	return errors.Is(err, ErrModelMissing) ||
		errors.Is(err, ErrModelRuntime) ||
		errors.Is(err, ErrDetectorMissing)
}
