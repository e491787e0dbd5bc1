package safe

import (
	"fmt"
	"runtime"
	"sync"
	"sync/atomic"

	"gocv.io/x/gocv"
)

// MemoryTracker interface to avoid import cycles
type MemoryTracker interface {
	TrackAllocation(id uint64, size int64, tag string)
	TrackDeallocation(id uint64, tag string)
}

var (
	trackerMu      sync.RWMutex
	defaultTracker MemoryTracker
)

// SetTracker installs the tracker notified for every Mat created afterwards.
// Passing nil disables tracking.
func SetTracker(t MemoryTracker) {
	trackerMu.Lock()
	defer trackerMu.Unlock()
	defaultTracker = t
}

func currentTracker() MemoryTracker {
	trackerMu.RLock()
	defer trackerMu.RUnlock()
	return defaultTracker
}

// Mat owns a gocv.Mat. Close releases the native buffer exactly once; a finalizer
// covers Mats that escape without Close.
type Mat struct {
	mat        gocv.Mat
	isValid    int32
	mu         sync.RWMutex
	id         uint64
	memTracker MemoryTracker
	tag        string
}

var nextMatID uint64

func NewMat(rows, cols int, matType gocv.MatType) (*Mat, error) {
	return NewMatWithTag(rows, cols, matType, "")
}

func NewMatWithTag(rows, cols int, matType gocv.MatType, tag string) (*Mat, error) {
	if err := ValidateDimensions(cols, rows, "NewMat"); err != nil {
		return nil, err
	}

	mat := gocv.NewMatWithSize(rows, cols, matType)
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("failed to create Mat with size %dx%d", cols, rows)
	}

	return wrap(mat, tag), nil
}

// NewMatFromMat clones srcMat; the caller keeps ownership of srcMat.
func NewMatFromMat(srcMat gocv.Mat, tag string) (*Mat, error) {
	if srcMat.Empty() {
		return nil, fmt.Errorf("source Mat is empty")
	}

	clonedMat := srcMat.Clone()
	if clonedMat.Empty() {
		clonedMat.Close()
		return nil, fmt.Errorf("failed to clone Mat")
	}

	return wrap(clonedMat, tag), nil
}

// Adopt takes ownership of m without copying. On error m has already been closed.
func Adopt(m gocv.Mat, tag string) (*Mat, error) {
	if m.Empty() {
		m.Close()
		return nil, fmt.Errorf("cannot adopt empty Mat (%s)", tag)
	}
	return wrap(m, tag), nil
}

func wrap(m gocv.Mat, tag string) *Mat {
	safeMat := &Mat{
		mat:        m,
		isValid:    1,
		id:         atomic.AddUint64(&nextMatID, 1),
		memTracker: currentTracker(),
		tag:        tag,
	}

	if safeMat.memTracker != nil {
		size := int64(m.Rows()) * int64(m.Cols()) * int64(m.ElemSize())
		safeMat.memTracker.TrackAllocation(safeMat.id, size, tag)
	}

	runtime.SetFinalizer(safeMat, (*Mat).finalize)
	return safeMat
}

func (sm *Mat) IsValid() bool {
	return atomic.LoadInt32(&sm.isValid) == 1
}

func (sm *Mat) Empty() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return true
	}

	return sm.mat.Empty()
}

func (sm *Mat) Rows() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Rows()
}

func (sm *Mat) Cols() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Cols()
}

func (sm *Mat) Channels() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return 0
	}

	return sm.mat.Channels()
}

func (sm *Mat) Type() gocv.MatType {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return gocv.MatTypeCV8UC1
	}

	return sm.mat.Type()
}

// SameGeometry reports whether both Mats have identical width, height and channel count.
func (sm *Mat) SameGeometry(other *Mat) bool {
	return sm.Rows() == other.Rows() && sm.Cols() == other.Cols() && sm.Channels() == other.Channels()
}

func (sm *Mat) Clone() (*Mat, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil, fmt.Errorf("cannot clone invalid Mat")
	}

	if sm.mat.Empty() {
		return nil, fmt.Errorf("cannot clone empty Mat")
	}

	return NewMatFromMat(sm.mat, sm.tag+"_clone")
}

// Bytes returns a copy of the pixel data.
func (sm *Mat) Bytes() []byte {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	if !sm.IsValid() {
		return nil
	}

	return sm.mat.ToBytes()
}

// GetMat exposes the underlying gocv.Mat. It stays owned by sm and must not be closed.
func (sm *Mat) GetMat() gocv.Mat {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	return sm.mat
}

func (sm *Mat) ID() uint64 {
	return sm.id
}

func (sm *Mat) Tag() string {
	return sm.tag
}

func (sm *Mat) Close() {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	if atomic.CompareAndSwapInt32(&sm.isValid, 1, 0) {
		if sm.memTracker != nil {
			sm.memTracker.TrackDeallocation(sm.id, sm.tag)
		}

		sm.mat.Close()

		runtime.SetFinalizer(sm, nil)
	}
}

// finalize is called by Go's garbage collector as last resort cleanup
func (sm *Mat) finalize() {
	if atomic.LoadInt32(&sm.isValid) == 1 {
		sm.Close()
	}
}
