package shutdown

import (
	"sync"
	"testing"
	"time"

	"photo-enhancer/internal/models"
)

type recorder struct {
	mu    *sync.Mutex
	order *[]int
	id    int
	block time.Duration
}

func (r recorder) Shutdown() {
	time.Sleep(r.block)
	r.mu.Lock()
	defer r.mu.Unlock()
	*r.order = append(*r.order, r.id)
}

func TestShutdownReverseOrder(t *testing.T) {
	m := NewManager(nil)
	var mu sync.Mutex
	var order []int
	for i := 1; i <= 3; i++ {
		m.Register(recorder{mu: &mu, order: &order, id: i})
	}

	m.Shutdown()
	m.Shutdown()

	if len(order) != 3 || order[0] != 3 || order[1] != 2 || order[2] != 1 {
		t.Errorf("shutdown order = %v, want [3 2 1]", order)
	}
	select {
	case <-m.Done():
	default:
		t.Error("Done() not closed after Shutdown")
	}
	if m.Context().Err() == nil {
		t.Error("Context() not cancelled after Shutdown")
	}
}

func TestShutdownCancelsToken(t *testing.T) {
	m := NewManager(nil)
	token := models.NewCancellationToken()
	m.Register(token)

	m.Shutdown()

	if !token.IsCancelled() {
		t.Error("token.IsCancelled() = false after Shutdown, want true")
	}
}

func TestShutdownTimeout(t *testing.T) {
	m := NewManager(nil)
	m.SetTimeout(20 * time.Millisecond)
	var mu sync.Mutex
	var order []int
	m.Register(recorder{mu: &mu, order: &order, id: 1})
	m.Register(recorder{mu: &mu, order: &order, id: 2, block: time.Second})

	start := time.Now()
	m.Shutdown()
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("Shutdown() took %v, want it bounded by the component timeout", elapsed)
	}

	mu.Lock()
	defer mu.Unlock()
	if len(order) != 1 || order[0] != 1 {
		t.Errorf("completed components = %v, want [1]", order)
	}
}
