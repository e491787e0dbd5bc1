// Package shutdown turns process signals into an ordered stop of registered components.
package shutdown

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"photo-enhancer/internal/logger"
)

const (
	component = "ShutdownManager"

	DefaultComponentTimeout = 10 * time.Second
)

// Shutdownable is implemented by anything that must be stopped on exit, such as a
// job's cancellation token.
type Shutdownable interface {
	Shutdown()
}

type Manager struct {
	components []Shutdownable
	logger     logger.Logger
	timeout    time.Duration
	mu         sync.Mutex
	done       chan struct{}
	ctx        context.Context
	cancel     context.CancelFunc
	signals    chan os.Signal
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	ctx, cancel := context.WithCancel(context.Background())

	return &Manager{
		logger:  log,
		timeout: DefaultComponentTimeout,
		done:    make(chan struct{}),
		ctx:     ctx,
		cancel:  cancel,
	}
}

// SetTimeout bounds how long a single component may take to stop.
func (m *Manager) SetTimeout(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d > 0 {
		m.timeout = d
	}
}

func (m *Manager) Register(c Shutdownable) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.components = append(m.components, c)
}

// Listen starts shutdown on the first SIGINT or SIGTERM. A second signal exits immediately.
func (m *Manager) Listen() {
	m.mu.Lock()
	if m.signals != nil {
		m.mu.Unlock()
		return
	}
	m.signals = make(chan os.Signal, 2)
	m.mu.Unlock()

	signal.Notify(m.signals, os.Interrupt, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-m.signals:
			m.logger.Info(component, "shutdown signal received", map[string]interface{}{
				"signal": sig.String(),
			})
			go m.Shutdown()
		case <-m.done:
			return
		}

		select {
		case sig := <-m.signals:
			m.logger.Warning(component, "second signal, exiting", map[string]interface{}{
				"signal": sig.String(),
			})
			os.Exit(130)
		case <-m.ctx.Done():
		}
	}()
}

// Stop detaches from process signals without running the shutdown sequence.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.signals != nil {
		signal.Stop(m.signals)
	}
}

// Shutdown stops registered components in reverse registration order. Only the first call
// has any effect.
func (m *Manager) Shutdown() {
	m.mu.Lock()
	select {
	case <-m.done:
		m.mu.Unlock()
		return
	default:
		close(m.done)
	}
	components := append([]Shutdownable(nil), m.components...)
	timeout := m.timeout
	m.mu.Unlock()

	m.logger.Info(component, "shutdown sequence initiated", map[string]interface{}{
		"components": len(components),
	})

	m.cancel()

	for i := len(components) - 1; i >= 0; i-- {
		c := components[i]

		stopped := make(chan struct{})
		go func() {
			defer close(stopped)
			c.Shutdown()
		}()

		select {
		case <-stopped:
		case <-time.After(timeout):
			m.logger.Warning(component, "component shutdown timeout", map[string]interface{}{
				"component_index": i,
			})
		}
	}

	m.logger.Debug(component, "shutdown sequence completed", nil)
}

// Context is cancelled when shutdown begins.
func (m *Manager) Context() context.Context {
	return m.ctx
}

func (m *Manager) Done() <-chan struct{} {
	return m.done
}
