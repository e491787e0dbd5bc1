package memory

import (
	"sort"
	"sync"
	"time"

	"photo-enhancer/internal/logger"
)

// Manager accounts for live Mats by tag. It implements safe.MemoryTracker.
type Manager struct {
	allocations map[uint64]*AllocationRecord
	mu          sync.RWMutex
	stats       Stats
	logger      logger.Logger
}

type AllocationRecord struct {
	Tag       string
	CreatedAt time.Time
	Size      int64
}

type Stats struct {
	TotalAllocated int64
	TotalReleased  int64
	ActiveMats     int64
	PeakActive     int64
	AllocCount     int64
}

func NewManager(log logger.Logger) *Manager {
	if log == nil {
		log = logger.Nop()
	}
	return &Manager{
		allocations: make(map[uint64]*AllocationRecord),
		logger:      log,
	}
}

func (m *Manager) TrackAllocation(id uint64, size int64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.allocations[id] = &AllocationRecord{Tag: tag, CreatedAt: time.Now(), Size: size}
	m.stats.TotalAllocated += size
	m.stats.AllocCount++
	m.stats.ActiveMats++
	if m.stats.ActiveMats > m.stats.PeakActive {
		m.stats.PeakActive = m.stats.ActiveMats
	}
}

func (m *Manager) TrackDeallocation(id uint64, tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	record, exists := m.allocations[id]
	if !exists {
		return
	}
	delete(m.allocations, id)
	m.stats.TotalReleased += record.Size
	m.stats.ActiveMats--
}

func (m *Manager) GetStats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// ActiveTags returns the tags of Mats that are still open, sorted.
func (m *Manager) ActiveTags() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	tags := make([]string, 0, len(m.allocations))
	for _, record := range m.allocations {
		tags = append(tags, record.Tag)
	}
	sort.Strings(tags)
	return tags
}

// Report logs the current accounting; open Mats are reported as a warning.
func (m *Manager) Report(component string) {
	stats := m.GetStats()
	fields := map[string]interface{}{
		"active_mats":  stats.ActiveMats,
		"peak_active":  stats.PeakActive,
		"allocations":  stats.AllocCount,
		"allocated_mb": stats.TotalAllocated / 1024 / 1024,
		"released_mb":  stats.TotalReleased / 1024 / 1024,
	}

	if stats.ActiveMats > 0 {
		fields["open_tags"] = m.ActiveTags()
		m.logger.Warning(component, "Mats still open", fields)
		return
	}
	m.logger.Debug(component, "Mat accounting", fields)
}
