package timing

import (
	"context"
	"sort"
	"sync"
	"time"
)

type timingKey struct{}

type TimingInfo struct {
	Operation string
	StartTime time.Time
}

// Summary aggregates every recorded duration of one operation.
type Summary struct {
	Operation string        `json:"operation"`
	Count     int           `json:"count"`
	Total     time.Duration `json:"total"`
	Average   time.Duration `json:"average"`
	Max       time.Duration `json:"max"`
}

type Tracker struct {
	timings map[string][]time.Duration
	mu      sync.RWMutex
}

func NewTracker() *Tracker {
	return &Tracker{
		timings: make(map[string][]time.Duration),
	}
}

// StartTiming returns a child of ctx carrying the start time of operation.
func (tt *Tracker) StartTiming(ctx context.Context, operation string) context.Context {
	if tt == nil {
		return ctx
	}

	return context.WithValue(ctx, timingKey{}, TimingInfo{
		Operation: operation,
		StartTime: time.Now(),
	})
}

// EndTiming records the elapsed time since the matching StartTiming.
func (tt *Tracker) EndTiming(ctx context.Context) time.Duration {
	if tt == nil {
		return 0
	}

	timingInfo, ok := ctx.Value(timingKey{}).(TimingInfo)
	if !ok {
		return 0
	}

	duration := time.Since(timingInfo.StartTime)
	tt.Record(timingInfo.Operation, duration)
	return duration
}

// Record adds a measured duration directly.
func (tt *Tracker) Record(operation string, duration time.Duration) {
	if tt == nil {
		return
	}

	tt.mu.Lock()
	defer tt.mu.Unlock()
	tt.timings[operation] = append(tt.timings[operation], duration)
}

// Summaries returns one entry per operation, sorted by total time descending.
func (tt *Tracker) Summaries() []Summary {
	if tt == nil {
		return nil
	}
	tt.mu.RLock()
	defer tt.mu.RUnlock()

	result := make([]Summary, 0, len(tt.timings))
	for operation, timings := range tt.timings {
		s := Summary{Operation: operation, Count: len(timings)}
		for _, d := range timings {
			s.Total += d
			if d > s.Max {
				s.Max = d
			}
		}
		if s.Count > 0 {
			s.Average = s.Total / time.Duration(s.Count)
		}
		result = append(result, s)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Total == result[j].Total {
			return result[i].Operation < result[j].Operation
		}
		return result[i].Total > result[j].Total
	})
	return result
}
