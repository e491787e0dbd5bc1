package models

// Progress is a snapshot of how many units of a job are done.
type Progress struct {
	Done  int
	Total int
}

// Percent returns Done/Total as a percentage, or 0 when the total is unknown.
func (p Progress) Percent() float64 {
	if p.Total <= 0 {
		return 0
	}
	return float64(p.Done) / float64(p.Total) * 100
}

// ProgressSink receives progress notifications from the worker. Implementations must return
// promptly; the worker never waits on them.
type ProgressSink interface {
	OnProgress(p Progress)
}

// ItemSink is implemented by progress sinks that also want per-photo outcomes.
type ItemSink interface {
	OnItem(item ItemOutcome)
}

type ProgressFunc func(p Progress)

func (f ProgressFunc) OnProgress(p Progress) { f(p) }

// ChannelSink delivers progress over a buffered channel without ever blocking the sender.
// When the buffer is full the oldest pending update is dropped in favour of the newest one.
type ChannelSink struct {
	ch chan Progress
}

func NewChannelSink(buffer int) *ChannelSink {
	if buffer < 1 {
		buffer = 1
	}
	return &ChannelSink{ch: make(chan Progress, buffer)}
}

func (s *ChannelSink) OnProgress(p Progress) {
	for {
		select {
		case s.ch <- p:
			return
		default:
		}
		select {
		case <-s.ch:
		default:
		}
	}
}

// Updates is the receive side for the reporting goroutine.
func (s *ChannelSink) Updates() <-chan Progress {
	return s.ch
}

// Close ends the update stream. Call it only after the worker has returned.
func (s *ChannelSink) Close() {
	close(s.ch)
}
