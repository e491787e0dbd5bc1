package main

import (
	"fmt"
	"io"
	"path/filepath"
	"sync"

	"photo-enhancer/internal/models"
)

// consoleProgress prints progress and per-photo lines from its own goroutine. The worker
// only ever does non-blocking sends, so a slow terminal never holds up processing.
type consoleProgress struct {
	*models.ChannelSink
	items chan models.ItemOutcome
	out   io.Writer
	label string
	wg    sync.WaitGroup
}

// newConsoleProgress buffers up to items per-photo lines. Lines beyond that are dropped
// rather than waited on.
func newConsoleProgress(out io.Writer, label string, items int) *consoleProgress {
	if items < 1 {
		items = 1
	}
	p := &consoleProgress{
		ChannelSink: models.NewChannelSink(1),
		items:       make(chan models.ItemOutcome, items),
		out:         out,
		label:       label,
	}
	p.wg.Add(1)
	go p.print()
	return p
}

func (p *consoleProgress) print() {
	defer p.wg.Done()

	updates, items := p.Updates(), p.items
	for updates != nil || items != nil {
		select {
		case u, ok := <-updates:
			if !ok {
				updates = nil
				continue
			}
			fmt.Fprintf(p.out, "\r%s %d/%d (%.0f%%)", p.label, u.Done, u.Total, u.Percent())
		case item, ok := <-items:
			if !ok {
				items = nil
				continue
			}
			if item.Status == models.ItemWritten {
				fmt.Fprintf(p.out, "\r  %-8s %s -> %s\n", item.Status, filepath.Base(item.Input), item.Output)
			} else {
				fmt.Fprintf(p.out, "\r  %-8s %s: %v\n", item.Status, filepath.Base(item.Input), item.Err)
			}
		}
	}
	fmt.Fprintln(p.out)
}

// OnItem queues one line per finished photo.
func (p *consoleProgress) OnItem(item models.ItemOutcome) {
	select {
	case p.items <- item:
	default:
	}
}

// Finish closes both streams and waits for the printer to drain them. Call it only after
// the worker has returned.
func (p *consoleProgress) Finish() {
	p.Close()
	close(p.items)
	p.wg.Wait()
}
