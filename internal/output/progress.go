package output

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"
)

// Progress periodically logs how many of a known total have been
// processed, using carriage-return overwrite when stdout is a
// terminal and plain newline-separated lines otherwise. Grounded on
// the teacher's phash-worker progress ticker (500ms cadence, atomic
// counters).
type Progress struct {
	label     string
	total     int
	processed atomic.Int64
	done      chan struct{}
}

// NewProgress starts a background ticker reporting progress toward
// total under label. Call Stop when the work finishes.
func NewProgress(label string, total int) *Progress {
	p := &Progress{label: label, total: total, done: make(chan struct{})}
	go p.run()
	return p
}

// Add increments the processed count by n.
func (p *Progress) Add(n int) {
	p.processed.Add(int64(n))
}

// Stop halts the ticker and prints a final line.
func (p *Progress) Stop() {
	close(p.done)
	p.report()
	if IsTerminal(os.Stdout) {
		fmt.Fprintln(os.Stdout)
	}
}

func (p *Progress) run() {
	t := time.NewTicker(500 * time.Millisecond)
	defer t.Stop()
	for {
		select {
		case <-t.C:
			p.report()
		case <-p.done:
			return
		}
	}
}

func (p *Progress) report() {
	n := p.processed.Load()
	if IsTerminal(os.Stdout) {
		fmt.Fprintf(os.Stdout, "\r%s: %d/%d", p.label, n, p.total)
	} else {
		fmt.Fprintf(os.Stdout, "%s: %d/%d\n", p.label, n, p.total)
	}
}
