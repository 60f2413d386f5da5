// Package progress reports long-running scans on a terminal.
package progress

import (
	"io"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

// Reporter counts work items. Implementations must tolerate Add after Done.
type Reporter interface {
	Add(n int)
	Done()
}

// Nop discards everything.
type Nop struct{}

func (Nop) Add(int) {}
func (Nop) Done()   {}

// OrNop returns r, or Nop when r is nil.
func OrNop(r Reporter) Reporter {
	if r == nil {
		return Nop{}
	}
	return r
}

// Spinner is an open-ended mpb counter.
type Spinner struct {
	p    *mpb.Progress
	bar  *mpb.Bar
	done bool
}

// NewSpinner draws a spinner named name on w. The total is unknown, so
// the bar shows a running count and elapsed time.
func NewSpinner(w io.Writer, name string) *Spinner {
	p := mpb.New(mpb.WithOutput(w), mpb.WithWidth(16))
	bar := p.AddSpinner(0,
		mpb.PrependDecorators(decor.Name(name+" ", decor.WC{W: len(name) + 1, C: decor.DindentRight})),
		mpb.AppendDecorators(
			decor.CurrentNoUnit("%d"),
			decor.Name(" "),
			decor.Elapsed(decor.ET_STYLE_GO),
		),
	)
	return &Spinner{p: p, bar: bar}
}

func (s *Spinner) Add(n int) {
	if s.done {
		return
	}
	s.bar.IncrBy(n)
}

// Done completes the bar and waits for the final render.
func (s *Spinner) Done() {
	if s.done {
		return
	}
	s.done = true
	s.bar.SetTotal(-1, true)
	s.p.Wait()
}

// New returns a Spinner on w when enabled, Nop otherwise.
func New(w io.Writer, name string, enabled bool) Reporter {
	if !enabled || w == nil {
		return Nop{}
	}
	return NewSpinner(w, name)
}
