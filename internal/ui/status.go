package ui

import (
	"fmt"
	"io"
	"time"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/stats"
)

// ANSI escape sequences.
const (
	ansiDim       = "\033[2m"
	ansiReset     = "\033[0m"
	ansiClearLine = "\r\033[K"
)

const (
	progressBarWidth = 20
	minRedraw        = 50 * time.Millisecond // don't redraw faster than this
)

// statusPresenter renders a single live status line on a TTY, redrawn in
// place, with warnings scrolling above it.
type statusPresenter struct {
	w     io.Writer
	root  string
	width int

	line     string
	lastDraw time.Time
}

func (p *statusPresenter) Run(events <-chan event.Event) {
	for ev := range events {
		p.handle(ev)
	}
	fmt.Fprint(p.w, ansiClearLine)
}

func (p *statusPresenter) handle(ev event.Event) {
	switch ev.Type {
	case event.Progress:
		p.line = fmt.Sprintf("%s %3d%%  %s",
			ProgressBar(float64(ev.Percent)/100, progressBarWidth),
			ev.Percent, ev.Status)
		p.draw(false)
	case event.GroupDropped:
		p.scroll(fmt.Sprintf("dropped: %s: %v", StripRoot(p.root, ev.Path), ev.Error))
	case event.FileSkipped:
		p.scroll(fmt.Sprintf("skipped: %s", StripRoot(p.root, ev.Path)))
	case event.TreePromoted:
		p.scroll(fmt.Sprintf("committed: %s", ev.Path))
	case event.CommitFinished:
		p.line = ev.Status
		p.draw(true)
		fmt.Fprintln(p.w)
	}
}

// scroll prints a line above the live status and forces a redraw.
func (p *statusPresenter) scroll(msg string) {
	fmt.Fprintf(p.w, "%s%s\n", ansiClearLine, msg)
	p.draw(true)
}

func (p *statusPresenter) draw(force bool) {
	if !force && time.Since(p.lastDraw) < minRedraw {
		return
	}
	line := p.line
	if r := []rune(line); p.width > 0 && len(r) > p.width {
		line = string(r[:p.width])
	}
	fmt.Fprintf(p.w, "%s%s%s%s", ansiClearLine, ansiDim, line, ansiReset)
	p.lastDraw = time.Now()
}

func (p *statusPresenter) Summary(snap stats.Snapshot) string {
	return CompletionSummary(snap)
}
