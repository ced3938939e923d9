package ui

import (
	"fmt"
	"io"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/stats"
)

// plainPresenter writes one line per commit event to stdout and phase
// progress to stderr. Suitable for pipes and job logs.
type plainPresenter struct {
	w       io.Writer
	errW    io.Writer
	root    string
	verbose bool

	lastPct    int
	lastStatus string
}

func (p *plainPresenter) Run(events <-chan event.Event) {
	for ev := range events {
		p.handle(ev)
	}
}

func (p *plainPresenter) handle(ev event.Event) {
	path := StripRoot(p.root, ev.Path)
	switch ev.Type {
	case event.FileReassembled:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  reassembled (%d chunks)\n", path, ev.Count)
		}
	case event.FileSkipped:
		fmt.Fprintf(p.w, "%s  skipped, not copied by the transfer phase\n", path)
	case event.GroupDropped:
		fmt.Fprintf(p.errW, "dropped: %s: %v\n", path, ev.Error)
	case event.StaleDeleted:
		fmt.Fprintf(p.w, "delete: %s\n", path)
	case event.BulkDeleteIssued:
		fmt.Fprintf(p.w, "bulk delete: %s entries\n", FormatCount(ev.Count))
	case event.TreePromoted:
		fmt.Fprintf(p.w, "committed: %s\n", ev.Path)
	case event.TempFileRemoved, event.DirPreserved:
		if p.verbose {
			fmt.Fprintf(p.w, "%s  %s\n", path, ev.Type)
		}
	case event.Progress:
		// Repeat a phase status only when its percentage moves.
		if ev.Status != p.lastStatus || ev.Percent != p.lastPct {
			fmt.Fprintf(p.errW, "%s\n", ev.Status)
			p.lastStatus, p.lastPct = ev.Status, ev.Percent
		}
	case event.CommitFinished:
		fmt.Fprintf(p.errW, "%s\n", ev.Status)
	}
}

func (p *plainPresenter) Summary(snap stats.Snapshot) string {
	return CompletionSummary(snap)
}
