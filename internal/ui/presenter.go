// Package ui renders commit progress for the CLI: a quiet mode, a plain
// line-per-event mode for pipes and logs, and a single-line live status
// for interactive terminals.
package ui

import (
	"io"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/stats"
)

// Presenter consumes commit events and displays progress.
type Presenter interface {
	// Run consumes events until the channel closes. Blocks until done.
	Run(events <-chan event.Event)
	// Summary returns the final summary line.
	Summary(snap stats.Snapshot) string
}

// Config configures a Presenter.
type Config struct {
	Writer    io.Writer
	ErrWriter io.Writer
	Root      string // prefix stripped from displayed paths
	IsTTY     bool
	Quiet     bool
	Verbose   bool
}

// NewPresenter picks the presenter for the run environment.
//
//nolint:ireturn // factory function returns interface by design
func NewPresenter(cfg Config) Presenter {
	if cfg.Quiet {
		return &quietPresenter{}
	}
	if cfg.IsTTY {
		return &statusPresenter{
			w:     cfg.ErrWriter, // the live line renders to the TTY
			root:  cfg.Root,
			width: TermWidth(2),
		}
	}
	return &plainPresenter{
		w:       cfg.Writer,
		errW:    cfg.ErrWriter,
		root:    cfg.Root,
		verbose: cfg.Verbose,
	}
}
