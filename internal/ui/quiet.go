package ui

import (
	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/stats"
)

// quietPresenter drains events and produces no output.
type quietPresenter struct{}

func (p *quietPresenter) Run(events <-chan event.Event) {
	for range events {
	}
}

func (p *quietPresenter) Summary(stats.Snapshot) string {
	return ""
}
