package ui

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/stats"
)

func runPlain(verbose bool, evs ...event.Event) (string, string) {
	var out, errOut strings.Builder
	p := &plainPresenter{w: &out, errW: &errOut, root: "/dst", verbose: verbose}

	ch := make(chan event.Event, len(evs))
	for _, ev := range evs {
		ch <- ev
	}
	close(ch)
	p.Run(ch)
	return out.String(), errOut.String()
}

func TestPlainDeletes(t *testing.T) {
	out, _ := runPlain(false,
		event.Event{Type: event.StaleDeleted, Path: "/dst/a/stale"},
		event.Event{Type: event.BulkDeleteIssued, Count: 1000},
	)
	assert.Contains(t, out, "delete: a/stale\n")
	assert.Contains(t, out, "bulk delete: 1,000 entries\n")
}

func TestPlainWarningsGoToStderr(t *testing.T) {
	out, errOut := runPlain(false,
		event.Event{Type: event.GroupDropped, Path: "a/f", Error: errors.New("gap at offset 10")},
		event.Event{Type: event.FileSkipped, Path: "a/g"},
	)
	assert.Contains(t, errOut, "dropped: a/f: gap at offset 10\n")
	assert.Contains(t, out, "a/g  skipped")
}

func TestPlainProgressDeduplicated(t *testing.T) {
	_, errOut := runPlain(false,
		event.Event{Type: event.Progress, Percent: 10, Status: "Deleting missing files from target. [10%]"},
		event.Event{Type: event.Progress, Percent: 10, Status: "Deleting missing files from target. [10%]"},
		event.Event{Type: event.Progress, Percent: 20, Status: "Deleting missing files from target. [20%]"},
	)
	assert.Equal(t, 2, strings.Count(errOut, "Deleting missing files"))
}

func TestPlainVerboseShowsReassembly(t *testing.T) {
	quietOut, _ := runPlain(false, event.Event{Type: event.FileReassembled, Path: "a/f", Count: 4})
	assert.Empty(t, quietOut)

	verboseOut, _ := runPlain(true, event.Event{Type: event.FileReassembled, Path: "a/f", Count: 4})
	assert.Contains(t, verboseOut, "a/f  reassembled (4 chunks)\n")
}

func TestQuietPresenterSilent(t *testing.T) {
	p := NewPresenter(Config{Quiet: true})
	ch := make(chan event.Event, 1)
	ch <- event.Event{Type: event.StaleDeleted, Path: "x"}
	close(ch)
	p.Run(ch)
	assert.Empty(t, p.Summary(stats.Snapshot{FilesReassembled: 5}))
}

func TestNewPresenterSelection(t *testing.T) {
	assert.IsType(t, &quietPresenter{}, NewPresenter(Config{Quiet: true}))
	assert.IsType(t, &plainPresenter{}, NewPresenter(Config{}))
	assert.IsType(t, &statusPresenter{}, NewPresenter(Config{IsTTY: true}))
}
