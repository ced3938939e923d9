package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/okraft/settle/internal/event"
)

func TestStatusPresenterRedrawsInPlace(t *testing.T) {
	var out strings.Builder
	p := &statusPresenter{w: &out, width: 120}

	ch := make(chan event.Event, 3)
	ch <- event.Event{Type: event.Progress, Percent: 50, Status: "Deleting missing files from target. [50%]"}
	ch <- event.Event{Type: event.FileSkipped, Path: "a/g"}
	ch <- event.Event{Type: event.CommitFinished, Status: "Commit Successful"}
	close(ch)
	p.Run(ch)

	got := out.String()
	assert.Contains(t, got, "50%")
	assert.Contains(t, got, ansiClearLine)
	assert.Contains(t, got, "skipped: a/g\n")
	assert.Contains(t, got, "Commit Successful")
}

func TestStatusPresenterTruncatesToWidth(t *testing.T) {
	var out strings.Builder
	p := &statusPresenter{w: &out, width: 10}
	p.line = strings.Repeat("x", 40)
	p.draw(true)

	body := strings.TrimPrefix(out.String(), ansiClearLine)
	body = strings.TrimPrefix(body, ansiDim)
	body = strings.TrimSuffix(body, ansiReset)
	assert.Len(t, body, 10)
}
