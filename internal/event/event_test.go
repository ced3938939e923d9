package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTypeString(t *testing.T) {
	tests := []struct {
		want string
		typ  Type
	}{
		{want: "CommitStarted", typ: CommitStarted},
		{want: "FileReassembled", typ: FileReassembled},
		{want: "FileSkipped", typ: FileSkipped},
		{want: "GroupDropped", typ: GroupDropped},
		{want: "TempFileRemoved", typ: TempFileRemoved},
		{want: "DirPreserved", typ: DirPreserved},
		{want: "StaleDeleted", typ: StaleDeleted},
		{want: "BulkDeleteIssued", typ: BulkDeleteIssued},
		{want: "TreePromoted", typ: TreePromoted},
		{want: "Progress", typ: Progress},
		{want: "CommitFinished", typ: CommitFinished},
	}
	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.typ.String())
		})
	}
}

func TestTypeStringUnknown(t *testing.T) {
	assert.Equal(t, "Unknown", Type(999).String())
	assert.Equal(t, "Unknown", Type(0).String())
}

func TestEmitterNilSafe(t *testing.T) {
	var em *Emitter
	em.Emit(Event{Type: CommitStarted}) // must not panic

	em = &Emitter{}
	em.Emit(Event{Type: CommitStarted}) // nil channel, dropped
}

func TestEmitterStampsAndSends(t *testing.T) {
	ch := make(chan Event, 1)
	em := &Emitter{C: ch}

	em.Emit(Event{Type: StaleDeleted, Path: "a/stale"})

	e := <-ch
	assert.Equal(t, StaleDeleted, e.Type)
	assert.Equal(t, "a/stale", e.Path)
	require.False(t, e.Timestamp.IsZero())
	assert.WithinDuration(t, time.Now(), e.Timestamp, time.Second)
}

func TestEmitterNeverBlocks(t *testing.T) {
	ch := make(chan Event, 1)
	em := &Emitter{C: ch}

	em.Emit(Event{Type: Progress, Percent: 10})
	em.Emit(Event{Type: Progress, Percent: 20}) // full channel, dropped

	e := <-ch
	assert.Equal(t, 10, e.Percent)
	assert.Empty(t, ch)
}
