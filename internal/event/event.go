package event

import "time"

// Type identifies the kind of event.
type Type int

const (
	CommitStarted Type = iota + 1
	FileReassembled
	FileSkipped
	GroupDropped
	TempFileRemoved
	DirPreserved
	StaleDeleted
	BulkDeleteIssued
	TreePromoted
	Progress
	CommitFinished
)

var typeNames = [...]string{
	CommitStarted:    "CommitStarted",
	FileReassembled:  "FileReassembled",
	FileSkipped:      "FileSkipped",
	GroupDropped:     "GroupDropped",
	TempFileRemoved:  "TempFileRemoved",
	DirPreserved:     "DirPreserved",
	StaleDeleted:     "StaleDeleted",
	BulkDeleteIssued: "BulkDeleteIssued",
	TreePromoted:     "TreePromoted",
	Progress:         "Progress",
	CommitFinished:   "CommitFinished",
}

func (t Type) String() string {
	if int(t) > 0 && int(t) < len(typeNames) {
		return typeNames[t]
	}
	return "Unknown"
}

// Event represents a single progress event from a commit phase.
type Event struct {
	Type      Type
	Timestamp time.Time
	Path      string // path the event concerns
	Count     int64  // entries affected (bulk deletes, cleanup)
	Percent   int    // listing scan progress (Progress events)
	Status    string // human-readable phase status
	Error     error
}

// Emitter sends events to an optional channel without ever blocking a
// commit phase. A nil Emitter or nil channel drops everything.
type Emitter struct {
	C chan<- Event
}

// Emit stamps and sends e, dropping it if the channel is full.
func (em *Emitter) Emit(e Event) {
	if em == nil || em.C == nil {
		return
	}
	e.Timestamp = time.Now()
	select {
	case em.C <- e:
	default:
	}
}
