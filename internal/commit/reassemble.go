package commit

import (
	"errors"
	"fmt"
	"io"
	"io/fs"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/stats"
	"github.com/okraft/settle/internal/targetfs"
)

// ConcatOutcome reports how a completed chunk group was finalized.
type ConcatOutcome int

const (
	// Concatenated means several chunks were combined and renamed into
	// the logical path.
	Concatenated ConcatOutcome = iota
	// InPlace means a single-member group was already at its final
	// position; no filesystem call was needed.
	InPlace
	// Skipped means an expected chunk object was missing: the transfer
	// phase decided not to copy this file, and the commit honors that.
	Skipped
)

// InconsistencyError reports a chunk entry that does not follow its
// predecessor in the source listing.
type InconsistencyError struct {
	Prev, Cur listing.Entry
}

func (e *InconsistencyError) Error() string {
	return fmt.Sprintf(
		"inconsistent listing: chunk entry %s [%d+%d] does not follow %s [%d+%d]",
		e.Cur.RelPath, e.Cur.ChunkOffset, e.Cur.ChunkLength,
		e.Prev.RelPath, e.Prev.ChunkOffset, e.Prev.ChunkLength,
	)
}

// Reassembler turns the chunk files workers staged for each logical file
// into exactly one object at the logical path under WorkRoot.
type Reassembler struct {
	FS             targetfs.FS
	WorkRoot       string
	IgnoreFailures bool
	Journal        *Journal         // optional; skips groups a prior attempt completed
	Events         *event.Emitter   // optional
	Stats          *stats.Collector // optional
}

// Run consumes the source listing in order, accumulating consecutive
// chunk entries of the same logical file and finalizing each group when
// its last chunk is observed. An out-of-order or non-contiguous entry is
// fatal unless IgnoreFailures, in which case the open group is dropped
// and reassembly continues with the conflicting entry.
func (r *Reassembler) Run(rd *listing.Reader) error {
	var (
		chunks []string
		open   *listing.Entry
	)

	for {
		e, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if e.IsDir {
			continue
		}

		chunks = append(chunks, e.ChunkPath(r.WorkRoot))

		if e.LastChunk() {
			if err := r.finalize(e, chunks); err != nil {
				if !r.IgnoreFailures {
					return err
				}
				log.Warn().Err(err).Str("path", e.RelPath).
					Msg("reassembly failed, continuing")
				if r.Stats != nil {
					r.Stats.AddGroupsDropped(1)
				}
				r.Events.Emit(event.Event{Type: event.GroupDropped, Path: e.RelPath, Error: err})
			}
			chunks, open = chunks[:0], nil
			continue
		}

		// Mid-file chunk: it must extend the open group.
		if open == nil {
			cur := e
			open = &cur
			continue
		}
		if e.RelPath != open.RelPath ||
			e.ChunkOffset != open.ChunkOffset+open.ChunkLength {
			ierr := &InconsistencyError{Prev: *open, Cur: e}
			if !r.IgnoreFailures {
				return ierr
			}
			log.Warn().Err(ierr).Msg("dropping chunk group")
			if r.Stats != nil {
				r.Stats.AddGroupsDropped(1)
			}
			r.Events.Emit(event.Event{Type: event.GroupDropped, Path: open.RelPath, Error: ierr})

			// The conflicting entry starts a fresh group.
			chunks = append(chunks[:0], e.ChunkPath(r.WorkRoot))
			cur := e
			open = &cur
			continue
		}
		open.ChunkOffset = e.ChunkOffset
		open.ChunkLength = e.ChunkLength
	}
	return nil
}

func (r *Reassembler) finalize(last listing.Entry, chunks []string) error {
	target := last.TargetPath(r.WorkRoot)

	if r.Journal != nil && r.Journal.IsReassembled(last.RelPath, last.Size) {
		log.Debug().Str("path", last.RelPath).Msg("already reassembled by a prior attempt")
		return nil
	}

	outcome, err := r.concat(target, chunks)
	if err != nil {
		return fmt.Errorf("reassemble %s: %w", target, err)
	}

	switch outcome {
	case Skipped:
		if r.Stats != nil {
			r.Stats.AddFilesSkipped(1)
		}
		r.Events.Emit(event.Event{Type: event.FileSkipped, Path: last.RelPath})
		return nil
	case Concatenated:
		if r.Journal != nil {
			if err := r.Journal.MarkReassembled(last.RelPath, last.Size); err != nil {
				log.Warn().Err(err).Str("path", last.RelPath).Msg("journal write failed")
			}
		}
	case InPlace:
	}

	if r.Stats != nil {
		r.Stats.AddFilesReassembled(1)
		r.Stats.AddBytesReassembled(last.Size)
	}
	r.Events.Emit(event.Event{Type: event.FileReassembled, Path: last.RelPath, Count: int64(len(chunks))})
	return nil
}

func (r *Reassembler) concat(target string, chunks []string) (ConcatOutcome, error) {
	if len(chunks) == 1 {
		// Unsplit file: the worker staged it at the logical path already.
		return InPlace, nil
	}

	first, rest := chunks[0], chunks[1:]
	if err := r.FS.Concat(first, rest); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Skipped, nil
		}
		return 0, err
	}

	// Move the combined object to the logical path, replacing any
	// previous object there.
	if exists, err := r.FS.Exists(target); err == nil && exists {
		if _, err := r.FS.Delete(target, true); err != nil {
			return 0, fmt.Errorf("replace %s: %w", target, err)
		}
	}
	ok, err := r.FS.Rename(first, target)
	if err == nil && !ok {
		err = errors.New("rename reported failure")
	}
	if err != nil {
		return 0, fmt.Errorf("rename %s to %s: %w", first, target, err)
	}
	return Concatenated, nil
}
