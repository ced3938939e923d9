package commit

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/filter"
	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/stats"
	"github.com/okraft/settle/internal/targetfs"
)

// Deleter removes stale target entries with a minimum of round trips,
// using the paged bulk-delete path when the target filesystem supports
// one.
type Deleter struct {
	FS targetfs.FS

	// Protect holds filter rules whose excluded paths are kept on the
	// target even when the source listing lacks them.
	Protect *filter.Chain // optional

	Events *event.Emitter   // optional
	Stats  *stats.Collector // optional
}

// Run deletes every stale entry produced by diff and returns the number
// of entries the target filesystem reported removed. With bulk deletes,
// the per-call reported count, not the page size, is authoritative.
func (dl *Deleter) Run(diff *Differ) (int64, error) {
	pageSize := dl.FS.Caps().BulkDeleteMax
	if pageSize > 0 {
		log.Info().Int("page_size", pageSize).
			Msg("target filesystem supports bulk deletes")
	}

	var (
		page    []string
		deleted int64
	)
	flush := func() error {
		if len(page) == 0 {
			return nil
		}
		log.Info().Int("size", len(page)).Msg("initiating bulk delete")
		n, err := dl.FS.BulkDelete(page)
		if err != nil {
			return fmt.Errorf("bulk delete: %w", err)
		}
		deleted += int64(n)
		if dl.Stats != nil {
			dl.Stats.AddEntriesDeleted(int64(n))
			dl.Stats.AddBulkDeleteCalls(1)
		}
		dl.Events.Emit(event.Event{Type: event.BulkDeleteIssued, Count: int64(n)})
		page = page[:0]
		return nil
	}

	err := diff.Each(func(e listing.Entry) error {
		if dl.Protect != nil && !dl.Protect.Eligible(e.RelPath, e.IsDir) {
			log.Debug().Str("path", e.RelPath).Msg("protected by filter rules, keeping")
			return nil
		}
		if pageSize > 0 {
			page = append(page, e.AbsPath)
			if len(page) == pageSize {
				if err := flush(); err != nil {
					return err
				}
				dl.progress(diff)
			}
			return nil
		}

		if err := dl.deleteOne(e.AbsPath); err != nil {
			return err
		}
		log.Info().Str("path", e.AbsPath).Msg("deleted, missing at source")
		deleted++
		if dl.Stats != nil {
			dl.Stats.AddEntriesDeleted(1)
		}
		dl.Events.Emit(event.Event{Type: event.StaleDeleted, Path: e.AbsPath})
		dl.progress(diff)
		return nil
	})
	if err != nil {
		return deleted, err
	}
	if err := flush(); err != nil {
		return deleted, err
	}
	return deleted, nil
}

// deleteOne removes a single stale path. A delete call that reports
// failure is accepted only when a follow-up existence check confirms the
// path is absent; this tolerates eventually-consistent or already-deleted
// targets.
func (dl *Deleter) deleteOne(path string) error {
	ok, err := dl.FS.Delete(path, true)
	if err != nil {
		return fmt.Errorf("delete %s: %w", path, err)
	}
	if !ok {
		exists, err := dl.FS.Exists(path)
		if err != nil {
			return fmt.Errorf("delete %s: existence recheck: %w", path, err)
		}
		if exists {
			return fmt.Errorf("unable to delete %s", path)
		}
	}
	return nil
}

func (dl *Deleter) progress(diff *Differ) {
	pct := diff.Target.Progress()
	dl.Events.Emit(event.Event{
		Type:    event.Progress,
		Percent: pct,
		Status:  fmt.Sprintf("Deleting missing files from target. [%d%%]", pct),
	})
}
