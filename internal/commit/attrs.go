package commit

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/stats"
	"github.com/okraft/settle/internal/targetfs"
)

// Preserver re-applies source metadata onto target directory entries
// after data is committed. File attributes were applied during the
// transfer phase; only directories remain.
type Preserver struct {
	FS         targetfs.FS
	TargetRoot string
	Attrs      targetfs.AttrSet
	RawXattrs  bool

	// SkipRoot leaves the root of the target tree untouched; set for
	// sync/overwrite runs into an existing tree.
	SkipRoot bool

	Events *event.Emitter   // optional
	Stats  *stats.Collector // optional
}

// Run applies the selected attributes onto every directory entry of the
// source listing. A failure on any entry is propagated; it is not
// downgraded by the ignore-failures policy.
func (p *Preserver) Run(rd *listing.Reader) error {
	caps := p.FS.Caps()
	set := p.Attrs
	if !caps.Owner {
		set.User, set.Group = false, false
	}
	raw := p.RawXattrs
	if !caps.Xattrs {
		set.Xattr, raw = false, false
	}

	root := filepath.Clean(p.TargetRoot)
	var preserved int64
	for {
		e, err := rd.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}
		if !e.IsDir {
			continue
		}

		target := e.TargetPath(p.TargetRoot)
		if p.SkipRoot && filepath.Clean(target) == root {
			continue
		}

		attrs := targetfs.Attrs{
			Mode:    e.Mode,
			UID:     e.UID,
			GID:     e.GID,
			ModTime: e.ModTime,
			Xattrs:  e.Xattrs,
		}
		if err := p.FS.ApplyAttrs(target, attrs, set, raw); err != nil {
			return fmt.Errorf("preserve attributes on %s: %w", target, err)
		}

		preserved++
		if p.Stats != nil {
			p.Stats.AddDirsPreserved(1)
		}
		p.Events.Emit(event.Event{Type: event.DirPreserved, Path: e.RelPath})
		pct := rd.Progress()
		p.Events.Emit(event.Event{
			Type:    event.Progress,
			Percent: pct,
			Status:  fmt.Sprintf("Preserving status on directory entries. [%d%%]", pct),
		})
	}

	log.Info().Int64("dirs", preserved).Stringer("attrs", p.Attrs).
		Msg("preserved status on directory entries")
	return nil
}
