// Package commit implements the commit phase of a distributed copy job:
// reassembling chunked uploads, pruning target entries that are missing
// at the source, promoting the staged tree into its final location, and
// the ordering and cleanup policy that makes the whole operation safely
// re-runnable.
package commit

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/filter"
	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/stats"
	"github.com/okraft/settle/internal/targetfs"
)

// Phase is the commit capability a job-lifecycle driver invokes. Drivers
// compose a Phase rather than subclassing a generic committer.
type Phase interface {
	// Commit runs the full commit sequence. There is no cancellation
	// mid-commit: once started it runs to completion or failure.
	Commit() error
	// Abort discards the attempt, cleaning up temporary state while
	// leaving staged data in the work path.
	Abort() error
}

// Options wires the orchestrator's external collaborators.
type Options struct {
	// BaseCommit finalizes per-task outputs once reassembly is done.
	// Nil when workers finalize their own outputs.
	BaseCommit func() error

	// BuildTargetListing captures a fresh listing of the final target
	// tree at the given path. Required when DeleteMissing is set.
	BuildTargetListing func(path string) error

	Events  chan<- event.Event
	Stats   *stats.Collector
	Journal *Journal
}

// Orchestrator sequences the commit phases under one failure policy and
// performs terminal cleanup of temporary state regardless of outcome.
type Orchestrator struct {
	cc           Context
	fs           targetfs.FS
	base         func() error
	buildListing func(string) error
	events       *event.Emitter
	stats        *stats.Collector
	journal      *Journal
	status       string
}

// Compile-time capability check.
var _ Phase = (*Orchestrator)(nil)

// New creates an orchestrator for one commit attempt. Concurrent commits
// against the same target path are unsafe; the idempotency of promotion
// covers sequential retries only.
func New(cc Context, tfs targetfs.FS, opts Options) *Orchestrator {
	st := opts.Stats
	if st == nil {
		st = stats.NewCollector()
	}
	return &Orchestrator{
		cc:           cc,
		fs:           tfs,
		base:         opts.BaseCommit,
		buildListing: opts.BuildTargetListing,
		events:       &event.Emitter{C: opts.Events},
		stats:        st,
		journal:      opts.Journal,
	}
}

// Commit runs reassembly, base commit, temp-file cleanup, attribute
// preservation, then either stale-entry deletion or atomic promotion,
// and finally removes the meta folder whether or not the earlier phases
// succeeded. Phase errors take priority over cleanup errors in what the
// caller sees.
func (o *Orchestrator) Commit() (err error) {
	log.Info().Str("work", o.cc.TargetWorkPath).Msg("committing staged copy output")
	o.events.Emit(event.Event{Type: event.CommitStarted, Path: o.cc.TargetWorkPath})

	defer func() {
		o.cleanupMeta()
		o.finishJournal(err == nil)
		if err != nil {
			o.status = fmt.Sprintf("Commit failed: %v", err)
		} else {
			o.status = "Commit Successful"
		}
		o.events.Emit(event.Event{Type: event.CommitFinished, Status: o.status, Error: err})
	}()

	if err = o.reassemble(); err != nil {
		return err
	}
	if o.base != nil {
		if err = o.base(); err != nil {
			return fmt.Errorf("base commit: %w", err)
		}
	}
	o.cleanupTempFiles()
	if !o.cc.PreserveAttrs.Empty() || o.cc.PreserveRawXattrs {
		if err = o.preserveDirAttributes(); err != nil {
			return err
		}
	}
	if o.cc.DeleteMissing {
		if err = o.deleteMissing(); err != nil {
			return err
		}
	} else if o.cc.AtomicCommit {
		if err = Promote(o.fs, o.cc.TargetWorkPath, o.cc.TargetFinalPath, o.events); err != nil {
			return err
		}
	}
	return nil
}

// Abort discards the attempt: temp files and the meta folder are
// removed, staged data stays in the work path for inspection or retry.
func (o *Orchestrator) Abort() error {
	o.cleanupTempFiles()
	o.cleanupMeta()
	o.finishJournal(false)
	o.status = "Commit Aborted"
	return nil
}

// Status returns the terminal status string of the attempt.
func (o *Orchestrator) Status() string { return o.status }

// Stats returns a snapshot of the attempt's counters.
func (o *Orchestrator) Stats() stats.Snapshot { return o.stats.Snapshot() }

func (o *Orchestrator) reassemble() error {
	if o.cc.SourceListingPath == "" {
		return nil
	}
	log.Info().Msg("reassembling file chunks")

	rd, err := listing.Open(o.cc.SourceListingPath)
	if err != nil {
		return err
	}
	defer rd.Close()

	r := &Reassembler{
		FS:             o.fs,
		WorkRoot:       o.cc.TargetWorkPath,
		IgnoreFailures: o.cc.IgnoreFailures,
		Journal:        o.journal,
		Events:         o.events,
		Stats:          o.stats,
	}
	return r.Run(rd)
}

func (o *Orchestrator) preserveDirAttributes() error {
	rd, err := listing.Open(o.cc.SourceListingPath)
	if err != nil {
		return err
	}
	defer rd.Close()

	p := &Preserver{
		FS:         o.fs,
		TargetRoot: o.cc.TargetWorkPath,
		Attrs:      o.cc.PreserveAttrs,
		RawXattrs:  o.cc.PreserveRawXattrs,
		SkipRoot:   o.cc.SyncFolders || o.cc.Overwrite,
		Events:     o.events,
		Stats:      o.stats,
	}
	return p.Run(rd)
}

func (o *Orchestrator) deleteMissing() error {
	log.Info().Msg("delete-missing enabled, removing target entries missing at source")
	if o.buildListing == nil {
		return errors.New("delete-missing requires a target listing builder")
	}

	var protect *filter.Chain
	if o.cc.FiltersPath != "" {
		var err error
		protect, err = filter.Load(o.cc.FiltersPath)
		if err != nil {
			return err
		}
		log.Info().Int("rules", protect.Len()).Str("path", o.cc.FiltersPath).
			Msg("loaded deletion filter rules")
	}

	sortedSrc, err := listing.SortFile(o.cc.SourceListingPath)
	if err != nil {
		return fmt.Errorf("sort source listing: %w", err)
	}

	targetListing := filepath.Join(filepath.Dir(o.cc.SourceListingPath), "target_listing")
	if err := o.buildListing(targetListing); err != nil {
		return fmt.Errorf("build target listing: %w", err)
	}
	sortedTgt, err := listing.SortFile(targetListing)
	if err != nil {
		return fmt.Errorf("sort target listing: %w", err)
	}

	src, err := listing.Open(sortedSrc)
	if err != nil {
		return err
	}
	defer src.Close()
	tgt, err := listing.Open(sortedTgt)
	if err != nil {
		return err
	}
	defer tgt.Close()

	deleter := &Deleter{FS: o.fs, Protect: protect, Events: o.events, Stats: o.stats}
	n, err := deleter.Run(&Differ{Source: src, Target: tgt})
	if err != nil {
		return err
	}
	log.Info().Int64("entries", n).Str("target", o.cc.TargetFinalPath).
		Msg("deleted entries missing at source")
	return nil
}

// cleanupMeta removes the meta folder (listings, temp state). Failures
// are logged, never fatal: an in-flight phase error must win.
func (o *Orchestrator) cleanupMeta() {
	if o.cc.MetaFolder == "" {
		return
	}
	log.Info().Str("path", o.cc.MetaFolder).Msg("cleaning up temporary work folder")
	if _, err := o.fs.Delete(o.cc.MetaFolder, true); err != nil {
		log.Error().Err(err).Str("path", o.cc.MetaFolder).Msg("meta folder cleanup failed")
	}
}

func (o *Orchestrator) finishJournal(success bool) {
	if o.journal == nil {
		return
	}
	if err := o.journal.Close(); err != nil {
		log.Warn().Err(err).Msg("journal close failed")
	}
	if success {
		if err := o.journal.Remove(); err != nil {
			log.Warn().Err(err).Msg("journal remove failed")
		}
	}
}
