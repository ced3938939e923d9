package commit

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
	"github.com/okraft/settle/internal/targetfs"
)

// ErrPromotionConflict means both the staged work path and the final path
// exist, leaving it ambiguous which one is authoritative.
var ErrPromotionConflict = errors.New("work and final paths both exist")

// Promote renames the staged work tree to its final location. When the
// rename call reports failure it rechecks whether a previous attempt
// already completed the move; that recheck is the idempotency guarantee
// for sequential retries after a crash. On fatal failure the staged data
// remains intact in the work path.
func Promote(tfs targetfs.FS, workPath, finalPath string, em *event.Emitter) error {
	log.Info().Str("work", workPath).Str("final", finalPath).
		Msg("atomic commit enabled, promoting staged tree")

	finalExists, err := tfs.Exists(finalPath)
	if err != nil {
		return fmt.Errorf("check final path %s: %w", finalPath, err)
	}
	workExists, err := tfs.Exists(workPath)
	if err != nil {
		return fmt.Errorf("check work path %s: %w", workPath, err)
	}
	if finalExists && workExists {
		return fmt.Errorf(
			"target path %s cannot be committed to, copied data is in %s: %w",
			finalPath, workPath, ErrPromotionConflict)
	}

	ok, renameErr := tfs.Rename(workPath, finalPath)
	if renameErr != nil || !ok {
		log.Warn().AnErr("cause", renameErr).
			Msg("rename failed, perhaps data already moved, verifying")
		fe, ferr := tfs.Exists(finalPath)
		we, werr := tfs.Exists(workPath)
		ok = ferr == nil && werr == nil && fe && !we
	}
	if !ok {
		return fmt.Errorf(
			"atomic commit failed, unable to move %s to %s, staged data left in place",
			workPath, finalPath)
	}

	log.Info().Str("path", finalPath).Msg("data committed successfully")
	em.Emit(event.Event{Type: event.TreePromoted, Path: finalPath})
	return nil
}
