package commit

import (
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/okraft/settle/internal/event"
)

// TempFilePrefix names the per-attempt temporary files workers create in
// the work path while transferring. The attempt ID follows the prefix.
const TempFilePrefix = ".settle.tmp."

// cleanupTempFiles removes partially written temp files from previous
// failed attempts, in the work path and its parent. Failures are logged,
// never fatal.
func (o *Orchestrator) cleanupTempFiles() {
	work := o.cc.TargetWorkPath
	if work == "" {
		return
	}
	for _, dir := range []string{work, filepath.Dir(work)} {
		pattern := filepath.Join(dir, TempFilePrefix+o.cc.AttemptID+"*")
		matches, err := o.fs.Glob(pattern)
		if err != nil {
			log.Warn().Err(err).Str("pattern", pattern).Msg("unable to cleanup temp files")
			continue
		}
		for _, m := range matches {
			log.Info().Str("path", m).Msg("cleaning up")
			if ok, err := o.fs.Delete(m, false); err != nil || !ok {
				log.Warn().AnErr("cause", err).Str("path", m).Msg("temp file removal failed")
				continue
			}
			o.stats.AddTempFilesRemoved(1)
			o.events.Emit(event.Event{Type: event.TempFileRemoved, Path: m})
		}
	}
}
