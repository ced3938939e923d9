package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/okraft/settle/internal/stats"
)

// FormatCount formats an integer with comma separators.
func FormatCount(n int64) string {
	return humanize.Comma(n)
}

// FormatBytes formats a byte count as a human-readable size.
func FormatBytes(n int64) string {
	if n < 0 {
		n = 0
	}
	return humanize.Bytes(uint64(n))
}

// FormatDuration formats elapsed time concisely.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%dh %02dm %02ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm %02ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}

// ProgressBar renders a progress bar of the given width using ▪/□
// characters. pct is in [0, 1].
func ProgressBar(pct float64, width int) string {
	if width <= 0 {
		return ""
	}
	if pct < 0 {
		pct = 0
	}
	if pct > 1 {
		pct = 1
	}

	filled := int(pct * float64(width))
	if filled > width {
		filled = width
	}

	var b strings.Builder
	for i := 0; i < filled; i++ {
		b.WriteRune('▪') // ▪
	}
	for i := 0; i < width-filled; i++ {
		b.WriteRune('□') // □
	}
	return b.String()
}

// StripRoot removes the root prefix from path for display.
func StripRoot(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	trimmed := strings.TrimPrefix(path, root)
	trimmed = strings.TrimPrefix(trimmed, "/")
	if trimmed == "" {
		return path
	}
	return trimmed
}

// CompletionSummary builds the final summary line from a snapshot.
// Format: done ✓  reassembled 48,917  size 2.1 GB  deleted 12  time 3m 17s
func CompletionSummary(snap stats.Snapshot) string {
	icon := "✓"
	if snap.GroupsDropped > 0 || snap.FilesSkipped > 0 {
		icon = "⚠"
	}

	base := fmt.Sprintf("done %s  reassembled %s  size %s  time %s",
		icon,
		FormatCount(snap.FilesReassembled),
		FormatBytes(snap.BytesReassembled),
		FormatDuration(snap.Elapsed),
	)

	if snap.EntriesDeleted > 0 {
		base += fmt.Sprintf("  deleted %s", FormatCount(snap.EntriesDeleted))
	}
	if snap.DirsPreserved > 0 {
		base += fmt.Sprintf("  preserved %s", FormatCount(snap.DirsPreserved))
	}
	if snap.GroupsDropped > 0 || snap.FilesSkipped > 0 {
		base += fmt.Sprintf("  dropped %d  skipped %d", snap.GroupsDropped, snap.FilesSkipped)
	}
	return base
}
