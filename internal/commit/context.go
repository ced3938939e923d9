package commit

import "github.com/okraft/settle/internal/targetfs"

// Context carries the immutable per-run commit parameters. It is built
// once when the commit starts and passed explicitly to every phase;
// nothing re-reads job configuration mid-commit.
type Context struct {
	SyncFolders      bool
	Overwrite        bool
	TargetPathExists bool
	IgnoreFailures   bool
	DeleteMissing    bool
	AtomicCommit     bool

	PreserveAttrs     targetfs.AttrSet
	PreserveRawXattrs bool

	// FiltersPath names an optional rules file; targets its excludes
	// match are protected from delete-missing.
	FiltersPath string

	// SourceListingPath is the authoritative listing of copied entries,
	// produced by the listing-build phase. Empty disables reassembly.
	SourceListingPath string

	// TargetWorkPath is the staged tree workers wrote into. For
	// non-atomic runs it equals TargetFinalPath.
	TargetWorkPath  string
	TargetFinalPath string

	// MetaFolder holds listings and temporary state; it is destroyed
	// unconditionally when the commit finishes, success or failure.
	MetaFolder string

	// AttemptID names the per-attempt temp files workers left behind
	// (".settle.tmp.<id>*" in the work path and its parent).
	AttemptID string
}
