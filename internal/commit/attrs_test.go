package commit

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/stats"
	"github.com/okraft/settle/internal/targetfs"
)

func runPreserver(t *testing.T, p *Preserver, entries []listing.Entry) error {
	t.Helper()
	path := writeListing(t, t.TempDir(), "source_listing", entries)
	return p.Run(openListing(t, path))
}

func TestPreserverDirectoriesOnly(t *testing.T) {
	fs := newFakeFS()
	require.NoError(t, fs.mem.MkdirAll("/final/a", 0o755))
	fs.stage(t, "/final/a/f", "data")

	dir := dirEntry("a")
	dir.Mode = 0o700
	file := fileEntry("a/f", 4, 0, 4)
	file.Mode = 0o600

	st := stats.NewCollector()
	p := &Preserver{
		FS:         fs,
		TargetRoot: "/final",
		Attrs:      targetfs.AttrSet{Perm: true},
		Stats:      st,
	}
	require.NoError(t, runPreserver(t, p, []listing.Entry{dir, file}))

	info, err := fs.mem.Stat("/final/a")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())

	// File attributes were handled during transfer, not here.
	info, err = fs.mem.Stat("/final/a/f")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	assert.EqualValues(t, 1, st.Snapshot().DirsPreserved)
}

func TestPreserverSkipRoot(t *testing.T) {
	root := dirEntry(".")
	root.Mode = 0o700

	fs := newFakeFS()
	require.NoError(t, fs.mem.MkdirAll("/final", 0o755))

	p := &Preserver{
		FS:         fs,
		TargetRoot: "/final",
		Attrs:      targetfs.AttrSet{Perm: true},
		SkipRoot:   true,
	}
	require.NoError(t, runPreserver(t, p, []listing.Entry{root}))

	info, err := fs.mem.Stat("/final")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())

	// Without SkipRoot the same entry is applied.
	p.SkipRoot = false
	require.NoError(t, runPreserver(t, p, []listing.Entry{root}))
	info, err = fs.mem.Stat("/final")
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestPreserverTimes(t *testing.T) {
	fs := newFakeFS()
	require.NoError(t, fs.mem.MkdirAll("/final/a", 0o755))

	dir := dirEntry("a")
	dir.ModTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	p := &Preserver{FS: fs, TargetRoot: "/final", Attrs: targetfs.AttrSet{Times: true}}
	require.NoError(t, runPreserver(t, p, []listing.Entry{dir}))

	info, err := fs.mem.Stat("/final/a")
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(dir.ModTime))
}

func TestPreserverUnsupportedCapsFiltered(t *testing.T) {
	// The memory backing reports no owner or xattr support; requesting
	// them is a no-op instead of an error.
	fs := newFakeFS()
	require.NoError(t, fs.mem.MkdirAll("/final/a", 0o755))

	dir := dirEntry("a")
	dir.UID, dir.GID = 1234, 1234
	dir.Xattrs = map[string][]byte{"user.k": []byte("v")}

	p := &Preserver{
		FS:         fs,
		TargetRoot: "/final",
		Attrs:      targetfs.AttrSet{User: true, Group: true, Xattr: true},
		RawXattrs:  true,
	}
	require.NoError(t, runPreserver(t, p, []listing.Entry{dir}))
}
