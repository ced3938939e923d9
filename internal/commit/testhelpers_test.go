package commit

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/okraft/settle/internal/listing"
	"github.com/okraft/settle/internal/targetfs"
)

// writeListing persists entries as a listing file under dir and returns
// its path.
func writeListing(t *testing.T, dir, name string, entries []listing.Entry) string {
	t.Helper()

	path := filepath.Join(dir, name)
	w, err := listing.Create(path)
	require.NoError(t, err)
	for _, e := range entries {
		require.NoError(t, w.Append(e))
	}
	require.NoError(t, w.Close())
	return path
}

// openListing opens a listing and registers cleanup.
func openListing(t *testing.T, path string) *listing.Reader {
	t.Helper()

	rd, err := listing.Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { rd.Close() })
	return rd
}

func fileEntry(relPath string, size, offset, length int64) listing.Entry {
	return listing.Entry{
		RelPath:     relPath,
		Size:        size,
		ChunkOffset: offset,
		ChunkLength: length,
	}
}

func dirEntry(relPath string) listing.Entry {
	return listing.Entry{RelPath: relPath, IsDir: true, Mode: 0o755}
}

// fakeFS wraps a memory-backed Local filesystem and records the calls a
// phase makes, with optional scripted failures.
type fakeFS struct {
	targetfs.FS
	mem afero.Fs

	concatCalls []concatCall
	renameCalls [][2]string
	deleteCalls []string
	bulkPages   [][]string

	// bulkCounts scripts per-call BulkDelete return values; when
	// exhausted the real count is returned.
	bulkCounts []int

	// unperformed makes Delete report (false, nil) for these paths.
	unperformed map[string]bool

	// deleteErrs makes Delete fail outright for these paths.
	deleteErrs map[string]error
}

type concatCall struct {
	dst  string
	srcs []string
}

func newFakeFS(opts ...targetfs.LocalOption) *fakeFS {
	mem := afero.NewMemMapFs()
	opts = append([]targetfs.LocalOption{targetfs.WithFs(mem)}, opts...)
	return &fakeFS{
		FS:          targetfs.NewLocal(opts...),
		mem:         mem,
		unperformed: make(map[string]bool),
		deleteErrs:  make(map[string]error),
	}
}

func (f *fakeFS) Concat(dst string, srcs []string) error {
	f.concatCalls = append(f.concatCalls, concatCall{dst: dst, srcs: srcs})
	return f.FS.Concat(dst, srcs)
}

func (f *fakeFS) Rename(src, dst string) (bool, error) {
	f.renameCalls = append(f.renameCalls, [2]string{src, dst})
	return f.FS.Rename(src, dst)
}

func (f *fakeFS) Delete(path string, recursive bool) (bool, error) {
	f.deleteCalls = append(f.deleteCalls, path)
	if err, ok := f.deleteErrs[path]; ok {
		return false, err
	}
	if f.unperformed[path] {
		return false, nil
	}
	return f.FS.Delete(path, recursive)
}

func (f *fakeFS) BulkDelete(paths []string) (int, error) {
	page := append([]string(nil), paths...)
	f.bulkPages = append(f.bulkPages, page)
	n, err := f.FS.BulkDelete(paths)
	if err != nil {
		return n, err
	}
	if len(f.bulkCounts) > 0 {
		n = f.bulkCounts[0]
		f.bulkCounts = f.bulkCounts[1:]
	}
	return n, nil
}

// stage writes content at path on the fake filesystem.
func (f *fakeFS) stage(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, f.mem.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, afero.WriteFile(f.mem, path, []byte(content), 0o644))
}

func (f *fakeFS) read(t *testing.T, path string) string {
	t.Helper()
	data, err := afero.ReadFile(f.mem, path)
	require.NoError(t, err)
	return string(data)
}

func (f *fakeFS) exists(t *testing.T, path string) bool {
	t.Helper()
	ok, err := afero.Exists(f.mem, path)
	require.NoError(t, err)
	return ok
}
