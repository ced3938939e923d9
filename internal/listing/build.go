package listing

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	"github.com/spf13/afero"
)

// Build captures a fresh, unsorted listing of the tree rooted at root on
// fsys and writes it to out. The commit phase uses this to snapshot the
// final target tree before computing stale entries; run SortFile on the
// result before feeding it to the differ.
func Build(fsys afero.Fs, root, out string) error {
	w, err := Create(out)
	if err != nil {
		return err
	}

	walkErr := afero.Walk(fsys, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return fmt.Errorf("walk %s: %w", path, err)
		}
		rel, err := filepath.Rel(root, path)
		if err != nil || rel == "." {
			return nil
		}

		e := Entry{
			RelPath: filepath.ToSlash(rel),
			AbsPath: path,
			ModTime: info.ModTime(),
			Mode:    uint32(info.Mode()),
			IsDir:   info.IsDir(),
		}
		if !e.IsDir {
			e.Size = info.Size()
			e.ChunkLength = info.Size()
		}
		if st, ok := info.Sys().(*syscall.Stat_t); ok {
			e.UID = st.Uid
			e.GID = st.Gid
		}
		return w.Append(e)
	})
	if walkErr != nil {
		w.Close()
		return walkErr
	}
	return w.Close()
}
