package listing

import (
	"fmt"
	"path/filepath"
	"time"
)

// Entry is one record in a persisted copy listing. Listings are ordered
// sequences keyed by RelPath; all chunk entries of one logical file share a
// RelPath and are contiguous in the listing when chunking is in use.
type Entry struct {
	RelPath     string            // key, relative to the tree root (slash-separated)
	AbsPath     string            // absolute path on the filesystem the listing was built from
	Size        int64             // total logical file length
	ModTime     time.Time
	Mode        uint32
	UID         uint32
	GID         uint32
	Xattrs      map[string][]byte
	IsDir       bool
	ChunkOffset int64
	ChunkLength int64
}

// Split reports whether the entry is one chunk of a larger logical file.
// An unsplit file carries a single entry covering its whole length.
func (e Entry) Split() bool {
	return !e.IsDir && !(e.ChunkOffset == 0 && e.ChunkLength == e.Size)
}

// LastChunk reports whether this entry completes its logical file.
func (e Entry) LastChunk() bool {
	return e.ChunkOffset+e.ChunkLength == e.Size
}

// TargetPath returns the logical path of the entry under root.
func (e Entry) TargetPath(root string) string {
	return filepath.Join(root, filepath.FromSlash(e.RelPath))
}

// ChunkPath returns the staged path of this entry under root. Workers stage
// chunks of a split file at the logical path plus an offset/length suffix;
// an unsplit file is staged directly at its logical path.
func (e Entry) ChunkPath(root string) string {
	p := e.TargetPath(root)
	if !e.Split() {
		return p
	}
	return fmt.Sprintf("%s.chunk.%d.%d", p, e.ChunkOffset, e.ChunkLength)
}
