package listing

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// SortFile rewrites the listing at path into a new file in ascending
// RelPath order and returns the new file's path. The differ requires both
// of its inputs sorted with this exact ordering (byte-wise lexicographic
// on the slash-separated relative path).
func SortFile(path string) (string, error) {
	entries, err := ReadAll(path)
	if err != nil {
		return "", err
	}

	sort.Slice(entries, func(i, j int) bool {
		return strings.Compare(entries[i].RelPath, entries[j].RelPath) < 0
	})

	// Write under a unique name, then publish with a rename so a crashed
	// sort never leaves a half-written file at the sorted path.
	sorted := path + ".sorted"
	tmp := fmt.Sprintf("%s.%s", sorted, uuid.NewString())
	w, err := Create(tmp)
	if err != nil {
		return "", err
	}
	for _, e := range entries {
		if err := w.Append(e); err != nil {
			w.Close()
			os.Remove(tmp)
			return "", err
		}
	}
	if err := w.Close(); err != nil {
		os.Remove(tmp)
		return "", err
	}
	if err := os.Rename(tmp, sorted); err != nil {
		os.Remove(tmp)
		return "", fmt.Errorf("publish sorted listing: %w", err)
	}
	return sorted, nil
}

// ReadAll loads every entry of the listing at path.
func ReadAll(path string) ([]Entry, error) {
	r, err := Open(path)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	var entries []Entry
	for {
		e, err := r.Next()
		if err == io.EOF {
			return entries, nil
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", path, err)
		}
		entries = append(entries, e)
	}
}
