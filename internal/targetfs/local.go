package targetfs

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

// Compile-time interface check.
var _ FS = (*Local)(nil)

// Local implements FS over an afero filesystem. With the default OS
// backing, owner and xattr application use raw syscalls; with an
// alternate backing (e.g. a memory fs in tests) those capabilities are
// reported unsupported and skipped.
type Local struct {
	fs       afero.Fs
	osBacked bool
	bulkMax  int
}

// LocalOption configures a Local filesystem.
type LocalOption func(*Local)

// WithFs substitutes the backing afero filesystem.
func WithFs(fsys afero.Fs) LocalOption {
	return func(l *Local) { l.fs = fsys }
}

// WithBulkDeleteLimit enables the bulk-delete path with the given maximum
// page size.
func WithBulkDeleteLimit(n int) LocalOption {
	return func(l *Local) { l.bulkMax = n }
}

// NewLocal creates a Local rooted in the OS filesystem.
func NewLocal(opts ...LocalOption) *Local {
	l := &Local{fs: afero.NewOsFs()}
	for _, opt := range opts {
		opt(l)
	}
	_, l.osBacked = l.fs.(*afero.OsFs)
	return l
}

func (l *Local) Rename(src, dst string) (bool, error) {
	if err := l.fs.Rename(src, dst); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Local) Concat(dst string, srcs []string) error {
	// Verify every piece up front so a missing chunk surfaces before any
	// bytes move.
	if _, err := l.fs.Stat(dst); err != nil {
		return fmt.Errorf("concat target %s: %w", dst, err)
	}
	for _, src := range srcs {
		if _, err := l.fs.Stat(src); err != nil {
			return fmt.Errorf("concat source %s: %w", src, err)
		}
	}

	out, err := l.fs.OpenFile(dst, os.O_WRONLY|os.O_APPEND, 0)
	if err != nil {
		return fmt.Errorf("concat open %s: %w", dst, err)
	}

	for _, src := range srcs {
		in, err := l.fs.Open(src)
		if err != nil {
			out.Close()
			return fmt.Errorf("concat open %s: %w", src, err)
		}
		_, err = io.Copy(out, in)
		in.Close()
		if err != nil {
			out.Close()
			return fmt.Errorf("concat append %s: %w", src, err)
		}
	}
	if err := out.Close(); err != nil {
		return fmt.Errorf("concat close %s: %w", dst, err)
	}

	for _, src := range srcs {
		if err := l.fs.Remove(src); err != nil {
			return fmt.Errorf("concat remove %s: %w", src, err)
		}
	}
	return nil
}

func (l *Local) Delete(path string, recursive bool) (bool, error) {
	var err error
	if recursive {
		exists, eerr := afero.Exists(l.fs, path)
		if eerr == nil && !exists {
			return false, nil
		}
		err = l.fs.RemoveAll(path)
	} else {
		err = l.fs.Remove(path)
	}
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

func (l *Local) Exists(path string) (bool, error) {
	return afero.Exists(l.fs, path)
}

func (l *Local) BulkDelete(paths []string) (int, error) {
	if l.bulkMax <= 0 {
		return 0, fmt.Errorf("bulk delete unsupported")
	}
	if len(paths) > l.bulkMax {
		return 0, fmt.Errorf("bulk delete page %d exceeds limit %d", len(paths), l.bulkMax)
	}
	deleted := 0
	for _, p := range paths {
		exists, err := afero.Exists(l.fs, p)
		if err != nil || !exists {
			continue
		}
		if err := l.fs.RemoveAll(p); err == nil {
			deleted++
		}
	}
	return deleted, nil
}

func (l *Local) Glob(pattern string) ([]string, error) {
	return afero.Glob(l.fs, pattern)
}

func (l *Local) ApplyAttrs(path string, attrs Attrs, set AttrSet, rawXattrs bool) error {
	if set.Perm {
		if err := l.fs.Chmod(path, os.FileMode(attrs.Mode).Perm()); err != nil {
			return fmt.Errorf("chmod %s: %w", path, err)
		}
	}
	if set.Times {
		if err := l.fs.Chtimes(path, attrs.ModTime, attrs.ModTime); err != nil {
			return fmt.Errorf("chtimes %s: %w", path, err)
		}
	}
	if (set.User || set.Group) && l.osBacked {
		uid, gid := -1, -1
		if set.User {
			uid = int(attrs.UID)
		}
		if set.Group {
			gid = int(attrs.GID)
		}
		if err := os.Lchown(path, uid, gid); err != nil {
			return fmt.Errorf("chown %s: %w", path, err)
		}
	}
	if (set.Xattr || rawXattrs) && l.osBacked {
		for name, value := range attrs.Xattrs {
			if err := unix.Setxattr(path, name, value, 0); err != nil {
				return fmt.Errorf("setxattr %s %s: %w", path, name, err)
			}
		}
	}
	return nil
}

func (l *Local) Caps() Capabilities {
	return Capabilities{
		Concat:        true,
		BulkDeleteMax: l.bulkMax,
		Owner:         l.osBacked,
		Xattrs:        l.osBacked,
	}
}
