// Package targetfs defines the filesystem capability surface the commit
// phase consumes. The primitives are black boxes: each call is retried by
// an outer layer if needed and either eventually succeeds or surfaces a
// terminal failure.
package targetfs

import (
	"fmt"
	"strings"
	"time"
)

// Capabilities describes what a target filesystem supports.
type Capabilities struct {
	Concat        bool
	BulkDeleteMax int // max paths per BulkDelete call; <= 0 means unsupported
	Owner         bool
	Xattrs        bool
}

// Attrs is the metadata recorded for a listing entry, re-applied onto
// target directories after data is committed.
type Attrs struct {
	Mode    uint32
	UID     uint32
	GID     uint32
	ModTime time.Time
	Xattrs  map[string][]byte
}

// AttrSet selects which attributes to preserve.
type AttrSet struct {
	User  bool
	Group bool
	Perm  bool
	Times bool
	Xattr bool
}

// Empty reports whether no attribute is selected.
func (s AttrSet) Empty() bool {
	return s == AttrSet{}
}

func (s AttrSet) String() string {
	var b strings.Builder
	if s.User {
		b.WriteByte('u')
	}
	if s.Group {
		b.WriteByte('g')
	}
	if s.Perm {
		b.WriteByte('p')
	}
	if s.Times {
		b.WriteByte('t')
	}
	if s.Xattr {
		b.WriteByte('x')
	}
	return b.String()
}

// ParseAttrSet parses a preserve-status spec: one letter per attribute,
// u(ser) g(roup) p(ermissions) t(imes) x(attrs).
func ParseAttrSet(spec string) (AttrSet, error) {
	var s AttrSet
	for _, c := range spec {
		switch c {
		case 'u':
			s.User = true
		case 'g':
			s.Group = true
		case 'p':
			s.Perm = true
		case 't':
			s.Times = true
		case 'x':
			s.Xattr = true
		default:
			return AttrSet{}, fmt.Errorf("unknown preserve attribute %q in %q", c, spec)
		}
	}
	return s, nil
}

// FS is the target filesystem surface required by the commit phase.
type FS interface {
	// Rename moves src to dst. A false return without error means the
	// filesystem reported the rename unperformed; callers decide whether
	// to recheck.
	Rename(src, dst string) (bool, error)

	// Concat combines srcs, in order, onto the end of dst and removes the
	// sources. A missing dst or source surfaces as an error satisfying
	// errors.Is(err, fs.ErrNotExist).
	Concat(dst string, srcs []string) error

	// Delete removes path. A false return without error means the
	// filesystem reported the deletion unperformed (including an already
	// absent path); an error is a terminal call failure.
	Delete(path string, recursive bool) (bool, error)

	// Exists reports whether path exists.
	Exists(path string) (bool, error)

	// BulkDelete removes many paths in one request and returns the count
	// actually removed, which may be less than len(paths). Only valid when
	// Caps().BulkDeleteMax is positive.
	BulkDelete(paths []string) (int, error)

	// Glob returns the paths matching pattern.
	Glob(pattern string) ([]string, error)

	// ApplyAttrs applies the selected attributes onto path. Attributes the
	// filesystem cannot express (see Caps) are skipped.
	ApplyAttrs(path string, attrs Attrs, set AttrSet, rawXattrs bool) error

	// Caps returns the capabilities of this filesystem.
	Caps() Capabilities
}
