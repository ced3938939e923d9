package commit

import (
	"io"

	"github.com/okraft/settle/internal/listing"
)

// Differ computes target entries absent from the source listing with a
// single merge-join pass over two sorted readers.
type Differ struct {
	Source *listing.Reader
	Target *listing.Reader
}

// Each calls fn for every stale target entry, in target order. Both
// readers must be sorted ascending by RelPath with the same ordering;
// Each relies on that precondition rather than verifying it.
func (d *Differ) Each(fn func(listing.Entry) error) error {
	for {
		t, err := d.Target.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}

		stale, err := d.stale(t.RelPath)
		if err != nil {
			return err
		}
		if !stale {
			continue
		}
		if err := fn(t); err != nil {
			return err
		}
	}
}

// stale advances the source cursor past keys smaller than key and reports
// whether key is absent from the source listing.
func (d *Differ) stale(key string) (bool, error) {
	for {
		s, err := d.Source.Peek()
		if err == io.EOF {
			return true, nil
		}
		if err != nil {
			return false, err
		}
		if s.RelPath < key {
			if _, err := d.Source.Next(); err != nil {
				return false, err
			}
			continue
		}
		return s.RelPath != key, nil
	}
}
