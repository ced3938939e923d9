package listing

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/ugorji/go/codec"
)

// Writer appends entries to a new listing file. It does not enforce key
// order; sorted order is a property the producer or an external sort step
// establishes.
type Writer struct {
	f   *os.File
	zw  *zstd.Encoder
	buf []byte
	n   int64
}

// Create creates a listing file at path, truncating any existing file.
func Create(path string) (*Writer, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create listing %s: %w", path, err)
	}
	if _, err := f.Write(fileMagic); err != nil {
		f.Close()
		return nil, fmt.Errorf("write listing header: %w", err)
	}
	zw, err := zstd.NewWriter(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("create listing %s: %w", path, err)
	}
	return &Writer{f: f, zw: zw}, nil
}

// Append writes one entry record.
func (w *Writer) Append(e Entry) error {
	w.buf = w.buf[:0]
	if err := codec.NewEncoderBytes(&w.buf, &msgpack).Encode(e); err != nil {
		return fmt.Errorf("encode entry %s: %w", e.RelPath, err)
	}

	var frame [binary.MaxVarintLen64]byte
	hdr := binary.PutUvarint(frame[:], uint64(len(w.buf)))
	if _, err := w.zw.Write(frame[:hdr]); err != nil {
		return fmt.Errorf("write entry %s: %w", e.RelPath, err)
	}
	if _, err := w.zw.Write(w.buf); err != nil {
		return fmt.Errorf("write entry %s: %w", e.RelPath, err)
	}

	var sum [8]byte
	binary.BigEndian.PutUint64(sum[:], xxhash.Sum64(w.buf))
	if _, err := w.zw.Write(sum[:]); err != nil {
		return fmt.Errorf("write entry %s: %w", e.RelPath, err)
	}
	w.n++
	return nil
}

// Len returns the number of entries appended so far.
func (w *Writer) Len() int64 { return w.n }

// Close flushes and closes the listing file.
func (w *Writer) Close() error {
	if err := w.zw.Close(); err != nil {
		w.f.Close()
		return fmt.Errorf("flush listing: %w", err)
	}
	return w.f.Close()
}
