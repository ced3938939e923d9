// Package listing persists and reads the ordered copy listings the commit
// phase consumes. A listing file is a magic header followed by a zstd
// stream of length-prefixed msgpack records, each with an xxhash64
// trailer so truncation or corruption surfaces as a read error.
package listing

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/klauspost/compress/zstd"
	"github.com/ugorji/go/codec"
)

var fileMagic = []byte("SETLLST1")

// ErrCorrupt is wrapped by read errors caused by a truncated or damaged
// listing file.
var ErrCorrupt = errors.New("corrupt listing")

var msgpack codec.MsgpackHandle

// Reader provides lazy, forward-only access to a persisted listing.
// Restart by reopening. Callers must Close on every exit path.
type Reader struct {
	f       *os.File
	raw     *countingReader
	zr      *zstd.Decoder
	br      *bufio.Reader
	total   int64
	pending *Entry
	err     error
}

// Open opens a listing file for sequential reading.
func Open(path string) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open listing %s: %w", path, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat listing %s: %w", path, err)
	}

	magic := make([]byte, len(fileMagic))
	if _, err := io.ReadFull(f, magic); err != nil || string(magic) != string(fileMagic) {
		f.Close()
		return nil, fmt.Errorf("listing %s: bad magic: %w", path, ErrCorrupt)
	}

	raw := &countingReader{r: f}
	raw.count.Store(int64(len(fileMagic)))

	zr, err := zstd.NewReader(raw)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("open listing %s: %w", path, err)
	}

	return &Reader{
		f:     f,
		raw:   raw,
		zr:    zr,
		br:    bufio.NewReader(zr),
		total: info.Size(),
	}, nil
}

// Peek returns the next entry without consuming it. Returns io.EOF when the
// listing is exhausted.
func (r *Reader) Peek() (Entry, error) {
	if r.err != nil {
		return Entry{}, r.err
	}
	if r.pending == nil {
		e, err := r.read()
		if err != nil {
			r.err = err
			return Entry{}, err
		}
		r.pending = &e
	}
	return *r.pending, nil
}

// Next returns the next entry and advances the reader. Returns io.EOF when
// the listing is exhausted.
func (r *Reader) Next() (Entry, error) {
	e, err := r.Peek()
	if err != nil {
		return Entry{}, err
	}
	r.pending = nil
	return e, nil
}

func (r *Reader) read() (Entry, error) {
	n, err := binary.ReadUvarint(r.br)
	if err != nil {
		if err == io.EOF {
			return Entry{}, io.EOF
		}
		return Entry{}, fmt.Errorf("read record length: %w: %v", ErrCorrupt, err)
	}
	if n == 0 || n > maxRecordSize {
		return Entry{}, fmt.Errorf("record length %d: %w", n, ErrCorrupt)
	}

	buf := make([]byte, n+8)
	if _, err := io.ReadFull(r.br, buf); err != nil {
		return Entry{}, fmt.Errorf("read record: %w: %v", ErrCorrupt, err)
	}
	payload, sum := buf[:n], binary.BigEndian.Uint64(buf[n:])
	if xxhash.Sum64(payload) != sum {
		return Entry{}, fmt.Errorf("record checksum mismatch: %w", ErrCorrupt)
	}

	var e Entry
	if err := codec.NewDecoderBytes(payload, &msgpack).Decode(&e); err != nil {
		return Entry{}, fmt.Errorf("decode record: %w: %v", ErrCorrupt, err)
	}
	return e, nil
}

// Progress returns an approximate scan percentage (0-100) based on how much
// of the underlying file has been consumed.
func (r *Reader) Progress() int {
	if r.total <= 0 {
		return 0
	}
	pct := int(r.raw.count.Load() * 100 / r.total)
	if pct > 100 {
		pct = 100
	}
	return pct
}

// Close releases the underlying file.
func (r *Reader) Close() error {
	r.zr.Close()
	return r.f.Close()
}

const maxRecordSize = 16 << 20

type countingReader struct {
	r     io.Reader
	count atomic.Int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.count.Add(int64(n))
	return n, err
}
