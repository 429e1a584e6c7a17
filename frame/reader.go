package frame

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sync/atomic"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/codec"
)

// IOLimiter paces block reads. *resource.Controller satisfies it.
type IOLimiter interface {
	AcquireIO(ctx context.Context, bytes int) error
}

type openOptions struct {
	limiter IOLimiter
}

// OpenOption configures Open.
type OpenOption func(*openOptions)

// WithIOLimiter charges every entry block read against l.
func WithIOLimiter(l IOLimiter) OpenOption {
	return func(o *openOptions) { o.limiter = l }
}

// File is a read handle on one frame file. It owns the blob it was opened
// on. A File is not safe for concurrent ReadEntry calls; open one per reader.
type File struct {
	blob    blobstore.Blob
	data    []byte // non-nil when the blob is mapped
	limiter IOLimiter

	trailer  Trailer
	index    []byte
	columns  []Column
	byName   map[string]int
	presence []*roaring.Bitmap

	closed atomic.Bool
}

// Open validates the trailer and loads the index and schema of blob.
// On error the blob is left open.
func Open(ctx context.Context, blob blobstore.Blob, opts ...OpenOption) (*File, error) {
	var o openOptions
	for _, opt := range opts {
		opt(&o)
	}

	size := blob.Size()
	if size < TrailerSize {
		return nil, fmt.Errorf("%w: %d bytes is shorter than the trailer", ErrCorrupted, size)
	}

	f := &File{blob: blob, limiter: o.limiter}
	if m, ok := blob.(blobstore.Mappable); ok {
		if data, err := m.Bytes(); err == nil && int64(len(data)) == size {
			f.data = data
		}
	}

	raw, err := f.section(ctx, uint64(size-TrailerSize), TrailerSize)
	if err != nil {
		return nil, err
	}
	if err := f.trailer.UnmarshalBinary(raw); err != nil {
		return nil, err
	}
	if err := f.trailer.validate(uint64(size)); err != nil {
		return nil, err
	}

	c, ok := codec.ByID(f.trailer.Codec)
	if !ok {
		return nil, fmt.Errorf("%w: unknown schema codec %d", ErrCorrupted, f.trailer.Codec)
	}

	f.index, err = f.section(ctx, f.trailer.IndexOffset, f.trailer.Count*indexEntrySize)
	if err != nil {
		return nil, err
	}

	schema, err := f.section(ctx, f.trailer.SchemaOffset, f.trailer.SchemaSize)
	if err != nil {
		return nil, err
	}
	f.columns, f.presence, err = decodeSchema(c, schema)
	if err != nil {
		return nil, err
	}
	if uint32(len(f.columns)) != f.trailer.NumColumns {
		return nil, fmt.Errorf("%w: schema has %d columns, trailer %d", ErrCorrupted, len(f.columns), f.trailer.NumColumns)
	}

	f.byName = make(map[string]int, len(f.columns))
	for i, col := range f.columns {
		f.byName[col.Name] = i
	}
	return f, nil
}

func (f *File) section(ctx context.Context, off, n uint64) ([]byte, error) {
	if f.data != nil {
		return f.data[off : off+n : off+n], nil
	}
	b, err := blobstore.ReadSection(ctx, f.blob, int64(off), int64(n))
	if err != nil {
		return nil, fmt.Errorf("frame: read section at %d: %w", off, err)
	}
	return b, nil
}

// Trailer returns the decoded trailer.
func (f *File) Trailer() Trailer {
	return f.trailer
}

// NumEntries returns the number of entries in the file.
func (f *File) NumEntries() uint64 {
	return f.trailer.Count
}

// Compression returns the entry block compression.
func (f *File) Compression() Compression {
	return f.trailer.Compression
}

// Columns returns the file columns in schema order.
func (f *File) Columns() []Column {
	out := make([]Column, len(f.columns))
	copy(out, f.columns)
	return out
}

// ColumnIndex returns the file column index of name.
func (f *File) ColumnIndex(name string) (int, bool) {
	i, ok := f.byName[name]
	return i, ok
}

// Presence returns the local entries that carry the column, or nil for
// unknown columns. The bitmap must not be modified.
func (f *File) Presence(name string) *roaring.Bitmap {
	i, ok := f.byName[name]
	if !ok {
		return nil
	}
	return f.presence[i]
}

// ReadEntry reads local entry i into e, reusing e's buffers.
func (f *File) ReadEntry(ctx context.Context, i uint64, e *Entry) error {
	if f.closed.Load() {
		return ErrClosed
	}
	if i >= f.trailer.Count {
		return fmt.Errorf("%w: %d >= %d", ErrOutOfBounds, i, f.trailer.Count)
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	rec := f.index[i*indexEntrySize:]
	off := binary.LittleEndian.Uint64(rec[0:8])
	n := uint64(binary.LittleEndian.Uint32(rec[8:12]))
	if off > f.trailer.IndexOffset || n > f.trailer.IndexOffset-off {
		return fmt.Errorf("%w: entry %d block outside data section", ErrCorrupted, i)
	}

	if f.limiter != nil {
		if err := f.limiter.AcquireIO(ctx, int(n)); err != nil {
			return err
		}
	}

	var block []byte
	if f.data != nil {
		block = f.data[off : off+n]
	} else {
		if uint64(cap(e.raw)) < n {
			e.raw = make([]byte, n)
		}
		block = e.raw[:n]
		read, err := f.blob.ReadAt(ctx, block, int64(off))
		if err != nil && !(errors.Is(err, io.EOF) && uint64(read) == n) {
			return fmt.Errorf("frame: read entry %d: %w", i, err)
		}
	}

	payload, scratch, err := readBlock(block, f.trailer.Compression, e.scratch)
	e.scratch = scratch
	if err != nil {
		return fmt.Errorf("%w: entry %d: %v", ErrCorrupted, i, err)
	}

	if err := e.parse(payload, len(f.columns)); err != nil {
		return fmt.Errorf("%w: entry %d: %v", ErrCorrupted, i, err)
	}
	e.local = i
	return nil
}

// Close closes the file and its blob. It is idempotent.
func (f *File) Close() error {
	if f.closed.Swap(true) {
		return nil
	}
	f.data = nil
	return f.blob.Close()
}

// Entry holds the fields of one decoded entry. Field slices point into
// buffers owned by the Entry (or into the mapped file) and stay valid until
// the next ReadEntry with the same Entry.
type Entry struct {
	raw     []byte
	scratch []byte
	payload []byte
	spans   []span
	local   uint64
	fields  int
}

type span struct {
	off, n  uint32
	present bool
}

func (e *Entry) parse(payload []byte, numColumns int) error {
	if cap(e.spans) < numColumns {
		e.spans = make([]span, numColumns)
	}
	e.spans = e.spans[:numColumns]
	clear(e.spans)
	e.payload = payload
	e.fields = 0

	pos := 0
	for pos < len(payload) {
		col, w := binary.Uvarint(payload[pos:])
		if w <= 0 || col >= uint64(numColumns) {
			return fmt.Errorf("invalid column id at %d", pos)
		}
		pos += w

		n, w := binary.Uvarint(payload[pos:])
		if w <= 0 || n > uint64(len(payload)-pos-w) {
			return fmt.Errorf("invalid field length at %d", pos)
		}
		pos += w

		if e.spans[col].present {
			return fmt.Errorf("duplicate column %d", col)
		}
		e.spans[col] = span{off: uint32(pos), n: uint32(n), present: true}
		e.fields++
		pos += int(n)
	}
	return nil
}

// Local returns the local index of the entry last read.
func (e *Entry) Local() uint64 {
	return e.local
}

// NumFields returns how many columns the entry carries.
func (e *Entry) NumFields() int {
	return e.fields
}

// Field returns the encoded value of file column i, or false if the entry
// does not carry it.
func (e *Entry) Field(i int) ([]byte, bool) {
	if i < 0 || i >= len(e.spans) || !e.spans[i].present {
		return nil, false
	}
	s := e.spans[i]
	return e.payload[s.off : s.off+s.n], true
}
