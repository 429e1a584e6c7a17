package frame

import (
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framesource/codec"
	"github.com/hupe1980/framesource/column"
)

// Record is one entry to write: column name to value. Nil values are
// treated as absent.
type Record map[string]any

type writerOptions struct {
	compression Compression
	codec       codec.Codec
	columns     []Column
}

// WriterOption configures a Writer.
type WriterOption func(*writerOptions)

// WithCompression sets the entry block compression.
func WithCompression(c Compression) WriterOption {
	return func(o *writerOptions) { o.compression = c }
}

// WithCodec sets the schema codec.
func WithCodec(c codec.Codec) WriterOption {
	return func(o *writerOptions) { o.codec = c }
}

// WithColumns declares columns up front, fixing their order and kinds.
// Undeclared columns are still registered as they appear.
func WithColumns(cols ...Column) WriterOption {
	return func(o *writerOptions) { o.columns = append(o.columns, cols...) }
}

// Writer writes a frame file sequentially. It is not safe for concurrent use.
type Writer struct {
	w    io.Writer
	opts writerOptions

	offset   uint64
	index    []byte
	count    uint64
	columns  []Column
	byName   map[string]int
	presence []*roaring.Bitmap

	payload []byte
	value   []byte
	block   []byte
	order   []int
	closed  bool
}

// NewWriter creates a writer emitting to w. The caller closes w after
// Writer.Close.
func NewWriter(w io.Writer, opts ...WriterOption) (*Writer, error) {
	o := writerOptions{
		compression: CompressionNone,
		codec:       codec.Default,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.compression.valid() {
		return nil, fmt.Errorf("frame: invalid compression %d", o.compression)
	}

	fw := &Writer{
		w:      w,
		opts:   o,
		byName: make(map[string]int),
	}
	for _, c := range o.columns {
		if _, err := fw.register(c.Name, c.Kind); err != nil {
			return nil, err
		}
	}
	return fw, nil
}

func (w *Writer) register(name string, kind column.Kind) (int, error) {
	if i, ok := w.byName[name]; ok {
		if w.columns[i].Kind != kind {
			return 0, fmt.Errorf("%w: %q is %s, got %s", ErrKindMismatch, name, w.columns[i].Kind, kind)
		}
		return i, nil
	}
	if name == "" || !kind.Valid() {
		return 0, fmt.Errorf("frame: invalid column %q of kind %s", name, kind)
	}
	i := len(w.columns)
	w.columns = append(w.columns, Column{Name: name, Kind: kind})
	w.byName[name] = i
	w.presence = append(w.presence, roaring.New())
	return i, nil
}

// Append writes one entry. New columns are registered in name order.
func (w *Writer) Append(rec Record) error {
	if w.closed {
		return ErrClosed
	}
	if w.count == math.MaxUint32 {
		return fmt.Errorf("frame: file is full (%d entries)", w.count)
	}

	names := make([]string, 0, len(rec))
	for name, v := range rec {
		if v != nil {
			names = append(names, name)
		}
	}
	slices.Sort(names)

	w.order = w.order[:0]
	for _, name := range names {
		v := rec[name]
		kind, ok := column.KindOf(v)
		if !ok {
			return fmt.Errorf("frame: column %q: unsupported value type %T", name, v)
		}
		i, err := w.register(name, kind)
		if err != nil {
			return err
		}
		w.order = append(w.order, i)
	}
	slices.Sort(w.order)

	w.payload = w.payload[:0]
	var err error
	for _, i := range w.order {
		col := w.columns[i]
		w.value, err = column.Encode(col.Kind, rec[col.Name], w.value[:0])
		if err != nil {
			return fmt.Errorf("frame: column %q: %w", col.Name, err)
		}
		w.payload = binary.AppendUvarint(w.payload, uint64(i))
		w.payload = binary.AppendUvarint(w.payload, uint64(len(w.value)))
		w.payload = append(w.payload, w.value...)
	}

	w.block, err = appendBlock(w.block[:0], w.payload, w.opts.compression)
	if err != nil {
		return err
	}
	if _, err := w.w.Write(w.block); err != nil {
		return err
	}

	w.index = binary.LittleEndian.AppendUint64(w.index, w.offset)
	w.index = binary.LittleEndian.AppendUint32(w.index, uint32(len(w.block)))
	for _, i := range w.order {
		w.presence[i].Add(uint32(w.count))
	}

	w.offset += uint64(len(w.block))
	w.count++
	return nil
}

// Count returns the number of entries appended so far.
func (w *Writer) Count() uint64 {
	return w.count
}

// Columns returns the registered columns in file order.
func (w *Writer) Columns() []Column {
	return slices.Clone(w.columns)
}

// Close writes the index, schema and trailer. It does not close the
// underlying writer.
func (w *Writer) Close() error {
	if w.closed {
		return ErrClosed
	}
	w.closed = true

	schema, err := encodeSchema(w.opts.codec, w.columns, w.presence)
	if err != nil {
		return fmt.Errorf("frame: encode schema: %w", err)
	}

	t := Trailer{
		Magic:        Magic,
		Version:      Version,
		Flags:        FlagPresence,
		Compression:  w.opts.compression,
		Codec:        w.opts.codec.ID(),
		Count:        w.count,
		IndexOffset:  w.offset,
		SchemaOffset: w.offset + uint64(len(w.index)),
		SchemaSize:   uint64(len(schema)),
		NumColumns:   uint32(len(w.columns)),
	}
	trailer, err := t.MarshalBinary()
	if err != nil {
		return err
	}

	for _, section := range [][]byte{w.index, schema, trailer} {
		if _, err := w.w.Write(section); err != nil {
			return err
		}
	}
	return nil
}
