package frame

import (
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framesource/codec"
	"github.com/hupe1980/framesource/column"
)

// Column describes one column of a file.
type Column struct {
	Name string
	Kind column.Kind
}

type schemaDoc struct {
	Columns []columnDoc `json:"columns"`
}

type columnDoc struct {
	Name     string      `json:"name"`
	Kind     column.Kind `json:"kind"`
	Presence []byte      `json:"presence"`
}

func encodeSchema(c codec.Codec, cols []Column, presence []*roaring.Bitmap) ([]byte, error) {
	doc := schemaDoc{Columns: make([]columnDoc, len(cols))}
	for i, col := range cols {
		presence[i].RunOptimize()
		bm, err := presence[i].ToBytes()
		if err != nil {
			return nil, err
		}
		doc.Columns[i] = columnDoc{Name: col.Name, Kind: col.Kind, Presence: bm}
	}
	return c.Marshal(doc)
}

func decodeSchema(c codec.Codec, data []byte) ([]Column, []*roaring.Bitmap, error) {
	var doc schemaDoc
	if err := c.Unmarshal(data, &doc); err != nil {
		return nil, nil, fmt.Errorf("%w: schema: %v", ErrCorrupted, err)
	}

	cols := make([]Column, len(doc.Columns))
	presence := make([]*roaring.Bitmap, len(doc.Columns))
	seen := make(map[string]struct{}, len(doc.Columns))

	for i, d := range doc.Columns {
		if !d.Kind.Valid() || d.Name == "" {
			return nil, nil, fmt.Errorf("%w: schema: invalid column %q", ErrCorrupted, d.Name)
		}
		if _, dup := seen[d.Name]; dup {
			return nil, nil, fmt.Errorf("%w: schema: duplicate column %q", ErrCorrupted, d.Name)
		}
		seen[d.Name] = struct{}{}

		bm := roaring.New()
		if len(d.Presence) > 0 {
			if err := bm.UnmarshalBinary(d.Presence); err != nil {
				return nil, nil, fmt.Errorf("%w: presence of %q: %v", ErrCorrupted, d.Name, err)
			}
		}
		cols[i] = Column{Name: d.Name, Kind: d.Kind}
		presence[i] = bm
	}
	return cols, presence, nil
}
