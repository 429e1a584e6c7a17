package testutil

import (
	"context"
	"fmt"

	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/column"
	"github.com/hupe1980/framesource/frame"
)

// EventColumns is the declared schema of generated files, in file order.
// "label" is only present on entries whose id is a multiple of three.
var EventColumns = []frame.Column{
	{Name: "id", Kind: column.Int64},
	{Name: "x", Kind: column.Float64},
	{Name: "y", Kind: column.Float64},
	{Name: "hits", Kind: column.Float32s},
	{Name: "label", Kind: column.String},
	{Name: "flag", Kind: column.Bool},
}

// Event returns the synthetic record for global entry id.
func (r *RNG) Event(id int64) frame.Record {
	hits := make([]float32, r.Intn(5))
	r.FillUniform(hits)

	rec := frame.Record{
		"id":   id,
		"x":    r.NormFloat64(),
		"y":    r.Float64() * 100,
		"hits": hits,
		"flag": id%2 == 0,
	}
	if id%3 == 0 {
		rec["label"] = fmt.Sprintf("event-%d", id)
	}
	return rec
}

// FileName returns the fixture name of file i.
func FileName(i int) string {
	return fmt.Sprintf("part-%03d.frm", i)
}

// WriteFrames writes one frame file per count into bs. Ids run globally
// across files in list order. It returns the file names and the records
// written to each file.
func WriteFrames(ctx context.Context, bs blobstore.BlobStore, rng *RNG, counts []int, opts ...frame.WriterOption) ([]string, [][]frame.Record, error) {
	names := make([]string, len(counts))
	records := make([][]frame.Record, len(counts))

	opts = append([]frame.WriterOption{frame.WithColumns(EventColumns...)}, opts...)

	var id int64
	for i, n := range counts {
		recs := make([]frame.Record, n)
		for j := range recs {
			recs[j] = rng.Event(id)
			id++
		}

		names[i] = FileName(i)
		if err := frame.WriteBlob(ctx, bs, names[i], recs, opts...); err != nil {
			return nil, nil, fmt.Errorf("testutil: write %s: %w", names[i], err)
		}
		records[i] = recs
	}
	return names, records, nil
}

// Flatten concatenates per-file records into global entry order.
func Flatten(records [][]frame.Record) []frame.Record {
	var out []frame.Record
	for _, recs := range records {
		out = append(out, recs...)
	}
	return out
}
