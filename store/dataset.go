package store

import (
	"context"
	"fmt"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/google/btree"
	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/frame"
	"github.com/hupe1980/framesource/resource"
	"github.com/hupe1980/framesource/schema"
	"golang.org/x/sync/errgroup"
)

// FileInfo describes one file of a dataset.
type FileInfo struct {
	Name    string
	Entries uint64
	First   uint64 // global index of the file's first entry
	Columns []frame.Column

	presence []*roaring.Bitmap // aligned with Columns
}

type span struct {
	first uint64
	file  int
}

type options struct {
	limit       int64
	rc          *resource.Controller
	concurrency int
}

// Option configures a Dataset.
type Option func(*options)

// WithEntryLimit caps the number of entries; negative means no cap.
func WithEntryLimit(n int64) Option {
	return func(o *options) { o.limit = n }
}

// WithResourceController paces reads and bounds open files.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) { o.rc = rc }
}

// WithConcurrency sets how many files OpenDataset inspects at once.
func WithConcurrency(n int) Option {
	return func(o *options) { o.concurrency = n }
}

// Dataset is the immutable view of a file set. Safe for concurrent use.
type Dataset struct {
	bs    blobstore.BlobStore
	files []FileInfo
	spans *btree.BTreeG[span]
	sum   uint64
	total uint64
	rc    *resource.Controller
}

// OpenDataset inspects every file once to read its entry count and schema,
// then builds the cumulative index. Any file that cannot be opened or
// fails validation makes the whole dataset unavailable.
func OpenDataset(ctx context.Context, bs blobstore.BlobStore, names []string, opts ...Option) (*Dataset, error) {
	if len(names) == 0 {
		return nil, ErrNoFiles
	}

	o := options{limit: -1, concurrency: 8}
	for _, opt := range opts {
		opt(&o)
	}

	files := make([]FileInfo, len(names))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(o.concurrency, 1))
	for i, name := range names {
		g.Go(func() error {
			f, err := frame.OpenBlob(gctx, bs, name)
			if err != nil {
				return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, name, err)
			}
			defer f.Close()

			cols := f.Columns()
			presence := make([]*roaring.Bitmap, len(cols))
			for j, c := range cols {
				presence[j] = f.Presence(c.Name)
			}
			files[i] = FileInfo{
				Name:     name,
				Entries:  f.NumEntries(),
				Columns:  cols,
				presence: presence,
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	ds := &Dataset{
		bs:    bs,
		files: files,
		spans: btree.NewG(32, func(a, b span) bool { return a.first < b.first }),
		rc:    o.rc,
	}
	for i := range files {
		files[i].First = ds.sum
		if files[i].Entries > 0 {
			ds.spans.ReplaceOrInsert(span{first: ds.sum, file: i})
		}
		ds.sum += files[i].Entries
	}

	ds.total = ds.sum
	if o.limit >= 0 && uint64(o.limit) < ds.sum {
		ds.total = uint64(o.limit)
	}
	return ds, nil
}

// Entries returns the number of addressable entries (after the limit).
func (d *Dataset) Entries() uint64 {
	return d.total
}

// StoredEntries returns the number of entries in all files.
func (d *Dataset) StoredEntries() uint64 {
	return d.sum
}

// Files returns the files in list order.
func (d *Dataset) Files() []FileInfo {
	return append([]FileInfo(nil), d.files...)
}

// FileColumns returns the schema of file i.
func (d *Dataset) FileColumns(i int) []frame.Column {
	return d.files[i].Columns
}

// BlobStore returns the store the files are read from.
func (d *Dataset) BlobStore() blobstore.BlobStore {
	return d.bs
}

// Present returns how many addressable entries carry the named column,
// counted from the files' presence bitmaps without reading any entry.
func (d *Dataset) Present(name string) uint64 {
	var n uint64
	for _, info := range d.files {
		if info.First >= d.total {
			break
		}
		count := min(info.Entries, d.total-info.First)
		if count == 0 {
			continue
		}
		for i, c := range info.Columns {
			if c.Name == name {
				n += info.presence[i].Rank(uint32(count - 1))
				break
			}
		}
	}
	return n
}

// Locate maps a global entry to its file and local index. ok is false for
// entries at or past Entries().
func (d *Dataset) Locate(entry uint64) (file int, local uint64, ok bool) {
	if entry >= d.total {
		return 0, 0, false
	}
	found := false
	d.spans.DescendLessOrEqual(span{first: entry}, func(s span) bool {
		file, local, found = s.file, entry-s.first, true
		return false
	})
	return file, local, found
}

// Probe returns the columns present in the first entry of the first
// non-empty file, in that file's schema order.
func (d *Dataset) Probe(ctx context.Context) ([]schema.Column, error) {
	for _, info := range d.files {
		if info.Entries == 0 {
			continue
		}

		f, err := frame.OpenBlob(ctx, d.bs, info.Name)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, info.Name, err)
		}
		defer f.Close()

		var e frame.Entry
		if err := f.ReadEntry(ctx, 0, &e); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, info.Name, err)
		}

		var cols []schema.Column
		for i, c := range f.Columns() {
			if _, ok := e.Field(i); ok {
				cols = append(cols, schema.Column{Name: c.Name, Kind: c.Kind})
			}
		}
		return cols, nil
	}
	return nil, nil
}

// UnionColumns returns every column of every file in first-seen order.
func (d *Dataset) UnionColumns() ([]schema.Column, error) {
	var cols []schema.Column
	seen := make(map[string]int)
	for _, info := range d.files {
		for _, c := range info.Columns {
			if i, ok := seen[c.Name]; ok {
				if cols[i].Kind != c.Kind {
					return nil, fmt.Errorf("%w: %q is %s in an earlier file and %s in %s",
						ErrKindConflict, c.Name, cols[i].Kind, c.Kind, info.Name)
				}
				continue
			}
			seen[c.Name] = len(cols)
			cols = append(cols, schema.Column{Name: c.Name, Kind: c.Kind})
		}
	}
	return cols, nil
}
