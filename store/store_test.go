package store

import (
	"bytes"
	"context"
	"testing"
	"unsafe"

	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/column"
	"github.com/hupe1980/framesource/frame"
	"github.com/hupe1980/framesource/resource"
	"github.com/hupe1980/framesource/schema"
	"github.com/hupe1980/framesource/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixture(t *testing.T, counts ...int) (*blobstore.MemoryStore, []string, []frame.Record) {
	t.Helper()
	bs := blobstore.NewMemoryStore()
	names, recs, err := testutil.WriteFrames(context.Background(), bs, testutil.NewRNG(4711), counts)
	require.NoError(t, err)
	return bs, names, testutil.Flatten(recs)
}

func TestOpenDataset(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 10, 5, 7)

	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)

	assert.Equal(t, uint64(22), ds.Entries())
	assert.Equal(t, uint64(22), ds.StoredEntries())

	files := ds.Files()
	require.Len(t, files, 3)
	assert.Equal(t, []uint64{0, 10, 15}, []uint64{files[0].First, files[1].First, files[2].First})
	assert.Equal(t, testutil.EventColumns, ds.FileColumns(1))

	tests := []struct {
		entry uint64
		file  int
		local uint64
	}{
		{0, 0, 0},
		{9, 0, 9},
		{10, 1, 0},
		{14, 1, 4},
		{15, 2, 0},
		{21, 2, 6},
	}
	for _, tt := range tests {
		file, local, ok := ds.Locate(tt.entry)
		require.True(t, ok, tt.entry)
		assert.Equal(t, tt.file, file, tt.entry)
		assert.Equal(t, tt.local, local, tt.entry)
	}

	_, _, ok := ds.Locate(22)
	assert.False(t, ok)
}

func TestOpenDataset_EmptyFilesAndLimit(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 0, 4, 0, 3)

	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), ds.Entries())

	file, local, ok := ds.Locate(4)
	require.True(t, ok)
	assert.Equal(t, 3, file, "empty files are skipped")
	assert.Zero(t, local)

	limited, err := OpenDataset(ctx, bs, names, WithEntryLimit(5))
	require.NoError(t, err)
	assert.Equal(t, uint64(5), limited.Entries())
	assert.Equal(t, uint64(7), limited.StoredEntries())
	_, _, ok = limited.Locate(5)
	assert.False(t, ok)

	over, err := OpenDataset(ctx, bs, names, WithEntryLimit(100))
	require.NoError(t, err)
	assert.Equal(t, uint64(7), over.Entries())

	zero, err := OpenDataset(ctx, bs, names, WithEntryLimit(0))
	require.NoError(t, err)
	assert.Zero(t, zero.Entries())
}

func TestOpenDataset_Errors(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 2)

	_, err := OpenDataset(ctx, bs, nil)
	assert.ErrorIs(t, err, ErrNoFiles)

	_, err = OpenDataset(ctx, bs, append(names, "missing.frm"))
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, blobstore.ErrNotFound)

	require.NoError(t, bs.Put(ctx, "garbage.frm", make([]byte, 100)))
	_, err = OpenDataset(ctx, bs, []string{"garbage.frm"})
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, frame.ErrInvalidMagic)
}

func TestDataset_Probe(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 0, 3)

	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)

	// Entry 0 of the first non-empty file has id 0 and therefore a label.
	cols, err := ds.Probe(ctx)
	require.NoError(t, err)
	var got []string
	for _, c := range cols {
		got = append(got, c.Name)
	}
	assert.Equal(t, []string{"id", "x", "y", "hits", "label", "flag"}, got)

	// A file whose first entry lacks a column hides it from the probe.
	require.NoError(t, frame.WriteBlob(ctx, bs, "sparse.frm",
		[]frame.Record{{"a": 1.0}, {"a": 2.0, "b": int32(1)}}))
	sparse, err := OpenDataset(ctx, bs, []string{"sparse.frm"})
	require.NoError(t, err)
	cols, err = sparse.Probe(ctx)
	require.NoError(t, err)
	assert.Equal(t, []schema.Column{{Name: "a", Kind: column.Float64}}, cols)

	union, err := sparse.UnionColumns()
	require.NoError(t, err)
	assert.Len(t, union, 2)

	empty, err := OpenDataset(ctx, bs, names[:1])
	require.NoError(t, err)
	cols, err = empty.Probe(ctx)
	require.NoError(t, err)
	assert.Empty(t, cols)
}

func TestDataset_UnionConflict(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, frame.WriteBlob(ctx, bs, "a.frm", []frame.Record{{"v": 1.0}}))
	require.NoError(t, frame.WriteBlob(ctx, bs, "b.frm", []frame.Record{{"v": "one", "w": true}}))

	ds, err := OpenDataset(ctx, bs, []string{"a.frm", "b.frm"})
	require.NoError(t, err)

	_, err = ds.UnionColumns()
	assert.ErrorIs(t, err, ErrKindConflict)
}

func sessionColumns(names ...string) []schema.Column {
	var out []schema.Column
	for _, n := range names {
		for _, c := range testutil.EventColumns {
			if c.Name == n {
				out = append(out, schema.Column{Name: c.Name, Kind: c.Kind})
			}
		}
	}
	return out
}

func TestSession_Seek(t *testing.T) {
	ctx := context.Background()
	bs, names, recs := fixture(t, 10, 5, 7)
	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)

	s, err := NewSession(ds, sessionColumns("id", "x", "label", "hits"))
	require.NoError(t, err)

	assert.ErrorIs(t, s.Seek(ctx, 0), ErrSessionClosed)

	require.NoError(t, s.Open(ctx, 0))
	assert.ErrorIs(t, s.Open(ctx, 0), ErrSessionOpen)

	_, ok := s.Position()
	assert.False(t, ok, "open does not position")

	var addr unsafe.Pointer
	for e := range uint64(22) {
		require.NoError(t, s.Seek(ctx, e))
		pos, ok := s.Position()
		require.True(t, ok)
		assert.Equal(t, e, pos)

		p, ok := s.Column("id")
		require.True(t, ok)
		assert.Equal(t, recs[e]["id"], *(*int64)(p))
		if addr == nil {
			addr = p
		}
		assert.Equal(t, addr, p, "holder address is stable")

		p, ok = s.Column("x")
		require.True(t, ok)
		assert.Equal(t, recs[e]["x"], *(*float64)(p))

		p, ok = s.Column("hits")
		require.True(t, ok)
		assert.Equal(t, recs[e]["hits"], *(*[]float32)(p))

		p, ok = s.Column("label")
		want, has := recs[e]["label"]
		require.Equal(t, has, ok, "entry %d", e)
		if has {
			assert.Equal(t, want, *(*string)(p))
		}
	}

	_, ok = s.Column("y")
	assert.False(t, ok, "not a session column")

	err = s.Seek(ctx, 22)
	assert.ErrorIs(t, err, ErrNotFound)
	_, ok = s.Position()
	assert.False(t, ok)
	_, ok = s.Column("id")
	assert.False(t, ok)

	// Random access across files.
	require.NoError(t, s.Seek(ctx, 3))
	require.NoError(t, s.Seek(ctx, 20))
	p, ok := s.ColumnAt(0)
	require.True(t, ok)
	assert.Equal(t, int64(20), *(*int64)(p))

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	assert.False(t, s.IsOpen())

	// Reopen after close.
	require.NoError(t, s.Open(ctx, 12))
	require.NoError(t, s.Seek(ctx, 12))
	require.NoError(t, s.Close())
}

func TestSession_SkipsEntriesWithoutColumns(t *testing.T) {
	ctx := context.Background()

	var buf bytes.Buffer
	w, err := frame.NewWriter(&buf)
	require.NoError(t, err)
	require.NoError(t, w.Append(frame.Record{"b": "only b"}))
	require.NoError(t, w.Append(frame.Record{"a": 1.5}))
	require.NoError(t, w.Close())

	// Break the block of entry 0, which carries only "b".
	data := buf.Bytes()
	data[0] ^= 0x40

	bs := blobstore.NewMemoryStore()
	require.NoError(t, bs.Put(ctx, "f.frm", data))
	ds, err := OpenDataset(ctx, bs, []string{"f.frm"})
	require.NoError(t, err)

	onlyA, err := NewSession(ds, []schema.Column{{Name: "a", Kind: column.Float64}})
	require.NoError(t, err)
	require.NoError(t, onlyA.Open(ctx, 0))
	defer onlyA.Close()

	require.NoError(t, onlyA.Seek(ctx, 0), "entry 0 lacks every session column and is not read")
	pos, ok := onlyA.Position()
	require.True(t, ok)
	assert.Equal(t, uint64(0), pos)
	_, ok = onlyA.Column("a")
	assert.False(t, ok)

	require.NoError(t, onlyA.Seek(ctx, 1))
	p, ok := onlyA.Column("a")
	require.True(t, ok)
	assert.Equal(t, 1.5, *(*float64)(p))

	both, err := NewSession(ds, []schema.Column{{Name: "a", Kind: column.Float64}, {Name: "b", Kind: column.String}})
	require.NoError(t, err)
	require.NoError(t, both.Open(ctx, 0))
	defer both.Close()

	assert.ErrorIs(t, both.Seek(ctx, 0), ErrStoreUnavailable)
	require.NoError(t, both.Seek(ctx, 1))
	_, ok = both.Column("b")
	assert.False(t, ok)
}

func TestDataset_Present(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 10, 0, 5, 7)

	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)
	assert.Equal(t, uint64(22), ds.Present("id"))
	// Ids 0, 3, ..., 21 carry a label.
	assert.Equal(t, uint64(8), ds.Present("label"))
	assert.Zero(t, ds.Present("nope"))

	limited, err := OpenDataset(ctx, bs, names, WithEntryLimit(12))
	require.NoError(t, err)
	assert.Equal(t, uint64(12), limited.Present("id"))
	assert.Equal(t, uint64(4), limited.Present("label"))

	empty, err := OpenDataset(ctx, bs, names, WithEntryLimit(0))
	require.NoError(t, err)
	assert.Zero(t, empty.Present("id"))
}

func TestSession_Isolation(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 4, 4)
	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)

	a, err := NewSession(ds, sessionColumns("id"))
	require.NoError(t, err)
	b, err := NewSession(ds, sessionColumns("id"))
	require.NoError(t, err)
	require.NoError(t, a.Open(ctx, 0))
	require.NoError(t, b.Open(ctx, 4))
	defer a.Close()
	defer b.Close()

	require.NoError(t, a.Seek(ctx, 1))
	require.NoError(t, b.Seek(ctx, 6))

	pa, _ := a.Column("id")
	pb, _ := b.Column("id")
	assert.NotEqual(t, pa, pb)
	assert.Equal(t, int64(1), *(*int64)(pa))
	assert.Equal(t, int64(6), *(*int64)(pb))
}

func TestSession_OpenFailure(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 3, 3)
	ds, err := OpenDataset(ctx, bs, names)
	require.NoError(t, err)

	require.NoError(t, bs.Delete(ctx, names[1]))

	s, err := NewSession(ds, sessionColumns("id"))
	require.NoError(t, err)

	err = s.Open(ctx, 4)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.False(t, s.IsOpen())

	require.NoError(t, s.Open(ctx, 0))
	require.NoError(t, s.Seek(ctx, 2))
	assert.ErrorIs(t, s.Seek(ctx, 3), ErrStoreUnavailable)
	require.NoError(t, s.Close())
}

func TestSession_KindConflict(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()
	require.NoError(t, frame.WriteBlob(ctx, bs, "a.frm", []frame.Record{{"v": 1.0}}))
	require.NoError(t, frame.WriteBlob(ctx, bs, "b.frm", []frame.Record{{"v": "one"}}))

	ds, err := OpenDataset(ctx, bs, []string{"a.frm", "b.frm"})
	require.NoError(t, err)

	s, err := NewSession(ds, []schema.Column{{Name: "v", Kind: column.Float64}})
	require.NoError(t, err)
	require.NoError(t, s.Open(ctx, 0))
	defer s.Close()

	require.NoError(t, s.Seek(ctx, 0))
	err = s.Seek(ctx, 1)
	assert.ErrorIs(t, err, ErrStoreUnavailable)
	assert.ErrorIs(t, err, ErrKindConflict)
}

func TestSession_ResourceController(t *testing.T) {
	ctx := context.Background()
	bs, names, _ := fixture(t, 2)
	rc := resource.NewController(resource.Config{MaxOpenFiles: 1})

	ds, err := OpenDataset(ctx, bs, names, WithResourceController(rc))
	require.NoError(t, err)

	a, err := NewSession(ds, sessionColumns("id"))
	require.NoError(t, err)
	require.NoError(t, a.Open(ctx, 0))
	assert.Equal(t, int64(1), rc.OpenFiles())

	b, err := NewSession(ds, sessionColumns("id"))
	require.NoError(t, err)
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, b.Open(canceled, 0), context.Canceled)

	require.NoError(t, a.Close())
	assert.Zero(t, rc.OpenFiles())
	require.NoError(t, b.Open(ctx, 0))
	require.NoError(t, b.Close())
}

func TestNewSession_InvalidKind(t *testing.T) {
	bs, names, _ := fixture(t, 1)
	ds, err := OpenDataset(context.Background(), bs, names)
	require.NoError(t, err)

	_, err = NewSession(ds, []schema.Column{{Name: "bad"}})
	assert.ErrorIs(t, err, column.ErrUnknownKind)
}
