package testutil

import (
	"context"
	"testing"

	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/frame"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRNG_Reset(t *testing.T) {
	rng := NewRNG(4711)
	a := rng.Float64()
	rng.Reset()
	assert.Equal(t, a, rng.Float64())
	assert.Equal(t, int64(4711), rng.Seed())
}

func TestEvent(t *testing.T) {
	rng := NewRNG(1)

	rec := rng.Event(3)
	assert.Equal(t, int64(3), rec["id"])
	assert.Equal(t, "event-3", rec["label"])
	assert.Equal(t, false, rec["flag"])

	_, ok := rng.Event(4)["label"]
	assert.False(t, ok)
}

func TestWriteFrames(t *testing.T) {
	ctx := context.Background()
	bs := blobstore.NewMemoryStore()

	names, records, err := WriteFrames(ctx, bs, NewRNG(4711), []int{3, 0, 2})
	require.NoError(t, err)
	assert.Equal(t, []string{"part-000.frm", "part-001.frm", "part-002.frm"}, names)

	flat := Flatten(records)
	require.Len(t, flat, 5)
	for i, rec := range flat {
		assert.Equal(t, int64(i), rec["id"])
	}

	f, err := frame.OpenBlob(ctx, bs, names[2])
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, uint64(2), f.NumEntries())
	assert.Equal(t, EventColumns, f.Columns())
}
