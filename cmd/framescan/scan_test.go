package main

import (
	"bufio"
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/hupe1980/framesource"
	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/codec"
	"github.com/hupe1980/framesource/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeDir writes files of 10, 5 and 7 entries (22 in total) into a
// temporary directory.
func writeDir(t *testing.T) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	names, _, err := testutil.WriteFrames(context.Background(), blobstore.NewLocalStore(dir), testutil.NewRNG(7), []int{10, 5, 7})
	require.NoError(t, err)
	return dir, names
}

func scan(t *testing.T, c Config) string {
	t.Helper()
	var out bytes.Buffer
	require.NoError(t, run(context.Background(), c, &out))
	return out.String()
}

func TestRun_Count(t *testing.T) {
	dir, names := writeDir(t)

	t.Run("glob in root", func(t *testing.T) {
		c := Default()
		c.Mode, c.Root, c.Glob = "count", dir, "part-*.frm"
		assert.Equal(t, "22\n", scan(t, c))
	})

	t.Run("glob on paths", func(t *testing.T) {
		c := Default()
		c.Mode, c.Glob = "count", filepath.Join(dir, "*.frm")
		assert.Equal(t, "22\n", scan(t, c))
	})

	t.Run("file list with limit", func(t *testing.T) {
		c := Default()
		c.Mode, c.Root, c.Files, c.Limit = "count", dir, names[0]+", "+names[2], 12
		assert.Equal(t, "12\n", scan(t, c))
	})

	t.Run("cached", func(t *testing.T) {
		c := Default()
		c.Mode, c.Root, c.Glob, c.CacheMB, c.MemoryMB = "count", dir, "*.frm", 1, 4
		assert.Equal(t, "22\n", scan(t, c))
	})
}

func TestRun_Describe(t *testing.T) {
	dir, _ := writeDir(t)

	c := Default()
	c.Root, c.Glob = dir, "*.frm"
	out := scan(t, c)
	assert.Contains(t, out, "22")
	assert.Contains(t, out, "part-001.frm")
	assert.Contains(t, out, "[]float32")
	assert.NotContains(t, out, "missing")

	c.JSON = true
	c.Columns = "y,id,nope"
	var d description
	require.NoError(t, codec.Default.Unmarshal([]byte(scan(t, c)), &d))

	assert.Equal(t, uint64(22), d.Entries)
	require.Len(t, d.Files, 3)
	assert.Equal(t, fileDoc{Name: "part-001.frm", Entries: 5, First: 10}, d.Files[1])
	assert.Equal(t, []columnDoc{{Name: "id", Type: "int64", Present: 22}, {Name: "y", Type: "float64", Present: 22}}, d.Columns)
	assert.Equal(t, []string{"nope"}, d.Missing)
}

func TestRun_Summary(t *testing.T) {
	dir, _ := writeDir(t)

	c := Default()
	c.Mode, c.Root, c.Glob, c.Workers, c.JSON = "summary", dir, "*.frm", 3, true

	var rows []summaryRow
	require.NoError(t, codec.Default.Unmarshal([]byte(scan(t, c)), &rows))

	byName := make(map[string]summaryRow, len(rows))
	for _, r := range rows {
		byName[r.Column] = r
	}
	require.Len(t, byName, len(testutil.EventColumns))

	id := byName["id"]
	assert.Equal(t, "int64", id.Type)
	assert.Equal(t, uint64(22), id.Present)
	assert.Equal(t, uint64(22), id.Values)
	require.NotNil(t, id.Mean)
	assert.InDelta(t, 0, *id.Min, 1e-9)
	assert.InDelta(t, 21, *id.Max, 1e-9)
	assert.InDelta(t, 10.5, *id.Mean, 1e-9)

	// Ids 0, 3, ..., 21 carry a label.
	label := byName["label"]
	assert.Equal(t, uint64(8), label.Present)
	assert.Equal(t, uint64(0), label.Values)
	assert.Nil(t, label.Mean)

	// Counting by scan agrees with the file metadata describe reports.
	c.Mode = "describe"
	var d description
	require.NoError(t, codec.Default.Unmarshal([]byte(scan(t, c)), &d))
	for _, cd := range d.Columns {
		assert.Equal(t, byName[cd.Name].Present, cd.Present, cd.Name)
	}
	c.Mode = "summary"

	flag := byName["flag"]
	require.NotNil(t, flag.Mean)
	assert.InDelta(t, 0.5, *flag.Mean, 1e-9)

	c.JSON = false
	out := scan(t, c)
	assert.Contains(t, out, "COLUMN")
	assert.Contains(t, out, "label")
}

func TestRun_Dump(t *testing.T) {
	dir, _ := writeDir(t)

	c := Default()
	c.Mode, c.Root, c.Glob, c.Workers, c.Columns = "dump", dir, "*.frm", 4, "id,label"

	sc := bufio.NewScanner(bytes.NewBufferString(scan(t, c)))
	var n int
	for sc.Scan() {
		var row map[string]any
		require.NoError(t, codec.Default.Unmarshal(sc.Bytes(), &row))
		assert.InDelta(t, float64(n), row["_entry"], 0)
		assert.InDelta(t, float64(n), row["id"], 0)
		if n%3 == 0 {
			assert.Contains(t, row, "label")
		} else {
			assert.NotContains(t, row, "label")
		}
		n++
	}
	require.NoError(t, sc.Err())
	assert.Equal(t, 22, n)
}

func TestRun_Errors(t *testing.T) {
	dir, _ := writeDir(t)

	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"unknown mode", func(c *Config) { c.Mode = "plot" }},
		{"unknown discovery", func(c *Config) { c.Discovery = "guess" }},
		{"unknown store", func(c *Config) { c.Store = "tape" }},
		{"bad log level", func(c *Config) { c.LogLevel = "loud" }},
		{"no match", func(c *Config) { c.Glob = "*.parquet" }},
		{"no files", func(c *Config) { c.Glob = "" }},
		{"zero ranges", func(c *Config) { c.RangesPerSlot = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := Default()
			c.Root, c.Glob = dir, "*.frm"
			tt.modify(&c)
			err := run(context.Background(), c, &bytes.Buffer{})
			assert.ErrorIs(t, err, framesource.ErrConfig)
		})
	}
}
