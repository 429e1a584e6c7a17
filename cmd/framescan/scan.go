package main

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"slices"
	"strings"
	"text/tabwriter"

	"github.com/hupe1980/framesource"
	"github.com/hupe1980/framesource/codec"
	"github.com/hupe1980/framesource/column"
	"github.com/hupe1980/framesource/dataframe"
	"github.com/hupe1980/framesource/internal/cli"
	"github.com/hupe1980/framesource/resource"
	"github.com/hupe1980/framesource/schema"
)

var modes = []string{"describe", "count", "summary", "dump"}

func run(ctx context.Context, c Config, w io.Writer) error {
	if !slices.Contains(modes, c.Mode) {
		return fmt.Errorf("%w: unknown mode %q, want one of %s", framesource.ErrConfig, c.Mode, strings.Join(modes, ", "))
	}
	logger, err := cli.Logger(c.LogLevel, c.LogJSON)
	if err != nil {
		return err
	}
	discovery, err := framesource.ParseDiscovery(c.Discovery)
	if err != nil {
		return err
	}

	rc := resource.NewController(resource.Config{
		MemoryLimitBytes:   c.MemoryMB << 20,
		MaxOpenFiles:       c.MaxOpenFiles,
		IOLimitBytesPerSec: c.ReadMBps << 20,
	})
	bs, err := cli.OpenStore(ctx, cli.StoreConfig{
		Kind:      c.Store,
		Root:      c.Root,
		Bucket:    c.Bucket,
		Prefix:    c.Prefix,
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Secure:    c.Secure,
		CacheMB:   c.CacheMB,
	}, rc)
	if err != nil {
		return err
	}

	workers := c.Workers
	if c.Mode == "dump" {
		workers = 1
	}
	opts := []dataframe.Option{
		dataframe.WithBlobStore(bs),
		dataframe.WithWorkers(workers),
		dataframe.WithSourceOptions(
			framesource.WithLogger(logger),
			framesource.WithEntryLimit(c.Limit),
			framesource.WithColumns(cli.SplitList(c.Columns)...),
			framesource.WithRangesPerSlot(c.RangesPerSlot),
			framesource.WithDiscovery(discovery),
			framesource.WithResourceController(rc),
		),
	}

	f, err := openFrame(ctx, c, opts)
	if err != nil {
		return err
	}

	switch c.Mode {
	case "describe":
		return describe(w, f.Source(), c.JSON)
	case "count":
		n, err := f.Count(ctx)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, n)
		return err
	case "summary":
		return summarize(ctx, w, f, c.JSON)
	default:
		return dump(ctx, w, f)
	}
}

func openFrame(ctx context.Context, c Config, opts []dataframe.Option) (*dataframe.Frame, error) {
	switch {
	case c.Glob == "":
		return dataframe.FromFiles(ctx, cli.SplitList(c.Files), opts...)
	case isLocal(c.Store) && c.Root == "":
		// Without a root, store names are plain paths.
		paths, err := filepath.Glob(c.Glob)
		if err != nil {
			return nil, fmt.Errorf("%w: pattern %q: %w", framesource.ErrConfig, c.Glob, err)
		}
		if len(paths) == 0 {
			return nil, fmt.Errorf("%w: no files match %q", framesource.ErrConfig, c.Glob)
		}
		return dataframe.FromFiles(ctx, paths, opts...)
	default:
		return dataframe.FromGlob(ctx, c.Glob, opts...)
	}
}

func isLocal(kind string) bool {
	return kind == "" || strings.EqualFold(kind, "local")
}

type fileDoc struct {
	Name    string `json:"name"`
	Entries uint64 `json:"entries"`
	First   uint64 `json:"first"`
}

type columnDoc struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	Present uint64 `json:"present"`
}

type description struct {
	Entries uint64      `json:"entries"`
	Files   []fileDoc   `json:"files"`
	Columns []columnDoc `json:"columns"`
	Missing []string    `json:"missing,omitempty"`
}

func describe(w io.Writer, src *framesource.Source, asJSON bool) error {
	d := description{Entries: src.Entries(), Missing: src.MissingColumns()}
	for _, fi := range src.Files() {
		d.Files = append(d.Files, fileDoc{Name: fi.Name, Entries: fi.Entries, First: fi.First})
	}
	for _, name := range src.ColumnNames() {
		d.Columns = append(d.Columns, columnDoc{Name: name, Type: src.TypeName(name), Present: src.Present(name)})
	}

	if asJSON {
		return writeJSON(w, d)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "entries\t%d\n\n", d.Entries)
	fmt.Fprintln(tw, "FILE\tENTRIES\tFIRST")
	for _, fd := range d.Files {
		fmt.Fprintf(tw, "%s\t%d\t%d\n", fd.Name, fd.Entries, fd.First)
	}
	fmt.Fprintln(tw, "\nCOLUMN\tTYPE\tPRESENT")
	for _, cd := range d.Columns {
		fmt.Fprintf(tw, "%s\t%s\t%d\n", cd.Name, cd.Type, cd.Present)
	}
	if len(d.Missing) > 0 {
		fmt.Fprintf(tw, "\nmissing\t%s\n", strings.Join(d.Missing, ","))
	}
	return tw.Flush()
}

func writeJSON(w io.Writer, v any) error {
	b, err := codec.Default.Marshal(v)
	if err != nil {
		return err
	}
	_, err = w.Write(append(b, '\n'))
	return err
}

type getter func(slot uint) (any, bool)

func bindTyped[T any](f *dataframe.Frame, name string) (getter, error) {
	col, err := dataframe.Column[T](f, name)
	if err != nil {
		return nil, err
	}
	return func(slot uint) (any, bool) { return col.Get(slot) }, nil
}

func bind(f *dataframe.Frame, c schema.Column) (getter, error) {
	switch c.Kind {
	case column.Bool:
		return bindTyped[bool](f, c.Name)
	case column.Int32:
		return bindTyped[int32](f, c.Name)
	case column.Int64:
		return bindTyped[int64](f, c.Name)
	case column.Uint32:
		return bindTyped[uint32](f, c.Name)
	case column.Uint64:
		return bindTyped[uint64](f, c.Name)
	case column.Float32:
		return bindTyped[float32](f, c.Name)
	case column.Float64:
		return bindTyped[float64](f, c.Name)
	case column.String:
		return bindTyped[string](f, c.Name)
	case column.Bytes:
		return bindTyped[[]byte](f, c.Name)
	case column.Int32s:
		return bindTyped[[]int32](f, c.Name)
	case column.Int64s:
		return bindTyped[[]int64](f, c.Name)
	case column.Uint64s:
		return bindTyped[[]uint64](f, c.Name)
	case column.Float32s:
		return bindTyped[[]float32](f, c.Name)
	case column.Float64s:
		return bindTyped[[]float64](f, c.Name)
	case column.Strings:
		return bindTyped[[]string](f, c.Name)
	default:
		return nil, fmt.Errorf("column %q: %w", c.Name, column.ErrUnknownKind)
	}
}

func bindAll(f *dataframe.Frame) ([]schema.Column, []getter, error) {
	cols := f.Source().Columns()
	getters := make([]getter, len(cols))
	for i, c := range cols {
		g, err := bind(f, c)
		if err != nil {
			return nil, nil, err
		}
		getters[i] = g
	}
	return cols, getters, nil
}

func dump(ctx context.Context, w io.Writer, f *dataframe.Frame) error {
	cols, getters, err := bindAll(f)
	if err != nil {
		return err
	}

	// One worker, so entries arrive in order.
	return f.ForEach(ctx, func(slot uint, entry uint64) error {
		row := make(map[string]any, len(cols)+1)
		row["_entry"] = entry
		for i, c := range cols {
			if v, ok := getters[i](slot); ok {
				row[c.Name] = v
			}
		}
		return writeJSON(w, row)
	})
}

type stats struct {
	present uint64
	count   uint64
	min     float64
	max     float64
	sum     float64
}

func (s *stats) add(v float64) {
	if s.count == 0 || v < s.min {
		s.min = v
	}
	if s.count == 0 || v > s.max {
		s.max = v
	}
	s.count++
	s.sum += v
}

func (s *stats) merge(o stats) {
	s.present += o.present
	if o.count == 0 {
		return
	}
	if s.count == 0 || o.min < s.min {
		s.min = o.min
	}
	if s.count == 0 || o.max > s.max {
		s.max = o.max
	}
	s.count += o.count
	s.sum += o.sum
}

// numbers calls fn for every number a value holds. Slices contribute each
// element; strings and bytes hold none.
func numbers(v any, fn func(float64)) {
	switch x := v.(type) {
	case bool:
		if x {
			fn(1)
		} else {
			fn(0)
		}
	case int32:
		fn(float64(x))
	case int64:
		fn(float64(x))
	case uint32:
		fn(float64(x))
	case uint64:
		fn(float64(x))
	case float32:
		fn(float64(x))
	case float64:
		fn(x)
	case []int32:
		for _, e := range x {
			fn(float64(e))
		}
	case []int64:
		for _, e := range x {
			fn(float64(e))
		}
	case []uint64:
		for _, e := range x {
			fn(float64(e))
		}
	case []float32:
		for _, e := range x {
			fn(float64(e))
		}
	case []float64:
		for _, e := range x {
			fn(e)
		}
	}
}

// summaryRow leaves Min, Max and Mean nil for columns without numbers.
type summaryRow struct {
	Column  string   `json:"column"`
	Type    string   `json:"type"`
	Present uint64   `json:"present"`
	Values  uint64   `json:"values"`
	Min     *float64 `json:"min,omitempty"`
	Max     *float64 `json:"max,omitempty"`
	Mean    *float64 `json:"mean,omitempty"`
}

func newSummaryRow(c schema.Column, s stats) summaryRow {
	r := summaryRow{Column: c.Name, Type: c.Kind.String(), Present: s.present, Values: s.count}
	if s.count > 0 {
		mean := s.sum / float64(s.count)
		r.Min, r.Max, r.Mean = &s.min, &s.max, &mean
	}
	return r
}

func summarize(ctx context.Context, w io.Writer, f *dataframe.Frame, asJSON bool) error {
	cols, getters, err := bindAll(f)
	if err != nil {
		return err
	}

	perSlot := make([][]stats, f.Workers())
	for i := range perSlot {
		perSlot[i] = make([]stats, len(cols))
	}
	err = f.ForEach(ctx, func(slot uint, _ uint64) error {
		row := perSlot[slot]
		for i, get := range getters {
			v, ok := get(slot)
			if !ok {
				continue
			}
			row[i].present++
			numbers(v, row[i].add)
		}
		return nil
	})
	if err != nil {
		return err
	}

	rows := make([]summaryRow, len(cols))
	for i, c := range cols {
		var total stats
		for _, slot := range perSlot {
			total.merge(slot[i])
		}
		rows[i] = newSummaryRow(c, total)
	}

	if asJSON {
		return writeJSON(w, rows)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "COLUMN\tTYPE\tPRESENT\tVALUES\tMIN\tMAX\tMEAN")
	for _, r := range rows {
		if r.Mean == nil {
			fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t-\t-\t-\n", r.Column, r.Type, r.Present, r.Values)
			continue
		}
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%g\t%g\t%g\n", r.Column, r.Type, r.Present, r.Values, *r.Min, *r.Max, *r.Mean)
	}
	return tw.Flush()
}
