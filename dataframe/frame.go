package dataframe

import (
	"context"
	"errors"
	"fmt"
	"path"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync/atomic"

	"github.com/hupe1980/framesource"
	"github.com/hupe1980/framesource/blobstore"
	"golang.org/x/sync/errgroup"
)

var (
	// ErrPoolClosed is returned when submitting to a closed worker pool.
	ErrPoolClosed = errors.New("dataframe: worker pool closed")
	// ErrAlreadyRun is returned when a Frame is run a second time.
	ErrAlreadyRun = errors.New("dataframe: frame already run")
)

type options struct {
	workers    int
	blobStore  blobstore.BlobStore
	sourceOpts []framesource.Option
}

// Option configures FromFiles and FromGlob.
type Option func(*options)

// WithWorkers sets the number of workers and slots. Default GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(o *options) {
		o.workers = n
	}
}

// WithBlobStore reads files from bs. FromGlob then matches the pattern
// against the names bs lists.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithSourceOptions passes options through to framesource.New.
func WithSourceOptions(opts ...framesource.Option) Option {
	return func(o *options) {
		o.sourceOpts = append(o.sourceOpts, opts...)
	}
}

func applyOptions(optFns []Option) options {
	o := options{workers: runtime.GOMAXPROCS(0)}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	if o.workers < 1 {
		o.workers = 1
	}
	return o
}

// Frame is a configured Source ready to be run on a worker pool.
type Frame struct {
	src     *framesource.Source
	workers int
	ran     atomic.Bool
}

// FromFiles configures a Frame over paths, read in list order.
func FromFiles(ctx context.Context, paths []string, opts ...Option) (*Frame, error) {
	o := applyOptions(opts)

	srcOpts := o.sourceOpts
	if o.blobStore != nil {
		srcOpts = append(srcOpts, framesource.WithBlobStore(o.blobStore))
	}
	src, err := framesource.New(ctx, paths, srcOpts...)
	if err != nil {
		return nil, err
	}
	if err := src.SetNSlots(uint(o.workers)); err != nil {
		return nil, err
	}
	return &Frame{src: src, workers: o.workers}, nil
}

// FromGlob expands pattern to a sorted file list and calls FromFiles.
// Without a blob store the pattern is matched against the local file
// system, otherwise against the store's names.
func FromGlob(ctx context.Context, pattern string, opts ...Option) (*Frame, error) {
	o := applyOptions(opts)

	var (
		paths []string
		err   error
	)
	if o.blobStore == nil {
		paths, err = filepath.Glob(pattern)
	} else {
		paths, err = globStore(ctx, o.blobStore, pattern)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: pattern %q: %w", framesource.ErrConfig, pattern, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no files match %q", framesource.ErrConfig, pattern)
	}
	slices.Sort(paths)
	return FromFiles(ctx, paths, opts...)
}

func globStore(ctx context.Context, bs blobstore.BlobStore, pattern string) ([]string, error) {
	if _, err := path.Match(pattern, ""); err != nil {
		return nil, err
	}
	prefix := pattern
	if i := strings.IndexAny(pattern, `*?[\`); i >= 0 {
		prefix = pattern[:i]
	}

	names, err := bs.List(ctx, prefix)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, name := range names {
		if ok, _ := path.Match(pattern, name); ok {
			out = append(out, name)
		}
	}
	return out, nil
}

// Source returns the underlying source.
func (f *Frame) Source() *framesource.Source {
	return f.src
}

// Columns returns the column names in registry order.
func (f *Frame) Columns() []string {
	return f.src.ColumnNames()
}

// Workers returns the number of workers and slots.
func (f *Frame) Workers() int {
	return f.workers
}

// Col is a column bound to every slot of a Frame.
type Col[T any] struct {
	name    string
	readers []framesource.Reader[T]
}

// Column binds name with Go type T.
func Column[T any](f *Frame, name string) (*Col[T], error) {
	rs, err := framesource.Readers[T](f.src, name)
	if err != nil {
		return nil, err
	}
	return &Col[T]{name: name, readers: rs}, nil
}

// Name returns the column name.
func (c *Col[T]) Name() string {
	return c.name
}

// Get returns the value for the entry slot is positioned on.
func (c *Col[T]) Get(slot uint) (T, bool) {
	return c.readers[slot].Get()
}

// ForEach runs the source to completion and calls fn once per entry on the
// worker holding slot. fn runs concurrently for different slots. The first
// error stops the run and is returned.
func (f *Frame) ForEach(ctx context.Context, fn func(slot uint, entry uint64) error) error {
	if !f.ran.CompareAndSwap(false, true) {
		return ErrAlreadyRun
	}
	if err := f.src.Initialize(); err != nil {
		return err
	}

	runErr := f.run(ctx, fn)
	finErr := f.src.Finalize()
	if runErr != nil {
		return runErr
	}
	return finErr
}

func (f *Frame) run(ctx context.Context, fn func(slot uint, entry uint64) error) error {
	pool := NewWorkerPool(f.workers)
	defer pool.Close()

	free := make(chan uint, f.workers)
	for i := range f.workers {
		free <- uint(i)
	}

	for {
		ranges, err := f.src.GetEntryRanges()
		if err != nil {
			return err
		}
		if len(ranges) == 0 {
			return nil
		}

		// Installments hold at most one range per slot, and every slot is
		// back in free once the previous installment is done.
		g, gctx := errgroup.WithContext(ctx)
		for _, r := range ranges {
			slot := <-free
			g.Go(func() error {
				defer func() { free <- slot }()
				return pool.Do(gctx, func() error {
					return f.readRange(gctx, slot, r, fn)
				})
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
}

func (f *Frame) readRange(ctx context.Context, slot uint, r framesource.EntryRange, fn func(uint, uint64) error) error {
	if err := f.src.InitSlot(ctx, slot, r.First); err != nil {
		return err
	}

	err := func() error {
		for e := r.First; e < r.Last; e++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			ok, err := f.src.SetEntry(ctx, slot, e)
			if err != nil {
				return err
			}
			if !ok {
				return nil
			}
			if err := fn(slot, e); err != nil {
				return err
			}
		}
		return nil
	}()

	if ferr := f.src.FinalizeSlot(slot); err == nil {
		err = ferr
	}
	return err
}

// Count runs the frame and returns the number of entries read.
func (f *Frame) Count(ctx context.Context) (uint64, error) {
	counts := make([]uint64, f.workers)
	err := f.ForEach(ctx, func(slot uint, _ uint64) error {
		counts[slot]++
		return nil
	})
	if err != nil {
		return 0, err
	}

	var n uint64
	for _, c := range counts {
		n += c
	}
	return n, nil
}

// Reduce runs the frame and folds every present value of col. Each slot
// folds into its own accumulator starting at init; the accumulators are
// combined with merge at the end, so init must be neutral for merge.
// Entries that lack the column are skipped.
func Reduce[T, A any](ctx context.Context, f *Frame, col *Col[T], init A, fold func(A, T) A, merge func(A, A) A) (A, error) {
	accs := make([]A, f.workers)
	for i := range accs {
		accs[i] = init
	}

	err := f.ForEach(ctx, func(slot uint, _ uint64) error {
		if v, ok := col.Get(slot); ok {
			accs[slot] = fold(accs[slot], v)
		}
		return nil
	})
	if err != nil {
		var zero A
		return zero, err
	}

	out := accs[0]
	for _, acc := range accs[1:] {
		out = merge(out, acc)
	}
	return out, nil
}
