package store

import (
	"context"
	"errors"
	"fmt"
	"unsafe"

	"github.com/RoaringBitmap/roaring/v2"
	"github.com/hupe1980/framesource/column"
	"github.com/hupe1980/framesource/frame"
	"github.com/hupe1980/framesource/schema"
)

// Session reads entries of a Dataset and decodes a fixed set of columns
// into storage it owns.
type Session struct {
	ds      *Dataset
	columns []schema.Column
	byName  map[string]int
	holders []column.Holder
	present []bool

	open   bool
	permit bool

	file     *frame.File
	fileIdx  int
	fileCols []int // session column -> file column, -1 when the file lacks it
	presence []*roaring.Bitmap
	entry    frame.Entry

	pos        uint64
	positioned bool
}

// NewSession creates a closed session decoding columns.
func NewSession(ds *Dataset, columns []schema.Column) (*Session, error) {
	s := &Session{
		ds:       ds,
		columns:  append([]schema.Column(nil), columns...),
		byName:   make(map[string]int, len(columns)),
		holders:  make([]column.Holder, len(columns)),
		present:  make([]bool, len(columns)),
		fileIdx:  -1,
		fileCols: make([]int, len(columns)),
		presence: make([]*roaring.Bitmap, len(columns)),
	}
	for i, c := range columns {
		h, err := column.NewHolder(c.Kind)
		if err != nil {
			return nil, fmt.Errorf("store: column %q: %w", c.Name, err)
		}
		s.holders[i] = h
		s.byName[c.Name] = i
	}
	return s, nil
}

// Open establishes access for a run starting at first. When first is
// addressable, the file holding it is opened eagerly so that failures show
// up here rather than on the first Seek. Open does not position the session.
func (s *Session) Open(ctx context.Context, first uint64) error {
	if s.open {
		return ErrSessionOpen
	}
	if err := s.ds.rc.AcquireFile(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	s.permit = true
	s.open = true

	if file, _, ok := s.ds.Locate(first); ok {
		if err := s.switchFile(ctx, file); err != nil {
			_ = s.Close()
			return err
		}
	}
	return nil
}

// IsOpen reports whether the session is open.
func (s *Session) IsOpen() bool {
	return s.open
}

// Seek positions the session on a global entry and decodes the session
// columns the entry carries. Past the end it returns ErrNotFound and the
// session is left unpositioned.
func (s *Session) Seek(ctx context.Context, entry uint64) error {
	if !s.open {
		return ErrSessionClosed
	}
	s.positioned = false
	clear(s.present)

	file, local, ok := s.ds.Locate(entry)
	if !ok {
		return fmt.Errorf("%w: %d >= %d", ErrNotFound, entry, s.ds.Entries())
	}

	if file != s.fileIdx {
		if err := s.switchFile(ctx, file); err != nil {
			return err
		}
	}

	// Entries that carry none of the session columns are not read.
	if !s.carries(uint32(local)) {
		s.pos = entry
		s.positioned = true
		return nil
	}

	if err := s.file.ReadEntry(ctx, local, &s.entry); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: %s entry %d: %w", ErrStoreUnavailable, s.ds.files[file].Name, local, err)
	}

	for i, fc := range s.fileCols {
		if fc < 0 || !s.presence[i].Contains(uint32(local)) {
			continue
		}
		raw, ok := s.entry.Field(fc)
		if !ok {
			continue
		}
		if err := s.holders[i].Decode(raw); err != nil {
			return fmt.Errorf("%w: %s entry %d column %q: %w",
				ErrStoreUnavailable, s.ds.files[file].Name, local, s.columns[i].Name, err)
		}
		s.present[i] = true
	}

	s.pos = entry
	s.positioned = true
	return nil
}

func (s *Session) carries(local uint32) bool {
	for _, bm := range s.presence {
		if bm != nil && bm.Contains(local) {
			return true
		}
	}
	return false
}

// switchFile replaces the cached file. Sequential reads within one file
// never reopen it.
func (s *Session) switchFile(ctx context.Context, file int) error {
	if s.file != nil {
		_ = s.file.Close()
		s.file = nil
		s.fileIdx = -1
	}

	info := s.ds.files[file]

	var opts []frame.OpenOption
	if s.ds.rc != nil {
		opts = append(opts, frame.WithIOLimiter(s.ds.rc))
	}
	f, err := frame.OpenBlob(ctx, s.ds.bs, info.Name, opts...)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrStoreUnavailable, info.Name, err)
	}

	fileCols := f.Columns()
	for i, c := range s.columns {
		s.fileCols[i] = -1
		s.presence[i] = nil
		fc, ok := f.ColumnIndex(c.Name)
		if !ok {
			continue
		}
		if k := fileCols[fc].Kind; k != c.Kind {
			_ = f.Close()
			return fmt.Errorf("%w: %w: %q is %s in %s, want %s",
				ErrStoreUnavailable, ErrKindConflict, c.Name, k, info.Name, c.Kind)
		}
		s.fileCols[i] = fc
		s.presence[i] = f.Presence(c.Name)
	}

	s.file = f
	s.fileIdx = file
	return nil
}

// Column returns the address of the named column's value for the current
// entry. ok is false when the entry lacks the column, the column is not a
// session column, or the session is not positioned.
func (s *Session) Column(name string) (unsafe.Pointer, bool) {
	i, ok := s.byName[name]
	if !ok {
		return nil, false
	}
	return s.ColumnAt(i)
}

// ColumnAt is Column by session column index.
func (s *Session) ColumnAt(i int) (unsafe.Pointer, bool) {
	if !s.positioned || i < 0 || i >= len(s.holders) || !s.present[i] {
		return nil, false
	}
	return s.holders[i].Addr(), true
}

// Position returns the current entry.
func (s *Session) Position() (uint64, bool) {
	return s.pos, s.positioned
}

// Close releases the cached file and the open-file permit. It is idempotent.
func (s *Session) Close() error {
	var err error
	if s.file != nil {
		err = s.file.Close()
		s.file = nil
	}
	s.fileIdx = -1
	s.positioned = false
	clear(s.present)

	if s.permit {
		s.ds.rc.ReleaseFile()
		s.permit = false
	}
	s.open = false
	return err
}
