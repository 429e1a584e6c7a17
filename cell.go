package framesource

import (
	"reflect"
	"unsafe"
)

// Cell is the re-seatable address of one column's value for one slot.
//
// After a successful SetEntry on its slot a cell points at the column's value
// for that entry, or is nil when the entry lacks the column. The address is
// valid until the next SetEntry or FinalizeSlot on the same slot.
type Cell struct {
	p unsafe.Pointer
}

// Addr returns the current address, nil when not live.
func (c *Cell) Addr() unsafe.Pointer {
	return c.p
}

// Live reports whether the cell points at a value.
func (c *Cell) Live() bool {
	return c.p != nil
}

// Reader is a typed view of one cell. The type is checked once when the
// readers are bound, so Get is a plain pointer cast.
type Reader[T any] struct {
	cell *Cell
}

// Ptr returns the value's address, nil when the entry lacks the column.
func (r Reader[T]) Ptr() *T {
	return (*T)(r.cell.p)
}

// Get returns a copy of the value and whether the entry carries the column.
// Slice and string values share storage with the slot's session.
func (r Reader[T]) Get() (T, bool) {
	p := (*T)(r.cell.p)
	if p == nil {
		var zero T
		return zero, false
	}
	return *p, true
}

// Readers binds name with Go type T and returns one reader per slot.
// The binding rules of ColumnCells apply.
func Readers[T any](s *Source, name string) ([]Reader[T], error) {
	cells, err := s.ColumnCells(name, reflect.TypeFor[T]())
	if err != nil {
		return nil, err
	}
	out := make([]Reader[T], len(cells))
	for i, c := range cells {
		out[i] = Reader[T]{cell: c}
	}
	return out, nil
}
