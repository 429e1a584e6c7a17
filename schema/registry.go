// Package schema holds the column registry: the ordered, name-indexed set of
// columns a source exposes for one run.
package schema

import (
	"errors"
	"fmt"

	"github.com/hupe1980/framesource/column"
)

// ErrDuplicateColumn is returned when discovery yields the same name twice.
var ErrDuplicateColumn = errors.New("schema: duplicate column")

// Column describes one exposed column.
type Column struct {
	Name string
	Kind column.Kind
}

// Registry is immutable after Build and safe for concurrent reads.
type Registry struct {
	columns []Column
	index   map[string]int
	missing []string
}

// Build filters discovered columns by allow and keeps discovery order.
// An empty allow-list keeps everything. Allowed names that were not
// discovered are dropped and reported by Missing.
func Build(discovered []Column, allow []string) (*Registry, error) {
	seen := make(map[string]struct{}, len(discovered))
	for _, c := range discovered {
		if _, dup := seen[c.Name]; dup {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		seen[c.Name] = struct{}{}
	}

	r := &Registry{index: make(map[string]int)}

	var allowed map[string]struct{}
	if len(allow) > 0 {
		allowed = make(map[string]struct{}, len(allow))
		for _, name := range allow {
			if _, dup := allowed[name]; dup {
				continue
			}
			allowed[name] = struct{}{}
			if _, ok := seen[name]; !ok {
				r.missing = append(r.missing, name)
			}
		}
	}

	for _, c := range discovered {
		if allowed != nil {
			if _, ok := allowed[c.Name]; !ok {
				continue
			}
		}
		r.index[c.Name] = len(r.columns)
		r.columns = append(r.columns, c)
	}
	return r, nil
}

// Missing returns allow-listed names that discovery did not find.
func (r *Registry) Missing() []string {
	return append([]string(nil), r.missing...)
}

// Len returns the number of columns.
func (r *Registry) Len() int {
	return len(r.columns)
}

// Names returns the column names in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.columns))
	for i, c := range r.columns {
		names[i] = c.Name
	}
	return names
}

// Columns returns a copy of the columns in registry order.
func (r *Registry) Columns() []Column {
	return append([]Column(nil), r.columns...)
}

// At returns column i.
func (r *Registry) At(i int) Column {
	return r.columns[i]
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.index[name]
	return ok
}

// Index returns the registry position of name.
func (r *Registry) Index(name string) (int, bool) {
	i, ok := r.index[name]
	return i, ok
}

// Kind returns the kind of name.
func (r *Registry) Kind(name string) (column.Kind, bool) {
	i, ok := r.index[name]
	if !ok {
		return column.Invalid, false
	}
	return r.columns[i].Kind, true
}

// TypeName returns the type name of name, or "" when it is unknown.
func (r *Registry) TypeName(name string) string {
	k, ok := r.Kind(name)
	if !ok {
		return ""
	}
	return k.String()
}
