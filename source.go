package framesource

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/internal/partition"
	"github.com/hupe1980/framesource/schema"
	"github.com/hupe1980/framesource/store"
)

// Label is the name a Source reports to its host engine.
const Label = "framesource"

// EntryRange is the half-open entry interval [First, Last).
type EntryRange = partition.Range

type state int

const (
	stateUnconfigured state = iota
	stateConfigured
	stateSlotsSet
	stateInitialized
	stateFinalized
)

func (s state) String() string {
	switch s {
	case stateUnconfigured:
		return "unconfigured"
	case stateConfigured:
		return "configured"
	case stateSlotsSet:
		return "slots-set"
	case stateInitialized:
		return "initialized"
	case stateFinalized:
		return "finalized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

type slotState struct {
	session *store.Session
	logger  *Logger
	open    bool
}

// Source exposes a set of frame files as typed columns read concurrently
// by slots over disjoint entry ranges.
//
// Lifecycle: New, SetNSlots, column binding (ColumnCells or Readers),
// Initialize, then GetEntryRanges until it returns no ranges. Each range is
// read by one slot with InitSlot, SetEntry per entry, and FinalizeSlot.
// Finalize ends the run once every slot is finalized.
//
// InitSlot, SetEntry and FinalizeSlot may run concurrently for distinct
// slots. All other methods are boundary calls and must not overlap with
// slot operations. Driving one slot from two goroutines is undefined.
type Source struct {
	opts    options
	logger  *Logger
	metrics MetricsCollector
	runID   string

	ds    *store.Dataset
	probe []schema.Column
	reg   *schema.Registry

	state  state
	nSlots uint
	cells  [][]Cell // [column][slot]
	active []bool
	slots  []slotState

	freeze      *sync.Once
	frozen      atomic.Bool
	sessionCols []schema.Column
	sessionIdx  []int // registry index of each session column

	queue *partition.Queue
}

// New configures a source over paths, which are read in list order. It
// opens every file once to count its entries and discovers the columns.
func New(ctx context.Context, paths []string, optFns ...Option) (*Source, error) {
	o := applyOptions(optFns)
	runID := uuid.NewString()
	logger := o.logger.WithRun(runID)

	if err := o.validate(); err != nil {
		logger.LogConfigure(ctx, len(paths), 0, nil, err)
		return nil, err
	}
	if len(paths) == 0 {
		err := fmt.Errorf("%w: no file paths", ErrConfig)
		logger.LogConfigure(ctx, 0, 0, nil, err)
		return nil, err
	}

	bs := o.blobStore
	if bs == nil {
		bs = blobstore.NewLocalStore("")
	}

	ds, err := store.OpenDataset(ctx, bs, paths,
		store.WithEntryLimit(o.entryLimit),
		store.WithResourceController(o.resources),
		store.WithConcurrency(o.openConcurrency),
	)
	if err != nil {
		err = fmt.Errorf("%w: %w", ErrConfig, translateError(err))
		logger.LogConfigure(ctx, len(paths), 0, nil, err)
		return nil, err
	}
	for _, f := range ds.Files() {
		logger.WithFile(f.Name).DebugContext(ctx, "file opened",
			"entries", f.Entries,
			"first", f.First,
			"columns", len(f.Columns),
		)
	}

	probe, err := discover(ctx, ds, o.discovery)
	if err != nil {
		err = fmt.Errorf("%w: %s discovery: %w", ErrConfig, o.discovery, translateError(err))
		logger.LogConfigure(ctx, len(paths), ds.Entries(), nil, err)
		return nil, err
	}

	reg, err := schema.Build(probe, o.columns)
	if err != nil {
		err = translateError(err)
		logger.LogConfigure(ctx, len(paths), ds.Entries(), nil, err)
		return nil, err
	}
	logger.LogMissingColumns(ctx, reg.Missing())

	s := &Source{
		opts:    o,
		logger:  logger,
		metrics: o.metricsCollector,
		runID:   runID,
		ds:      ds,
		probe:   probe,
		reg:     reg,
		state:   stateConfigured,
	}
	logger.LogConfigure(ctx, len(paths), ds.Entries(), reg.Names(), nil)
	return s, nil
}

func discover(ctx context.Context, ds *store.Dataset, d Discovery) ([]schema.Column, error) {
	if d == DiscoverUnion {
		return ds.UnionColumns()
	}
	return ds.Probe(ctx)
}

// SetNSlots sets the number of concurrent slots and allocates one cell per
// column and slot. It may be repeated until Initialize; cells bound before
// a repeated call are discarded.
func (s *Source) SetNSlots(n uint) error {
	if s.state != stateConfigured && s.state != stateSlotsSet {
		return fmt.Errorf("%w: SetNSlots in state %s", ErrInvalidSequence, s.state)
	}
	if n == 0 {
		return fmt.Errorf("%w: slot count must be positive", ErrConfig)
	}
	s.allocate(n)
	s.state = stateSlotsSet
	s.logger.Debug("slots set", "slots", n)
	return nil
}

func (s *Source) allocate(n uint) {
	s.nSlots = n
	s.cells = make([][]Cell, s.reg.Len())
	for i := range s.cells {
		s.cells[i] = make([]Cell, n)
	}
	s.active = make([]bool, s.reg.Len())
	s.slots = make([]slotState, n)
	s.freeze = new(sync.Once)
	s.frozen.Store(false)
}

// Initialize starts a run: it rebuilds the registry from the discovery
// data captured by New, nulls every cell and computes the full partition.
// Calling it again starts over and discards prior claims. Without a prior
// SetNSlots one slot is used.
func (s *Source) Initialize() error {
	switch s.state {
	case stateConfigured:
		s.allocate(1)
	case stateSlotsSet, stateInitialized:
	default:
		return fmt.Errorf("%w: Initialize in state %s", ErrInvalidSequence, s.state)
	}
	if n := s.openSlots(); n > 0 {
		return fmt.Errorf("%w: Initialize with %d open slots", ErrInvalidSequence, n)
	}

	reg, err := schema.Build(s.probe, s.opts.columns)
	if err != nil {
		return translateError(err)
	}
	s.reg = reg

	for i := range s.cells {
		clear(s.cells[i])
	}
	clear(s.slots)
	s.freeze = new(sync.Once)
	s.frozen.Store(false)
	s.sessionCols, s.sessionIdx = nil, nil

	// nSlots and the entry count are fixed once initialized, so a rerun
	// reuses the partition.
	if s.queue == nil {
		chunks := int(s.nSlots) * s.opts.rangesPerSlot
		s.queue = partition.NewQueue(partition.Compute(s.ds.Entries(), chunks))
	} else {
		s.queue.Reset()
	}
	s.state = stateInitialized

	s.logger.Info("initialized",
		"slots", s.nSlots,
		"entries", s.ds.Entries(),
		"ranges", s.queue.Remaining(),
	)
	return nil
}

// GetEntryRanges hands out up to NSlots unclaimed ranges in ascending order.
// A range is never handed out twice in one run; an empty result means all
// ranges are claimed.
func (s *Source) GetEntryRanges() ([]EntryRange, error) {
	if s.state != stateInitialized {
		return nil, fmt.Errorf("%w: GetEntryRanges in state %s", ErrInvalidSequence, s.state)
	}
	ranges := s.queue.Claim(int(s.nSlots))
	s.metrics.RecordRanges(len(ranges))
	s.logger.LogClaim(ranges, s.queue.Remaining())
	return ranges, nil
}

// Partition returns the full partition of the current run, claimed or not.
func (s *Source) Partition() []EntryRange {
	if s.queue == nil {
		return nil
	}
	return s.queue.All()
}

// InitSlot opens a session for slot, replacing any session the slot still
// holds. It does not position the slot; first is the entry the slot will
// start at and lets the session open the right file up front.
func (s *Source) InitSlot(ctx context.Context, slot uint, first uint64) error {
	if s.state != stateInitialized || slot >= s.nSlots {
		return fmt.Errorf("%w: InitSlot(%d) in state %s with %d slots", ErrInvalidSequence, slot, s.state, s.nSlots)
	}
	s.freeze.Do(s.freezeColumns)

	sl := &s.slots[slot]
	if sl.logger == nil {
		sl.logger = s.logger.WithSlot(slot)
	}
	if sl.open {
		_ = sl.session.Close()
		sl.open = false
		s.nullRow(slot)
		s.metrics.RecordSlot(false)
	}
	if sl.session == nil {
		sess, err := store.NewSession(s.ds, s.sessionCols)
		if err != nil {
			return translateError(err)
		}
		sl.session = sess
	}

	if err := sl.session.Open(ctx, first); err != nil {
		err = translateError(err)
		sl.logger.LogSlot(ctx, first, err)
		return err
	}
	sl.open = true
	s.metrics.RecordSlot(true)
	sl.logger.LogSlot(ctx, first, nil)
	return nil
}

// freezeColumns fixes the columns sessions decode for the rest of the run.
func (s *Source) freezeColumns() {
	for i, on := range s.active {
		if on {
			s.sessionCols = append(s.sessionCols, s.reg.At(i))
			s.sessionIdx = append(s.sessionIdx, i)
		}
	}
	s.frozen.Store(true)
}

// SetEntry positions slot on entry and re-seats the slot's cells of every
// bound column; cells of columns the entry lacks become nil.
//
// For an entry past the end SetEntry returns false with a nil error and
// nulls the slot's cells. Store failures return ErrStoreUnavailable.
func (s *Source) SetEntry(ctx context.Context, slot uint, entry uint64) (bool, error) {
	if s.state != stateInitialized || slot >= s.nSlots || !s.slots[slot].open {
		return false, fmt.Errorf("%w: SetEntry(%d) on a slot that is not open", ErrInvalidSequence, slot)
	}
	sess := s.slots[slot].session

	start := time.Now()
	if err := sess.Seek(ctx, entry); err != nil {
		s.nullRow(slot)
		if errors.Is(err, store.ErrNotFound) {
			return false, nil
		}
		err = translateError(err)
		s.metrics.RecordSeek(time.Since(start), err)
		s.slots[slot].logger.LogSeek(ctx, entry, err)
		return false, err
	}

	absent := 0
	for i, col := range s.sessionIdx {
		p, _ := sess.ColumnAt(i)
		s.cells[col][slot].p = p
		if p == nil {
			absent++
		}
	}
	s.metrics.RecordSeek(time.Since(start), nil)
	if absent > 0 {
		s.metrics.RecordAbsent(absent)
	}
	return true, nil
}

// FinalizeSlot closes the slot's session and nulls its cells.
func (s *Source) FinalizeSlot(slot uint) error {
	if s.state != stateInitialized || slot >= s.nSlots || !s.slots[slot].open {
		return fmt.Errorf("%w: FinalizeSlot(%d) on a slot that is not open", ErrInvalidSequence, slot)
	}
	sl := &s.slots[slot]
	err := sl.session.Close()
	sl.open = false
	s.nullRow(slot)
	s.metrics.RecordSlot(false)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	return nil
}

func (s *Source) nullRow(slot uint) {
	for i := range s.cells {
		s.cells[i][slot].p = nil
	}
}

// Finalize ends the run and releases the discovery data. Every slot must
// be finalized first.
func (s *Source) Finalize() error {
	switch s.state {
	case stateConfigured, stateSlotsSet, stateInitialized:
	default:
		return fmt.Errorf("%w: Finalize in state %s", ErrInvalidSequence, s.state)
	}
	if n := s.openSlots(); n > 0 {
		return fmt.Errorf("%w: Finalize with %d open slots", ErrInvalidSequence, n)
	}
	s.probe = nil
	s.queue = nil
	s.state = stateFinalized
	s.logger.Info("finalized")
	return nil
}

func (s *Source) openSlots() int {
	n := 0
	for _, sl := range s.slots {
		if sl.open {
			n++
		}
	}
	return n
}

// ColumnCells binds the named column with Go type typ and returns one cell
// per slot. Binding is allowed between SetNSlots (or Initialize) and the
// first InitSlot of a run. Only bound columns are decoded.
func (s *Source) ColumnCells(name string, typ reflect.Type) ([]*Cell, error) {
	if s.state != stateSlotsSet && s.state != stateInitialized {
		return nil, fmt.Errorf("%w: binding %q in state %s", ErrInvalidSequence, name, s.state)
	}
	if s.frozen.Load() {
		return nil, fmt.Errorf("%w: binding %q after the first InitSlot", ErrInvalidSequence, name)
	}

	i, ok := s.reg.Index(name)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	if want := s.reg.At(i).Kind.GoType(); typ != want {
		return nil, &TypeMismatchError{Column: name, Want: want, Got: typ}
	}

	s.active[i] = true
	out := make([]*Cell, s.nSlots)
	for j := range out {
		out[j] = &s.cells[i][j]
	}
	return out, nil
}

// ColumnNames returns the exposed columns in registry order.
func (s *Source) ColumnNames() []string {
	if s.reg == nil {
		return nil
	}
	return s.reg.Names()
}

// HasColumn reports whether name is an exposed column.
func (s *Source) HasColumn(name string) bool {
	return s.reg != nil && s.reg.Has(name)
}

// TypeName returns the Go type name of a column's values, or "" when the
// column is unknown.
func (s *Source) TypeName(name string) string {
	if s.reg == nil {
		return ""
	}
	return s.reg.TypeName(name)
}

// Columns returns the exposed columns with their kinds.
func (s *Source) Columns() []schema.Column {
	if s.reg == nil {
		return nil
	}
	return s.reg.Columns()
}

// MissingColumns returns allow-listed names that were not discovered.
func (s *Source) MissingColumns() []string {
	if s.reg == nil {
		return nil
	}
	return s.reg.Missing()
}

// Entries returns the number of entries the source exposes.
func (s *Source) Entries() uint64 {
	if s.ds == nil {
		return 0
	}
	return s.ds.Entries()
}

// Files describes the backing files in list order.
func (s *Source) Files() []store.FileInfo {
	if s.ds == nil {
		return nil
	}
	return s.ds.Files()
}

func (s *Source) NSlots() uint  { return s.nSlots }
// Present returns how many entries carry the named column. It reads only
// file metadata.
func (s *Source) Present(name string) uint64 {
	if s.ds == nil {
		return 0
	}
	return s.ds.Present(name)
}

func (s *Source) RunID() string { return s.runID }
func (s *Source) Label() string { return Label }

func (s *Source) String() string {
	return fmt.Sprintf("%s(files=%d entries=%d columns=%d state=%s)",
		Label, len(s.Files()), s.Entries(), len(s.ColumnNames()), s.state)
}
