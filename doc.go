// Package framesource exposes a set of frame files as named, typed columns
// for a host engine that reads them in parallel over disjoint entry ranges.
//
// Entries are numbered globally across the files in list order. A Source
// splits them into ranges, keeps one reading session per worker slot and
// hands the host one Cell per column and slot. After SetEntry a cell points
// at the column's value for that entry in storage owned by the slot.
//
// # Quick Start
//
//	ctx := context.Background()
//	src, _ := framesource.New(ctx, []string{"a.frm", "b.frm"}, framesource.WithColumns("x", "y"))
//	_ = src.SetNSlots(2)
//	xs, _ := framesource.Readers[float64](src, "x")
//	_ = src.Initialize()
//
//	ranges, _ := src.GetEntryRanges()
//	for i, r := range ranges { // one goroutine per range in practice
//	    slot := uint(i % 2)
//	    _ = src.InitSlot(ctx, slot, r.First)
//	    for e := r.First; e < r.Last; e++ {
//	        if ok, _ := src.SetEntry(ctx, slot, e); !ok {
//	            break
//	        }
//	        if x, ok := xs[slot].Get(); ok {
//	            fmt.Println(e, x)
//	        }
//	    }
//	    _ = src.FinalizeSlot(slot)
//	}
//	_ = src.Finalize()
//
// The dataframe package drives this lifecycle on a worker pool.
//
// # Columns
//
// Columns are discovered from the first entry of the first non-empty file
// (DiscoverProbe) or from the union of all file schemas (DiscoverUnion), then
// filtered by WithColumns. Registry order is discovery order. A column an
// entry lacks is not an error: its cell is nil for that entry.
//
// # Errors
//
// ErrConfig, ErrStoreUnavailable, ErrInvalidSequence, ErrColumnNotFound and
// *TypeMismatchError cover every failure. Test with errors.Is and errors.As.
package framesource
