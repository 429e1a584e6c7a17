// Package dataframe is a small host engine for framesource: it configures
// a Source over a file list or glob and drives its lifecycle on a worker
// pool, one slot per worker.
//
//	f, _ := dataframe.FromGlob(ctx, "data/*.frm", dataframe.WithWorkers(4))
//	x, _ := dataframe.Column[float64](f, "x")
//	sum, _ := dataframe.Reduce(ctx, f, x, 0.0,
//	    func(acc, v float64) float64 { return acc + v },
//	    func(a, b float64) float64 { return a + b })
//
// A Frame runs once. Bind every column before running it.
package dataframe
