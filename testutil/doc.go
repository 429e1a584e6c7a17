// Package testutil provides fixtures for framesource tests and benchmarks.
//
// This package is intended for use in tests and benchmarks only.
//
//	rng := testutil.NewRNG(4711)
//	names, records, err := testutil.WriteFrames(ctx, store, rng, []int{10, 5, 7})
//
// Every record carries the global entry index in "id", so a reader can
// check which entry it is looking at.
package testutil
