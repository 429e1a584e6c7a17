// Package store reads entries of a frame file set by global index.
//
// A Dataset is the immutable description of the file set: names, entry
// counts, schemas and the cumulative index that maps a global entry to a
// (file, local entry) pair. A Session is one reader over a Dataset. Sessions
// share nothing but the Dataset and may run concurrently; a single Session
// must not be used from two goroutines.
package store
