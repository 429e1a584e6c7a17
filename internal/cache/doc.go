// Package cache provides the byte-block cache behind blobstore.CachingStore.
//
// Blocks are fixed-size slices of immutable blobs keyed by blob name and block
// number. Cached slices are shared between readers and must be treated as
// read-only.
package cache
