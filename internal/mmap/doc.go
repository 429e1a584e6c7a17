// Package mmap provides read-only memory-mapped access to local frame files.
//
// # Usage
//
//	m, err := mmap.Open("events-000.frm")
//	if err != nil { ... }
//	defer m.Close()
//
//	data := m.Bytes() // zero-copy view of the whole file
//	_ = m.Advise(mmap.AccessSequential)
//
// # Platform Support
//
//   - Unix (Linux, macOS, BSD): mmap(2) with madvise(2) for access hints
//   - Windows: CreateFileMapping/MapViewOfFile (Advise is a no-op)
//
// # Thread Safety
//
// A Mapping may be read from many goroutines. Close is idempotent, but callers
// must not touch slices returned by Bytes after Close returns.
package mmap
