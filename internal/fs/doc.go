// Package fs abstracts the file system operations used by the local blob store
// so tests can inject faults.
//
//   - [LocalFS]: production implementation on top of package os
//   - [FaultyFS]: wrapper that fails opens, reads, writes, syncs or closes of
//     files whose name matches a rule
//
// Production code uses fs.Default. Tests wrap it:
//
//	ffs := fs.NewFaultyFS(nil)
//	ffs.AddRule("events-001", fs.Fault{FailOnRead: true})
//
// The package deliberately takes no context.Context: local file operations are
// short and not interruptible at the syscall level. Remote stores carry context
// through blobstore.Blob instead.
package fs
