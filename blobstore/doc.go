// Package blobstore provides the storage abstraction frame files are read from.
//
// BlobStore is the interface for reading and writing immutable data blobs.
// Implementations must be safe for concurrent use. Individual Blob handles are
// not shared between processing slots; each slot opens its own.
//
// # Built-in Implementations
//
//   - LocalStore: local filesystem with mmap support
//   - MemoryStore: in-process blobs for tests
//   - CachingStore: block cache in front of any other store
//   - minio.Store: MinIO and S3-compatible storage
//   - s3.Store: Amazon S3 with range reads and multipart uploads
//
// # Custom Implementations
//
//	type BlobStore interface {
//	    Open(ctx, name) (Blob, error)
//	    Create(ctx, name) (WritableBlob, error)
//	    Put(ctx, name, data) error
//	    Delete(ctx, name) error
//	    List(ctx, prefix) ([]string, error)
//	}
package blobstore
