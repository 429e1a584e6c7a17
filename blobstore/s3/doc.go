// Package s3 provides an S3 implementation of the blobstore.BlobStore interface.
//
// # Usage
//
//	store, err := s3.New(ctx, "my-bucket",
//	    s3.WithPrefix("runs/42/"),
//	    s3.WithRegion("eu-central-1"),
//	)
//
//	src, err := framesource.New(ctx, names, framesource.WithBlobStore(store))
//
// Every Blob.ReadAt is one ranged GET; wrap the store in a
// blobstore.CachingStore when many small reads hit the same object.
package s3
