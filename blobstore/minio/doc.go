// Package minio provides a BlobStore implementation using the MinIO client.
//
// It works with MinIO and other S3-compatible systems (Ceph, SeaweedFS, Garage)
// without pulling in the AWS SDK.
//
//	store, err := minioblob.Dial("localhost:9000", &minio.Options{
//	    Creds:  credentials.NewStaticV4("minioadmin", "minioadmin", ""),
//	    Secure: false,
//	}, "events", "run-42/")
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	src, err := framesource.New(ctx, []string{"part-0.frm", "part-1.frm"},
//	    framesource.WithBlobStore(store))
package minio
