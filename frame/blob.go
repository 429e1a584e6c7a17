package frame

import (
	"context"

	"github.com/hupe1980/framesource/blobstore"
)

// OpenBlob opens name in bs as a frame file. The blob is closed again when
// validation fails.
func OpenBlob(ctx context.Context, bs blobstore.BlobStore, name string, opts ...OpenOption) (*File, error) {
	blob, err := bs.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	f, err := Open(ctx, blob, opts...)
	if err != nil {
		_ = blob.Close()
		return nil, err
	}
	return f, nil
}

// WriteBlob writes records as a new frame file named name.
func WriteBlob(ctx context.Context, bs blobstore.BlobStore, name string, records []Record, opts ...WriterOption) (err error) {
	out, err := bs.Create(ctx, name)
	if err != nil {
		return err
	}
	defer func() {
		if a, ok := out.(blobstore.Aborter); ok && err != nil {
			_ = a.Abort()
		}
		if cerr := out.Close(); err == nil {
			err = cerr
		}
	}()

	w, err := NewWriter(out, opts...)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := w.Append(rec); err != nil {
			return err
		}
	}
	if err := w.Close(); err != nil {
		return err
	}
	return out.Sync()
}
