// Package cli holds what the framescan and framegen commands share: blob
// store selection, logging setup and flag value parsing.
package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hupe1980/framesource"
	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/blobstore/minio"
	"github.com/hupe1980/framesource/blobstore/s3"
	"github.com/hupe1980/framesource/internal/cache"
	"github.com/hupe1980/framesource/resource"
	miniogo "github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// StoreConfig selects and configures a blob store.
type StoreConfig struct {
	Kind      string // local | memory | minio | s3
	Root      string
	Bucket    string
	Prefix    string
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Secure    bool
	CacheMB   int64
}

// OpenStore builds the store cfg describes. With CacheMB > 0 reads go
// through an LRU block cache accounted against rc.
func OpenStore(ctx context.Context, cfg StoreConfig, rc *resource.Controller) (blobstore.BlobStore, error) {
	var (
		bs  blobstore.BlobStore
		err error
	)
	switch strings.ToLower(cfg.Kind) {
	case "", "local":
		bs = blobstore.NewLocalStore(cfg.Root)
	case "memory":
		bs = blobstore.NewMemoryStore()
	case "minio":
		if cfg.Bucket == "" || cfg.Endpoint == "" {
			return nil, fmt.Errorf("%w: minio needs a bucket and an endpoint", framesource.ErrConfig)
		}
		bs, err = minio.Dial(cfg.Endpoint, &miniogo.Options{
			Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
			Secure: cfg.Secure,
			Region: cfg.Region,
		}, cfg.Bucket, cfg.Prefix)
	case "s3":
		if cfg.Bucket == "" {
			return nil, fmt.Errorf("%w: s3 needs a bucket", framesource.ErrConfig)
		}
		opts := []s3.Option{s3.WithPrefix(cfg.Prefix)}
		if cfg.Region != "" {
			opts = append(opts, s3.WithRegion(cfg.Region))
		}
		if cfg.Endpoint != "" {
			opts = append(opts, s3.WithEndpoint(cfg.Endpoint))
		}
		bs, err = s3.New(ctx, cfg.Bucket, opts...)
	default:
		return nil, fmt.Errorf("%w: unknown store %q", framesource.ErrConfig, cfg.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %s store: %w", framesource.ErrStoreUnavailable, cfg.Kind, err)
	}

	if cfg.CacheMB > 0 {
		bs = blobstore.NewCachingStore(bs, cache.NewLRU(cfg.CacheMB<<20, rc), blobstore.DefaultBlockSize)
	}
	return bs, nil
}

// Logger returns a text or JSON logger for a level name such as "info".
func Logger(level string, json bool) (*framesource.Logger, error) {
	var l slog.Level
	if level != "" {
		if err := l.UnmarshalText([]byte(level)); err != nil {
			return nil, fmt.Errorf("%w: log level: %w", framesource.ErrConfig, err)
		}
	}
	if json {
		return framesource.NewJSONLogger(l), nil
	}
	return framesource.NewTextLogger(l), nil
}

// SplitList splits a comma separated flag value, dropping empty items.
func SplitList(s string) []string {
	var out []string
	for _, item := range strings.Split(s, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}
