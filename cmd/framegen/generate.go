package main

import (
	"context"
	"fmt"
	"io"

	"github.com/hupe1980/framesource"
	"github.com/hupe1980/framesource/codec"
	"github.com/hupe1980/framesource/frame"
	"github.com/hupe1980/framesource/internal/cli"
	"github.com/hupe1980/framesource/testutil"
)

func generate(ctx context.Context, c Config, w io.Writer) error {
	logger, err := cli.Logger(c.LogLevel, c.LogJSON)
	if err != nil {
		return err
	}
	if c.Files < 1 || c.Entries < 0 || c.Jitter < 0 {
		return fmt.Errorf("%w: files must be positive, entries and jitter not negative", framesource.ErrConfig)
	}
	comp, err := frame.ParseCompression(c.Compression)
	if err != nil {
		return fmt.Errorf("%w: %w", framesource.ErrConfig, err)
	}
	cd, ok := codec.ByName(c.Codec)
	if !ok {
		return fmt.Errorf("%w: unknown codec %q", framesource.ErrConfig, c.Codec)
	}

	bs, err := cli.OpenStore(ctx, cli.StoreConfig{
		Kind:      c.Store,
		Root:      c.Root,
		Bucket:    c.Bucket,
		Prefix:    c.Prefix,
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Secure:    c.Secure,
	}, nil)
	if err != nil {
		return err
	}

	rng := testutil.NewRNG(c.Seed)
	counts := make([]int, c.Files)
	for i := range counts {
		n := c.Entries
		if c.Jitter > 0 {
			n += rng.Intn(2*c.Jitter+1) - c.Jitter
		}
		counts[i] = max(n, 0)
	}

	names, _, err := testutil.WriteFrames(ctx, bs, rng, counts, frame.WithCompression(comp), frame.WithCodec(cd))
	if err != nil {
		logger.ErrorContext(ctx, "generate failed", "error", err)
		return err
	}

	var total int
	for i, name := range names {
		logger.WithFile(name).InfoContext(ctx, "wrote frame file", "entries", counts[i])
		fmt.Fprintf(w, "%s\t%d\n", name, counts[i])
		total += counts[i]
	}
	logger.InfoContext(ctx, "generated", "files", len(names), "entries", total, "compression", comp.String(), "codec", cd.Name())
	return nil
}
