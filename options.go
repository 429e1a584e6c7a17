package framesource

import (
	"fmt"
	"log/slog"

	"github.com/hupe1980/framesource/blobstore"
	"github.com/hupe1980/framesource/resource"
)

// Discovery selects how the columns of a file set are found.
type Discovery int

const (
	// DiscoverProbe takes the columns present in the first entry of the
	// first non-empty file, in that file's schema order.
	DiscoverProbe Discovery = iota
	// DiscoverUnion takes every column of every file, in first-seen order.
	// Files that disagree on a column's kind fail configuration.
	DiscoverUnion
)

func (d Discovery) String() string {
	switch d {
	case DiscoverProbe:
		return "probe"
	case DiscoverUnion:
		return "union"
	default:
		return fmt.Sprintf("Discovery(%d)", int(d))
	}
}

// ParseDiscovery parses "probe" or "union".
func ParseDiscovery(s string) (Discovery, error) {
	switch s {
	case "probe", "":
		return DiscoverProbe, nil
	case "union":
		return DiscoverUnion, nil
	default:
		return 0, fmt.Errorf("%w: unknown discovery %q", ErrConfig, s)
	}
}

type options struct {
	blobStore        blobstore.BlobStore
	entryLimit       int64
	columns          []string
	rangesPerSlot    int
	discovery        Discovery
	openConcurrency  int
	metricsCollector MetricsCollector
	logger           *Logger
	resources        *resource.Controller
}

// Option configures a Source.
type Option func(*options)

// WithBlobStore reads files from bs instead of the local file system.
// Paths are then names within the store.
func WithBlobStore(bs blobstore.BlobStore) Option {
	return func(o *options) {
		o.blobStore = bs
	}
}

// WithEntryLimit caps the number of entries exposed. Negative means all
// entries, which is the default.
func WithEntryLimit(n int64) Option {
	return func(o *options) {
		o.entryLimit = n
	}
}

// WithColumns restricts the exposed columns to names. Column order stays
// the discovery order. Names that are not discovered are logged and dropped.
func WithColumns(names ...string) Option {
	return func(o *options) {
		o.columns = append([]string(nil), names...)
	}
}

// WithRangesPerSlot sets how many entry ranges the partition holds per
// slot. More, smaller ranges balance uneven per-entry cost. Default 1.
func WithRangesPerSlot(n int) Option {
	return func(o *options) {
		o.rangesPerSlot = n
	}
}

// WithDiscovery selects the column discovery policy. Default DiscoverProbe.
func WithDiscovery(d Discovery) Option {
	return func(o *options) {
		o.discovery = d
	}
}

// WithOpenConcurrency sets how many files New inspects in parallel.
func WithOpenConcurrency(n int) Option {
	return func(o *options) {
		o.openConcurrency = n
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &framesource.BasicMetricsCollector{}
//	src, _ := framesource.New(ctx, paths, framesource.WithMetricsCollector(metrics))
//	// ... run ...
//	stats := metrics.GetStats()
//	fmt.Printf("Seeks: %d, Avg latency: %dns\n", stats.SeekCount, stats.SeekAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := framesource.NewJSONLogger(slog.LevelInfo)
//	src, _ := framesource.New(ctx, paths, framesource.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithResourceController bounds open files and paces block reads.
func WithResourceController(rc *resource.Controller) Option {
	return func(o *options) {
		o.resources = rc
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		entryLimit:       -1,
		rangesPerSlot:    1,
		discovery:        DiscoverProbe,
		openConcurrency:  8,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}

func (o *options) validate() error {
	if o.rangesPerSlot < 1 {
		return fmt.Errorf("%w: ranges per slot must be positive, got %d", ErrConfig, o.rangesPerSlot)
	}
	if o.openConcurrency < 1 {
		return fmt.Errorf("%w: open concurrency must be positive, got %d", ErrConfig, o.openConcurrency)
	}
	if o.discovery != DiscoverProbe && o.discovery != DiscoverUnion {
		return fmt.Errorf("%w: unknown discovery %s", ErrConfig, o.discovery)
	}
	return nil
}
