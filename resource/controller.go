package resource

import (
	"context"
	"errors"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// ErrMemoryLimitExceeded is returned when an allocation would exceed the memory limit.
var ErrMemoryLimitExceeded = errors.New("resource: memory limit exceeded")

// Config holds resource limits. Zero values mean unlimited.
type Config struct {
	// MemoryLimitBytes is the hard limit for accounted memory (block caches).
	MemoryLimitBytes int64

	// MaxOpenFiles bounds the number of sessions holding a backing file at once.
	MaxOpenFiles int64

	// IOLimitBytesPerSec bounds the read throughput of all sessions together.
	IOLimitBytesPerSec int64
}

// Controller enforces a Config.
type Controller struct {
	cfg Config

	memSem  *semaphore.Weighted
	memUsed atomic.Int64

	fileSem   *semaphore.Weighted
	filesOpen atomic.Int64

	ioLimiter *rate.Limiter
}

// NewController creates a controller for cfg.
func NewController(cfg Config) *Controller {
	c := &Controller{cfg: cfg}

	if cfg.MemoryLimitBytes > 0 {
		c.memSem = semaphore.NewWeighted(cfg.MemoryLimitBytes)
	}
	if cfg.MaxOpenFiles > 0 {
		c.fileSem = semaphore.NewWeighted(cfg.MaxOpenFiles)
	}
	if cfg.IOLimitBytesPerSec > 0 {
		c.ioLimiter = rate.NewLimiter(rate.Limit(cfg.IOLimitBytesPerSec), int(cfg.IOLimitBytesPerSec))
	}

	return c
}

// Config returns the limits the controller enforces.
func (c *Controller) Config() Config {
	if c == nil {
		return Config{}
	}
	return c.cfg
}

// AcquireMemory reserves bytes without blocking.
// It returns ErrMemoryLimitExceeded when the limit would be exceeded.
func (c *Controller) AcquireMemory(bytes int64) error {
	if !c.TryAcquireMemory(bytes) {
		return ErrMemoryLimitExceeded
	}
	return nil
}

// TryAcquireMemory reserves bytes and reports whether it succeeded.
func (c *Controller) TryAcquireMemory(bytes int64) bool {
	if c == nil || bytes <= 0 {
		return true
	}
	if c.memSem != nil && !c.memSem.TryAcquire(bytes) {
		return false
	}
	c.memUsed.Add(bytes)
	return true
}

// ReleaseMemory returns previously reserved bytes.
func (c *Controller) ReleaseMemory(bytes int64) {
	if c == nil || bytes <= 0 {
		return
	}
	if c.memSem != nil {
		c.memSem.Release(bytes)
	}
	c.memUsed.Add(-bytes)
}

// MemoryUsage returns the accounted memory in bytes.
func (c *Controller) MemoryUsage() int64 {
	if c == nil {
		return 0
	}
	return c.memUsed.Load()
}

// AcquireFile takes an open-file permit, blocking until one is free or ctx is done.
func (c *Controller) AcquireFile(ctx context.Context) error {
	if c == nil {
		return nil
	}
	if c.fileSem != nil {
		if err := c.fileSem.Acquire(ctx, 1); err != nil {
			return err
		}
	}
	c.filesOpen.Add(1)
	return nil
}

// ReleaseFile returns an open-file permit.
func (c *Controller) ReleaseFile() {
	if c == nil {
		return
	}
	if c.fileSem != nil {
		c.fileSem.Release(1)
	}
	c.filesOpen.Add(-1)
}

// OpenFiles returns the number of permits currently held.
func (c *Controller) OpenFiles() int64 {
	if c == nil {
		return 0
	}
	return c.filesOpen.Load()
}

// AcquireIO waits until the IO budget allows reading bytes.
// Requests larger than one second of budget are paced in burst-sized steps.
func (c *Controller) AcquireIO(ctx context.Context, bytes int) error {
	if c == nil || c.ioLimiter == nil || bytes <= 0 {
		return nil
	}
	burst := c.ioLimiter.Burst()
	for bytes > 0 {
		n := min(bytes, burst)
		if err := c.ioLimiter.WaitN(ctx, n); err != nil {
			return err
		}
		bytes -= n
	}
	return nil
}
