// Package resource governs the shared resources a framesource run consumes.
//
// A Controller is shared by every slot of a run and limits three things:
//
//   - Memory: block cache growth is accounted against a hard limit (fail-fast)
//   - Open files: sessions take a permit for the lifetime of a slot bracket
//   - IO: block reads are paced by a token bucket
//
// All limits are off by default. Every method is safe for concurrent use and
// a nil *Controller is a valid no-op controller.
//
//	rc := resource.NewController(resource.Config{
//	    MaxOpenFiles:       16,
//	    IOLimitBytesPerSec: 200 << 20,
//	})
package resource
