package cache

// Key identifies one block of one blob.
type Key struct {
	// Path is the blob name as seen by the wrapped store.
	Path string
	// Block is the block number (byte offset / block size).
	Block int64
}

// BlockCache is a byte-oriented cache for immutable blocks.
// Implementations must be safe for concurrent use.
type BlockCache interface {
	// Get returns a cached block. ok=false if missing.
	Get(key Key) (b []byte, ok bool)
	// Set caches a block. The caller must not modify b afterwards.
	Set(key Key, b []byte)
	// Invalidate removes entries matching the predicate.
	Invalidate(predicate func(key Key) bool)
	// Stats returns hit and miss counters.
	Stats() (hits, misses int64)
}
