package framesource

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems like Prometheus.
//
// Slot operations for different slots call the collector concurrently.
type MetricsCollector interface {
	// RecordSeek is called after each SetEntry that reached the store.
	// duration is the time taken, err is nil if successful.
	RecordSeek(duration time.Duration, err error)

	// RecordAbsent is called when a positioned entry lacks count active columns.
	RecordAbsent(count int)

	// RecordSlot is called when a slot bracket opens (opened is true) or closes.
	RecordSlot(opened bool)

	// RecordRanges is called after each GetEntryRanges with the number of
	// ranges handed out.
	RecordRanges(n int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordSeek(time.Duration, error) {}
func (NoopMetricsCollector) RecordAbsent(int)                {}
func (NoopMetricsCollector) RecordSlot(bool)                 {}
func (NoopMetricsCollector) RecordRanges(int)                {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	SeekCount      atomic.Int64
	SeekErrors     atomic.Int64
	SeekTotalNanos atomic.Int64
	AbsentValues   atomic.Int64
	SlotsOpened    atomic.Int64
	SlotsClosed    atomic.Int64
	ClaimCalls     atomic.Int64
	RangesClaimed  atomic.Int64
}

// RecordSeek implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSeek(duration time.Duration, err error) {
	b.SeekCount.Add(1)
	b.SeekTotalNanos.Add(duration.Nanoseconds())
	if err != nil {
		b.SeekErrors.Add(1)
	}
}

// RecordAbsent implements MetricsCollector.
func (b *BasicMetricsCollector) RecordAbsent(count int) {
	b.AbsentValues.Add(int64(count))
}

// RecordSlot implements MetricsCollector.
func (b *BasicMetricsCollector) RecordSlot(opened bool) {
	if opened {
		b.SlotsOpened.Add(1)
	} else {
		b.SlotsClosed.Add(1)
	}
}

// RecordRanges implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRanges(n int) {
	b.ClaimCalls.Add(1)
	b.RangesClaimed.Add(int64(n))
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		SeekCount:     b.SeekCount.Load(),
		SeekErrors:    b.SeekErrors.Load(),
		SeekAvgNanos:  b.getAvgSeekNanos(),
		AbsentValues:  b.AbsentValues.Load(),
		SlotsOpened:   b.SlotsOpened.Load(),
		SlotsClosed:   b.SlotsClosed.Load(),
		ClaimCalls:    b.ClaimCalls.Load(),
		RangesClaimed: b.RangesClaimed.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgSeekNanos() int64 {
	count := b.SeekCount.Load()
	if count == 0 {
		return 0
	}
	return b.SeekTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	SeekCount     int64
	SeekErrors    int64
	SeekAvgNanos  int64
	AbsentValues  int64
	SlotsOpened   int64
	SlotsClosed   int64
	ClaimCalls    int64
	RangesClaimed int64
}
