package scanner

import "sync/atomic"

// Metrics contains atomic counters of a Scanner.
// Each counter can back a prometheus CounterFunc.
type Metrics struct {
	// CycleCount is the number of completed passes over all zones.
	CycleCount atomic.Uint64
	// ExchangeCount is the number of select/read exchanges performed.
	ExchangeCount atomic.Uint64
	// TagCount is the number of responses that carried a tag.
	TagCount atomic.Uint64
	// DetectionCount is the number of reads that passed duplicate suppression.
	DetectionCount atomic.Uint64
	// SuppressedCount is the number of reads dropped as duplicates.
	SuppressedCount atomic.Uint64
	// EmptyCount is the number of exchanges without a tag.
	EmptyCount atomic.Uint64
	// ErrorCount is the number of transport errors.
	ErrorCount atomic.Uint64
}

func (m *Metrics) incCycleCount() { m.CycleCount.Add(1) }
func (m *Metrics) incExchangeCount() { m.ExchangeCount.Add(1) }
func (m *Metrics) incTagCount() { m.TagCount.Add(1) }
func (m *Metrics) incDetectionCount() { m.DetectionCount.Add(1) }
func (m *Metrics) incSuppressedCount() { m.SuppressedCount.Add(1) }
func (m *Metrics) incEmptyCount() { m.EmptyCount.Add(1) }
func (m *Metrics) incErrorCount() { m.ErrorCount.Add(1) }
