package scanner

import (
	"time"

	"github.com/arloliu/zonetrack/zone"
	"github.com/puzpuzpuz/xsync/v3"
)

// Deduplicator suppresses repeated reads of the same tag in the same zone.
//
// Entries are never removed; the map is bounded by the tag population.
type Deduplicator struct {
	window time.Duration
	seen   *xsync.MapOf[zone.Key, time.Time]
}

// NewDeduplicator creates a Deduplicator with the given window.
func NewDeduplicator(window time.Duration) *Deduplicator {
	return &Deduplicator{
		window: window,
		seen:   xsync.NewMapOf[zone.Key, time.Time](),
	}
}

// IsNew reports whether read should be emitted.
//
// It returns true, and records read.ObservedAt, when the key has never been
// seen or at least the window has elapsed since its recorded time. Otherwise
// the recorded time is left untouched and IsNew returns false.
func (d *Deduplicator) IsNew(read zone.TagRead) bool {
	fresh := false
	d.seen.Compute(read.Key(), func(last time.Time, loaded bool) (time.Time, bool) {
		if !loaded || read.ObservedAt.Sub(last) >= d.window {
			fresh = true
			return read.ObservedAt, false
		}

		return last, false
	})

	return fresh
}

// LastSeen returns the recorded time of key.
func (d *Deduplicator) LastSeen(key zone.Key) (time.Time, bool) {
	return d.seen.Load(key)
}

// Len returns the number of tracked keys.
func (d *Deduplicator) Len() int {
	return d.seen.Size()
}

// Window returns the suppression window.
func (d *Deduplicator) Window() time.Duration {
	return d.window
}
