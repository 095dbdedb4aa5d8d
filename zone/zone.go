// Package zone defines the fixed antenna zone table and the tag read record
// that flows from the scanner to the broadcast hub.
package zone

import (
	"fmt"
	"time"
)

const (
	// MinID is the lowest valid zone (antenna) id.
	MinID = 1
	// MaxID is the highest valid zone (antenna) id.
	MaxID = 4
	// Count is the number of zones the reader cycles through.
	Count = MaxID - MinID + 1
)

// Zone is one physical antenna position.
type Zone struct {
	ID   int
	Name string
}

func (z Zone) String() string {
	return fmt.Sprintf("zone %d (%s)", z.ID, z.Name)
}

var table = [Count]Zone{
	{ID: 1, Name: "Bathing Room"},
	{ID: 2, Name: "Drying Kennels"},
	{ID: 3, Name: "Grooming Room 1"},
	{ID: 4, Name: "Grooming Room 2"},
}

// All returns the zones in scan order. The returned slice is a copy.
func All() []Zone {
	zones := make([]Zone, Count)
	copy(zones, table[:])

	return zones
}

// Lookup returns the zone with the given id.
func Lookup(id int) (Zone, bool) {
	if !Valid(id) {
		return Zone{}, false
	}

	return table[id-MinID], true
}

// Valid reports whether id is a configured zone id.
func Valid(id int) bool {
	return id >= MinID && id <= MaxID
}

// TagRead is a single successful tag extraction for a zone.
type TagRead struct {
	Zone       Zone
	EPC        string
	ObservedAt time.Time
}

// Key returns the duplicate-suppression key of the read.
func (r TagRead) Key() Key {
	return Key{ZoneID: r.Zone.ID, EPC: r.EPC}
}

// Key identifies a tag within a zone for duplicate suppression.
type Key struct {
	ZoneID int
	EPC    string
}
