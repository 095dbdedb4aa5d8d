package zone

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAll_ScanOrder(t *testing.T) {
	zones := All()
	require.Len(t, zones, Count)

	for i, z := range zones {
		assert.Equal(t, i+1, z.ID)
		assert.NotEmpty(t, z.Name)
	}
	assert.Equal(t, "Bathing Room", zones[0].Name)
	assert.Equal(t, "Grooming Room 2", zones[3].Name)
}

func TestAll_ReturnsCopy(t *testing.T) {
	zones := All()
	zones[0].Name = "changed"

	z, ok := Lookup(1)
	require.True(t, ok)
	assert.Equal(t, "Bathing Room", z.Name)
}

func TestLookup(t *testing.T) {
	z, ok := Lookup(3)
	require.True(t, ok)
	assert.Equal(t, Zone{ID: 3, Name: "Grooming Room 1"}, z)

	for _, id := range []int{-1, 0, 5, 100} {
		_, ok := Lookup(id)
		assert.False(t, ok, "id %d", id)
		assert.False(t, Valid(id), "id %d", id)
	}
}

func TestTagRead_Key(t *testing.T) {
	z, _ := Lookup(2)
	r := TagRead{Zone: z, EPC: "ABCD", ObservedAt: time.Now()}
	assert.Equal(t, Key{ZoneID: 2, EPC: "ABCD"}, r.Key())
	assert.Equal(t, "zone 2 (Drying Kennels)", z.String())
}
