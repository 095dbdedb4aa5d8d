package scanner

import (
	"bytes"
	"testing"
	"time"

	"github.com/arloliu/zonetrack/internal/readertest"
	"github.com/stretchr/testify/require"
)

// fakeClock is a manually advanced time source.
type fakeClock struct {
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

// newTestScanner creates a Scanner with all delays disabled.
func newTestScanner(t *testing.T, sim *readertest.Simulated, opts ...Option) *Scanner {
	t.Helper()

	defaults := []Option{
		WithSettleDelay(0),
		WithAcquireWindow(0),
		WithInterZoneDelay(0),
		WithInitSettleDelay(0),
	}

	s, err := New(sim, append(defaults, opts...)...)
	require.NoError(t, err)

	return s
}

func epcBytes(v byte) []byte {
	return bytes.Repeat([]byte{v}, 12)
}
