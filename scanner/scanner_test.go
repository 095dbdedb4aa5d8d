package scanner

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arloliu/zonetrack/internal/readertest"
	"github.com/arloliu/zonetrack/m6e"
	"github.com/arloliu/zonetrack/zone"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_Defaults(t *testing.T) {
	s, err := New(readertest.NewSimulated())
	require.NoError(t, err)

	cfg := s.Config()
	assert.Equal(t, 50*time.Millisecond, cfg.SettleDelay())
	assert.Equal(t, 500*time.Millisecond, cfg.AcquireWindow())
	assert.Equal(t, 100*time.Millisecond, cfg.InterZoneDelay())
	assert.Equal(t, 200*time.Millisecond, cfg.InitSettleDelay())
	assert.Equal(t, 5*time.Second, cfg.DedupWindow())
	assert.Equal(t, zone.All(), s.Zones())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(nil)
	require.ErrorIs(t, err, ErrNoTransport)

	sim := readertest.NewSimulated()
	for _, opt := range []Option{
		WithSettleDelay(-time.Millisecond),
		WithAcquireWindow(-time.Millisecond),
		WithInterZoneDelay(-time.Millisecond),
		WithInitSettleDelay(-time.Millisecond),
		WithDedupWindow(0),
		WithClock(nil),
		WithLogger(nil),
	} {
		_, err := New(sim, opt)
		require.Error(t, err)
	}
}

func TestScanner_Initialize(t *testing.T) {
	sim := readertest.NewSimulated()
	s := newTestScanner(t, sim)

	require.NoError(t, s.Initialize())

	writes := sim.Writes()
	require.Len(t, writes, 2)
	seq := m6e.InitSequence()
	assert.Equal(t, seq[0].Frame, writes[0], "region first")
	assert.Equal(t, seq[1].Frame, writes[1], "power second")
}

func TestScanner_InitializeWriteError(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.FailWrites(errors.New("unplugged"))
	s := newTestScanner(t, sim)

	err := s.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "region")
}

func TestScanner_ScanZoneExchange(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(3, readertest.TagResponse(epcBytes(0x3C)))
	clock := newFakeClock()
	s := newTestScanner(t, sim, WithClock(clock.Now))

	z, _ := zone.Lookup(3)
	read, ok := s.ScanZone(z)
	require.True(t, ok)
	assert.Equal(t, z, read.Zone)
	assert.Equal(t, "3C3C3C3C3C3C3C3C3C3C3C3C", read.EPC)
	assert.Equal(t, clock.Now(), read.ObservedAt)

	sel, _ := m6e.SelectAntenna(3)
	writes := sim.Writes()
	require.Len(t, writes, 2)
	assert.Equal(t, sel, writes[0])
	assert.Equal(t, m6e.ReadCommand(), writes[1])
	assert.Equal(t, 1, sim.ReadCount(), "one drain per exchange")
}

func TestScanner_ScanZoneEmptyAndGarbage(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(2, []byte{0x13, 0x37, 0x00})
	s := newTestScanner(t, sim)

	z1, _ := zone.Lookup(1)
	_, ok := s.ScanZone(z1)
	assert.False(t, ok, "no response")

	z2, _ := zone.Lookup(2)
	_, ok = s.ScanZone(z2)
	assert.False(t, ok, "garbage response")

	assert.Equal(t, uint64(2), s.GetMetrics().EmptyCount.Load())
	assert.Equal(t, uint64(0), s.GetMetrics().ErrorCount.Load())
}

func TestScanner_ScanZoneTransportErrors(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(1, readertest.TagResponse(epcBytes(0x11)))
	s := newTestScanner(t, sim)
	z, _ := zone.Lookup(1)

	sim.FailReads(errors.New("framing error"))
	_, ok := s.ScanZone(z)
	assert.False(t, ok)

	sim.FailReads(nil)
	sim.FailWrites(errors.New("unplugged"))
	_, ok = s.ScanZone(z)
	assert.False(t, ok)

	assert.Equal(t, uint64(2), s.GetMetrics().ErrorCount.Load())
}

func TestScanner_SelectAntennaInvalidZone(t *testing.T) {
	sim := readertest.NewSimulated()
	s := newTestScanner(t, sim)

	err := s.SelectAntenna(zone.Zone{ID: 7, Name: "nowhere"})
	require.ErrorIs(t, err, ErrInvalidZone)
	assert.Empty(t, sim.Writes())
}

func TestScanner_IsNew(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(1, readertest.TagResponse(epcBytes(0x42)))
	clock := newFakeClock()
	s := newTestScanner(t, sim, WithClock(clock.Now))
	z, _ := zone.Lookup(1)

	read, ok := s.ScanZone(z)
	require.True(t, ok)
	assert.True(t, s.IsNew(read))

	clock.Advance(4 * time.Second)
	read, ok = s.ScanZone(z)
	require.True(t, ok)
	assert.False(t, s.IsNew(read))

	clock.Advance(time.Second) // 5s since the first report
	read, ok = s.ScanZone(z)
	require.True(t, ok)
	assert.True(t, s.IsNew(read))
}

func TestScanner_CycleOrdering(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(2, readertest.TagResponse(epcBytes(0x22)))
	sim.SetResponse(4, readertest.TagResponse(epcBytes(0x44)))
	s := newTestScanner(t, sim)

	var got []zone.TagRead
	require.NoError(t, s.ScanCycle(context.Background(), func(r zone.TagRead) {
		got = append(got, r)
	}))

	require.Len(t, got, 2)
	assert.Equal(t, 2, got[0].Zone.ID)
	assert.Equal(t, 4, got[1].Zone.ID)
	assert.Equal(t, uint64(1), s.Cycles())

	// zones are always visited in order 1..4
	writes := sim.Writes()
	require.Len(t, writes, 8)
	for i, id := range []int{1, 2, 3, 4} {
		sel, _ := m6e.SelectAntenna(id)
		assert.Equal(t, sel, writes[i*2], "zone %d", id)
	}
}

func TestScanner_CycleSuppressesRepeats(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(1, readertest.TagResponse(epcBytes(0x01)))
	clock := newFakeClock()
	s := newTestScanner(t, sim, WithClock(clock.Now))

	count := 0
	emit := func(zone.TagRead) { count++ }

	require.NoError(t, s.ScanCycle(context.Background(), emit))
	clock.Advance(time.Second)
	require.NoError(t, s.ScanCycle(context.Background(), emit))
	clock.Advance(5 * time.Second)
	require.NoError(t, s.ScanCycle(context.Background(), emit))

	assert.Equal(t, 2, count)
	m := s.GetMetrics()
	assert.Equal(t, uint64(2), m.DetectionCount.Load())
	assert.Equal(t, uint64(1), m.SuppressedCount.Load())
	assert.Equal(t, uint64(3), m.CycleCount.Load())
	assert.Equal(t, uint64(12), m.ExchangeCount.Load())
}

func TestScanner_CycleCancelledBeforeStart(t *testing.T) {
	sim := readertest.NewSimulated()
	s := newTestScanner(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := s.ScanCycle(ctx, nil)
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, sim.Writes())
	assert.Equal(t, uint64(0), s.Cycles())
}

func TestScanner_CycleCancelCompletesInFlightZone(t *testing.T) {
	sim := readertest.NewSimulated()
	sim.SetResponse(2, readertest.TagResponse(epcBytes(0x22)))
	s := newTestScanner(t, sim)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var got []int
	err := s.ScanCycle(ctx, func(r zone.TagRead) {
		got = append(got, r.Zone.ID)
		cancel()
	})
	require.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, []int{2}, got)

	// zones 1 and 2 ran their full select + read exchange, 3 and 4 never started
	assert.Len(t, sim.Writes(), 4)
	assert.Equal(t, 2, sim.ReadCount())
	assert.Equal(t, uint64(0), s.Cycles())
}

func TestScanner_Close(t *testing.T) {
	sim := readertest.NewSimulated()
	s := newTestScanner(t, sim)

	require.NoError(t, s.Close())
	assert.True(t, sim.Closed())
}
