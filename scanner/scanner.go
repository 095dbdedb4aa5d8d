// Package scanner drives the reader through the zone cycle and decides which
// tag reads are new.
//
// Each zone is handled as a fixed exchange:
//
//	SelectAntenna(zone) -> AwaitResponse(zone) -> Evaluate(zone) -> next zone
//
// Once a command has been written the exchange always runs to completion;
// cancellation is only observed between zones. Malformed or empty responses
// mean "no tag in this zone this cycle" and are never retried.
package scanner

import (
	"context"
	"errors"
	"fmt"

	"github.com/arloliu/zonetrack/internal/pool"
	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/m6e"
	"github.com/arloliu/zonetrack/reader"
	"github.com/arloliu/zonetrack/zone"
)

var (
	// ErrNoTransport is returned by New when the transport is nil.
	ErrNoTransport = errors.New("scanner: transport is nil")
	// ErrInvalidZone wraps a zone id with no antenna frame.
	ErrInvalidZone = errors.New("scanner: invalid zone")
)

// EmitFunc receives each read that passed duplicate suppression, in the
// order it was found.
type EmitFunc func(read zone.TagRead)

// Scanner owns the reader transport and the duplicate suppression state.
//
// A Scanner is driven by a single goroutine.
type Scanner struct {
	cfg       *Config
	transport reader.Transport
	zones     []zone.Zone
	dedup     *Deduplicator
	logger    logger.Logger
	metrics   Metrics
}

// New creates a Scanner over transport.
func New(transport reader.Transport, opts ...Option) (*Scanner, error) {
	if transport == nil {
		return nil, ErrNoTransport
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Scanner{
		cfg:       cfg,
		transport: transport,
		zones:     zone.All(),
		dedup:     NewDeduplicator(cfg.dedupWindow),
		logger:    cfg.logger,
	}, nil
}

// Zones returns the zones in scan order.
func (s *Scanner) Zones() []zone.Zone {
	out := make([]zone.Zone, len(s.zones))
	copy(out, s.zones)

	return out
}

// Config returns the scanner configuration.
func (s *Scanner) Config() *Config { return s.cfg }

// GetMetrics returns the scanner counters.
func (s *Scanner) GetMetrics() *Metrics { return &s.metrics }

// Cycles returns the number of completed scan cycles.
func (s *Scanner) Cycles() uint64 { return s.metrics.CycleCount.Load() }

// Initialize sends the reader configuration sequence, waiting the init
// settle delay after every frame.
func (s *Scanner) Initialize() error {
	for _, f := range m6e.InitSequence() {
		if _, err := s.transport.Write(f.Frame); err != nil {
			return fmt.Errorf("scanner: send %s config: %w", f.Name, err)
		}

		pool.Sleep(s.cfg.initSettleDelay)
		s.logger.Debug("reader configured", "setting", f.Name)
	}

	// discard the configuration acknowledgements so the first zone starts clean
	if _, err := s.transport.ReadAvailable(); err != nil {
		s.logger.Debug("scanner: drain after init failed", "error", err)
	}

	return nil
}

// SelectAntenna switches the reader to the antenna of z and waits for it to settle.
func (s *Scanner) SelectAntenna(z zone.Zone) error {
	frame, ok := m6e.SelectAntenna(z.ID)
	if !ok {
		return fmt.Errorf("%w: %d", ErrInvalidZone, z.ID)
	}

	if _, err := s.transport.Write(frame); err != nil {
		return fmt.Errorf("scanner: select antenna %d: %w", z.ID, err)
	}

	pool.Sleep(s.cfg.settleDelay)

	return nil
}

// AwaitResponse issues the timed read, waits the acquisition window and
// drains whatever the reader buffered.
func (s *Scanner) AwaitResponse(z zone.Zone) ([]byte, error) {
	if _, err := s.transport.Write(m6e.ReadCommand()); err != nil {
		return nil, fmt.Errorf("scanner: read command on zone %d: %w", z.ID, err)
	}

	pool.Sleep(s.cfg.acquireWindow)

	raw, err := s.transport.ReadAvailable()
	if err != nil {
		return nil, fmt.Errorf("scanner: drain zone %d: %w", z.ID, err)
	}

	return raw, nil
}

// Evaluate parses raw and, when it carries a tag, returns a read stamped
// with the current time.
func (s *Scanner) Evaluate(z zone.Zone, raw []byte) (zone.TagRead, bool) {
	epc, ok := m6e.ParseTag(raw)
	if !ok {
		return zone.TagRead{}, false
	}

	return zone.TagRead{Zone: z, EPC: epc, ObservedAt: s.cfg.now()}, true
}

// IsNew applies duplicate suppression to read.
func (s *Scanner) IsNew(read zone.TagRead) bool {
	return s.dedup.IsNew(read)
}

// ScanZone runs one complete exchange on z. Transport failures are logged
// and reported as "no tag".
func (s *Scanner) ScanZone(z zone.Zone) (zone.TagRead, bool) {
	s.metrics.incExchangeCount()

	if err := s.SelectAntenna(z); err != nil {
		s.metrics.incErrorCount()
		s.logger.Warn("scanner: antenna select failed", "zone", z.ID, "error", err)

		return zone.TagRead{}, false
	}

	raw, err := s.AwaitResponse(z)
	if err != nil {
		s.metrics.incErrorCount()
		s.logger.Warn("scanner: zone read failed", "zone", z.ID, "error", err)

		return zone.TagRead{}, false
	}

	read, ok := s.Evaluate(z, raw)
	if !ok {
		s.metrics.incEmptyCount()
		if len(raw) > 0 {
			s.logger.Debug("scanner: no tag in response", "zone", z.ID, "bytes", len(raw))
		}

		return zone.TagRead{}, false
	}

	s.metrics.incTagCount()

	return read, true
}

// ScanCycle runs one pass over every zone, calling emit for each new read
// as soon as it is found.
//
// ctx is checked before each zone and during the inter-zone delay; a zone
// whose exchange has started is always completed. ScanCycle returns
// ctx.Err() if the pass was cut short, nil once all zones were scanned.
func (s *Scanner) ScanCycle(ctx context.Context, emit EmitFunc) error {
	for _, z := range s.zones {
		if err := ctx.Err(); err != nil {
			return err
		}

		if read, ok := s.ScanZone(z); ok {
			if s.IsNew(read) {
				s.metrics.incDetectionCount()
				if emit != nil {
					emit(read)
				}
			} else {
				s.metrics.incSuppressedCount()
			}
		}

		if err := pool.SleepContext(ctx, s.cfg.interZoneDelay); err != nil {
			return err
		}
	}

	s.metrics.incCycleCount()

	return nil
}

// Close closes the reader transport.
func (s *Scanner) Close() error {
	return s.transport.Close()
}
