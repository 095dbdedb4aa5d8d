// Package tracker runs the acquisition and fan-out loop: initialize the
// reader once, then repeat {accept pending subscriber, scan every zone,
// publish new detections} until the context is cancelled, and finally tear
// everything down.
package tracker

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/arloliu/zonetrack/broadcast"
	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/scanner"
	"github.com/arloliu/zonetrack/zone"
)

// DefaultStatusInterval is the number of cycles between two status logs.
const DefaultStatusInterval = 20

// PublishTime is the ISO-8601 layout used in detection logs.
const PublishTime = broadcast.TimestampLayout

// ErrNilComponent is returned by New when the scanner or hub is missing.
var ErrNilComponent = errors.New("tracker: scanner and hub are required")

// Hub is the subscriber side of the tracker.
type Hub interface {
	AcceptPending() (*broadcast.Subscriber, bool)
	Publish(read zone.TagRead) ([]broadcast.Delivery, error)
	Len() int
	Close() error
}

// Tracker ties a Scanner to a Hub.
type Tracker struct {
	scanner *scanner.Scanner
	hub     Hub

	statusInterval uint64
	logger         logger.Logger

	shutdownOnce sync.Once
	shutdownErr  error
}

// Option configures a Tracker.
type Option func(*Tracker) error

// WithStatusInterval sets how many cycles pass between status logs.
func WithStatusInterval(n int) Option {
	return func(t *Tracker) error {
		if n < 1 {
			return fmt.Errorf("tracker: status interval %d must be >= 1", n)
		}
		t.statusInterval = uint64(n)

		return nil
	}
}

// WithLogger sets the logger of the tracker.
func WithLogger(l logger.Logger) Option {
	return func(t *Tracker) error {
		if l == nil {
			return errors.New("tracker: logger must not be nil")
		}
		t.logger = l

		return nil
	}
}

// New creates a Tracker. The tracker takes ownership of both components and
// closes them on Shutdown.
func New(sc *scanner.Scanner, hub Hub, opts ...Option) (*Tracker, error) {
	if sc == nil || hub == nil {
		return nil, ErrNilComponent
	}

	t := &Tracker{
		scanner:        sc,
		hub:            hub,
		statusInterval: DefaultStatusInterval,
		logger:         logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt(t); err != nil {
			return nil, err
		}
	}

	return t, nil
}

// Run initializes the reader and scans until ctx is cancelled, then shuts
// down. It returns nil after a cancellation-triggered shutdown, the init
// error if the reader could not be configured, or the joined teardown errors.
func (t *Tracker) Run(ctx context.Context) error {
	if err := t.scanner.Initialize(); err != nil {
		return errors.Join(err, t.Shutdown())
	}

	t.logger.Info("reader initialized, tracking started")

	for ctx.Err() == nil {
		t.hub.AcceptPending()

		if err := t.scanner.ScanCycle(ctx, t.emit); err != nil {
			break
		}

		if cycles := t.scanner.Cycles(); cycles%t.statusInterval == 0 {
			t.logger.Info("scan status", "cycles", cycles, "subscribers", t.hub.Len())
		}
	}

	t.logger.Info("shutting down")

	return t.Shutdown()
}

func (t *Tracker) emit(read zone.TagRead) {
	log := t.logger.With("zone", read.Zone.ID, "zone_name", read.Zone.Name, "epc", read.EPC)

	if t.hub.Len() == 0 {
		log.Warn("tag detected, no subscribers connected", "time", read.ObservedAt.Format(PublishTime))
		return
	}

	deliveries, err := t.hub.Publish(read)
	if err != nil {
		log.Error("failed to publish detection", "error", err)
		return
	}

	delivered := 0
	for _, d := range deliveries {
		if d.OK() {
			delivered++
		}
	}

	log.Info("tag detected",
		"time", read.ObservedAt.Format(PublishTime),
		"delivered", delivered,
		"failed", len(deliveries)-delivered,
	)
}

// Shutdown closes the hub (subscribers, then listener) and the reader
// transport. Both are attempted even if one fails. Only the first call does
// any work.
func (t *Tracker) Shutdown() error {
	t.shutdownOnce.Do(func() {
		var errs []error
		if err := t.hub.Close(); err != nil {
			errs = append(errs, err)
		}
		if err := t.scanner.Close(); err != nil {
			errs = append(errs, fmt.Errorf("tracker: close reader: %w", err))
		}

		t.shutdownErr = errors.Join(errs...)
		if t.shutdownErr != nil {
			t.logger.Error("teardown finished with errors", "error", t.shutdownErr)
		} else {
			t.logger.Info("stopped cleanly")
		}
	})

	return t.shutdownErr
}
