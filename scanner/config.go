package scanner

import (
	"errors"
	"time"

	"github.com/arloliu/zonetrack/logger"
)

// Default timings of the zone exchange.
const (
	DefaultSettleDelay     = 50 * time.Millisecond  // after an antenna switch
	DefaultAcquireWindow   = 500 * time.Millisecond // inventory time after a read command
	DefaultInterZoneDelay  = 100 * time.Millisecond // between two zones
	DefaultInitSettleDelay = 200 * time.Millisecond // after each configuration frame
	DefaultDedupWindow     = 5 * time.Second
)

// Config holds the scanner timings and collaborators.
type Config struct {
	settleDelay     time.Duration
	acquireWindow   time.Duration
	interZoneDelay  time.Duration
	initSettleDelay time.Duration
	dedupWindow     time.Duration

	now    func() time.Time
	logger logger.Logger
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		settleDelay:     DefaultSettleDelay,
		acquireWindow:   DefaultAcquireWindow,
		interZoneDelay:  DefaultInterZoneDelay,
		initSettleDelay: DefaultInitSettleDelay,
		dedupWindow:     DefaultDedupWindow,
		now:             time.Now,
		logger:          logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// SettleDelay returns the wait after an antenna switch.
func (cfg *Config) SettleDelay() time.Duration { return cfg.settleDelay }

// AcquireWindow returns the wait between the read command and the drain.
func (cfg *Config) AcquireWindow() time.Duration { return cfg.acquireWindow }

// InterZoneDelay returns the wait between two zones.
func (cfg *Config) InterZoneDelay() time.Duration { return cfg.interZoneDelay }

// InitSettleDelay returns the wait after each configuration frame.
func (cfg *Config) InitSettleDelay() time.Duration { return cfg.initSettleDelay }

// DedupWindow returns the duplicate suppression window.
func (cfg *Config) DedupWindow() time.Duration { return cfg.dedupWindow }

// Option is a functional option for configuring a Scanner.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

func nonNegative(name string, d time.Duration) error {
	if d < 0 {
		return errors.New("scanner: " + name + " must not be negative")
	}

	return nil
}

// WithSettleDelay sets the wait after an antenna switch.
func WithSettleDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if err := nonNegative("settle delay", d); err != nil {
			return err
		}
		cfg.settleDelay = d

		return nil
	})
}

// WithAcquireWindow sets how long the reader is given to complete an inventory.
func WithAcquireWindow(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if err := nonNegative("acquire window", d); err != nil {
			return err
		}
		cfg.acquireWindow = d

		return nil
	})
}

// WithInterZoneDelay sets the wait between two zones.
func WithInterZoneDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if err := nonNegative("inter-zone delay", d); err != nil {
			return err
		}
		cfg.interZoneDelay = d

		return nil
	})
}

// WithInitSettleDelay sets the wait after each startup configuration frame.
func WithInitSettleDelay(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if err := nonNegative("init settle delay", d); err != nil {
			return err
		}
		cfg.initSettleDelay = d

		return nil
	})
}

// WithDedupWindow sets the minimum time before the same tag is reported
// again for the same zone.
func WithDedupWindow(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("scanner: dedup window must be positive")
		}
		cfg.dedupWindow = d

		return nil
	})
}

// WithClock replaces the time source used to stamp reads.
func WithClock(now func() time.Time) Option {
	return optFunc(func(cfg *Config) error {
		if now == nil {
			return errors.New("scanner: clock must not be nil")
		}
		cfg.now = now

		return nil
	})
}

// WithLogger sets the logger for the scanner.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("scanner: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
