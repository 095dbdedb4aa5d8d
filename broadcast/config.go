package broadcast

import (
	"errors"
	"time"

	"github.com/arloliu/zonetrack/logger"
)

const (
	// DefaultAcceptTimeout bounds one AcceptPending call.
	DefaultAcceptTimeout = 100 * time.Millisecond
	// DefaultSendTimeout bounds the write of one event to one subscriber.
	DefaultSendTimeout   = time.Second
	// DefaultDeviceID is reported in events when no device id is configured.
	DefaultDeviceID      = "GROOMING_RFID_4ZONE"
)

// Config holds the configuration of a Hub.
type Config struct {
	deviceID      string
	acceptTimeout time.Duration
	sendTimeout   time.Duration
	logger        logger.Logger
}

func newConfig(opts ...Option) (*Config, error) {
	cfg := &Config{
		deviceID:      DefaultDeviceID,
		acceptTimeout: DefaultAcceptTimeout,
		sendTimeout:   DefaultSendTimeout,
		logger:        logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// DeviceID returns the device identifier placed in every event.
func (cfg *Config) DeviceID() string { return cfg.deviceID }

// AcceptTimeout returns the bound of one accept attempt.
func (cfg *Config) AcceptTimeout() time.Duration { return cfg.acceptTimeout }

// SendTimeout returns the per-subscriber write timeout.
func (cfg *Config) SendTimeout() time.Duration { return cfg.sendTimeout }

// Option is a functional option for configuring a Hub.
type Option interface {
	apply(*Config) error
}

type optFunc func(*Config) error

func (f optFunc) apply(cfg *Config) error { return f(cfg) }

// WithDeviceID sets the device identifier reported in events.
func WithDeviceID(id string) Option {
	return optFunc(func(cfg *Config) error {
		if id == "" {
			return errors.New("broadcast: device id must not be empty")
		}
		cfg.deviceID = id

		return nil
	})
}

// WithAcceptTimeout sets how long one AcceptPending call may wait for a connection.
func WithAcceptTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("broadcast: accept timeout must be positive")
		}
		cfg.acceptTimeout = d

		return nil
	})
}

// WithSendTimeout sets the write deadline applied to each subscriber send.
func WithSendTimeout(d time.Duration) Option {
	return optFunc(func(cfg *Config) error {
		if d <= 0 {
			return errors.New("broadcast: send timeout must be positive")
		}
		cfg.sendTimeout = d

		return nil
	})
}

// WithLogger sets the logger for the hub.
func WithLogger(l logger.Logger) Option {
	return optFunc(func(cfg *Config) error {
		if l == nil {
			return errors.New("broadcast: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
