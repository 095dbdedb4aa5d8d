package reader

import (
	"errors"
	"fmt"
	"time"

	"github.com/arloliu/zonetrack/logger"
	"go.bug.st/serial"
)

const (
	DefaultBaudRate = 115200
	DefaultDataBits = 8

	// DefaultPollTimeout bounds each read call of a drain. It only has to
	// cover the gap between bytes that are already on the wire.
	DefaultPollTimeout = 10 * time.Millisecond

	// DefaultDrainLimit caps the bytes collected by one ReadAvailable call.
	DefaultDrainLimit = 4096
)

// SerialConfig holds the settings used to open a serial reader link.
type SerialConfig struct {
	path        string
	baudRate    int
	dataBits    int
	parity      serial.Parity
	stopBits    serial.StopBits
	pollTimeout time.Duration
	drainLimit  int

	logger logger.Logger
}

// NewSerialConfig creates a serial configuration for the device at path.
// The defaults are 115200 baud, 8 data bits, no parity and one stop bit.
func NewSerialConfig(path string, opts ...SerialOption) (*SerialConfig, error) {
	if path == "" {
		return nil, errors.New("reader: serial path must not be empty")
	}

	cfg := &SerialConfig{
		path:        path,
		baudRate:    DefaultBaudRate,
		dataBits:    DefaultDataBits,
		parity:      serial.NoParity,
		stopBits:    serial.OneStopBit,
		pollTimeout: DefaultPollTimeout,
		drainLimit:  DefaultDrainLimit,
		logger:      logger.GetLogger(),
	}

	for _, opt := range opts {
		if err := opt.apply(cfg); err != nil {
			return nil, err
		}
	}

	return cfg, nil
}

// Path returns the serial device path.
func (cfg *SerialConfig) Path() string { return cfg.path }

// BaudRate returns the configured baud rate.
func (cfg *SerialConfig) BaudRate() int { return cfg.baudRate }

// PollTimeout returns the per-read timeout used while draining.
func (cfg *SerialConfig) PollTimeout() time.Duration { return cfg.pollTimeout }

// DrainLimit returns the maximum number of bytes returned by one drain.
func (cfg *SerialConfig) DrainLimit() int { return cfg.drainLimit }

func (cfg *SerialConfig) mode() *serial.Mode {
	return &serial.Mode{
		BaudRate: cfg.baudRate,
		DataBits: cfg.dataBits,
		Parity:   cfg.parity,
		StopBits: cfg.stopBits,
	}
}

// SerialOption is a functional option for configuring a SerialConfig.
type SerialOption interface {
	apply(*SerialConfig) error
}

type serialOptFunc func(*SerialConfig) error

func (f serialOptFunc) apply(cfg *SerialConfig) error { return f(cfg) }

// WithBaudRate sets the line speed.
func WithBaudRate(baud int) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if baud <= 0 {
			return fmt.Errorf("reader: invalid baud rate %d", baud)
		}
		cfg.baudRate = baud

		return nil
	})
}

// WithPollTimeout sets the per-read timeout used by ReadAvailable.
func WithPollTimeout(d time.Duration) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if d <= 0 {
			return errors.New("reader: poll timeout must be positive")
		}
		cfg.pollTimeout = d

		return nil
	})
}

// WithDrainLimit caps the number of bytes returned by one ReadAvailable call.
func WithDrainLimit(n int) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if n < 1 {
			return errors.New("reader: drain limit must be >= 1")
		}
		cfg.drainLimit = n

		return nil
	})
}

// WithLogger sets the logger for the transport.
func WithLogger(l logger.Logger) SerialOption {
	return serialOptFunc(func(cfg *SerialConfig) error {
		if l == nil {
			return errors.New("reader: logger must not be nil")
		}
		cfg.logger = l

		return nil
	})
}
