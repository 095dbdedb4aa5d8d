package reader

import (
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/arloliu/zonetrack/logger"
	"go.bug.st/serial"
)

// port is the part of serial.Port used by SerialTransport.
type port interface {
	Read(p []byte) (int, error)
	Write(p []byte) (int, error)
	Close() error
	SetReadTimeout(t time.Duration) error
	ResetInputBuffer() error
}

// SerialTransport is a Transport over a serial device.
//
// It is not goroutine-safe; the scanner is its only user.
type SerialTransport struct {
	cfg    *SerialConfig
	port   port
	logger logger.Logger
	closed atomic.Bool
	buf    []byte
}

var _ Transport = (*SerialTransport)(nil)

// OpenSerial opens the serial device described by cfg.
//
// Stale input left over from a previous session is discarded after opening.
func OpenSerial(cfg *SerialConfig) (*SerialTransport, error) {
	if cfg == nil {
		return nil, errors.New("reader: serial config is nil")
	}

	p, err := serial.Open(cfg.path, cfg.mode())
	if err != nil {
		return nil, fmt.Errorf("reader: open %s: %w", cfg.path, err)
	}

	t, err := newSerialTransport(p, cfg)
	if err != nil {
		_ = p.Close()
		return nil, err
	}

	cfg.logger.Info("serial port opened", "path", cfg.path, "baud", cfg.baudRate)

	return t, nil
}

func newSerialTransport(p port, cfg *SerialConfig) (*SerialTransport, error) {
	if err := p.SetReadTimeout(cfg.pollTimeout); err != nil {
		return nil, fmt.Errorf("reader: set read timeout: %w", err)
	}

	if err := p.ResetInputBuffer(); err != nil {
		cfg.logger.Warn("reader: failed to reset input buffer", "path", cfg.path, "error", err)
	}

	return &SerialTransport{
		cfg:    cfg,
		port:   p,
		logger: cfg.logger,
		buf:    make([]byte, 256),
	}, nil
}

// Write sends a complete frame to the reader.
func (t *SerialTransport) Write(frame []byte) (int, error) {
	if t.closed.Load() {
		return 0, ErrClosed
	}

	for written := 0; written < len(frame); {
		n, err := t.port.Write(frame[written:])
		written += n

		if err != nil {
			return written, fmt.Errorf("reader: write: %w", err)
		}
		if n == 0 {
			return written, errors.New("reader: write made no progress")
		}
	}

	return len(frame), nil
}

// ReadAvailable drains the bytes buffered by the reader link.
//
// Each read call waits at most the configured poll timeout, so the call
// returns as soon as the line has been quiet for that long or the drain
// limit is reached. Reads never go past the drain limit; bytes beyond it stay
// buffered for the next call.
func (t *SerialTransport) ReadAvailable() ([]byte, error) {
	if t.closed.Load() {
		return nil, ErrClosed
	}

	var out []byte
	for len(out) < t.cfg.drainLimit {
		buf := t.buf
		if remaining := t.cfg.drainLimit - len(out); remaining < len(buf) {
			buf = buf[:remaining]
		}

		n, err := t.port.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}

		if err != nil {
			if len(out) > 0 {
				t.logger.Debug("reader: read error after partial drain", "bytes", len(out), "error", err)
				return out, nil
			}

			return nil, fmt.Errorf("reader: read: %w", err)
		}

		if n == 0 {
			break
		}
	}

	return out, nil
}

// Close closes the serial device. Calling Close more than once is a no-op.
func (t *SerialTransport) Close() error {
	if !t.closed.CompareAndSwap(false, true) {
		return nil
	}

	if err := t.port.Close(); err != nil {
		return fmt.Errorf("reader: close %s: %w", t.cfg.path, err)
	}

	t.logger.Debug("serial port closed", "path", t.cfg.path)

	return nil
}
