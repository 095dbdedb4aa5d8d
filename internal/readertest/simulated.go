// Package readertest provides an in-memory reader used by scanner and
// tracker tests.
package readertest

import (
	"bytes"
	"sync"

	"github.com/arloliu/zonetrack/m6e"
	"github.com/arloliu/zonetrack/reader"
	"github.com/arloliu/zonetrack/zone"
)

// Simulated is a reader.Transport that answers read commands with a scripted
// response for the currently selected antenna.
//
// A response is queued each time the read command is written, and handed out
// by the next ReadAvailable call. Zones without a script produce no bytes.
type Simulated struct {
	mu        sync.Mutex
	responses map[int][]byte
	writes    [][]byte
	antenna   int
	pending   []byte
	closed    bool
	closeErr  error
	writeErr  error
	readErr   error
	readCount int
}

var _ reader.Transport = (*Simulated)(nil)

// NewSimulated returns a simulated reader with no scripted responses.
func NewSimulated() *Simulated {
	return &Simulated{responses: make(map[int][]byte)}
}

// SetResponse scripts the raw response returned for reads on zoneID.
// A nil response removes the script.
func (s *Simulated) SetResponse(zoneID int, raw []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if raw == nil {
		delete(s.responses, zoneID)
		return
	}
	s.responses[zoneID] = bytes.Clone(raw)
}

// FailWrites makes every following Write return err.
func (s *Simulated) FailWrites(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.writeErr = err
}

// FailReads makes every following ReadAvailable return err.
func (s *Simulated) FailReads(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readErr = err
}

// FailClose makes Close return err.
func (s *Simulated) FailClose(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closeErr = err
}

func (s *Simulated) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, reader.ErrClosed
	}
	if s.writeErr != nil {
		return 0, s.writeErr
	}

	frame := bytes.Clone(p)
	s.writes = append(s.writes, frame)

	for id := zone.MinID; id <= zone.MaxID; id++ {
		if sel, _ := m6e.SelectAntenna(id); bytes.Equal(sel, frame) {
			s.antenna = id
			return len(p), nil
		}
	}

	if bytes.Equal(frame, m6e.ReadCommand()) {
		s.pending = append(s.pending, s.responses[s.antenna]...)
	}

	return len(p), nil
}

func (s *Simulated) ReadAvailable() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.readCount++
	if s.closed {
		return nil, reader.ErrClosed
	}
	if s.readErr != nil {
		return nil, s.readErr
	}

	out := s.pending
	s.pending = nil

	return out, nil
}

func (s *Simulated) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.closed = true

	return s.closeErr
}

// Writes returns a copy of every frame written so far.
func (s *Simulated) Writes() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([][]byte, len(s.writes))
	copy(out, s.writes)

	return out
}

// ReadCount returns the number of ReadAvailable calls.
func (s *Simulated) ReadCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.readCount
}

// Closed reports whether Close was called.
func (s *Simulated) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.closed
}

// TagResponse builds a successful response frame carrying epc, which must be
// 12 bytes long, at the first scanned offset.
func TagResponse(epc []byte) []byte {
	buf := make([]byte, 0, 9+len(epc)+6)
	buf = append(buf, m6e.SOF, byte(len(epc)+4), m6e.StatusSuccess, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00)
	buf = append(buf, epc...)
	buf = append(buf, 0x00, 0x00, 0x00, 0x00, 0x5A, 0xA5)

	return buf
}
