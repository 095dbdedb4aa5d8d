package broadcast

import (
	"errors"
	"io"
	"net"
	"time"

	"github.com/google/uuid"
)

type writeDeadliner interface {
	SetWriteDeadline(t time.Time) error
}

// Subscriber is one downstream connection. It is owned by its Hub.
type Subscriber struct {
	id          uuid.UUID
	conn        io.WriteCloser
	remote      string
	connectedAt time.Time
}

func newSubscriber(conn io.WriteCloser, remote string) *Subscriber {
	return &Subscriber{
		id:          uuid.New(),
		conn:        conn,
		remote:      remote,
		connectedAt: time.Now(),
	}
}

// ID returns the identifier assigned when the subscriber was added.
func (s *Subscriber) ID() uuid.UUID { return s.id }

// RemoteAddr returns the peer address, or "" when unknown.
func (s *Subscriber) RemoteAddr() string { return s.remote }

// ConnectedAt returns the time the subscriber was added.
func (s *Subscriber) ConnectedAt() time.Time { return s.connectedAt }

// send writes payload in full, bounded by timeout when the connection
// supports write deadlines.
func (s *Subscriber) send(payload []byte, timeout time.Duration) error {
	if wd, ok := s.conn.(writeDeadliner); ok && timeout > 0 {
		if err := wd.SetWriteDeadline(time.Now().Add(timeout)); err != nil {
			return err
		}
	}

	n, err := s.conn.Write(payload)
	if err != nil {
		return err
	}
	if n < len(payload) {
		return io.ErrShortWrite
	}

	return nil
}

func (s *Subscriber) close() error {
	err := s.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}

	return err
}
