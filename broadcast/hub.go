// Package broadcast fans tag detections out to TCP subscribers as
// line-delimited JSON.
//
// The Hub is built for a single polling loop: AcceptPending makes one
// bounded accept attempt and never stalls the scan cycle, and Publish writes
// each event to every live subscriber in order, evicting the ones whose send
// fails. Delivery is best effort and at most once. Subscribers are never read
// from.
package broadcast

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"time"

	"github.com/arloliu/zonetrack/logger"
	"github.com/arloliu/zonetrack/zone"
	"github.com/google/uuid"
)

var (
	// ErrHubClosed is returned when adding a subscriber to a closed hub.
	ErrHubClosed           = errors.New("broadcast: hub closed")
	// ErrListenerNoDeadline is returned by NewHub for listeners without SetDeadline.
	ErrListenerNoDeadline  = errors.New("broadcast: listener does not support accept deadlines")
	// ErrNilListener is returned by NewHub for a nil listener.
	ErrNilListener         = errors.New("broadcast: listener is nil")
	// ErrNilSubscriberWriter is returned by Add for a nil connection.
	ErrNilSubscriberWriter = errors.New("broadcast: subscriber connection is nil")
)

type deadlineListener interface {
	net.Listener
	SetDeadline(t time.Time) error
}

// Delivery is the outcome of sending one event to one subscriber.
type Delivery struct {
	SubscriberID uuid.UUID
	RemoteAddr   string
	Err          error
}

// OK reports whether the send succeeded.
func (d Delivery) OK() bool { return d.Err == nil }

// Hub owns the listening socket and the live subscriber set.
type Hub struct {
	cfg      *Config
	logger   logger.Logger
	listener deadlineListener

	mu          sync.Mutex
	subscribers []*Subscriber
	closed      bool

	metrics HubMetrics
}

// Listen binds a TCP listener on addr ("host:port") and returns a Hub serving it.
func Listen(ctx context.Context, addr string, opts ...Option) (*Hub, error) {
	var lc net.ListenConfig
	ln, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, fmt.Errorf("broadcast: listen %s: %w", addr, err)
	}

	h, err := NewHub(ln, opts...)
	if err != nil {
		_ = ln.Close()
		return nil, err
	}

	h.logger.Info("broadcast server listening", "address", ln.Addr().String())

	return h, nil
}

// NewHub creates a Hub over an existing listener. The listener must support
// accept deadlines, as *net.TCPListener does.
func NewHub(ln net.Listener, opts ...Option) (*Hub, error) {
	if ln == nil {
		return nil, ErrNilListener
	}

	dl, ok := ln.(deadlineListener)
	if !ok {
		return nil, ErrListenerNoDeadline
	}

	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	return &Hub{
		cfg:      cfg,
		logger:   cfg.logger,
		listener: dl,
	}, nil
}

// Addr returns the listening address.
func (h *Hub) Addr() net.Addr { return h.listener.Addr() }

// Config returns the hub configuration.
func (h *Hub) Config() *Config { return h.cfg }

// GetMetrics returns the hub metrics.
func (h *Hub) GetMetrics() *HubMetrics { return &h.metrics }

// Len returns the number of live subscribers.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()

	return len(h.subscribers)
}

// Subscribers returns a snapshot of the live subscribers in send order.
func (h *Hub) Subscribers() []*Subscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]*Subscriber, len(h.subscribers))
	copy(out, h.subscribers)

	return out
}

// AcceptPending makes one accept attempt bounded by the accept timeout.
//
// It returns the new subscriber, or false when no connection was pending,
// the accept failed transiently, or the hub is closed.
func (h *Hub) AcceptPending() (*Subscriber, bool) {
	if h.isClosed() {
		return nil, false
	}

	if err := h.listener.SetDeadline(time.Now().Add(h.cfg.acceptTimeout)); err != nil {
		h.logger.Debug("broadcast: failed to set accept deadline", "error", err)
		return nil, false
	}

	conn, err := h.listener.Accept()
	if err != nil {
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() {
			return nil, false
		}

		if !h.isClosed() {
			h.metrics.incAcceptErrCount()
			h.logger.Warn("broadcast: accept failed", "error", err)
		}

		return nil, false
	}

	sub, err := h.Add(conn, conn.RemoteAddr().String())
	if err != nil {
		_ = conn.Close()
		return nil, false
	}

	h.metrics.incAcceptCount()
	h.logger.Info("subscriber connected", "id", sub.ID(), "remote_address", sub.RemoteAddr(), "subscribers", h.Len())

	return sub, true
}

// Add appends conn to the live subscriber set.
func (h *Hub) Add(conn io.WriteCloser, remote string) (*Subscriber, error) {
	if conn == nil {
		return nil, ErrNilSubscriberWriter
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return nil, ErrHubClosed
	}

	sub := newSubscriber(conn, remote)
	h.subscribers = append(h.subscribers, sub)
	h.metrics.incSubscriberGauge()

	return sub, nil
}

// Publish encodes read as an event and broadcasts it.
func (h *Hub) Publish(read zone.TagRead) ([]Delivery, error) {
	payload, err := NewEvent(h.cfg.deviceID, read).Encode()
	if err != nil {
		return nil, fmt.Errorf("broadcast: encode event: %w", err)
	}

	h.metrics.incPublishCount()

	return h.Broadcast(payload), nil
}

// Broadcast sends payload to every live subscriber in set order and returns
// one Delivery per subscriber. Subscribers whose send failed are closed and
// removed once the pass is complete; a failure never stops delivery to the
// others.
func (h *Hub) Broadcast(payload []byte) []Delivery {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed || len(h.subscribers) == 0 {
		return nil
	}

	results := make([]Delivery, 0, len(h.subscribers))
	failed := make(map[uuid.UUID]struct{})

	for _, sub := range h.subscribers {
		err := sub.send(payload, h.cfg.sendTimeout)
		results = append(results, Delivery{SubscriberID: sub.id, RemoteAddr: sub.remote, Err: err})

		if err != nil {
			failed[sub.id] = struct{}{}
			continue
		}
		h.metrics.incDeliveryCount()
	}

	if len(failed) > 0 {
		h.evictLocked(failed)
	}

	return results
}

func (h *Hub) evictLocked(failed map[uuid.UUID]struct{}) {
	live := h.subscribers[:0]
	for _, sub := range h.subscribers {
		if _, ok := failed[sub.id]; !ok {
			live = append(live, sub)
			continue
		}

		if err := sub.close(); err != nil {
			h.logger.Debug("broadcast: close evicted subscriber", "id", sub.id, "error", err)
		}

		h.metrics.decSubscriberGauge()
		h.metrics.incEvictCount()
		h.logger.Info("subscriber disconnected", "id", sub.id, "remote_address", sub.remote)
	}

	// drop references held by the tail of the old backing array
	for i := len(live); i < len(h.subscribers); i++ {
		h.subscribers[i] = nil
	}
	h.subscribers = live
}

// Close closes every subscriber and then the listener. Every close is
// attempted; the errors are joined. Calling Close again is a no-op.
func (h *Hub) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	subs := h.subscribers
	h.subscribers = nil
	h.mu.Unlock()

	var errs []error
	for _, sub := range subs {
		if err := sub.close(); err != nil {
			errs = append(errs, fmt.Errorf("broadcast: close subscriber %s: %w", sub.remote, err))
		}
		h.metrics.decSubscriberGauge()
	}

	if err := h.listener.Close(); err != nil && !errors.Is(err, net.ErrClosed) {
		errs = append(errs, fmt.Errorf("broadcast: close listener: %w", err))
	}

	h.logger.Debug("broadcast hub closed", "subscribers", len(subs))

	return errors.Join(errs...)
}

func (h *Hub) isClosed() bool {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.closed
}
