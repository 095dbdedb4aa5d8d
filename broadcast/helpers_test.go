package broadcast

import (
	"bytes"
	"errors"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/arloliu/zonetrack/zone"
	"github.com/stretchr/testify/require"
)

var errBrokenPipe = errors.New("broken pipe")

// fakeConn records writes; it fails every write when fail is set.
type fakeConn struct {
	mu         sync.Mutex
	buf        bytes.Buffer
	fail       bool
	closeCount int
}

func (c *fakeConn) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.fail {
		return 0, errBrokenPipe
	}

	return c.buf.Write(p)
}

func (c *fakeConn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.closeCount++

	return nil
}

func (c *fakeConn) String() string {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.buf.String()
}

func (c *fakeConn) Closed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.closeCount > 0
}

// newTestHub creates a Hub on a loopback listener.
func newTestHub(t *testing.T, opts ...Option) *Hub {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	defaults := []Option{WithDeviceID("TEST_DEVICE"), WithAcceptTimeout(20 * time.Millisecond)}
	h, err := NewHub(ln, append(defaults, opts...)...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = h.Close() })

	return h
}

func testRead(zoneID int, epc string) zone.TagRead {
	z, _ := zone.Lookup(zoneID)
	return zone.TagRead{
		Zone:       z,
		EPC:        epc,
		ObservedAt: time.Date(2024, 5, 1, 9, 30, 15, 123456000, time.UTC),
	}
}
