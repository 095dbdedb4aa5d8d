package reader

import (
	"errors"
	"io"
)

// ErrClosed is returned by transport operations after Close.
var ErrClosed = errors.New("reader: transport closed")

// Transport is a full-duplex byte channel to the reader.
type Transport interface {
	io.Writer
	io.Closer

	// ReadAvailable returns every byte currently buffered by the reader link
	// without waiting for more to arrive. An empty result with a nil error
	// means nothing was pending.
	ReadAvailable() ([]byte, error)
}
