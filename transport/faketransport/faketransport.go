// Package faketransport provides an in-memory double for transport.Dialer,
// so cluster and transport tests can exercise retry, framing, and
// correlation-id matching without a real socket. The shape is adapted from
// the teacher's in-memory fake Kafka client test helper: a handler
// function stands in for the broker's request/response behavior, and
// concurrent callers are supported the same way a real BrokerIO would be
// used one-at-a-time per connection.
package faketransport

import (
	"encoding/binary"
	"io"
	"net"
	"sync"
	"time"
)

// Handler computes a broker's response to one request frame body (header
// included, size prefix stripped). Returning ok=false means "send no
// response", modeling a produce request with required_acks=0.
type Handler func(request []byte) (response []byte, ok bool)

// Dialer hands out an in-memory connection backed by Handler for every
// Dial call, ignoring the requested network/address/timeout. It implements
// transport.Dialer structurally (DialTimeout has the same signature) so
// tests can pass it directly as a transport.Config.Dialer.
type Dialer struct {
	mu      sync.Mutex
	handler Handler
	dials   int
	fail    error
}

// NewDialer builds a Dialer whose broker side runs handler for every
// request it receives.
func NewDialer(handler Handler) *Dialer {
	return &Dialer{handler: handler}
}

// FailNextDials makes the next n Dial calls return err instead of
// connecting, so cluster tests can exercise "broker unreachable" paths.
func (d *Dialer) FailNextDials(n int, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.fail = err
	d.dials = n
}

// DialTimeout implements transport.Dialer.
func (d *Dialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	d.mu.Lock()
	if d.dials > 0 {
		d.dials--
		err := d.fail
		d.mu.Unlock()
		return nil, err
	}
	d.mu.Unlock()

	client, server := net.Pipe()
	go d.serve(server)
	return client, nil
}

func (d *Dialer) serve(conn net.Conn) {
	defer conn.Close()
	for {
		var sizeBuf [4]byte
		if _, err := io.ReadFull(conn, sizeBuf[:]); err != nil {
			return
		}
		size := binary.BigEndian.Uint32(sizeBuf[:])
		body := make([]byte, size)
		if _, err := io.ReadFull(conn, body); err != nil {
			return
		}

		resp, ok := d.handler(body)
		if !ok {
			continue
		}

		var out [4]byte
		binary.BigEndian.PutUint32(out[:], uint32(len(resp)))
		if _, err := conn.Write(out[:]); err != nil {
			return
		}
		if _, err := conn.Write(resp); err != nil {
			return
		}
	}
}
