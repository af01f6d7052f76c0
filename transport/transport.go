// Package transport implements BrokerIO: a single-connection,
// length-prefixed byte stream to one Kafka broker. It is the lowest layer
// that actually touches a socket; package cluster owns the pool of these
// and the retry policy built on top of them.
package transport

import (
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/grafana/zkless-kafka/clienterr"
	"go.uber.org/atomic"
)

// IPVersion constrains which address family a BrokerIO is allowed to
// connect over.
type IPVersion int

const (
	Auto IPVersion = iota
	V4
	V6
)

// DefaultTimeout is the per-IO deadline used when a Config doesn't set one.
const DefaultTimeout = 1500 * time.Millisecond

// DefaultMaxRequestSize bounds how large a single request this BrokerIO
// will write; Send rejects anything larger with MismatchArgument rather
// than silently looping forever.
const DefaultMaxRequestSize = 100 << 20 // 100 MiB

// Dialer abstracts connection establishment so tests can substitute an
// in-memory pipe instead of a real socket.
type Dialer interface {
	DialTimeout(network, address string, timeout time.Duration) (net.Conn, error)
}

// NetDialer is the Dialer used in production: plain net.DialTimeout.
type NetDialer struct{}

func (NetDialer) DialTimeout(network, address string, timeout time.Duration) (net.Conn, error) {
	return net.DialTimeout(network, address, timeout)
}

// Config controls how a BrokerIO connects and how its IO calls are bounded.
type Config struct {
	Timeout        time.Duration
	IPVersion      IPVersion
	MaxRequestSize int32
	Dialer         Dialer
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.MaxRequestSize <= 0 {
		c.MaxRequestSize = DefaultMaxRequestSize
	}
	if c.Dialer == nil {
		c.Dialer = NetDialer{}
	}
	return c
}

func (v IPVersion) network() string {
	switch v {
	case V4:
		return "tcp4"
	case V6:
		return "tcp6"
	default:
		return "tcp"
	}
}

// BrokerIO is a single, not-thread-safe connection to one broker. Callers
// (the Cluster's routed-request loop) must not use one from more than one
// goroutine at a time.
type BrokerIO struct {
	conn    net.Conn
	cfg     Config
	host    string
	port    int
	closed  atomic.Bool
}

// Dial opens a new connection to host:port.
//
// If cfg.IPVersion is V4 or V6 and host is a literal address of the other
// family, Dial fails with clienterr.IncompatibleHostIpVersion before
// attempting to connect.
func Dial(host string, port int, cfg Config) (*BrokerIO, error) {
	cfg = cfg.withDefaults()

	if lit := net.ParseIP(host); lit != nil {
		switch cfg.IPVersion {
		case V4:
			if lit.To4() == nil {
				return nil, clienterr.New(clienterr.IncompatibleHostIpVersion, fmt.Sprintf("host %s is not IPv4", host))
			}
		case V6:
			if lit.To4() != nil {
				return nil, clienterr.New(clienterr.IncompatibleHostIpVersion, fmt.Sprintf("host %s is not IPv6", host))
			}
		}
	}

	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := cfg.Dialer.DialTimeout(cfg.IPVersion.network(), addr, cfg.Timeout)
	if err != nil {
		return nil, clienterr.Wrap(clienterr.CannotBind, err)
	}
	return &BrokerIO{conn: conn, cfg: cfg, host: host, port: port}, nil
}

// Send writes the length-prefixed frame for body: a 4-byte big-endian size
// followed by body itself. body must already be a complete, encoded
// request (header included); Send only adds the outer size prefix.
func (b *BrokerIO) Send(body []byte) error {
	if b.closed.Load() {
		return clienterr.New(clienterr.NoConnection, "broker connection is closed")
	}
	if len(body) > int(b.cfg.MaxRequestSize) {
		return clienterr.New(clienterr.MismatchArgument, fmt.Sprintf("request of %d bytes exceeds max_request_size %d", len(body), b.cfg.MaxRequestSize))
	}

	if err := b.conn.SetWriteDeadline(time.Now().Add(b.cfg.Timeout)); err != nil {
		return clienterr.Wrap(clienterr.CannotSend, err)
	}

	frame := make([]byte, 4+len(body))
	frame[0] = byte(len(body) >> 24)
	frame[1] = byte(len(body) >> 16)
	frame[2] = byte(len(body) >> 8)
	frame[3] = byte(len(body))
	copy(frame[4:], body)

	if err := writeFull(b.conn, frame); err != nil {
		return clienterr.Wrap(clienterr.CannotSend, err)
	}
	return nil
}

// Receive reads one length-prefixed response frame and returns the body
// (the 4-byte size prefix is stripped).
func (b *BrokerIO) Receive() ([]byte, error) {
	if b.closed.Load() {
		return nil, clienterr.New(clienterr.NoConnection, "broker connection is closed")
	}

	if err := b.conn.SetReadDeadline(time.Now().Add(b.cfg.Timeout)); err != nil {
		return nil, clienterr.Wrap(clienterr.CannotRecv, err)
	}

	var sizeBuf [4]byte
	if err := readFull(b.conn, sizeBuf[:]); err != nil {
		return nil, clienterr.Wrap(clienterr.CannotRecv, err)
	}
	size := int32(sizeBuf[0])<<24 | int32(sizeBuf[1])<<16 | int32(sizeBuf[2])<<8 | int32(sizeBuf[3])
	if size < 0 {
		return nil, clienterr.New(clienterr.RequestOrResponse, fmt.Sprintf("negative response size %d", size))
	}

	body := make([]byte, size)
	if err := readFull(b.conn, body); err != nil {
		return nil, clienterr.Wrap(clienterr.CannotRecv, err)
	}
	return body, nil
}

// Close closes the underlying connection. It is idempotent: a second call
// returns nil rather than erroring.
func (b *BrokerIO) Close() error {
	if b.closed.Swap(true) {
		return nil
	}
	return b.conn.Close()
}

// IsAlive is a non-blocking best-effort liveness check that consumes no
// data. It reports false only after Close has been called; it does not
// probe the socket, so a connection the peer has dropped, or one whose last
// read/write failed, still reports true until it is closed.
func (b *BrokerIO) IsAlive() bool {
	return !b.closed.Load()
}

// HostPort returns the broker address this BrokerIO is connected to.
func (b *BrokerIO) HostPort() (string, int) { return b.host, b.port }

func writeFull(w net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := w.Write(buf)
		if err != nil {
			return err
		}
		buf = buf[n:]
	}
	return nil
}

func readFull(r net.Conn, buf []byte) error {
	for len(buf) > 0 {
		n, err := r.Read(buf)
		if n > 0 {
			buf = buf[n:]
		}
		if err != nil {
			return err
		}
	}
	return nil
}
