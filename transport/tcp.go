// Package transport implements mevo.ByteStream over a real TCP connection
// to a Mevo+/Gen2 device (port 5100), replacing the teacher's
// subprocess-and-callback model (rtl_adsb) with a deadline-based,
// non-blocking read suited to the core's caller-driven poll() loop.
package transport

import (
	"fmt"
	"net"
	"time"
)

// readDeadline bounds every ReadSome call so it can never block the
// caller's poll loop; a genuinely idle connection just returns (0, nil).
const readDeadline = 5 * time.Millisecond

// TCPStream adapts a net.Conn to mevo.ByteStream.
type TCPStream struct {
	conn net.Conn
}

// Dial connects to addr (host:port, typically port 5100) within
// connectTimeout and wraps the resulting connection as a TCPStream.
func Dial(addr string, connectTimeout time.Duration) (*TCPStream, error) {
	conn, err := net.DialTimeout("tcp", addr, connectTimeout)
	if err != nil {
		return nil, fmt.Errorf("transport: dial %s: %w", addr, err)
	}
	if tc, ok := conn.(*net.TCPConn); ok {
		_ = tc.SetNoDelay(true)
	}
	return &TCPStream{conn: conn}, nil
}

// ReadSome returns whatever bytes are immediately available, or (0, nil)
// if none arrive within readDeadline. A timeout is deliberately not
// surfaced as an error: it is the expected steady state of a poll loop.
func (t *TCPStream) ReadSome(buf []byte) (int, error) {
	if err := t.conn.SetReadDeadline(time.Now().Add(readDeadline)); err != nil {
		return 0, fmt.Errorf("transport: set read deadline: %w", err)
	}
	n, err := t.conn.Read(buf)
	if err != nil {
		if ne, ok := err.(net.Error); ok && ne.Timeout() {
			return n, nil
		}
		return n, fmt.Errorf("transport: read: %w", err)
	}
	return n, nil
}

// WriteAll writes b in full, bounded by a fixed write deadline so a stuck
// socket surfaces as an error instead of hanging the caller.
func (t *TCPStream) WriteAll(b []byte) error {
	if err := t.conn.SetWriteDeadline(time.Now().Add(time.Second)); err != nil {
		return fmt.Errorf("transport: set write deadline: %w", err)
	}
	for len(b) > 0 {
		n, err := t.conn.Write(b)
		if err != nil {
			return fmt.Errorf("transport: write: %w", err)
		}
		b = b[n:]
	}
	return nil
}

// Close closes the underlying connection.
func (t *TCPStream) Close() error {
	return t.conn.Close()
}
