package mevo

import (
	"time"

	"github.com/sirupsen/logrus"
)

// clientPhase is the client's outermost state: which driver (if any) is
// currently advancing.
type clientPhase int

const (
	clientHandshaking clientPhase = iota
	clientSessionRunning
	clientFaulted
	clientDormant
	clientClosed
)

// Client is the top-level, single-threaded, caller-driven protocol client
// (spec §1, §5). It owns no goroutines and performs no I/O beyond what
// Poll() explicitly drives through its ByteStream.
type Client struct {
	stream ByteStream
	cfg    Config
	rb     *receiveBuffer

	phase      clientPhase
	deviceKind DeviceKind
	lastStatus map[Bus]*Status
	armed      bool

	hs   *handshakeDriver
	sess *sessionDriver

	pendingEvents []Event
}

// NewClient constructs a Client bound to stream with cfg, filling in
// ambient collaborator defaults (Clock, Logger, timeouts) the way
// DefaultConfig does, and validating the caller-supplied settings.
func NewClient(stream ByteStream, cfg Config) (*Client, error) {
	if cfg.Clock == nil {
		cfg.Clock = SystemClock{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logrus.StandardLogger()
	}
	if cfg.KeepaliveInterval == 0 {
		cfg.KeepaliveInterval = 1000 * time.Millisecond
	}
	if cfg.ExchangeTimeout == 0 {
		cfg.ExchangeTimeout = 1000 * time.Millisecond
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rb := newReceiveBuffer()
	rb.logger = cfg.PacketLogger

	return &Client{
		stream:     stream,
		cfg:        cfg,
		rb:         rb,
		lastStatus: map[Bus]*Status{},
	}, nil
}

// ConnectAndHandshake begins the six-phase handshake sequence (spec §4.5).
// It does not block: the handshake itself advances across subsequent
// Poll() calls, the same as every other unit of work.
func (c *Client) ConnectAndHandshake() {
	c.phase = clientHandshaking
	c.hs = newHandshakeDriver(c)
}

// Poll performs at most one unit of protocol work and returns whatever
// events that work produced (spec §4.8, §5). It never blocks: ReadSome is
// expected to return immediately when no bytes are currently available.
func (c *Client) Poll() ([]Event, error) {
	if c.phase == clientClosed {
		return nil, newErr(KindIO, "poll called after Disconnect")
	}

	buf := make([]byte, 4096)
	n, err := c.stream.ReadSome(buf)
	if err != nil {
		return nil, wrapErr(KindIO, err, "read")
	}
	if n > 0 {
		c.rb.push(buf[:n])
	}

	var events []Event
	var workErr error

	switch c.phase {
	case clientHandshaking:
		if c.hs == nil {
			c.hs = newHandshakeDriver(c)
		}
		var done bool
		events, done, workErr = c.hs.advance(c)
		if workErr == nil && done {
			c.phase = clientSessionRunning
			c.sess = newSessionDriver(c)
		}
	case clientSessionRunning:
		events, workErr = c.sess.advance(c)
		if sd := c.sess; sd != nil && sd.state == sessionFaulted {
			c.phase = clientFaulted
		}
	case clientFaulted, clientDormant:
		// terminal until the caller reconnects with a fresh Client
	}

	if c.cfg.Metrics != nil && (workErr != nil || c.phase == clientFaulted) {
		c.cfg.Metrics.SetArmed(false)
	}

	if workErr != nil {
		if fe, ok := workErr.(*Error); ok && fe.Kind == KindProtocolDeviceDormant {
			c.phase = clientDormant
			return append(c.drainPending(), Event{Kind: EventDormant}), nil
		}
		c.phase = clientFaulted
		return nil, workErr
	}

	return append(c.drainPending(), events...), nil
}

// RequestModeChange asks the armed device to switch detection mode (spec
// §4.6). It is only valid while the session is Armed; the change itself is
// applied across subsequent Poll() calls.
func (c *Client) RequestModeChange(mode Mode) error {
	if c.phase != clientSessionRunning || c.sess == nil || c.sess.state != sessionArmed {
		return newProtocolError(KindProtocolUnexpectedMessage, "mode change requested while not armed")
	}
	c.sess.pendingModeChange = &mode
	return nil
}

// RequestSettingsChange asks the armed device to adopt new shot-detection
// settings (spec §4.6), again only valid while Armed.
func (c *Client) RequestSettingsChange(ballType BallType, teeHeightM, minTrackPercent float64) error {
	if c.phase != clientSessionRunning || c.sess == nil || c.sess.state != sessionArmed {
		return newProtocolError(KindProtocolUnexpectedMessage, "settings change requested while not armed")
	}
	c.sess.pendingSettings = &settingsChange{
		BallType:        ballType,
		TeeHeightM:      teeHeightM,
		MinTrackPercent: minTrackPercent,
	}
	return nil
}

// Disconnect closes the underlying transport and marks the Client unusable
// for further Poll() calls.
func (c *Client) Disconnect() error {
	c.phase = clientClosed
	return c.stream.Close()
}

// DeviceKind reports the device family discovered during the handshake's
// DSP phase; DeviceUnknown before that completes.
func (c *Client) DeviceKind() DeviceKind { return c.deviceKind }

// Armed reports whether the handshake has completed and the session has
// not since faulted or gone dormant.
func (c *Client) Armed() bool { return c.armed && c.phase == clientSessionRunning }

func (c *Client) recordStatus(s *Status) {
	c.lastStatus[s.Bus] = s
	if c.cfg.Metrics != nil && s.Bus == BusDSP {
		c.cfg.Metrics.SetArmed(c.armed)
	}
}

func (c *Client) emitProtocolErrorEvent(e *Error) {
	c.pendingEvents = append(c.pendingEvents, Event{Kind: EventProtocolError, Err: e})
	if c.cfg.Metrics != nil {
		c.cfg.Metrics.IncFramingError(e.Kind.String())
	}
}

func (c *Client) drainPending() []Event {
	if len(c.pendingEvents) == 0 {
		return nil
	}
	ev := c.pendingEvents
	c.pendingEvents = nil
	return ev
}
