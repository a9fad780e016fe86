package pushchan

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/qryptovault/internal/logging"
	"github.com/dmitrijs2005/qryptovault/internal/netx"
	"github.com/gorilla/websocket"
)

const (
	DefaultMinBackoff = 500 * time.Millisecond
	DefaultMaxBackoff = 30 * time.Second

	handshakeTimeout = 10 * time.Second
	writeTimeout     = 5 * time.Second

	socketPath = "/socket.io/"
)

var (
	ErrConnectRefused = errors.New("socket.io connect refused")
	ErrServerClosed   = errors.New("server closed the session")
)

// SocketIOChannel is a Channel backed by Socket.IO v4 over WebSocket.
// A SocketIOChannel is single-use: once closed it cannot run again.
type SocketIOChannel struct {
	url       string
	header    http.Header
	namespace string
	dialer    *websocket.Dialer
	log       logging.Logger

	minBackoff time.Duration
	maxBackoff time.Duration

	state atomic.Int32

	mu   sync.Mutex
	conn *websocket.Conn

	done      chan struct{}
	closeOnce sync.Once
}

// Option customizes a SocketIOChannel.
type Option func(*SocketIOChannel)

func WithDialer(d *websocket.Dialer) Option {
	return func(c *SocketIOChannel) { c.dialer = d }
}

func WithLogger(l logging.Logger) Option {
	return func(c *SocketIOChannel) { c.log = l }
}

// WithBackoff sets the reconnect delay bounds. The delay doubles after each
// failed attempt and resets once a session is established.
func WithBackoff(minDelay, maxDelay time.Duration) Option {
	return func(c *SocketIOChannel) {
		if minDelay > 0 {
			c.minBackoff = minDelay
		}
		if maxDelay >= c.minBackoff {
			c.maxBackoff = maxDelay
		}
	}
}

// WithNamespace joins a namespace other than "/".
func WithNamespace(ns string) Option {
	return func(c *SocketIOChannel) {
		if ns == "/" {
			ns = ""
		}
		c.namespace = ns
	}
}

// WithHeader adds HTTP headers to the WebSocket handshake request.
func WithHeader(h http.Header) Option {
	return func(c *SocketIOChannel) { c.header = h.Clone() }
}

// New returns a channel for the backend at baseURL (http or https).
func New(baseURL string, opts ...Option) (*SocketIOChannel, error) {
	base, err := netx.ParseBaseURL(baseURL)
	if err != nil {
		return nil, err
	}

	c := &SocketIOChannel{
		url:        netx.WebSocketURL(base, socketPath, url.Values{"EIO": {"4"}, "transport": {"websocket"}}),
		dialer:     &websocket.Dialer{HandshakeTimeout: handshakeTimeout, Proxy: http.ProxyFromEnvironment},
		log:        logging.Nop(),
		minBackoff: DefaultMinBackoff,
		maxBackoff: DefaultMaxBackoff,
		done:       make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	c.log = c.log.With("component", "pushchan")
	return c, nil
}

// URL returns the WebSocket endpoint the channel dials.
func (c *SocketIOChannel) URL() string {
	return c.url
}

func (c *SocketIOChannel) State() State {
	return State(c.state.Load())
}

func (c *SocketIOChannel) setState(s State) {
	c.state.Store(int32(s))
}

func (c *SocketIOChannel) Run(ctx context.Context, h Handler) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	go func() {
		select {
		case <-c.done:
			cancel()
		case <-ctx.Done():
		}
	}()

	backoff := c.minBackoff
	for {
		established, err := c.session(ctx, h)
		if ctx.Err() != nil {
			return nil
		}
		if established {
			backoff = c.minBackoff
		}

		c.log.Warn(ctx, "push channel lost, reconnecting", "error", err, "backoff", backoff)

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return nil
		}

		backoff *= 2
		if backoff > c.maxBackoff {
			backoff = c.maxBackoff
		}
	}
}

// session runs one connection from dial to loss. established reports
// whether the Socket.IO CONNECT completed.
func (c *SocketIOChannel) session(ctx context.Context, h Handler) (established bool, err error) {
	c.setState(Connecting)
	h.OnConnecting()
	defer func() {
		c.setState(Disconnected)
		if established {
			h.OnDisconnect(err)
		}
	}()

	conn, resp, err := c.dialer.DialContext(ctx, c.url, c.header)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	if err != nil {
		return false, fmt.Errorf("dial %s: %w", c.url, err)
	}
	if !c.attach(conn) {
		_ = conn.Close()
		return false, ctx.Err()
	}
	defer c.detach(conn)

	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	hs, err := c.open(conn)
	if err != nil {
		return false, err
	}
	c.log.Debug(ctx, "engine.io session opened", "sid", hs.SID, "ping_interval_ms", hs.PingInterval)

	connect := Packet{Type: PacketConnect, Namespace: c.namespace, AckID: -1}
	if err := c.write(conn, connect.Encode()); err != nil {
		return false, err
	}

	for {
		_ = conn.SetReadDeadline(time.Now().Add(hs.readTimeout()))
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return established, fmt.Errorf("read: %w", err)
		}

		typ, payload, err := splitFrame(frame)
		if err != nil {
			c.log.Debug(ctx, "skipping frame", "error", err)
			continue
		}

		switch typ {
		case eioPing:
			if err := c.write(conn, append([]byte{eioPong}, payload...)); err != nil {
				return established, err
			}
		case eioClose:
			return established, ErrServerClosed
		case eioMessage:
			up, err := c.dispatch(ctx, conn, payload, h, established)
			if err != nil {
				return established, err
			}
			if up && !established {
				established = true
				c.setState(Connected)
				c.log.Info(ctx, "push channel connected")
				h.OnConnect()
			}
		}
	}
}

// open reads the Engine.IO open packet.
func (c *SocketIOChannel) open(conn *websocket.Conn) (handshake, error) {
	_ = conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	_, frame, err := conn.ReadMessage()
	if err != nil {
		return handshake{}, fmt.Errorf("read open packet: %w", err)
	}
	typ, payload, err := splitFrame(frame)
	if err != nil {
		return handshake{}, err
	}
	if typ != eioOpen {
		return handshake{}, fmt.Errorf("expected open packet, got %q", typ)
	}
	return parseHandshake(payload)
}

// dispatch handles one Socket.IO packet. It reports true when the packet
// is the CONNECT reply for our namespace.
func (c *SocketIOChannel) dispatch(ctx context.Context, conn *websocket.Conn, payload []byte, h Handler,
	established bool) (bool, error) {

	p, err := DecodePacket(payload)
	if err != nil {
		c.log.Warn(ctx, "dropping malformed packet", "error", err)
		return false, nil
	}
	if p.Namespace != c.namespace {
		return false, nil
	}

	switch p.Type {
	case PacketConnect:
		return true, nil
	case PacketConnectError:
		return false, connectError(p)
	case PacketDisconnect:
		return false, ErrServerClosed
	case PacketEvent:
		name, arg, err := p.Event()
		if err != nil {
			c.log.Warn(ctx, "dropping malformed event", "error", err)
			return false, nil
		}
		if p.AckID >= 0 {
			ack := Packet{Type: PacketAck, Namespace: c.namespace, AckID: p.AckID, Data: []byte("[]")}
			if err := c.write(conn, ack.Encode()); err != nil {
				return false, err
			}
		}
		if !established {
			c.log.Debug(ctx, "event before connect", "event", name)
		}
		h.OnEvent(name, arg)
	}
	return false, nil
}

func (c *SocketIOChannel) write(conn *websocket.Conn, frame []byte) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("write: %w", err)
	}
	return nil
}

// attach records the live connection; false if the channel is already closed.
func (c *SocketIOChannel) attach(conn *websocket.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	select {
	case <-c.done:
		return false
	default:
	}
	c.conn = conn
	return true
}

func (c *SocketIOChannel) detach(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn == conn {
		c.conn = nil
	}
	c.mu.Unlock()
	_ = conn.Close()
}

func (c *SocketIOChannel) Close() error {
	c.closeOnce.Do(func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		close(c.done)
		if c.conn != nil {
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			_ = c.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
			_ = c.conn.Close()
		}
	})
	return nil
}
