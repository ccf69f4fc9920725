package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/lib/manifest"
	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/transport"
	"github.com/ValentinKolb/connectkit/rpc/transport/tcp"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("client")

const (
	readChunkSize = 64 * 1024

	// maxWriteBatch bounds the messages written with one vectored write
	maxWriteBatch = 256
)

var (
	ErrNotConnected = errors.New("not connected")
	ErrClosed       = errors.New("client is closed")
	ErrSend         = errors.New("failed to send message")
	ErrIdleTimeout  = errors.New("no data received within idle timeout")
	ErrUnknownName  = errors.New("unknown state name")
)

// ConnectionError is reported when the stream to an endpoint could not be
// established or broke down
type ConnectionError struct {
	Endpoint string
	Err      error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.Endpoint, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

// Resolver provides the endpoint of a remote simulator, e.g. a discovered session
type Resolver interface {
	Endpoint() string
}

// Client is a protocol client for one remote simulator. It keeps at most one
// connection; connecting again replaces the previous one.
type Client struct {
	config    common.ClientConfig
	connector transport.IClientConnector
	delegate  Delegate
	loop      *eventLoop

	current  atomic.Pointer[session]
	state    atomic.Pointer[ConnectionState]
	manifest atomic.Pointer[manifest.Manifest]
	values   *xsync.MapOf[int32, codec.Value]
	waiters  *xsync.MapOf[int32, []chan codec.Value]

	// bumped by Connect and Disconnect, pending reconnects of an older
	// generation are discarded
	generation atomic.Uint64
	closed     atomic.Bool

	// owned by the event loop
	attempts int
	backoff  *transport.Backoff
}

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// NewClient creates a client. A nil delegate discards all events, a nil
// connector selects the TCP transport.
func NewClient(config common.ClientConfig, connector transport.IClientConnector, delegate Delegate) *Client {
	if delegate == nil {
		delegate = NopDelegate{}
	}
	if connector == nil {
		connector = tcp.NewClientConnector(time.Duration(config.TimeoutSecond) * time.Second)
	}

	c := &Client{
		config:    config,
		connector: connector,
		delegate:  delegate,
		loop:      newEventLoop(),
		values:    xsync.NewMapOf[int32, codec.Value](),
		waiters:   xsync.NewMapOf[int32, []chan codec.Value](),
		backoff: transport.NewBackoff(
			time.Duration(config.Reconnect.InitialDelayMs)*time.Millisecond,
			time.Duration(config.Reconnect.MaxDelayMs)*time.Millisecond,
		),
	}
	initial := stateDisconnected
	c.state.Store(&initial)
	return c
}

// --------------------------------------------------------------------------
// Connection Lifecycle
// --------------------------------------------------------------------------

// Connect starts connecting to endpoint (host:port). A previous connection is
// torn down first. The result is reported through the delegate.
func (c *Client) Connect(endpoint string) error {
	if c.closed.Load() {
		return ErrClosed
	}
	c.generation.Add(1)
	c.startSession(endpoint, true)
	return nil
}

// ConnectTo connects to the endpoint provided by r
func (c *Client) ConnectTo(r Resolver) error {
	return c.Connect(r.Endpoint())
}

// Disconnect closes the current connection. Calling it while disconnected is a
// no-op. State reports StatusDisconnected as soon as Disconnect returns; the
// state change callback is delivered on the event loop afterwards.
func (c *Client) Disconnect() {
	c.generation.Add(1)
	if old := c.current.Swap(nil); old != nil {
		Logger.Infof("Disconnecting from %s (session %s)", old.endpoint, old.shortID())
		old.close()
	}
	c.post(func() {
		if c.current.Load() == nil && c.state.Load().Status != StatusDisconnected {
			c.setState(stateDisconnected)
		}
	})
}

// Close disconnects and stops the event loop. It must not be called from a
// delegate callback.
func (c *Client) Close() error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	c.Disconnect()
	c.loop.Close()
	return nil
}

// State returns the current connection state. Without a connection a ready or
// connecting state is stale and StatusDisconnected is reported instead.
func (c *Client) State() ConnectionState {
	state := *c.state.Load()
	if c.current.Load() == nil && (state.Status == StatusReady || state.Status == StatusConnecting) {
		return stateDisconnected
	}
	return state
}

// Manifest returns the current manifest snapshot
func (c *Client) Manifest() *manifest.Manifest {
	if m := c.manifest.Load(); m != nil {
		return m
	}
	return manifest.Empty
}

// Config returns the configuration of the client
func (c *Client) Config() common.ClientConfig {
	return c.config
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

// post schedules fn on the event loop
func (c *Client) post(fn func()) bool {
	return c.loop.Post(fn)
}

// setState stores a new state and notifies an observing delegate. Runs on the event loop.
func (c *Client) setState(next ConnectionState) {
	old := c.state.Swap(&next)
	Logger.Debugf("State %s -> %s", *old, next)
	if observer, ok := c.delegate.(StateObserver); ok {
		observer.OnStateChange(*old, next)
	}
}

// startSession replaces the current session and starts dialing
func (c *Client) startSession(endpoint string, userInitiated bool) {
	s := newSession(endpoint, c.config.MaxFrameSize)
	if old := c.current.Swap(s); old != nil {
		Logger.Infof("Replacing connection to %s (session %s)", old.endpoint, old.shortID())
		old.close()
	}
	common.ConnectAttempts.Inc()

	c.post(func() {
		if userInitiated {
			c.attempts = 0
			c.backoff.Reset()
		}
		if c.current.Load() == s {
			c.setState(stateConnecting)
		}
	})
	go c.dial(s)
}

// dial establishes the stream of s and hands the result to the event loop
func (c *Client) dial(s *session) {
	ctx := s.ctx
	if c.config.TimeoutSecond > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(c.config.TimeoutSecond)*time.Second)
		defer cancel()
	}

	Logger.Debugf("Dialing %s using %s transport (session %s)", s.endpoint, c.connector.GetName(), s.shortID())
	conn, err := c.connector.Connect(ctx, s.endpoint)
	if err == nil {
		if uerr := c.connector.UpgradeConnection(conn, c.config.Transport); uerr != nil {
			_ = conn.Close()
			conn, err = nil, fmt.Errorf("failed to upgrade connection: %w", uerr)
		}
	}
	if err != nil {
		common.ConnectFailures.Inc()
		err = &ConnectionError{Endpoint: s.endpoint, Err: err}
	}

	if !c.post(func() { c.connected(s, conn, err) }) && conn != nil {
		_ = conn.Close()
	}
}

// connected completes a dial. Runs on the event loop.
func (c *Client) connected(s *session, conn net.Conn, err error) {
	if c.current.Load() != s {
		if conn != nil {
			_ = conn.Close()
		}
		return
	}
	if err != nil {
		c.fail(s, err)
		return
	}
	if !s.attach(conn) {
		_ = conn.Close()
		return
	}

	s.ready.Store(true)
	c.attempts = 0
	c.backoff.Reset()
	Logger.Infof("Connected to %s (session %s)", s.endpoint, s.shortID())

	c.setState(stateReady)
	c.delegate.OnConnect()
	if c.current.Load() != s {
		return
	}

	s.enqueue(codec.EncodeRead(codec.ManifestID))
	go c.writeLoop(s)
	go c.readLoop(s)
}

// remoteClosed handles the end of the stream. Runs on the event loop.
func (c *Client) remoteClosed(s *session) {
	if !c.current.CompareAndSwap(s, nil) {
		return
	}
	s.close()
	Logger.Infof("Connection to %s closed by remote (session %s)", s.endpoint, s.shortID())
	c.setState(stateDisconnected)
	c.scheduleReconnect(s.endpoint)
}

// fail tears down s after a transport failure. Runs on the event loop.
func (c *Client) fail(s *session, err error) {
	if !c.current.CompareAndSwap(s, nil) {
		return
	}
	s.close()
	Logger.Errorf("Connection to %s failed (session %s): %v", s.endpoint, s.shortID(), err)
	c.delegate.OnError(err)
	c.setState(stateFailed(err))
	c.scheduleReconnect(s.endpoint)
}

// --------------------------------------------------------------------------
// Stream Goroutines
// --------------------------------------------------------------------------

// readLoop keeps exactly one read in flight. The next read is issued only
// after the event loop processed the previous chunk.
func (c *Client) readLoop(s *session) {
	buf := make([]byte, readChunkSize)
	idle := time.Duration(c.config.IdleTimeoutSecond) * time.Second

	for {
		if idle > 0 {
			_ = s.conn.SetReadDeadline(time.Now().Add(idle))
		}
		n, err := s.conn.Read(buf)

		if n > 0 {
			processed := make(chan struct{})
			chunk := buf[:n]
			if !c.post(func() {
				defer close(processed)
				c.receive(s, chunk)
			}) {
				return
			}
			select {
			case <-processed:
			case <-s.ctx.Done():
				return
			}
		}

		if err != nil {
			switch {
			case errors.Is(err, io.EOF):
				c.post(func() { c.remoteClosed(s) })
			case isTimeout(err) && idle > 0:
				c.post(func() { c.fail(s, &ConnectionError{Endpoint: s.endpoint, Err: ErrIdleTimeout}) })
			default:
				c.post(func() { c.fail(s, &ConnectionError{Endpoint: s.endpoint, Err: err}) })
			}
			return
		}
	}
}

// writeLoop drains the outbox of s in batches
func (c *Client) writeLoop(s *session) {
	for {
		var batch [][]byte
		select {
		case <-s.ctx.Done():
			return
		case msg, ok := <-s.outbox.Recv():
			if !ok {
				return
			}
			batch = append(batch, *msg)
		}

		// take what else is queued without waiting
	collect:
		for len(batch) < maxWriteBatch {
			select {
			case msg, ok := <-s.outbox.Recv():
				if !ok {
					break collect
				}
				batch = append(batch, *msg)
			default:
				break collect
			}
		}

		bufs := net.Buffers(batch)
		if _, err := bufs.WriteTo(s.conn); err != nil {
			common.SendErrors.Add(len(batch))
			if s.ctx.Err() != nil {
				return
			}
			sendErr := fmt.Errorf("%w: %v", ErrSend, err)
			c.post(func() {
				if c.current.Load() == s {
					c.delegate.OnError(sendErr)
				}
			})
			continue
		}
		common.MessagesSent.Add(len(batch))
	}
}

func isTimeout(err error) bool {
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
