package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ValentinKolb/connectkit/lib/codec"
	"github.com/ValentinKolb/connectkit/lib/manifest"
	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/transport"
	"github.com/lni/dragonboat/v4/logger"
	"github.com/puzpuzpuz/xsync/v3"
)

var Logger = logger.GetLogger("mock")

const readBufferSize = 16 * 1024

// DefaultManifest is served when no manifest is configured
const DefaultManifest = `0,3,aircraft/0/altitude_msl
1,3,aircraft/0/heading_magnetic
2,3,aircraft/0/indicated_airspeed
3,2,aircraft/0/systems/flaps/position
4,1,aircraft/0/systems/flaps/state
5,0,aircraft/0/systems/landing_gear/is_down
6,4,aircraft/0/name
7,5,infiniteflight/api/frame
8,-1,commands/FlapsDown
9,-1,commands/FlapsUp
10,-1,commands/LandingGear
`

// Simulator serves the remote side of the state protocol. It answers reads
// with value frames, applies writes and counts commands.
type Simulator struct {
	config    common.MockConfig
	connector transport.IServerConnector
	manifest  *manifest.Manifest

	values   *xsync.MapOf[int32, codec.Value]
	commands *xsync.MapOf[int32, int64]
	conns    *xsync.MapOf[uint64, *simConn]
	nextConn atomic.Uint64

	listener net.Listener
	ctx      context.Context
	cancel   context.CancelFunc
	wg       sync.WaitGroup
}

// simConn is one accepted client connection
type simConn struct {
	id   uint64
	conn net.Conn
	mu   sync.Mutex // protects writes
}

// --------------------------------------------------------------------------
// Factory Method
// --------------------------------------------------------------------------

// NewSimulator creates a simulator serving config.Manifest (DefaultManifest if empty).
// Every value starts at its zero value.
func NewSimulator(config common.MockConfig, connector transport.IServerConnector) *Simulator {
	if config.Manifest == "" {
		config.Manifest = DefaultManifest
	}
	m := manifest.Parse(config.Manifest)

	values := xsync.NewMapOf[int32, codec.Value]()
	for _, e := range m.Entries() {
		if v, ok := zeroValue(e.Kind); ok {
			values.LoadOrStore(e.ID, v)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Simulator{
		config:    config,
		connector: connector,
		manifest:  m,
		values:    values,
		commands:  xsync.NewMapOf[int32, int64](),
		conns:     xsync.NewMapOf[uint64, *simConn](),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// --------------------------------------------------------------------------
// Lifecycle
// --------------------------------------------------------------------------

// Start creates the listener and accepts connections in the background
func (s *Simulator) Start() error {
	listener, err := s.connector.Listen(s.config.Endpoint)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}
	s.listener = listener

	Logger.Infof("Starting mock simulator on %s (%s) serving %d states", listener.Addr(), s.connector.GetName(), s.manifest.Len())

	s.wg.Add(1)
	go s.acceptLoop()

	if s.config.PushIntervalMs > 0 {
		s.wg.Add(1)
		go s.pushLoop(time.Duration(s.config.PushIntervalMs) * time.Millisecond)
	}
	return nil
}

// Serve starts the simulator and blocks until ctx is done
func (s *Simulator) Serve(ctx context.Context) error {
	if err := s.Start(); err != nil {
		return err
	}
	<-ctx.Done()
	return s.Close()
}

// Addr returns the address the simulator listens on
func (s *Simulator) Addr() string {
	if s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Close stops accepting, closes all connections and waits for the handlers to finish
func (s *Simulator) Close() error {
	s.cancel()
	var err error
	if s.listener != nil {
		err = s.listener.Close()
	}
	s.conns.Range(func(_ uint64, c *simConn) bool {
		_ = c.conn.Close()
		return true
	})
	s.wg.Wait()
	return err
}

// --------------------------------------------------------------------------
// State Access
// --------------------------------------------------------------------------

// Manifest returns the served manifest
func (s *Simulator) Manifest() *manifest.Manifest {
	return s.manifest
}

// Value returns the current value of id
func (s *Simulator) Value(id int32) (codec.Value, bool) {
	return s.values.Load(id)
}

// CommandCount returns how often the command id was triggered
func (s *Simulator) CommandCount(id int32) int64 {
	n, _ := s.commands.Load(id)
	return n
}

// Connections returns the number of connected clients
func (s *Simulator) Connections() int {
	return s.conns.Size()
}

// Set changes a value on the simulator side and pushes it to all clients
func (s *Simulator) Set(id int32, v codec.Value) error {
	e, ok := s.manifest.FindByID(id)
	if !ok {
		return fmt.Errorf("%w: %d", codec.ErrUnknownID, id)
	}
	if e.Kind != v.Kind() {
		return fmt.Errorf("%w: %s is %s, got %s", codec.ErrKindMismatch, e.Name, e.Kind, v.Kind())
	}
	s.values.Store(id, v)

	frame, err := codec.EncodeValueFrame(id, v)
	if err != nil {
		return err
	}
	s.broadcast(frame)
	return nil
}

// Broadcast sends a raw frame to every client
func (s *Simulator) Broadcast(id int32, payload []byte) {
	s.broadcast(codec.EncodeFrame(id, payload))
}

// --------------------------------------------------------------------------
// Helper Methods
// --------------------------------------------------------------------------

func (s *Simulator) acceptLoop() {
	defer s.wg.Done()
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			if s.ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			Logger.Errorf("Accept error: %v", err)
			continue
		}

		if err := s.connector.UpgradeConnection(conn, s.config.Transport); err != nil {
			Logger.Warningf("Failed to upgrade connection from %s: %v", conn.RemoteAddr(), err)
		}

		c := &simConn{id: s.nextConn.Add(1), conn: conn}
		s.conns.Store(c.id, c)

		// Close may have run between Accept and Store and missed c
		if s.ctx.Err() != nil {
			s.conns.Delete(c.id)
			_ = conn.Close()
			return
		}

		s.wg.Add(1)
		go s.handleConnection(c)
	}
}

// handleConnection parses client messages until the connection ends
func (s *Simulator) handleConnection(c *simConn) {
	defer s.wg.Done()
	defer func() {
		s.conns.Delete(c.id)
		_ = c.conn.Close()
	}()

	Logger.Infof("Client %d connected from %s", c.id, c.conn.RemoteAddr())

	var pending []byte
	buf := make([]byte, readBufferSize)
	for {
		n, err := c.conn.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)
			consumed, perr := s.handleMessages(c, pending)
			pending = pending[:copy(pending, pending[consumed:])]
			if perr != nil {
				Logger.Errorf("Closing client %d: %v", c.id, perr)
				return
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				Logger.Infof("Connection closed by client %d", c.id)
			} else if s.ctx.Err() == nil {
				Logger.Errorf("Error reading from client %d: %v", c.id, err)
			}
			return
		}
	}
}

// handleMessages processes all complete messages in buf and returns the bytes consumed
func (s *Simulator) handleMessages(c *simConn, buf []byte) (int, error) {
	lookup := func(id int32) (codec.Kind, bool) {
		e, ok := s.manifest.FindByID(id)
		return e.Kind, ok
	}

	consumed := 0
	for consumed < len(buf) {
		msg, n, err := codec.DecodeMessage(buf[consumed:], lookup)
		if errors.Is(err, codec.ErrIncomplete) {
			return consumed, nil
		}
		if err != nil {
			return consumed, err
		}
		consumed += n
		s.handleMessage(c, msg)
	}
	return consumed, nil
}

func (s *Simulator) handleMessage(c *simConn, msg codec.Message) {
	if msg.Write {
		s.values.Store(msg.ID, msg.Value)
		Logger.Debugf("Client %d set %d to %s", c.id, msg.ID, msg.Value)
		return
	}

	if msg.ID == codec.ManifestID {
		payload, err := s.manifest.Encode()
		if err != nil {
			Logger.Errorf("Failed to encode manifest: %v", err)
			return
		}
		s.send(c, codec.EncodeFrame(codec.ManifestID, payload))
		return
	}

	e, ok := s.manifest.FindByID(msg.ID)
	if !ok {
		Logger.Debugf("Client %d read unknown id %d", c.id, msg.ID)
		return
	}
	if e.Kind == codec.KindCommand {
		s.commands.Compute(msg.ID, func(old int64, _ bool) (int64, bool) { return old + 1, false })
		Logger.Debugf("Client %d triggered %s", c.id, e.Name)
		return
	}

	v, ok := s.values.Load(msg.ID)
	if !ok {
		return
	}
	frame, err := codec.EncodeValueFrame(msg.ID, v)
	if err != nil {
		Logger.Errorf("Failed to encode %s: %v", e.Name, err)
		return
	}
	s.send(c, frame)
}

// pushLoop sends every value to every client at the given interval
func (s *Simulator) pushLoop(interval time.Duration) {
	defer s.wg.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.ctx.Done():
			return
		case <-ticker.C:
			var batch []byte
			s.values.Range(func(id int32, v codec.Value) bool {
				if frame, err := codec.EncodeValueFrame(id, v); err == nil {
					batch = append(batch, frame...)
				}
				return true
			})
			if len(batch) > 0 {
				s.broadcast(batch)
			}
		}
	}
}

func (s *Simulator) broadcast(data []byte) {
	s.conns.Range(func(_ uint64, c *simConn) bool {
		s.send(c, data)
		return true
	})
}

func (s *Simulator) send(c *simConn, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, err := c.conn.Write(data); err != nil {
		Logger.Debugf("Failed to write to client %d: %v", c.id, err)
	}
}

func zeroValue(kind codec.Kind) (codec.Value, bool) {
	switch kind {
	case codec.KindBool:
		return codec.BoolValue(false), true
	case codec.KindInt32:
		return codec.Int32Value(0), true
	case codec.KindFloat32:
		return codec.Float32Value(0), true
	case codec.KindFloat64:
		return codec.Float64Value(0), true
	case codec.KindString:
		return codec.StringValue(""), true
	case codec.KindInt64:
		return codec.Int64Value(0), true
	default:
		return codec.Value{}, false
	}
}
