package discovery

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("discovery")

const (
	// MaxMessageSize bounds a single session broadcast
	MaxMessageSize = 8 * 1024

	// AnnounceInterval is how often an Announcer broadcasts its session
	AnnounceInterval = time.Second
)

// --------------------------------------------------------------------------
// Listener
// --------------------------------------------------------------------------

// Listener receives session broadcasts on a UDP port
type Listener struct {
	conn *net.UDPConn
}

// NewListener binds the UDP port on all IPv4 interfaces. Simulators announce
// on common.DefaultDiscoveryPort; port 0 binds an ephemeral port.
func NewListener(port int) (*Listener, error) {
	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero, Port: port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind UDP port %d: %w", port, err)
	}
	return &Listener{conn: conn}, nil
}

// Addr returns the local address of the listener
func (l *Listener) Addr() net.Addr {
	return l.conn.LocalAddr()
}

// Watch calls fn for every valid session received until ctx is done or fn
// returns false. Invalid broadcasts are skipped.
func (l *Listener) Watch(ctx context.Context, fn func(Session) bool) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	buf := make([]byte, MaxMessageSize)
	for {
		n, addr, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return fmt.Errorf("discovery read failed: %w", err)
		}

		session, err := ParseSession(buf[:n])
		if err != nil {
			Logger.Debugf("Ignoring broadcast from %s: %v", addr, err)
			continue
		}
		Logger.Infof("Found session %s", session)
		if !fn(session) {
			return nil
		}
	}
}

// Next returns the first valid session received
func (l *Listener) Next(ctx context.Context) (Session, error) {
	var found Session
	err := l.Watch(ctx, func(s Session) bool {
		found = s
		return false
	})
	return found, err
}

// Close releases the UDP port
func (l *Listener) Close() error {
	return l.conn.Close()
}

// Discover listens on port until the first session arrives or ctx is done
func Discover(ctx context.Context, port int) (Session, error) {
	l, err := NewListener(port)
	if err != nil {
		return Session{}, err
	}
	defer l.Close()
	return l.Next(ctx)
}

// --------------------------------------------------------------------------
// Announcer
// --------------------------------------------------------------------------

// Announcer periodically broadcasts a session, the way a simulator does
type Announcer struct {
	session Session
	target  *net.UDPAddr
	conn    *net.UDPConn

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewAnnouncer creates an announcer sending to target (host:port). An empty
// target selects the IPv4 broadcast address on common.DefaultDiscoveryPort.
func NewAnnouncer(session Session, target string) (*Announcer, error) {
	if len(session.Addresses) == 0 {
		return nil, ErrNoAddresses
	}

	addr := &net.UDPAddr{IP: net.IPv4bcast, Port: common.DefaultDiscoveryPort}
	if target != "" {
		var err error
		if addr, err = net.ResolveUDPAddr("udp4", target); err != nil {
			return nil, fmt.Errorf("invalid announce target %s: %w", target, err)
		}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{IP: net.IPv4zero})
	if err != nil {
		return nil, fmt.Errorf("failed to open UDP socket: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Announcer{session: session, target: addr, conn: conn, ctx: ctx, cancel: cancel}, nil
}

// Start broadcasts immediately and then every interval
func (a *Announcer) Start(interval time.Duration) {
	if interval <= 0 {
		interval = AnnounceInterval
	}
	a.wg.Add(1)
	go func() {
		defer a.wg.Done()
		a.announce()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-a.ctx.Done():
				return
			case <-ticker.C:
				a.announce()
			}
		}
	}()
}

// Stop ends the broadcasts and releases the socket
func (a *Announcer) Stop() {
	a.cancel()
	a.wg.Wait()
	_ = a.conn.Close()
}

func (a *Announcer) announce() {
	data, err := json.Marshal(a.session)
	if err != nil {
		Logger.Errorf("Failed to marshal session: %v", err)
		return
	}
	if _, err := a.conn.WriteToUDP(data, a.target); err != nil && !errors.Is(err, net.ErrClosed) {
		// broadcast failures are common on some networks
		Logger.Debugf("Broadcast to %s failed: %v", a.target, err)
	}
}
