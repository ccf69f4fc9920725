package client

import (
	"context"
	"net"
	"sync"
	"sync/atomic"

	"github.com/ValentinKolb/connectkit/lib/framing"
	"github.com/ValentinKolb/connectkit/lib/queue"
	"github.com/google/uuid"
)

// session is one connection attempt and, once dialed, one stream
// connection. Tasks posted on behalf of a session compare it with the
// client's current session and become no-ops once it was replaced.
type session struct {
	id       string
	endpoint string
	ctx      context.Context
	cancel   context.CancelFunc

	// set once the dial succeeded, guarded by mu
	mu     sync.Mutex
	conn   net.Conn
	closed bool
	ready  atomic.Bool

	// outgoing messages, drained by the writer goroutine
	outbox *queue.MPSC[[]byte]

	// owned by the event loop
	frames *framing.Reassembler
}

func newSession(endpoint string, maxFrameSize int) *session {
	ctx, cancel := context.WithCancel(context.Background())
	return &session{
		id:       uuid.NewString(),
		endpoint: endpoint,
		ctx:      ctx,
		cancel:   cancel,
		outbox:   queue.NewMPSC[[]byte](),
		frames:   framing.NewReassembler(maxFrameSize),
	}
}

// attach stores the dialed connection. It returns false if the session was
// closed in the meantime; the caller then owns conn and must close it.
func (s *session) attach(conn net.Conn) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	s.conn = conn
	return true
}

// enqueue hands a message to the writer goroutine
func (s *session) enqueue(msg []byte) bool {
	return s.outbox.Push(&msg)
}

// close stops both goroutines and closes the connection. It is safe to call
// from any goroutine and more than once.
func (s *session) close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	conn := s.conn
	s.mu.Unlock()

	s.ready.Store(false)
	s.outbox.Abort()
	s.cancel()
	if conn != nil {
		_ = conn.Close()
	}
}

// shortID returns the first block of the session id for log messages
func (s *session) shortID() string {
	if len(s.id) >= 8 {
		return s.id[:8]
	}
	return s.id
}
