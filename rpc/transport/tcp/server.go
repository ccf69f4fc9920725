package tcp

import (
	"fmt"
	"net"
	"time"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/transport"
)

// serverConnector implements the IServerConnector interface for TCP sockets
type serverConnector struct{}

// NewServerConnector creates a TCP server connector
func NewServerConnector() transport.IServerConnector {
	return &serverConnector{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "tcp"
}

func (c *serverConnector) Listen(endpoint string) (net.Listener, error) {
	listener, err := net.Listen("tcp", endpoint)
	if err != nil {
		transport.Logger.Errorf("Failed to listen on %s (tcp): %v", endpoint, err)
		return nil, fmt.Errorf("failed to create TCP socket: %w", err)
	}
	transport.Logger.Infof("Listening on %s (tcp)", listener.Addr())
	return listener, nil
}

func (c *serverConnector) UpgradeConnection(conn net.Conn, config common.TransportConfig) error {
	if err := upgrade(conn, config); err != nil {
		transport.Logger.Warningf("Failed to apply socket options to %s: %v", conn.RemoteAddr(), err)
		return err
	}
	return nil
}

// --------------------------------------------------------------------------
// Helper
// --------------------------------------------------------------------------

// upgrade applies the socket options of config to a TCP connection.
// Other connection types are left untouched.
func upgrade(conn net.Conn, config common.TransportConfig) error {
	tcpConn, ok := conn.(*net.TCPConn)
	if !ok {
		return nil
	}

	// Disable Nagle's algorithm if configured
	if err := tcpConn.SetNoDelay(config.TCPNoDelay); err != nil {
		return err
	}

	if config.WriteBufferSize > 0 {
		if err := tcpConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.ReadBufferSize > 0 {
		if err := tcpConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	if config.TCPKeepAliveSec > 0 {
		if err := tcpConn.SetKeepAlive(true); err != nil {
			return err
		}
		if err := tcpConn.SetKeepAlivePeriod(time.Duration(config.TCPKeepAliveSec) * time.Second); err != nil {
			return err
		}
	}

	return nil
}
