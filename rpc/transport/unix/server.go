package unix

import (
	"fmt"
	"net"
	"os"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/transport"
)

// serverConnector implements the IServerConnector interface for Unix sockets
type serverConnector struct{}

// NewServerConnector creates a Unix socket server connector
func NewServerConnector() transport.IServerConnector {
	return &serverConnector{}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IServerConnector)
// --------------------------------------------------------------------------

func (c *serverConnector) GetName() string {
	return "unix"
}

func (c *serverConnector) Listen(socketPath string) (net.Listener, error) {
	// Remove existing socket file if it exists
	if err := os.RemoveAll(socketPath); err != nil {
		return nil, fmt.Errorf("failed to remove existing socket: %w", err)
	}

	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		transport.Logger.Errorf("Failed to listen on %s (unix): %v", socketPath, err)
		return nil, fmt.Errorf("failed to create Unix socket: %w", err)
	}
	transport.Logger.Infof("Listening on %s (unix)", listener.Addr())
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

// upgrade applies the buffer sizes of config. TCP options do not apply to
// Unix sockets and are ignored.
func upgrade(conn net.Conn, config common.TransportConfig) error {
	unixConn, ok := conn.(*net.UnixConn)
	if !ok {
		return nil
	}

	if config.WriteBufferSize > 0 {
		if err := unixConn.SetWriteBuffer(config.WriteBufferSize); err != nil {
			return err
		}
	}

	if config.ReadBufferSize > 0 {
		if err := unixConn.SetReadBuffer(config.ReadBufferSize); err != nil {
			return err
		}
	}

	return nil
}
