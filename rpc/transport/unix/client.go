package unix

import (
	"context"
	"net"
	"time"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/ValentinKolb/connectkit/rpc/transport"
)

// clientConnector implements the IClientConnector interface for Unix sockets
type clientConnector struct {
	dialer net.Dialer
}

// NewClientConnector creates a Unix socket connector. A timeout > 0 bounds every dial.
func NewClientConnector(timeout time.Duration) transport.IClientConnector {
	return &clientConnector{dialer: net.Dialer{Timeout: timeout}}
}

// --------------------------------------------------------------------------
// Interface Methods (docu see transport.IClientConnector)
// --------------------------------------------------------------------------

func (c *clientConnector) GetName() string {
	return "unix"
}

func (c *clientConnector) Connect(ctx context.Context, endpoint string) (net.Conn, error) {
	conn, err := c.dialer.DialContext(ctx, "unix", endpoint)
	if err != nil {
		transport.Logger.Debugf("Dialing %s (unix) failed: %v", endpoint, err)
		return nil, err
	}
	return conn, nil
}

func (c *clientConnector) UpgradeConnection(conn net.Conn, config common.TransportConfig) error {
	if err := upgrade(conn, config); err != nil {
		transport.Logger.Warningf("Failed to apply socket options to %s: %v", conn.RemoteAddr(), err)
		return err
	}
	return nil
}
