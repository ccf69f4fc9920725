package transport

import (
	"context"
	"net"

	"github.com/ValentinKolb/connectkit/rpc/common"
	"github.com/lni/dragonboat/v4/logger"
)

var Logger = logger.GetLogger("transport")

// --------------------------------------------------------------------------
// Client Transport
// --------------------------------------------------------------------------

// IClientConnector defines the transport specific operations of the client
type IClientConnector interface {
	// Connect establishes a single stream connection to endpoint. The dial is
	// aborted when ctx is done.
	Connect(ctx context.Context, endpoint string) (net.Conn, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol specific settings to an established connection
	UpgradeConnection(conn net.Conn, config common.TransportConfig) error
}

// --------------------------------------------------------------------------
// Server Transport
// --------------------------------------------------------------------------

// IServerConnector defines the transport specific operations of the mock simulator
type IServerConnector interface {
	// Listen creates a listener on endpoint
	Listen(endpoint string) (net.Listener, error)

	// GetName returns the name of the transport type (e.g. "tcp")
	GetName() string

	// UpgradeConnection applies protocol specific settings to an accepted connection
	UpgradeConnection(conn net.Conn, config common.TransportConfig) error
}
