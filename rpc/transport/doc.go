// Package transport defines the connector interfaces through which the
// client and the mock simulator obtain stream connections.
//
// Key Components:
//
//   - IClientConnector: Dials a single stream connection and applies socket
//     options to it. The client owns exactly one connection at a time.
//
//   - IServerConnector: Creates the listener of the mock simulator and
//     upgrades accepted connections.
//
//   - Backoff: Exponential delays with +-10% jitter used by the optional
//     reconnect supervisor of the client.
//
// Implementations:
//
//   - tcp: TCP sockets with support for TCP_NODELAY, keep-alive and socket
//     buffer sizes. Available in the "github.com/ValentinKolb/connectkit/rpc/transport/tcp"
//     package.
//
//   - unix: Unix domain sockets for a client and mock simulator on the same
//     machine. Available in the "github.com/ValentinKolb/connectkit/rpc/transport/unix"
//     package.
//
// Tests use in-memory connectors built on net.Pipe to control exactly how
// the byte stream is split into reads.
package transport
