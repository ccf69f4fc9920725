// Package unix implements the transport connectors using Unix domain sockets.
// It lets a client and a mock simulator on the same machine talk without
// going through the TCP/IP stack, e.g. in integration tests or local tooling.
//
// Key Components:
//
//   - clientConnector: Dials the socket path given as endpoint
//
//   - serverConnector: Removes a stale socket file and listens on the path
//
// Only the buffer sizes of common.TransportConfig apply; the TCP options are
// ignored.
package unix
