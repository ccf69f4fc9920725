// Package tcp implements the TCP socket transport of the state protocol. It
// provides concrete implementations of the transport package's connector
// interfaces.
//
// Key Components:
//
//   - clientConnector: TCP implementation of transport.IClientConnector.
//     Dials through a net.Dialer so a dial can be bounded by a timeout and
//     aborted through its context.
//
//   - serverConnector: TCP implementation of transport.IServerConnector used
//     by the mock simulator.
//
// Both connectors apply the same socket options: TCP_NODELAY, keep-alive
// period and socket buffer sizes as configured in common.TransportConfig.
package tcp
