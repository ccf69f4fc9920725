// Package rpc provides the communication layer between a client application
// and a simulator speaking the binary state protocol.
//
// The package is organized into several subpackages:
//
//   - common: Configuration structures, logging and the process wide
//     metrics used across the other packages.
//
//   - transport: Connector abstractions with pluggable implementations
//     (TCP, Unix sockets) and the reconnect backoff.
//
//   - client: The stateful protocol client. It owns one stream connection,
//     keeps the manifest of the remote states and dispatches typed values to
//     a delegate on a serial event loop.
//
//   - discovery: Finds simulators through their UDP session broadcasts.
//
//   - server: A mock simulator serving the remote side of the protocol,
//     used in tests and by the command line tool.
package rpc
