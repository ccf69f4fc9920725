// Package server implements a mock simulator: a TCP server speaking the
// remote side of the state protocol. It is used by the integration tests and
// by the `connectkit mock` command to develop against without a running
// simulator.
//
// Behaviour:
//   - A read of id -1 is answered with a manifest frame
//   - A read of a value id is answered with a frame carrying its current value
//   - A read of a command id increments the command counter
//   - A write stores the value sent by the client
//   - Set changes a value on the simulator side and pushes it to all clients
//   - With a push interval configured, all values are sent to all clients
//     periodically
//
// Client messages carry no length, so the simulator resolves the size of a
// written value through its manifest. A write to an id it does not know
// cannot be skipped and closes the connection.
//
// Usage:
//
//	sim := server.NewSimulator(common.MockConfig{Endpoint: ":10112"}, tcp.NewServerConnector())
//	if err := sim.Serve(ctx); err != nil {
//	    panic(err)
//	}
package server
