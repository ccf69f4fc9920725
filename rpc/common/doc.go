// Package common provides configuration, logging and metrics shared by the
// client, the transports, discovery and the mock simulator.
//
// The package focuses on:
//   - Configuration structures for the protocol client and the mock simulator
//   - Custom logging implementation integrated with Dragonboat's logger
//     interface and backed by zerolog
//   - Process wide protocol counters exported in Prometheus text format
//
// Key Components:
//
//   - ClientConfig: Connection parameters of a protocol client: endpoint,
//     dial and idle timeouts, the optional reconnect policy, frame size limit,
//     socket options and the debug consistency check. Provides a formatted
//     String() report used by the CLI.
//
//   - MockConfig: Listen address, served manifest and push interval of the
//     mock simulator.
//
//   - Logger: Every package obtains its logger through
//     logger.GetLogger("<name>"). InitLoggers installs the zerolog backed
//     factory and sets the level of all loggers of this module.
//
//   - Metrics: Counters for received bytes and frames, dropped frames by
//     reason, manifest rebuilds, sent messages and connection attempts.
package common
