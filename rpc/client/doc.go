// Package client implements the protocol client of the simulator state
// connection. It owns one stream connection at a time, reassembles the
// incoming frames, keeps the manifest current and turns every state frame
// into a typed delegate callback.
//
// The package focuses on:
//   - A strict, serial event model: every state change and every delegate
//     callback runs on a single event loop goroutine, in frame arrival order
//   - Correctness across reconnects: work queued for a replaced connection
//     is recognised and discarded
//   - Fire-and-forget writes that never block the caller
//
// Key Components:
//
//   - Client: Created with NewClient(config, connector, delegate). Connect
//     and ConnectTo start an asynchronous dial; Disconnect and Close tear the
//     connection down. SetBool, SetInt32, SetFloat32, SetFloat64, SetInt64,
//     SetString, Get, Command and GetManifest enqueue a message for the
//     writer goroutine. Name based helpers resolve names through the
//     current manifest. Fetch sends a read and waits for the answer.
//
//   - Delegate: The callback interface (OnConnect, OnError, one callback per
//     value kind and OnManifest). NopDelegate can be embedded to implement
//     only some callbacks, Handlers adapts plain functions. A delegate that
//     also implements StateObserver is told about every state change.
//
//   - ConnectionState: Disconnected, Connecting, Ready or Failed(err).
//
// Connection lifecycle:
//
//	Disconnected --Connect--> Connecting --dial ok--> Ready
//	Connecting/Ready --transport failure--> Failed(err)
//	Ready --remote closed the stream--> Disconnected
//	any --Disconnect--> Disconnected
//
//	Once Ready, the client calls OnConnect, requests the manifest and starts
//	reading. Exactly one read is in flight; the next read is issued after the
//	previous chunk was processed by the event loop.
//
// Frame handling:
//
//	Frames with id -1 replace the manifest and fire OnManifest. Frames for
//	ids missing from the manifest, for command or unknown kinds, and frames
//	whose payload does not decode are dropped silently (they are counted in
//	the frames dropped metric and logged at debug level). A frame header
//	announcing a negative or oversized length fails the connection.
//
// Reconnects:
//
//	By default a failed connection stays failed. With
//	ClientConfig.Reconnect.Enabled the client re-dials the last endpoint after
//	a failure or a remote close, with exponential backoff and jitter, until
//	MaxAttempts consecutive attempts failed. Connect and Disconnect cancel
//	pending attempts.
//
// Thread Safety:
//
//	All Client methods are safe for concurrent use. Delegate methods are
//	never called concurrently. Close must not be called from a delegate
//	callback.
//
// Usage:
//
//	c := client.NewClient(common.DefaultClientConfig(), nil, &client.Handlers{
//	    Manifest: func(entries []manifest.Entry) { ... },
//	    Float64:  func(id int32, v float64) { ... },
//	})
//	defer c.Close()
//	_ = c.Connect("192.168.1.20:10112")
package client
