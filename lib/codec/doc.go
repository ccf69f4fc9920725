// Package codec implements the typed value encoding of the simulator state
// protocol. It converts between tagged values and their fixed little-endian
// wire representation and builds the small client and server messages that
// carry them.
//
// The package focuses on:
//   - Bit-exact conversion of bool, int32, int64, float32, float64 and UTF-8
//     string values
//   - Strict per-kind size validation when decoding payloads
//   - Construction of read, write and command messages as well as server
//     side frames
//
// Key Components:
//
//   - Kind: The type tag announced by the manifest for every state id
//     (-1 command, 0 bool, 1 int32, 2 float32, 3 float64, 4 string, 5 int64).
//     Any other tag maps to KindUnknown.
//
//   - Value: A tagged value. Numeric values are stored as their raw bit
//     pattern so floating point payloads survive a decode/encode cycle
//     unchanged (including -0.0 and NaN payload bits).
//
//   - Decode / EncodeValue: Payload conversion for a given Kind. Decode
//     rejects payloads whose length does not match the kind exactly and
//     strings whose length prefix is negative, overruns the payload or whose
//     bytes are not valid UTF-8.
//
//   - EncodeWrite / EncodeRead: Client to remote messages. A write is
//     [id:int32][1][value], a read (and a command) is [id:int32][0].
//
//   - EncodeFrame / DecodeMessage: The remote side of the exchange, used by
//     the mock simulator and by tests.
//
// Thread Safety:
//
//	All functions are pure and safe for concurrent use. Values are immutable.
//
// Usage:
//
//	msg, err := codec.EncodeWrite(42, codec.Float32Value(0.5))
//	// ... send msg ...
//	v, err := codec.Decode(codec.KindFloat32, payload)
//	f := v.Float32()
package codec
