// Package framing reassembles length delimited frames from an unbounded byte
// stream.
//
// The remote side sends frames of the form [id:int32][size:int32][payload],
// all little-endian. A stream read may deliver any number of bytes: a part of
// a header, a header without its payload, or several frames at once. The
// Reassembler accumulates chunks and hands out complete frames in arrival
// order, consuming exactly 8+size bytes per frame.
//
// A header announcing a negative size or a size above the configured limit
// cannot be skipped safely because the position of the next header is
// unknown. The Reassembler reports ErrCorruptStream and discards its buffer;
// callers should treat this as a transport failure.
//
// Thread Safety:
//
//	A Reassembler is owned by a single connection and is not safe for
//	concurrent use.
//
// Usage:
//
//	r := framing.NewReassembler(framing.DefaultMaxFrameSize)
//	r.Write(chunk)
//	err := r.Drain(func(f framing.Frame) {
//	    // ... dispatch f ...
//	})
package framing
