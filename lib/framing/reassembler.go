package framing

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/ValentinKolb/connectkit/lib/codec"
)

const (
	// DefaultMaxFrameSize bounds the payload size accepted from the remote
	DefaultMaxFrameSize = 16 * 1024 * 1024 // 16 MB
)

var ErrCorruptStream = errors.New("corrupt frame stream")

// Frame is one complete message received from the remote
type Frame struct {
	ID      int32
	Payload []byte
}

// Reassembler turns arbitrary byte chunks into complete frames
type Reassembler struct {
	buf     []byte
	off     int // start of the unread bytes in buf
	maxSize int
}

// NewReassembler creates a reassembler. A maxSize <= 0 selects DefaultMaxFrameSize.
func NewReassembler(maxSize int) *Reassembler {
	if maxSize <= 0 {
		maxSize = DefaultMaxFrameSize
	}
	return &Reassembler{maxSize: maxSize}
}

// Write appends a chunk to the receive buffer. The chunk is copied.
func (r *Reassembler) Write(chunk []byte) {
	r.compact()
	r.buf = append(r.buf, chunk...)
}

// Next returns the next complete frame. ok is false if the buffer holds no
// complete frame yet. The returned payload is a copy and may be retained.
func (r *Reassembler) Next() (f Frame, ok bool, err error) {
	unread := r.buf[r.off:]
	if len(unread) < codec.FrameHeaderSize {
		return Frame{}, false, nil
	}

	id := int32(binary.LittleEndian.Uint32(unread[0:4]))
	size := int32(binary.LittleEndian.Uint32(unread[4:8]))
	if size < 0 || int64(size) > int64(r.maxSize) {
		r.Reset()
		return Frame{}, false, fmt.Errorf("%w: frame %d announces %d bytes", ErrCorruptStream, id, size)
	}

	end := codec.FrameHeaderSize + int(size)
	if len(unread) < end {
		return Frame{}, false, nil
	}

	payload := make([]byte, size)
	copy(payload, unread[codec.FrameHeaderSize:end])
	r.consume(end)

	return Frame{ID: id, Payload: payload}, true, nil
}

// Drain calls fn for every complete frame in the buffer, in order
func (r *Reassembler) Drain(fn func(Frame)) error {
	for {
		f, ok, err := r.Next()
		if err != nil {
			return err
		}
		if !ok {
			r.compact()
			return nil
		}
		fn(f)
	}
}

// Buffered returns the number of bytes waiting for completion
func (r *Reassembler) Buffered() int {
	return len(r.buf) - r.off
}

// Reset discards all buffered bytes
func (r *Reassembler) Reset() {
	r.buf = r.buf[:0]
	r.off = 0
}

// consume marks n unread bytes as read. The buffer is compacted once the
// read offset passes half of it.
func (r *Reassembler) consume(n int) {
	r.off += n
	if r.off == len(r.buf) {
		r.Reset()
		return
	}
	if r.off > len(r.buf)/2 {
		r.compact()
	}
}

// compact moves the unread bytes to the front so the backing array is reused
func (r *Reassembler) compact() {
	if r.off == 0 {
		return
	}
	rest := copy(r.buf, r.buf[r.off:])
	r.buf = r.buf[:rest]
	r.off = 0
}
