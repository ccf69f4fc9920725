package framing

import (
	"bytes"
	"errors"
	"math/rand"
	"reflect"
	"testing"

	"github.com/ValentinKolb/connectkit/lib/codec"
)

// testStream builds a byte stream of several frames and returns it with the expected frames
func testStream() ([]byte, []Frame) {
	frames := []Frame{
		{ID: -1, Payload: append([]byte{12, 0, 0, 0}, "0,1,Altitude"...)},
		{ID: 0, Payload: []byte{0xe8, 0x03, 0, 0}},
		{ID: 7, Payload: []byte{}},
		{ID: 3, Payload: bytes.Repeat([]byte{0xab}, 300)},
		{ID: 1, Payload: []byte{1}},
	}
	var stream []byte
	for _, f := range frames {
		stream = append(stream, codec.EncodeFrame(f.ID, f.Payload)...)
	}
	return stream, frames
}

// feed writes the stream in the given chunk sizes and collects the frames
func feed(t *testing.T, stream []byte, sizes func() int) []Frame {
	t.Helper()
	r := NewReassembler(0)
	var got []Frame
	for len(stream) > 0 {
		n := sizes()
		if n > len(stream) {
			n = len(stream)
		}
		r.Write(stream[:n])
		stream = stream[n:]
		if err := r.Drain(func(f Frame) { got = append(got, f) }); err != nil {
			t.Fatalf("Drain() error = %v", err)
		}
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d after full stream, want 0", r.Buffered())
	}
	return got
}

// TestChunkingIsIrrelevant tests that any chunking of a stream yields the same frames
func TestChunkingIsIrrelevant(t *testing.T) {
	stream, want := testStream()
	rng := rand.New(rand.NewSource(1))

	tests := []struct {
		name  string
		sizes func() int
	}{
		{"whole stream", func() int { return len(stream) }},
		{"one byte", func() int { return 1 }},
		{"seven bytes", func() int { return 7 }},
		{"nine bytes", func() int { return 9 }},
		{"random", func() int { return 1 + rng.Intn(40) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := feed(t, stream, tt.sizes)
			if !reflect.DeepEqual(got, want) {
				t.Errorf("frames = %v, want %v", got, want)
			}
		})
	}
}

// TestSplitHeader tests a header delivered in two parts
func TestSplitHeader(t *testing.T) {
	frame := codec.EncodeFrame(5, []byte{1, 2, 3, 4})
	r := NewReassembler(0)

	r.Write(frame[:3])
	if _, ok, err := r.Next(); ok || err != nil {
		t.Fatalf("Next() after 3 bytes = %v, %v", ok, err)
	}
	r.Write(frame[3:8])
	if _, ok, err := r.Next(); ok || err != nil {
		t.Fatalf("Next() after header = %v, %v", ok, err)
	}
	r.Write(frame[8:])
	f, ok, err := r.Next()
	if !ok || err != nil {
		t.Fatalf("Next() after payload = %v, %v", ok, err)
	}
	if f.ID != 5 || !bytes.Equal(f.Payload, []byte{1, 2, 3, 4}) {
		t.Errorf("frame = %+v", f)
	}
}

// TestExactHeaderSize tests that exactly eight buffered bytes are enough for an empty frame
func TestExactHeaderSize(t *testing.T) {
	r := NewReassembler(0)
	r.Write(codec.EncodeFrame(9, nil))
	f, ok, err := r.Next()
	if !ok || err != nil || f.ID != 9 || len(f.Payload) != 0 {
		t.Errorf("Next() = %+v, %v, %v", f, ok, err)
	}
}

// TestPayloadIsCopied tests that returned payloads do not alias the buffer
func TestPayloadIsCopied(t *testing.T) {
	r := NewReassembler(0)
	r.Write(codec.EncodeFrame(1, []byte{1, 1, 1, 1}))
	r.Write(codec.EncodeFrame(2, []byte{2, 2, 2, 2}))

	first, _, _ := r.Next()
	second, _, _ := r.Next()
	if !bytes.Equal(first.Payload, []byte{1, 1, 1, 1}) || !bytes.Equal(second.Payload, []byte{2, 2, 2, 2}) {
		t.Errorf("payloads changed: %v %v", first.Payload, second.Payload)
	}
}

// TestCorruptSize tests negative and oversized headers
func TestCorruptSize(t *testing.T) {
	tests := []struct {
		name   string
		header []byte
	}{
		{"negative", []byte{1, 0, 0, 0, 0xff, 0xff, 0xff, 0xff}},
		{"oversized", []byte{1, 0, 0, 0, 0x01, 0x04, 0, 0}}, // 1025
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewReassembler(1024)
			r.Write(tt.header)
			_, ok, err := r.Next()
			if ok || !errors.Is(err, ErrCorruptStream) {
				t.Fatalf("Next() = %v, %v, want ErrCorruptStream", ok, err)
			}
			if r.Buffered() != 0 {
				t.Errorf("Buffered() = %d, want 0", r.Buffered())
			}
		})
	}
}

// TestDrainManySmallFrames tests one chunk holding thousands of frames and a partial tail
func TestDrainManySmallFrames(t *testing.T) {
	const count = 8192
	var chunk []byte
	for i := 0; i < count; i++ {
		chunk = append(chunk, codec.EncodeFrame(int32(i), []byte{byte(i)})...)
	}
	tail := codec.EncodeFrame(count, []byte{1, 2, 3, 4})
	chunk = append(chunk, tail[:6]...)

	r := NewReassembler(0)
	r.Write(chunk)

	next := int32(0)
	err := r.Drain(func(f Frame) {
		if f.ID != next || len(f.Payload) != 1 || f.Payload[0] != byte(next) {
			t.Fatalf("frame %d: got id %d payload %v", next, f.ID, f.Payload)
		}
		next++
	})
	if err != nil {
		t.Fatalf("Drain() error = %v", err)
	}
	if next != count {
		t.Fatalf("drained %d frames, want %d", next, count)
	}

	// the partial tail was moved to the front of the buffer
	if r.Buffered() != 6 || r.off != 0 || len(r.buf) != 6 {
		t.Errorf("Buffered() = %d, off = %d, len(buf) = %d, want 6, 0, 6", r.Buffered(), r.off, len(r.buf))
	}

	r.Write(tail[6:])
	f, ok, err := r.Next()
	if err != nil || !ok || f.ID != count || !bytes.Equal(f.Payload, []byte{1, 2, 3, 4}) {
		t.Errorf("Next() = %v, %v, %v after completing the tail", f, ok, err)
	}
	if r.Buffered() != 0 {
		t.Errorf("Buffered() = %d, want 0", r.Buffered())
	}
}

// TestNextKeepsOffsetWithinBuffer tests interleaved Next and Write calls without Drain
func TestNextKeepsOffsetWithinBuffer(t *testing.T) {
	r := NewReassembler(0)
	frame := codec.EncodeFrame(5, []byte{9, 9})
	for i := 0; i < 100; i++ {
		r.Write(frame)
		r.Write(frame[:3])
		if f, ok, err := r.Next(); err != nil || !ok || f.ID != 5 {
			t.Fatalf("round %d: Next() = %v, %v, %v", i, f, ok, err)
		}
		if r.off > len(r.buf) {
			t.Fatalf("round %d: off %d beyond buffer of %d", i, r.off, len(r.buf))
		}
		r.Write(frame[3:])
		if f, ok, err := r.Next(); err != nil || !ok || f.ID != 5 {
			t.Fatalf("round %d: second Next() = %v, %v, %v", i, f, ok, err)
		}
		if r.Buffered() != 0 {
			t.Fatalf("round %d: Buffered() = %d, want 0", i, r.Buffered())
		}
	}
}
