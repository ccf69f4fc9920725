package codec

import (
	"encoding/binary"
	"errors"
	"fmt"
	"unicode/utf8"
)

const (
	// FrameHeaderSize is the size of a remote to client frame header (id:int32, size:int32)
	FrameHeaderSize = 8

	// ManifestID is the reserved id used to request and deliver the manifest
	ManifestID int32 = -1

	flagRead  byte = 0
	flagWrite byte = 1
)

var (
	ErrSizeMismatch  = errors.New("payload size does not match value kind")
	ErrShortPayload  = errors.New("payload too short")
	ErrNegativeSize  = errors.New("negative length prefix")
	ErrInvalidUTF8   = errors.New("string is not valid utf-8")
	ErrNoValue       = errors.New("kind carries no value")
	ErrKindMismatch  = errors.New("value kind does not match")
	ErrUnknownID     = errors.New("unknown state id")
	ErrIncomplete    = errors.New("incomplete message")
	ErrInvalidFlag   = errors.New("invalid message flag")
	ErrStringTooLong = errors.New("string too long")
)

// --------------------------------------------------------------------------
// Value Payloads
// --------------------------------------------------------------------------

// Decode converts a payload into a value of the given kind. The payload must
// have exactly the fixed size of the kind, strings must carry a valid length
// prefix followed by valid UTF-8. Bytes after a string's declared length are
// ignored.
func Decode(kind Kind, payload []byte) (Value, error) {
	switch kind {
	case KindBool:
		if len(payload) != 1 {
			return Value{}, fmt.Errorf("%w: bool needs 1 byte, got %d", ErrSizeMismatch, len(payload))
		}
		return BoolValue(payload[0] != 0), nil
	case KindInt32, KindFloat32:
		if len(payload) != 4 {
			return Value{}, fmt.Errorf("%w: %s needs 4 bytes, got %d", ErrSizeMismatch, kind, len(payload))
		}
		return Value{kind: kind, bits: uint64(binary.LittleEndian.Uint32(payload))}, nil
	case KindInt64, KindFloat64:
		if len(payload) != 8 {
			return Value{}, fmt.Errorf("%w: %s needs 8 bytes, got %d", ErrSizeMismatch, kind, len(payload))
		}
		return Value{kind: kind, bits: binary.LittleEndian.Uint64(payload)}, nil
	case KindString:
		s, _, err := DecodeString(payload)
		if err != nil {
			return Value{}, err
		}
		return StringValue(s), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrNoValue, kind)
	}
}

// DecodeString reads a length prefixed UTF-8 string from the start of data
// and returns it together with the number of bytes consumed
func DecodeString(data []byte) (string, int, error) {
	if len(data) < 4 {
		return "", 0, fmt.Errorf("%w: string length prefix needs 4 bytes, got %d", ErrShortPayload, len(data))
	}
	n := int32(binary.LittleEndian.Uint32(data[:4]))
	if n < 0 {
		return "", 0, fmt.Errorf("%w: %d", ErrNegativeSize, n)
	}
	end := 4 + int(n)
	if end > len(data) {
		return "", 0, fmt.Errorf("%w: string of %d bytes, only %d available", ErrShortPayload, n, len(data)-4)
	}
	raw := data[4:end]
	if !utf8.Valid(raw) {
		return "", 0, ErrInvalidUTF8
	}
	return string(raw), end, nil
}

// AppendString appends the length prefixed encoding of s to dst
func AppendString(dst []byte, s string) ([]byte, error) {
	if int64(len(s)) > int64(^uint32(0)>>1) {
		return dst, ErrStringTooLong
	}
	dst = binary.LittleEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...), nil
}

// EncodeValue returns the payload encoding of v
func EncodeValue(v Value) ([]byte, error) {
	return AppendValue(nil, v)
}

// AppendValue appends the payload encoding of v to dst
func AppendValue(dst []byte, v Value) ([]byte, error) {
	switch v.kind {
	case KindBool:
		if v.Bool() {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case KindInt32, KindFloat32:
		return binary.LittleEndian.AppendUint32(dst, uint32(v.bits)), nil
	case KindInt64, KindFloat64:
		return binary.LittleEndian.AppendUint64(dst, v.bits), nil
	case KindString:
		return AppendString(dst, v.str)
	default:
		return dst, fmt.Errorf("%w: %s", ErrNoValue, v.kind)
	}
}

// --------------------------------------------------------------------------
// Client -> Remote Messages
// --------------------------------------------------------------------------

// EncodeWrite builds a write message: [id:int32][1][value]
func EncodeWrite(id int32, v Value) ([]byte, error) {
	buf := make([]byte, 0, 5+messageValueHint(v))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(id))
	buf = append(buf, flagWrite)
	return AppendValue(buf, v)
}

// EncodeRead builds a read message: [id:int32][0]. Commands use the same encoding.
func EncodeRead(id int32) []byte {
	buf := make([]byte, 5)
	binary.LittleEndian.PutUint32(buf[:4], uint32(id))
	buf[4] = flagRead
	return buf
}

// Message is a decoded client to remote message
type Message struct {
	ID    int32
	Write bool
	Value Value
}

// DecodeMessage parses one client message from the start of buf. Client
// messages carry no length, so the kind of a written id is resolved through
// lookup. It returns the message and the number of bytes consumed, or
// ErrIncomplete if buf does not yet hold the whole message.
func DecodeMessage(buf []byte, lookup func(id int32) (Kind, bool)) (Message, int, error) {
	if len(buf) < 5 {
		return Message{}, 0, ErrIncomplete
	}
	id := int32(binary.LittleEndian.Uint32(buf[:4]))
	switch buf[4] {
	case flagRead:
		return Message{ID: id}, 5, nil
	case flagWrite:
	default:
		return Message{}, 0, fmt.Errorf("%w: %d", ErrInvalidFlag, buf[4])
	}

	kind, ok := lookup(id)
	if !ok {
		return Message{}, 0, fmt.Errorf("%w: %d", ErrUnknownID, id)
	}
	if !kind.HasValue() {
		return Message{}, 0, fmt.Errorf("%w: %s", ErrNoValue, kind)
	}

	body := buf[5:]
	size := kind.Size()
	if kind == KindString {
		if len(body) < 4 {
			return Message{}, 0, ErrIncomplete
		}
		n := int32(binary.LittleEndian.Uint32(body[:4]))
		if n < 0 {
			return Message{}, 0, fmt.Errorf("%w: %d", ErrNegativeSize, n)
		}
		size = 4 + int(n)
	}
	if len(body) < size {
		return Message{}, 0, ErrIncomplete
	}

	v, err := Decode(kind, body[:size])
	if err != nil {
		return Message{}, 0, err
	}
	return Message{ID: id, Write: true, Value: v}, 5 + size, nil
}

// --------------------------------------------------------------------------
// Remote -> Client Frames
// --------------------------------------------------------------------------

// EncodeFrame builds a frame: [id:int32][size:int32][payload]
func EncodeFrame(id int32, payload []byte) []byte {
	buf := make([]byte, FrameHeaderSize, FrameHeaderSize+len(payload))
	binary.LittleEndian.PutUint32(buf[:4], uint32(id))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(payload)))
	return append(buf, payload...)
}

// EncodeValueFrame builds a frame carrying the payload encoding of v
func EncodeValueFrame(id int32, v Value) ([]byte, error) {
	payload, err := EncodeValue(v)
	if err != nil {
		return nil, err
	}
	return EncodeFrame(id, payload), nil
}

// messageValueHint estimates the encoded size of v for preallocation
func messageValueHint(v Value) int {
	if v.kind == KindString {
		return 4 + len(v.str)
	}
	if s := v.kind.Size(); s > 0 {
		return s
	}
	return 0
}
