package codec

import (
	"bytes"
	"errors"
	"math"
	"testing"
)

// TestValueRoundTrip tests that every value survives encode followed by decode bit for bit
func TestValueRoundTrip(t *testing.T) {
	negZero32 := math.Float32frombits(0x80000000)
	nan32 := math.Float32frombits(0x7fc00001)
	nan64 := math.Float64frombits(0x7ff8000000000123)

	tests := []struct {
		name  string
		value Value
	}{
		{"bool true", BoolValue(true)},
		{"bool false", BoolValue(false)},
		{"int32 min", Int32Value(math.MinInt32)},
		{"int32 max", Int32Value(math.MaxInt32)},
		{"int32 negative", Int32Value(-7)},
		{"int64 min", Int64Value(math.MinInt64)},
		{"int64 max", Int64Value(math.MaxInt64)},
		{"float32 negative zero", Float32Value(negZero32)},
		{"float32 nan payload", Float32Value(nan32)},
		{"float32 inf", Float32Value(float32(math.Inf(-1)))},
		{"float32 regular", Float32Value(1234.5)},
		{"float64 negative zero", Float64Value(math.Copysign(0, -1))},
		{"float64 nan payload", Float64Value(nan64)},
		{"float64 regular", Float64Value(-0.000123)},
		{"string empty", StringValue("")},
		{"string ascii", StringValue("N12345")},
		{"string multibyte", StringValue("Zürich ✈")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := EncodeValue(tt.value)
			if err != nil {
				t.Fatalf("EncodeValue() error = %v", err)
			}
			got, err := Decode(tt.value.Kind(), payload)
			if err != nil {
				t.Fatalf("Decode() error = %v", err)
			}
			if !got.Equal(tt.value) {
				t.Errorf("round trip mismatch: got %v (bits %x), want %v (bits %x)",
					got, got.Bits(), tt.value, tt.value.Bits())
			}
		})
	}
}

// TestDecodeFloat32IsBitReinterpreted tests that float payloads are reinterpreted, not converted
func TestDecodeFloat32IsBitReinterpreted(t *testing.T) {
	// 1.0f is 0x3f800000
	v, err := Decode(KindFloat32, []byte{0x00, 0x00, 0x80, 0x3f})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Float32() != 1.0 {
		t.Errorf("Float32() = %v, want 1.0", v.Float32())
	}

	v, err = Decode(KindFloat64, []byte{0, 0, 0, 0, 0, 0, 0xf0, 0x3f})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Float64() != 1.0 {
		t.Errorf("Float64() = %v, want 1.0", v.Float64())
	}
}

// TestDecodeSizeValidation tests that payloads with the wrong size are rejected
func TestDecodeSizeValidation(t *testing.T) {
	tests := []struct {
		name    string
		kind    Kind
		payload []byte
		wantErr error
	}{
		{"bool empty", KindBool, []byte{}, ErrSizeMismatch},
		{"bool two bytes", KindBool, []byte{1, 0}, ErrSizeMismatch},
		{"int32 short", KindInt32, []byte{1, 2, 3}, ErrSizeMismatch},
		{"int32 long", KindInt32, []byte{1, 2, 3, 4, 5}, ErrSizeMismatch},
		{"float32 long", KindFloat32, make([]byte, 8), ErrSizeMismatch},
		{"int64 short", KindInt64, make([]byte, 4), ErrSizeMismatch},
		{"float64 short", KindFloat64, make([]byte, 7), ErrSizeMismatch},
		{"string no prefix", KindString, []byte{1, 0}, ErrShortPayload},
		{"string negative length", KindString, []byte{0xff, 0xff, 0xff, 0xff}, ErrNegativeSize},
		{"string overrun", KindString, []byte{5, 0, 0, 0, 'a', 'b'}, ErrShortPayload},
		{"string invalid utf8", KindString, []byte{2, 0, 0, 0, 0xc3, 0x28}, ErrInvalidUTF8},
		{"command", KindCommand, []byte{}, ErrNoValue},
		{"unknown", KindUnknown, []byte{1}, ErrNoValue},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.kind, tt.payload)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Decode() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

// TestDecodeStringIgnoresTrailingBytes tests that bytes after the declared length are ignored
func TestDecodeStringIgnoresTrailingBytes(t *testing.T) {
	v, err := Decode(KindString, []byte{2, 0, 0, 0, 'o', 'k', 'x', 'y'})
	if err != nil {
		t.Fatalf("Decode() error = %v", err)
	}
	if v.Str() != "ok" {
		t.Errorf("Str() = %q, want %q", v.Str(), "ok")
	}
}

// TestEncodeMessages tests the byte layout of read and write messages
func TestEncodeMessages(t *testing.T) {
	tests := []struct {
		name string
		got  func() ([]byte, error)
		want []byte
	}{
		{
			name: "read",
			got:  func() ([]byte, error) { return EncodeRead(7), nil },
			want: []byte{7, 0, 0, 0, 0},
		},
		{
			name: "manifest request",
			got:  func() ([]byte, error) { return EncodeRead(ManifestID), nil },
			want: []byte{0xff, 0xff, 0xff, 0xff, 0},
		},
		{
			name: "write bool",
			got:  func() ([]byte, error) { return EncodeWrite(1, BoolValue(true)) },
			want: []byte{1, 0, 0, 0, 1, 1},
		},
		{
			name: "write int32",
			got:  func() ([]byte, error) { return EncodeWrite(2, Int32Value(-2)) },
			want: []byte{2, 0, 0, 0, 1, 0xfe, 0xff, 0xff, 0xff},
		},
		{
			name: "write float32",
			got:  func() ([]byte, error) { return EncodeWrite(3, Float32Value(1)) },
			want: []byte{3, 0, 0, 0, 1, 0x00, 0x00, 0x80, 0x3f},
		},
		{
			name: "write int64",
			got:  func() ([]byte, error) { return EncodeWrite(4, Int64Value(1)) },
			want: []byte{4, 0, 0, 0, 1, 1, 0, 0, 0, 0, 0, 0, 0},
		},
		{
			name: "write string",
			got:  func() ([]byte, error) { return EncodeWrite(5, StringValue("hi")) },
			want: []byte{5, 0, 0, 0, 1, 2, 0, 0, 0, 'h', 'i'},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.got()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !bytes.Equal(got, tt.want) {
				t.Errorf("got % x, want % x", got, tt.want)
			}
		})
	}
}

// TestEncodeWriteRejectsValuelessKinds tests that commands cannot be written
func TestEncodeWriteRejectsValuelessKinds(t *testing.T) {
	if _, err := EncodeWrite(1, Value{kind: KindCommand}); !errors.Is(err, ErrNoValue) {
		t.Errorf("EncodeWrite() error = %v, want %v", err, ErrNoValue)
	}
}

// TestDecodeMessage tests parsing a stream of client messages
func TestDecodeMessage(t *testing.T) {
	kinds := map[int32]Kind{1: KindInt32, 2: KindString, 3: KindCommand}
	lookup := func(id int32) (Kind, bool) {
		k, ok := kinds[id]
		return k, ok
	}

	w1, _ := EncodeWrite(1, Int32Value(99))
	w2, _ := EncodeWrite(2, StringValue("abc"))
	stream := append(append(append([]byte{}, w1...), EncodeRead(3)...), w2...)

	var got []Message
	for len(stream) > 0 {
		msg, n, err := DecodeMessage(stream, lookup)
		if err != nil {
			t.Fatalf("DecodeMessage() error = %v", err)
		}
		got = append(got, msg)
		stream = stream[n:]
	}

	if len(got) != 3 {
		t.Fatalf("decoded %d messages, want 3", len(got))
	}
	if !got[0].Write || got[0].ID != 1 || got[0].Value.Int32() != 99 {
		t.Errorf("first message = %+v", got[0])
	}
	if got[1].Write || got[1].ID != 3 {
		t.Errorf("second message = %+v", got[1])
	}
	if !got[2].Write || got[2].Value.Str() != "abc" {
		t.Errorf("third message = %+v", got[2])
	}

	// every strict prefix of a write is incomplete
	for i := 0; i < len(w2); i++ {
		if _, _, err := DecodeMessage(w2[:i], lookup); !errors.Is(err, ErrIncomplete) {
			t.Errorf("prefix %d: error = %v, want %v", i, err, ErrIncomplete)
		}
	}

	if _, _, err := DecodeMessage([]byte{9, 0, 0, 0, 1, 0}, lookup); !errors.Is(err, ErrUnknownID) {
		t.Errorf("unknown id: error = %v, want %v", err, ErrUnknownID)
	}
	if _, _, err := DecodeMessage([]byte{1, 0, 0, 0, 7}, lookup); !errors.Is(err, ErrInvalidFlag) {
		t.Errorf("bad flag: error = %v, want %v", err, ErrInvalidFlag)
	}
}

// TestEncodeFrame tests the frame header layout
func TestEncodeFrame(t *testing.T) {
	frame, err := EncodeValueFrame(0, Int32Value(1000))
	if err != nil {
		t.Fatalf("EncodeValueFrame() error = %v", err)
	}
	want := []byte{0, 0, 0, 0, 4, 0, 0, 0, 0xe8, 0x03, 0, 0}
	if !bytes.Equal(frame, want) {
		t.Errorf("got % x, want % x", frame, want)
	}
}

// TestParseValue tests parsing textual values
func TestParseValue(t *testing.T) {
	tests := []struct {
		kind    Kind
		text    string
		want    Value
		wantErr bool
	}{
		{KindBool, "true", BoolValue(true), false},
		{KindInt32, "-12", Int32Value(-12), false},
		{KindInt32, "3000000000", Value{}, true},
		{KindInt64, "3000000000", Int64Value(3000000000), false},
		{KindFloat32, "0.5", Float32Value(0.5), false},
		{KindFloat64, "x", Value{}, true},
		{KindString, "hello world", StringValue("hello world"), false},
		{KindCommand, "", Value{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.kind.String()+"/"+tt.text, func(t *testing.T) {
			got, err := ParseValue(tt.kind, tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseValue() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(tt.want) {
				t.Errorf("ParseValue() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestKindFromTag tests the tag mapping
func TestKindFromTag(t *testing.T) {
	tests := map[int32]Kind{-1: KindCommand, 0: KindBool, 1: KindInt32, 2: KindFloat32,
		3: KindFloat64, 4: KindString, 5: KindInt64, 6: KindUnknown, -2: KindUnknown, 404: KindUnknown}
	for tag, want := range tests {
		if got := KindFromTag(tag); got != want {
			t.Errorf("KindFromTag(%d) = %v, want %v", tag, got, want)
		}
	}
}
