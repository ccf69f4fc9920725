package codec

import (
	"fmt"
	"math"
	"strconv"
)

// Value is an immutable tagged state value. Numeric kinds keep their raw bit
// pattern in bits, strings are kept in str.
type Value struct {
	kind Kind
	bits uint64
	str  string
}

// --------------------------------------------------------------------------
// Constructors
// --------------------------------------------------------------------------

func BoolValue(b bool) Value {
	if b {
		return Value{kind: KindBool, bits: 1}
	}
	return Value{kind: KindBool}
}

func Int32Value(i int32) Value {
	return Value{kind: KindInt32, bits: uint64(uint32(i))}
}

func Int64Value(i int64) Value {
	return Value{kind: KindInt64, bits: uint64(i)}
}

func Float32Value(f float32) Value {
	return Value{kind: KindFloat32, bits: uint64(math.Float32bits(f))}
}

func Float64Value(f float64) Value {
	return Value{kind: KindFloat64, bits: math.Float64bits(f)}
}

func StringValue(s string) Value {
	return Value{kind: KindString, str: s}
}

// --------------------------------------------------------------------------
// Accessors
// --------------------------------------------------------------------------

// Kind returns the type tag of the value
func (v Value) Kind() Kind { return v.kind }

// Bool returns the value as bool. The result is meaningless for other kinds.
func (v Value) Bool() bool { return v.bits != 0 }

func (v Value) Int32() int32 { return int32(uint32(v.bits)) }

func (v Value) Int64() int64 { return int64(v.bits) }

func (v Value) Float32() float32 { return math.Float32frombits(uint32(v.bits)) }

func (v Value) Float64() float64 { return math.Float64frombits(v.bits) }

func (v Value) Str() string { return v.str }

// Bits returns the raw bit pattern of a numeric value
func (v Value) Bits() uint64 { return v.bits }

// Equal compares two values bit for bit, so NaN payloads compare equal to themselves
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.bits == o.bits && v.str == o.str
}

// String formats the value for display
func (v Value) String() string {
	switch v.kind {
	case KindBool:
		return strconv.FormatBool(v.Bool())
	case KindInt32:
		return strconv.FormatInt(int64(v.Int32()), 10)
	case KindInt64:
		return strconv.FormatInt(v.Int64(), 10)
	case KindFloat32:
		return strconv.FormatFloat(float64(v.Float32()), 'g', -1, 32)
	case KindFloat64:
		return strconv.FormatFloat(v.Float64(), 'g', -1, 64)
	case KindString:
		return strconv.Quote(v.str)
	default:
		return fmt.Sprintf("<%s>", v.kind)
	}
}

// ParseValue parses the textual representation of a value of the given kind.
// Strings are taken verbatim.
func ParseValue(kind Kind, text string) (Value, error) {
	switch kind {
	case KindBool:
		b, err := strconv.ParseBool(text)
		if err != nil {
			return Value{}, fmt.Errorf("invalid bool %q: %w", text, err)
		}
		return BoolValue(b), nil
	case KindInt32:
		i, err := strconv.ParseInt(text, 10, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int32 %q: %w", text, err)
		}
		return Int32Value(int32(i)), nil
	case KindInt64:
		i, err := strconv.ParseInt(text, 10, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid int64 %q: %w", text, err)
		}
		return Int64Value(i), nil
	case KindFloat32:
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float32 %q: %w", text, err)
		}
		return Float32Value(float32(f)), nil
	case KindFloat64:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("invalid float64 %q: %w", text, err)
		}
		return Float64Value(f), nil
	case KindString:
		return StringValue(text), nil
	default:
		return Value{}, fmt.Errorf("%w: %s", ErrNoValue, kind)
	}
}
