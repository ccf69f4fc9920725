package codec

import (
	"fmt"
	"strings"
)

// Kind is the type tag of a state value as announced by the manifest
type Kind int32

const (
	KindCommand Kind = -1
	KindBool    Kind = 0
	KindInt32   Kind = 1
	KindFloat32 Kind = 2
	KindFloat64 Kind = 3
	KindString  Kind = 4
	KindInt64   Kind = 5

	// KindUnknown is used for every tag not listed above
	KindUnknown Kind = 404
)

// KindFromTag maps a wire tag to a Kind. Unrecognized tags become KindUnknown.
func KindFromTag(tag int32) Kind {
	switch k := Kind(tag); k {
	case KindCommand, KindBool, KindInt32, KindFloat32, KindFloat64, KindString, KindInt64:
		return k
	default:
		return KindUnknown
	}
}

// HasValue reports whether values of this kind can be read or written
func (k Kind) HasValue() bool {
	switch k {
	case KindBool, KindInt32, KindFloat32, KindFloat64, KindString, KindInt64:
		return true
	default:
		return false
	}
}

// Size returns the fixed payload size of the kind or -1 for variable sized
// and valueless kinds
func (k Kind) Size() int {
	switch k {
	case KindBool:
		return 1
	case KindInt32, KindFloat32:
		return 4
	case KindInt64, KindFloat64:
		return 8
	default:
		return -1
	}
}

func (k Kind) String() string {
	switch k {
	case KindCommand:
		return "command"
	case KindBool:
		return "bool"
	case KindInt32:
		return "int32"
	case KindFloat32:
		return "float32"
	case KindFloat64:
		return "float64"
	case KindString:
		return "string"
	case KindInt64:
		return "int64"
	default:
		return "unknown"
	}
}

// ParseKind converts a kind name (as returned by Kind.String) back to a Kind
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(name) {
	case "command", "cmd":
		return KindCommand, nil
	case "bool":
		return KindBool, nil
	case "int32", "int":
		return KindInt32, nil
	case "float32", "float":
		return KindFloat32, nil
	case "float64", "double":
		return KindFloat64, nil
	case "string":
		return KindString, nil
	case "int64", "long":
		return KindInt64, nil
	default:
		return KindUnknown, fmt.Errorf("unknown value kind %q", name)
	}
}
