package column

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrUnknownKind is returned for kind names or values outside the supported set.
	ErrUnknownKind = errors.New("column: unknown kind")
	// ErrCorrupt is returned when an encoded value is short or malformed.
	ErrCorrupt = errors.New("column: corrupt value")
	// ErrValueType is returned when a Go value does not match the kind it is encoded as.
	ErrValueType = errors.New("column: value does not match kind")
)

// Kind enumerates the supported column element types.
type Kind uint8

const (
	Invalid Kind = iota
	Bool
	Int32
	Int64
	Uint32
	Uint64
	Float32
	Float64
	String
	Bytes
	Int32s
	Int64s
	Uint64s
	Float32s
	Float64s
	Strings
)

var kindNames = [...]string{
	Invalid:  "invalid",
	Bool:     "bool",
	Int32:    "int32",
	Int64:    "int64",
	Uint32:   "uint32",
	Uint64:   "uint64",
	Float32:  "float32",
	Float64:  "float64",
	String:   "string",
	Bytes:    "[]byte",
	Int32s:   "[]int32",
	Int64s:   "[]int64",
	Uint64s:  "[]uint64",
	Float32s: "[]float32",
	Float64s: "[]float64",
	Strings:  "[]string",
}

var goTypes = [...]reflect.Type{
	Bool:     reflect.TypeFor[bool](),
	Int32:    reflect.TypeFor[int32](),
	Int64:    reflect.TypeFor[int64](),
	Uint32:   reflect.TypeFor[uint32](),
	Uint64:   reflect.TypeFor[uint64](),
	Float32:  reflect.TypeFor[float32](),
	Float64:  reflect.TypeFor[float64](),
	String:   reflect.TypeFor[string](),
	Bytes:    reflect.TypeFor[[]byte](),
	Int32s:   reflect.TypeFor[[]int32](),
	Int64s:   reflect.TypeFor[[]int64](),
	Uint64s:  reflect.TypeFor[[]uint64](),
	Float32s: reflect.TypeFor[[]float32](),
	Float64s: reflect.TypeFor[[]float64](),
	Strings:  reflect.TypeFor[[]string](),
}

// Valid reports whether k is a supported kind.
func (k Kind) Valid() bool {
	return k > Invalid && k <= Strings
}

// String returns the Go type name of the kind ("int64", "[]float32", ...).
func (k Kind) String() string {
	if int(k) < len(kindNames) {
		return kindNames[k]
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// GoType returns the reflect.Type values of this kind decode to,
// or nil for invalid kinds.
func (k Kind) GoType() reflect.Type {
	if !k.Valid() {
		return nil
	}
	return goTypes[k]
}

// MarshalText encodes the kind by name.
func (k Kind) MarshalText() ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
	return []byte(k.String()), nil
}

// UnmarshalText decodes a kind name.
func (k *Kind) UnmarshalText(text []byte) error {
	parsed, err := ParseKind(string(text))
	if err != nil {
		return err
	}
	*k = parsed
	return nil
}

// ParseKind inverts Kind.String.
func ParseKind(name string) (Kind, error) {
	for k := Bool; k <= Strings; k++ {
		if kindNames[k] == name {
			return k, nil
		}
	}
	return Invalid, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// KindOf infers the kind of a Go value.
func KindOf(v any) (Kind, bool) {
	switch v.(type) {
	case bool:
		return Bool, true
	case int32:
		return Int32, true
	case int64:
		return Int64, true
	case int:
		return Int64, true
	case uint32:
		return Uint32, true
	case uint64:
		return Uint64, true
	case float32:
		return Float32, true
	case float64:
		return Float64, true
	case string:
		return String, true
	case []byte:
		return Bytes, true
	case []int32:
		return Int32s, true
	case []int64:
		return Int64s, true
	case []uint64:
		return Uint64s, true
	case []float32:
		return Float32s, true
	case []float64:
		return Float64s, true
	case []string:
		return Strings, true
	default:
		return Invalid, false
	}
}
