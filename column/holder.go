package column

import (
	"encoding/binary"
	"fmt"
	"math"
	"unsafe"
)

// Holder is the storage for one column of one reading session.
//
// Decode overwrites the held value in place, so Addr stays the same for the
// lifetime of the holder. Decoded data never aliases the input buffer.
type Holder interface {
	Kind() Kind
	Decode(data []byte) error
	// Addr returns the address of the held value (a *T for the kind's Go type).
	Addr() unsafe.Pointer
	Value() any
}

type holder[T any] struct {
	v      T
	kind   Kind
	decode func(dst *T, data []byte) error
}

func (h *holder[T]) Kind() Kind               { return h.kind }
func (h *holder[T]) Decode(data []byte) error { return h.decode(&h.v, data) }
func (h *holder[T]) Addr() unsafe.Pointer     { return unsafe.Pointer(&h.v) }
func (h *holder[T]) Value() any               { return h.v }

func newHolder[T any](k Kind, decode func(*T, []byte) error) Holder {
	return &holder[T]{kind: k, decode: decode}
}

// NewHolder allocates a holder for kind k.
func NewHolder(k Kind) (Holder, error) {
	switch k {
	case Bool:
		return newHolder(k, decodeBool), nil
	case Int32:
		return newHolder(k, fixed(4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })), nil
	case Int64:
		return newHolder(k, fixed(8, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })), nil
	case Uint32:
		return newHolder(k, fixed(4, binary.LittleEndian.Uint32)), nil
	case Uint64:
		return newHolder(k, fixed(8, binary.LittleEndian.Uint64)), nil
	case Float32:
		return newHolder(k, fixed(4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })), nil
	case Float64:
		return newHolder(k, fixed(8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })), nil
	case String:
		return newHolder(k, decodeString), nil
	case Bytes:
		return newHolder(k, decodeBytes), nil
	case Int32s:
		return newHolder(k, packed(4, func(b []byte) int32 { return int32(binary.LittleEndian.Uint32(b)) })), nil
	case Int64s:
		return newHolder(k, packed(8, func(b []byte) int64 { return int64(binary.LittleEndian.Uint64(b)) })), nil
	case Uint64s:
		return newHolder(k, packed(8, binary.LittleEndian.Uint64)), nil
	case Float32s:
		return newHolder(k, packed(4, func(b []byte) float32 { return math.Float32frombits(binary.LittleEndian.Uint32(b)) })), nil
	case Float64s:
		return newHolder(k, packed(8, func(b []byte) float64 { return math.Float64frombits(binary.LittleEndian.Uint64(b)) })), nil
	case Strings:
		return newHolder(k, decodeStrings), nil
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}
}

// Decode decodes one value of kind k into a fresh Go value.
func Decode(k Kind, data []byte) (any, error) {
	h, err := NewHolder(k)
	if err != nil {
		return nil, err
	}
	if err := h.Decode(data); err != nil {
		return nil, err
	}
	return h.Value(), nil
}

func corrupt(want string, got int) error {
	return fmt.Errorf("%w: want %s bytes, got %d", ErrCorrupt, want, got)
}

func decodeBool(dst *bool, data []byte) error {
	if len(data) != 1 || data[0] > 1 {
		return fmt.Errorf("%w: invalid bool encoding", ErrCorrupt)
	}
	*dst = data[0] == 1
	return nil
}

func fixed[T any](width int, get func([]byte) T) func(*T, []byte) error {
	return func(dst *T, data []byte) error {
		if len(data) != width {
			return corrupt(fmt.Sprint(width), len(data))
		}
		*dst = get(data)
		return nil
	}
}

func packed[T any](width int, get func([]byte) T) func(*[]T, []byte) error {
	return func(dst *[]T, data []byte) error {
		if len(data)%width != 0 {
			return corrupt(fmt.Sprintf("a multiple of %d", width), len(data))
		}
		out := (*dst)[:0]
		if out == nil {
			out = make([]T, 0, len(data)/width)
		}
		for i := 0; i < len(data); i += width {
			out = append(out, get(data[i:i+width]))
		}
		*dst = out
		return nil
	}
}

func decodeString(dst *string, data []byte) error {
	*dst = string(data)
	return nil
}

func decodeBytes(dst *[]byte, data []byte) error {
	if *dst == nil {
		*dst = make([]byte, 0, len(data))
	}
	*dst = append((*dst)[:0], data...)
	return nil
}

func decodeStrings(dst *[]string, data []byte) error {
	out := (*dst)[:0]
	if out == nil {
		out = []string{}
	}
	for len(data) > 0 {
		n, w := binary.Uvarint(data)
		if w <= 0 || n > uint64(len(data)-w) {
			return fmt.Errorf("%w: invalid string item", ErrCorrupt)
		}
		data = data[w:]
		out = append(out, string(data[:n]))
		data = data[n:]
	}
	*dst = out
	return nil
}
