package column

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Encode appends the encoding of v as kind k to dst.
//
// Scalars are fixed-width little endian, strings and bytes are raw, numeric
// slices are packed fixed-width elements and string slices are
// uvarint-length-prefixed items. The total length is framed by the caller.
func Encode(k Kind, v any, dst []byte) ([]byte, error) {
	if !k.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownKind, uint8(k))
	}

	mismatch := func() ([]byte, error) {
		return nil, fmt.Errorf("%w: %T as %s", ErrValueType, v, k)
	}

	switch k {
	case Bool:
		b, ok := v.(bool)
		if !ok {
			return mismatch()
		}
		if b {
			return append(dst, 1), nil
		}
		return append(dst, 0), nil
	case Int32:
		x, ok := v.(int32)
		if !ok {
			return mismatch()
		}
		return binary.LittleEndian.AppendUint32(dst, uint32(x)), nil
	case Int64:
		switch x := v.(type) {
		case int64:
			return binary.LittleEndian.AppendUint64(dst, uint64(x)), nil
		case int:
			return binary.LittleEndian.AppendUint64(dst, uint64(x)), nil
		}
		return mismatch()
	case Uint32:
		x, ok := v.(uint32)
		if !ok {
			return mismatch()
		}
		return binary.LittleEndian.AppendUint32(dst, x), nil
	case Uint64:
		x, ok := v.(uint64)
		if !ok {
			return mismatch()
		}
		return binary.LittleEndian.AppendUint64(dst, x), nil
	case Float32:
		x, ok := v.(float32)
		if !ok {
			return mismatch()
		}
		return binary.LittleEndian.AppendUint32(dst, math.Float32bits(x)), nil
	case Float64:
		x, ok := v.(float64)
		if !ok {
			return mismatch()
		}
		return binary.LittleEndian.AppendUint64(dst, math.Float64bits(x)), nil
	case String:
		x, ok := v.(string)
		if !ok {
			return mismatch()
		}
		return append(dst, x...), nil
	case Bytes:
		x, ok := v.([]byte)
		if !ok {
			return mismatch()
		}
		return append(dst, x...), nil
	case Int32s:
		xs, ok := v.([]int32)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.LittleEndian.AppendUint32(dst, uint32(x))
		}
		return dst, nil
	case Int64s:
		xs, ok := v.([]int64)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.LittleEndian.AppendUint64(dst, uint64(x))
		}
		return dst, nil
	case Uint64s:
		xs, ok := v.([]uint64)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.LittleEndian.AppendUint64(dst, x)
		}
		return dst, nil
	case Float32s:
		xs, ok := v.([]float32)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.LittleEndian.AppendUint32(dst, math.Float32bits(x))
		}
		return dst, nil
	case Float64s:
		xs, ok := v.([]float64)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.LittleEndian.AppendUint64(dst, math.Float64bits(x))
		}
		return dst, nil
	case Strings:
		xs, ok := v.([]string)
		if !ok {
			return mismatch()
		}
		for _, x := range xs {
			dst = binary.AppendUvarint(dst, uint64(len(x)))
			dst = append(dst, x...)
		}
		return dst, nil
	}
	return mismatch()
}
