package column

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var samples = []struct {
	kind  Kind
	value any
}{
	{Bool, true},
	{Int32, int32(-7)},
	{Int64, int64(-1 << 40)},
	{Uint32, uint32(1 << 31)},
	{Uint64, uint64(1 << 63)},
	{Float32, float32(1.5)},
	{Float64, 3.25},
	{String, "électron"},
	{Bytes, []byte{0, 1, 2}},
	{Int32s, []int32{1, -2, 3}},
	{Int64s, []int64{-1, 1 << 50}},
	{Uint64s, []uint64{7, 8}},
	{Float32s, []float32{0.5, -0.25}},
	{Float64s, []float64{1e-9, 2}},
	{Strings, []string{"mu", "", "tau"}},
}

func TestKind_Names(t *testing.T) {
	for _, s := range samples {
		parsed, err := ParseKind(s.kind.String())
		require.NoError(t, err)
		assert.Equal(t, s.kind, parsed)

		assert.Equal(t, reflect.TypeOf(s.value), s.kind.GoType(), s.kind.String())

		k, ok := KindOf(s.value)
		require.True(t, ok)
		assert.Equal(t, s.kind, k)
	}

	_, err := ParseKind("complex128")
	assert.ErrorIs(t, err, ErrUnknownKind)
	assert.Nil(t, Invalid.GoType())
	assert.Equal(t, "kind(99)", Kind(99).String())

	k, ok := KindOf(42)
	assert.True(t, ok)
	assert.Equal(t, Int64, k)
	_, ok = KindOf(struct{}{})
	assert.False(t, ok)
}

func TestKind_Text(t *testing.T) {
	text, err := Float32s.MarshalText()
	require.NoError(t, err)
	assert.Equal(t, "[]float32", string(text))

	var k Kind
	require.NoError(t, k.UnmarshalText(text))
	assert.Equal(t, Float32s, k)

	_, err = Invalid.MarshalText()
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestEncodeDecode(t *testing.T) {
	for _, s := range samples {
		t.Run(s.kind.String(), func(t *testing.T) {
			data, err := Encode(s.kind, s.value, nil)
			require.NoError(t, err)

			got, err := Decode(s.kind, data)
			require.NoError(t, err)
			assert.Equal(t, s.value, got)
		})
	}
}

func TestEncode_Errors(t *testing.T) {
	_, err := Encode(Float64, float32(1), nil)
	assert.ErrorIs(t, err, ErrValueType)

	_, err = Encode(Invalid, 1, nil)
	assert.ErrorIs(t, err, ErrUnknownKind)

	data, err := Encode(Int64, 5, []byte{9})
	require.NoError(t, err)
	assert.Len(t, data, 9, "appends to dst")
}

func TestHolder_StableAddress(t *testing.T) {
	h, err := NewHolder(Float64s)
	require.NoError(t, err)

	addr := h.Addr()
	for _, v := range [][]float64{{1, 2, 3}, {4}, {}} {
		data, err := Encode(Float64s, v, nil)
		require.NoError(t, err)
		require.NoError(t, h.Decode(data))

		assert.Equal(t, addr, h.Addr())
		assert.Equal(t, v, *(*[]float64)(h.Addr()))
	}
}

func TestHolder_DoesNotAliasInput(t *testing.T) {
	h, err := NewHolder(String)
	require.NoError(t, err)

	buf := []byte("abc")
	require.NoError(t, h.Decode(buf))
	buf[0] = 'X'
	assert.Equal(t, "abc", *(*string)(h.Addr()))

	hb, err := NewHolder(Bytes)
	require.NoError(t, err)
	require.NoError(t, hb.Decode(buf))
	buf[1] = 'Y'
	assert.Equal(t, []byte("Xbc"), *(*[]byte)(hb.Addr()))
}

func TestHolder_Corrupt(t *testing.T) {
	cases := []struct {
		kind Kind
		data []byte
	}{
		{Bool, []byte{2}},
		{Bool, nil},
		{Int32, []byte{1, 2, 3}},
		{Float64, make([]byte, 9)},
		{Int64s, make([]byte, 12)},
		{Strings, []byte{5, 'a'}},
	}
	for _, c := range cases {
		_, err := Decode(c.kind, c.data)
		assert.ErrorIs(t, err, ErrCorrupt, c.kind.String())
	}

	_, err := NewHolder(Invalid)
	assert.ErrorIs(t, err, ErrUnknownKind)
}

func TestHolder_EmptySlicesAreNotNil(t *testing.T) {
	for _, k := range []Kind{Bytes, Int32s, Float32s, Strings} {
		v, err := Decode(k, nil)
		require.NoError(t, err)
		assert.NotNil(t, v, k.String())
		assert.Zero(t, reflect.ValueOf(v).Len())
	}
}
