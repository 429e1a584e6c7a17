package codec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type sample struct {
	Name    string   `json:"name"`
	Kind    string   `json:"kind"`
	Entries []uint64 `json:"entries"`
}

func TestLookup(t *testing.T) {
	for _, c := range []Codec{JSON{}, JSONv2{}} {
		byName, ok := ByName(c.Name())
		require.True(t, ok, c.Name())
		assert.Equal(t, c, byName)

		byID, ok := ByID(c.ID())
		require.True(t, ok, c.Name())
		assert.Equal(t, c, byID)
	}

	_, ok := ByName("gob")
	assert.False(t, ok)
	_, ok = ByID(0)
	assert.False(t, ok)
}

func TestCodecs_CrossCompatible(t *testing.T) {
	in := sample{Name: "x", Kind: "float64", Entries: []uint64{1, 2, 3}}

	for _, enc := range []Codec{JSON{}, JSONv2{}} {
		data := MustMarshal(enc, in)
		for _, dec := range []Codec{JSON{}, JSONv2{}} {
			var out sample
			require.NoError(t, dec.Unmarshal(data, &out), "%s -> %s", enc.Name(), dec.Name())
			assert.Equal(t, in, out)
		}
	}
}

func TestJSONv2_RejectsDuplicateNames(t *testing.T) {
	var out sample
	err := JSONv2{}.Unmarshal([]byte(`{"name":"a","name":"b"}`), &out)
	assert.Error(t, err)

	// The stdlib codec keeps the last value.
	require.NoError(t, JSON{}.Unmarshal([]byte(`{"name":"a","name":"b"}`), &out))
	assert.Equal(t, "b", out.Name)
}

func TestJSONv2_Append(t *testing.T) {
	out, err := JSONv2{}.Append([]byte("prefix:"), map[string]int{"a": 1})
	require.NoError(t, err)
	assert.Equal(t, `prefix:{"a":1}`, string(out))
}

func TestMustMarshal_DefaultCodec(t *testing.T) {
	assert.Equal(t, `"x"`, string(MustMarshal(nil, "x")))
	assert.Panics(t, func() { MustMarshal(JSON{}, make(chan int)) })
}
