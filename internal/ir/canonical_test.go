package ir

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarshalCanonical_KeyOrder(t *testing.T) {
	data, err := MarshalCanonical(map[string]any{"b": Int(2), "a": Int(1), "c": Bool(true)})
	require.NoError(t, err)
	assert.Equal(t, `{"a":1,"b":2,"c":true}`, string(data))
}

func TestMarshalCanonical_UTF16Order(t *testing.T) {
	// U+1F600 encodes as surrogates 0xD83D.. which sort before U+FF61 in
	// UTF-16 but after it in UTF-8.
	data, err := MarshalCanonical(map[string]any{"｡": 1, "\U0001F600": 2})
	require.NoError(t, err)
	assert.Equal(t, "{\"\U0001F600\":2,\"｡\":1}", string(data))
}

func TestMarshalCanonical_NFC(t *testing.T) {
	composed, err := MarshalCanonical("\u00e9")
	require.NoError(t, err)
	decomposed, err := MarshalCanonical("e\u0301")
	require.NoError(t, err)
	assert.Equal(t, composed, decomposed)
}

func TestMarshalCanonical_NoHTMLEscape(t *testing.T) {
	data, err := MarshalCanonical("a<b>&c")
	require.NoError(t, err)
	assert.Equal(t, `"a<b>&c"`, string(data))
}

func TestMarshalCanonical_Doubles(t *testing.T) {
	one, err := MarshalCanonical(Double(1))
	require.NoError(t, err)
	assert.Equal(t, `{"f64":"3ff0000000000000"}`, string(one))

	pos, err := MarshalCanonical(Double(0))
	require.NoError(t, err)
	neg, err := MarshalCanonical(Double(math.Copysign(0, -1)))
	require.NoError(t, err)
	assert.NotEqual(t, pos, neg)

	i, err := MarshalCanonical(Int(1))
	require.NoError(t, err)
	assert.NotEqual(t, one, i, "Int(1) and Double(1) must not collide")
}

func TestMarshalCanonical_RejectsNil(t *testing.T) {
	_, err := MarshalCanonical(nil)
	assert.Error(t, err)

	_, err = MarshalCanonical(map[string]any{"x": nil})
	assert.Error(t, err)

	_, err = MarshalCanonical(struct{}{})
	assert.Error(t, err)
}
