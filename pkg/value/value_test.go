package value

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeText(t *testing.T) {
	v := Text("  Hello World  ")
	n := v.Normalize(0, 4)
	text, ok := n.AsText()
	require.True(t, ok)
	assert.Equal(t, "hello world", text)
}

func TestNormalizeDateTrimsOnly(t *testing.T) {
	v := Date("  2025-01-02  ")
	n := v.Normalize(0, 4)
	d, ok := n.AsDate()
	require.True(t, ok)
	assert.Equal(t, "2025-01-02", d)
}

func TestNormalizeNumberUnchanged(t *testing.T) {
	v := Number(42.5)
	n := v.Normalize(0, 4)
	num, ok := n.AsNumber()
	require.True(t, ok)
	assert.Equal(t, 42.5, num)
}

func TestNormalizeStopsAtMaxDepth(t *testing.T) {
	v := Object(map[string]Value{
		"a": Object(map[string]Value{
			"b": Text("  Keep Case  "),
		}),
	})
	n := v.Normalize(0, 0)
	obj, ok := n.AsObject()
	require.True(t, ok)
	inner, ok := obj["a"].AsObject()
	require.True(t, ok)
	text, ok := inner["b"].AsText()
	require.True(t, ok)
	assert.Equal(t, "  Keep Case  ", text, "nodes beyond max_depth are left unnormalized")
}

func TestValueJSONRoundTrip(t *testing.T) {
	orig := Object(map[string]Value{
		"title": Text("hi"),
		"year":  Number(2025),
		"born":  Date("2020-01-01"),
		"flag":  Bool(true),
	})

	data, err := json.Marshal(orig)
	require.NoError(t, err)

	var decoded Value
	require.NoError(t, json.Unmarshal(data, &decoded))

	obj, ok := decoded.AsObject()
	require.True(t, ok)

	text, ok := obj["title"].AsText()
	require.True(t, ok)
	assert.Equal(t, "hi", text)

	num, ok := obj["year"].AsNumber()
	require.True(t, ok)
	assert.Equal(t, 2025.0, num)

	b, ok := obj["flag"].AsBool()
	require.True(t, ok)
	assert.True(t, b)
}
