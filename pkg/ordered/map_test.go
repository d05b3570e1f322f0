package ordered

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMap_PreservesInsertionOrder(t *testing.T) {
	m := New[int](3)
	m.Set("zeta", 1)
	m.Set("alpha", 2)
	m.Set("mid", 3)
	m.Set("zeta", 4) // overwrite keeps position

	assert.Equal(t, []string{"zeta", "alpha", "mid"}, m.Keys())
	v, ok := m.Get("zeta")
	require.True(t, ok)
	assert.Equal(t, 4, v)

	k, v, ok := m.First()
	require.True(t, ok)
	assert.Equal(t, "zeta", k)
	assert.Equal(t, 4, v)
}

func TestMap_Delete(t *testing.T) {
	var m Map[string]
	m.Set("a", "1")
	m.Set("b", "2")
	m.Set("c", "3")
	m.Delete("b")
	m.Delete("missing")

	assert.Equal(t, []string{"a", "c"}, m.Keys())
	assert.False(t, m.Has("b"))
	assert.Equal(t, 2, m.Len())
}

func TestMap_NilSafety(t *testing.T) {
	var m *Map[int]
	assert.Equal(t, 0, m.Len())
	assert.Nil(t, m.Keys())
	_, ok := m.Get("x")
	assert.False(t, ok)
	_, _, ok = m.First()
	assert.False(t, ok)
	m.Range(func(string, int) bool {
		t.Fatal("range over nil map must not call fn")
		return true
	})
}

func TestMap_MarshalJSON(t *testing.T) {
	m := New[any](0)
	m.Set("z", 1)
	m.Set("a", []any{"x"})
	nested := New[any](0)
	nested.Set("b", true)
	nested.Set("a", nil)
	m.Set("n", nested)

	data, err := json.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, `{"z":1,"a":["x"],"n":{"b":true,"a":null}}`, string(data))
}

func TestMap_MarshalYAML(t *testing.T) {
	m := New[any](0)
	m.Set("second", "b")
	m.Set("first", 1)

	data, err := yaml.Marshal(m)
	require.NoError(t, err)
	assert.Equal(t, "second: b\nfirst: 1\n", string(data))
}

func TestMap_RangeStopsEarly(t *testing.T) {
	m := New[int](0)
	m.Set("a", 1)
	m.Set("b", 2)
	m.Set("c", 3)

	var seen []string
	m.Range(func(k string, _ int) bool {
		seen = append(seen, k)
		return k != "b"
	})
	assert.Equal(t, []string{"a", "b"}, seen)
}

func TestPlain(t *testing.T) {
	inner := New[any](0)
	inner.Set("id", 7)
	outer := New[any](0)
	outer.Set("items", []any{inner})

	got := Plain(outer)
	assert.Equal(t, map[string]any{
		"items": []any{map[string]any{"id": 7}},
	}, got)
}
