// Package ordered provides an insertion-ordered string-keyed map.
//
// OpenAPI documents are order sensitive in a few places that matter to the
// mock pipeline: operations are matched in declaration order, the first entry
// of an `examples` mapping wins, and generated objects should list properties
// the way the schema author wrote them. Go maps lose that order, so the spec
// model and the generator use Map instead.
package ordered

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Map is a string-keyed map that remembers insertion order.
// The zero value is ready to use. A Map is not safe for concurrent mutation;
// the spec model only mutates maps while loading.
type Map[V any] struct {
	keys   []string
	values map[string]V
}

// New returns an empty Map with room for n entries.
func New[V any](n int) *Map[V] {
	return &Map[V]{
		keys:   make([]string, 0, n),
		values: make(map[string]V, n),
	}
}

// Set stores value under key. Setting an existing key keeps its position.
func (m *Map[V]) Set(key string, value V) {
	if m.values == nil {
		m.values = make(map[string]V)
	}
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = value
}

// Get returns the value stored under key.
func (m *Map[V]) Get(key string) (V, bool) {
	var zero V
	if m == nil || m.values == nil {
		return zero, false
	}
	v, ok := m.values[key]
	return v, ok
}

// Has reports whether key is present.
func (m *Map[V]) Has(key string) bool {
	_, ok := m.Get(key)
	return ok
}

// Delete removes key, preserving the order of the remaining entries.
func (m *Map[V]) Delete(key string) {
	if m == nil || m.values == nil {
		return
	}
	if _, ok := m.values[key]; !ok {
		return
	}
	delete(m.values, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Len returns the number of entries.
func (m *Map[V]) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Keys returns the keys in insertion order. The slice is a copy.
func (m *Map[V]) Keys() []string {
	if m == nil {
		return nil
	}
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// First returns the first entry in insertion order.
func (m *Map[V]) First() (string, V, bool) {
	var zero V
	if m.Len() == 0 {
		return "", zero, false
	}
	k := m.keys[0]
	return k, m.values[k], true
}

// Range calls fn for each entry in insertion order until fn returns false.
func (m *Map[V]) Range(fn func(key string, value V) bool) {
	if m == nil {
		return
	}
	for _, k := range m.keys {
		if !fn(k, m.values[k]) {
			return
		}
	}
}

// MarshalJSON encodes the map as a JSON object with keys in insertion order.
func (m *Map[V]) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.values[k])
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// MarshalYAML encodes the map as a YAML mapping with keys in insertion order.
func (m *Map[V]) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	if m == nil {
		return node, nil
	}
	for _, k := range m.keys {
		var valueNode yaml.Node
		if err := valueNode.Encode(m.values[k]); err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: k},
			&valueNode,
		)
	}
	return node, nil
}

// Plain converts v into plain Go values, replacing every *Map[any] with a
// map[string]any. It is used where a consumer needs ordinary JSON values,
// such as JSONPath evaluation.
func Plain(v any) any {
	switch t := v.(type) {
	case *Map[any]:
		if t == nil {
			return nil
		}
		out := make(map[string]any, t.Len())
		t.Range(func(k string, val any) bool {
			out[k] = Plain(val)
			return true
		})
		return out
	case []any:
		out := make([]any, len(t))
		for i, item := range t {
			out[i] = Plain(item)
		}
		return out
	default:
		return v
	}
}
