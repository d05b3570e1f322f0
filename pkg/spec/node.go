package spec

import (
	"fmt"
	"strconv"

	"github.com/getmockd/specmock/pkg/ordered"
	"gopkg.in/yaml.v3"
)

// deref follows YAML aliases.
func deref(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// get returns the value node stored under key in a mapping node.
func get(n *yaml.Node, key string) *yaml.Node {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if n.Content[i].Value == key {
			return deref(n.Content[i+1])
		}
	}
	return nil
}

// each calls fn for every key/value pair of a mapping node, in document order.
func each(n *yaml.Node, fn func(key string, value *yaml.Node) error) error {
	n = deref(n)
	if n == nil || n.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		if err := fn(n.Content[i].Value, deref(n.Content[i+1])); err != nil {
			return err
		}
	}
	return nil
}

func str(n *yaml.Node) string {
	n = deref(n)
	if n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

func boolean(n *yaml.Node) (bool, error) {
	n = deref(n)
	if n == nil {
		return false, nil
	}
	var b bool
	if err := n.Decode(&b); err != nil {
		return false, fmt.Errorf("line %d: expected a boolean: %w", n.Line, err)
	}
	return b, nil
}

func integer(n *yaml.Node) (*int, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil || n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected an integer, got %q", n.Line, n.Value)
	}
	return &v, nil
}

func number(n *yaml.Node) (*float64, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	v, err := strconv.ParseFloat(n.Value, 64)
	if err != nil || n.Kind != yaml.ScalarNode {
		return nil, fmt.Errorf("line %d: expected a number, got %q", n.Line, n.Value)
	}
	return &v, nil
}

func stringList(n *yaml.Node) []string {
	n = deref(n)
	if n == nil {
		return nil
	}
	if n.Kind == yaml.ScalarNode {
		return []string{n.Value}
	}
	if n.Kind != yaml.SequenceNode {
		return nil
	}
	out := make([]string, 0, len(n.Content))
	for _, c := range n.Content {
		out = append(out, str(c))
	}
	return out
}

// value converts a node to Go values. With keepOrder set, mappings become
// *ordered.Map[any]; otherwise map[string]any. Mapping keys are always the
// scalar text, so `200:` and `"200":` produce the same key.
func value(n *yaml.Node, keepOrder bool) (any, error) {
	n = deref(n)
	if n == nil {
		return nil, nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return value(n.Content[0], keepOrder)
	case yaml.ScalarNode:
		var v any
		if err := n.Decode(&v); err != nil {
			return nil, fmt.Errorf("line %d: %w", n.Line, err)
		}
		return v, nil
	case yaml.SequenceNode:
		out := make([]any, 0, len(n.Content))
		for _, c := range n.Content {
			v, err := value(c, keepOrder)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case yaml.MappingNode:
		if keepOrder {
			out := ordered.New[any](len(n.Content) / 2)
			err := each(n, func(k string, c *yaml.Node) error {
				v, err := value(c, keepOrder)
				if err != nil {
					return err
				}
				out.Set(k, v)
				return nil
			})
			return out, err
		}
		out := make(map[string]any, len(n.Content)/2)
		err := each(n, func(k string, c *yaml.Node) error {
			v, err := value(c, keepOrder)
			if err != nil {
				return err
			}
			out[k] = v
			return nil
		})
		return out, err
	default:
		return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
	}
}
