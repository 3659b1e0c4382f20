package filter

import "github.com/pkg/errors"

// Structural keys of a filter node.
const (
	KeyAnd = "AND"
	KeyOr  = "OR"
)

// Node is one level of a nested filter expression.
//
// A key is either a structural key (KeyAnd, KeyOr) whose value is a sequence of
// nodes, or a field key whose value is an operator map such as
// {"starts_with": "user1", "not_null": true}.
type Node map[string]any

// IsStructural reports whether key groups child nodes instead of naming a field.
func IsStructural(key string) bool {
	return key == KeyAnd || key == KeyOr
}

// AsNode converts a decoded value into a Node.
func AsNode(v any) (Node, bool) {
	switch m := v.(type) {
	case Node:
		return m, true
	case map[string]any:
		return Node(m), true
	default:
		return nil, false
	}
}

// AsNodes converts the value of a structural key into its child nodes.
func AsNodes(v any) ([]Node, error) {
	switch list := v.(type) {
	case []Node:
		return list, nil
	case []map[string]any:
		nodes := make([]Node, len(list))
		for i, m := range list {
			nodes[i] = Node(m)
		}
		return nodes, nil
	case []any:
		nodes := make([]Node, 0, len(list))
		for i, item := range list {
			if item == nil {
				continue
			}
			node, ok := AsNode(item)
			if !ok {
				return nil, errors.Errorf("item at index %d should be a filter node, got %T", i, item)
			}
			nodes = append(nodes, node)
		}
		return nodes, nil
	default:
		return nil, errors.Errorf("should be a list of filter nodes, got %T", v)
	}
}

// Decode parses a JSON encoded filter tree. Numbers are kept as json.Number so
// that integer operands survive without float rounding.
func Decode(data []byte) (Node, error) {
	if len(data) == 0 {
		return nil, nil
	}
	var node Node
	if err := jsoniterForWire.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "decode filter")
	}
	return node, nil
}
