package filter

import (
	jsoniter "github.com/json-iterator/go"
	"github.com/pkg/errors"
)

var jsoniterForFilter = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
}.Froze()

var jsoniterForWire = jsoniter.Config{
	EscapeHTML:             true,
	SortMapKeys:            true,
	ValidateJsonRawMessage: true,
	UseNumber:              true,
}.Froze()

// ToMap converts a typed filter, such as a generated GraphQL input struct, into a Node.
func ToMap(v any) (Node, error) {
	if v == nil {
		return nil, nil
	}
	if node, ok := AsNode(v); ok {
		return node, nil
	}
	data, err := jsoniterForFilter.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, "marshal filter")
	}
	var node Node
	if err := jsoniterForWire.Unmarshal(data, &node); err != nil {
		return nil, errors.Wrap(err, "unmarshal filter to map")
	}
	PruneMap(node)
	return node, nil
}

// DecodeOperand decodes a structured operand, such as a DateRange, into out.
// Numbers landing in interface fields are kept as json.Number.
func DecodeOperand(operand any, out any) error {
	data, err := jsoniterForFilter.Marshal(operand)
	if err != nil {
		return errors.Wrap(err, "marshal operand")
	}
	if err := jsoniterForWire.Unmarshal(data, out); err != nil {
		return errors.Wrapf(err, "unmarshal operand into %T", out)
	}
	return nil
}

// PruneMap drops nil values from m along with the empty lists and maps they
// leave behind, descending into nested maps and list items.
func PruneMap(m map[string]any) {
	for k, v := range m {
		if pruneValue(v) {
			delete(m, k)
		}
	}
}

// pruneValue prunes v in place and reports whether it is now empty.
func pruneValue(v any) bool {
	switch t := v.(type) {
	case nil:
		return true
	case map[string]any:
		PruneMap(t)
		return len(t) == 0
	case []any:
		for _, item := range t {
			if nested, ok := item.(map[string]any); ok {
				PruneMap(nested)
			}
		}
		return len(t) == 0
	default:
		return false
	}
}
