package filter

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"
	"github.com/samber/lo"

	"github.com/theplant/gqlwhere/internal/hook"
)

// KeyType represents the type of a filter key
type KeyType string

const (
	// KeyTypeLogical represents a structural key (AND, OR)
	KeyTypeLogical KeyType = "LOGICAL"

	// KeyTypeField represents a field key (email, createdAt, etc.)
	KeyTypeField KeyType = "FIELD"

	// KeyTypeOperator represents an operator key (is, starts_with, in, etc.)
	KeyTypeOperator KeyType = "OPERATOR"
)

// TransformInput provides input information for transformation
type TransformInput struct {
	KeyPath []string
	KeyType KeyType
	Value   any
}

// Key returns the last element of KeyPath.
func (input *TransformInput) Key() string {
	if len(input.KeyPath) == 0 {
		return ""
	}
	return input.KeyPath[len(input.KeyPath)-1]
}

// TransformOutput represents the result of transformation.
// An empty Key drops the entry.
type TransformOutput struct {
	Key   string
	Value any
}

// TransformFunc is a function that transforms keys and values.
type TransformFunc func(input *TransformInput) (*TransformOutput, error)

// Identity keeps every key and value as is.
func Identity(input *TransformInput) (*TransformOutput, error) {
	return &TransformOutput{Key: input.Key(), Value: input.Value}, nil
}

// Transform applies transformations to a filter tree and returns a new tree.
// Structural keys are never renamed or dropped; their values are walked.
func Transform(node Node, transform TransformFunc) (Node, error) {
	if node == nil {
		return nil, nil
	}
	result := make(Node, len(node))
	if err := transformNode(node, result, nil, transform); err != nil {
		return nil, err
	}
	return result, nil
}

// TransformWith builds a TransformFunc from hooks wrapped around Identity.
func TransformWith(hooks ...func(next TransformFunc) TransformFunc) TransformFunc {
	if h := hook.Chain(hooks...); h != nil {
		return h(Identity)
	}
	return Identity
}

func transformNode(source Node, target Node, parentPath []string, transform TransformFunc) error {
	for key, value := range source {
		if value == nil {
			continue
		}
		currentPath := appendPath(parentPath, key)
		pathStr := strings.Join(currentPath, ".")

		if IsStructural(key) {
			children, err := AsNodes(value)
			if err != nil {
				return errors.Wrapf(err, "logical filter %s", pathStr)
			}
			list := make([]any, 0, len(children))
			for i, child := range children {
				result := make(Node, len(child))
				itemPath := appendPath(currentPath, fmt.Sprintf("[%d]", i))
				if err := transformNode(child, result, itemPath, transform); err != nil {
					return err
				}
				list = append(list, map[string]any(result))
			}
			target[key] = list
			continue
		}

		ops, ok := AsNode(value)
		if !ok {
			return errors.Errorf("field %s value should be map[string]any, got %T", pathStr, value)
		}

		output, err := transform(&TransformInput{KeyPath: currentPath, KeyType: KeyTypeField, Value: value})
		if err != nil {
			return errors.Wrapf(err, "transform key %s", pathStr)
		}
		if output.Key == "" {
			continue
		}

		fieldResult := make(map[string]any, len(ops))
		for opKey, opValue := range ops {
			opPath := appendPath(currentPath, opKey)
			opOutput, err := transform(&TransformInput{KeyPath: opPath, KeyType: KeyTypeOperator, Value: opValue})
			if err != nil {
				return errors.Wrapf(err, "transform key %s", strings.Join(opPath, "."))
			}
			if opOutput.Key != "" {
				fieldResult[opOutput.Key] = opOutput.Value
			}
		}
		if existing, ok := target[output.Key].(map[string]any); ok {
			// two source keys collapsed into one field
			for k, v := range fieldResult {
				existing[k] = v
			}
			continue
		}
		target[output.Key] = fieldResult
	}
	return nil
}

func appendPath(parent []string, key string) []string {
	result := make([]string, len(parent), len(parent)+1)
	copy(result, parent)
	return append(result, key)
}

// WithSnakeCaseFields creates a transform hook that converts field keys such as
// createdAt into column names such as created_at.
func WithSnakeCaseFields() func(next TransformFunc) TransformFunc {
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			output, err := next(input)
			if err != nil {
				return nil, err
			}
			if input.KeyType == KeyTypeField && output.Key != "" {
				output.Key = lo.SnakeCase(output.Key)
			}
			return output, nil
		}
	}
}

// WithFieldAliases creates a transform hook that renames field keys found in aliases.
func WithFieldAliases(aliases map[string]string) func(next TransformFunc) TransformFunc {
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			output, err := next(input)
			if err != nil {
				return nil, err
			}
			if input.KeyType == KeyTypeField {
				if alias, ok := aliases[output.Key]; ok {
					output.Key = alias
				}
			}
			return output, nil
		}
	}
}

// WithAllowedFields creates a transform hook that rejects any field key not in fields.
func WithAllowedFields(fields ...string) func(next TransformFunc) TransformFunc {
	allowed := lo.SliceToMap(fields, func(field string) (string, bool) {
		return field, true
	})
	return func(next TransformFunc) TransformFunc {
		return func(input *TransformInput) (*TransformOutput, error) {
			if input.KeyType == KeyTypeField && !allowed[input.Key()] {
				return nil, errors.Errorf("field %q is not allowed", input.Key())
			}
			return next(input)
		}
	}
}
