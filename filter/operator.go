package filter

import "github.com/samber/lo"

// Operator is a comparison applied to one field of a filter node.
type Operator string

const (
	OpIs                Operator = "is"
	OpNot               Operator = "not"
	OpIn                Operator = "in"
	OpNotIn             Operator = "not_in"
	OpLt                Operator = "lt"
	OpLte               Operator = "lte"
	OpGt                Operator = "gt"
	OpGte               Operator = "gte"
	OpContains          Operator = "contains"
	OpNotContains       Operator = "not_contains"
	OpStartsWith        Operator = "starts_with"
	OpNotStartsWith     Operator = "not_starts_with"
	OpEndsWith          Operator = "ends_with"
	OpNotEndsWith       Operator = "not_ends_with"
	OpContainsDate      Operator = "containsDate"
	OpOverlapsDateRange Operator = "overlapsDateRange"
	OpContainsDateRange Operator = "containsDateRange"
	OpBetween           Operator = "between"
	OpNotBetween        Operator = "not_between"
	OpNotNull           Operator = "not_null"
)

// Operators lists the whole operator vocabulary.
var Operators = []Operator{
	OpIs, OpNot, OpIn, OpNotIn,
	OpLt, OpLte, OpGt, OpGte,
	OpContains, OpNotContains,
	OpStartsWith, OpNotStartsWith,
	OpEndsWith, OpNotEndsWith,
	OpContainsDate, OpOverlapsDateRange, OpContainsDateRange,
	OpBetween, OpNotBetween,
	OpNotNull,
}

var knownOperators = lo.SliceToMap(Operators, func(op Operator) (string, Operator) {
	return string(op), op
})

// ParseOperator resolves an operator name. The second result is false for
// names outside the vocabulary.
func ParseOperator(name string) (Operator, bool) {
	op, ok := knownOperators[name]
	return op, ok
}

// LongRenderable reports whether the operator may be rendered with raw integer
// literals for fields configured to render as longs.
func (op Operator) LongRenderable() bool {
	switch op {
	case OpIs, OpNot, OpLt, OpLte, OpGt, OpGte, OpIn, OpNotIn:
		return true
	}
	return false
}

// Multi reports whether the operand is a sequence.
func (op Operator) Multi() bool {
	return op == OpIn || op == OpNotIn
}

// Unary reports whether the operand is ignored.
func (op Operator) Unary() bool {
	return op == OpNotNull
}
