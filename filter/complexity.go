package filter

import "github.com/pkg/errors"

// ComplexityLimits defines limits for filter complexity.
// A value of 0 means no limit for that metric.
type ComplexityLimits struct {
	MaxTotalFields      int `yaml:"maxTotalFields" json:"maxTotalFields"`           // field conditions
	MaxTotalOperators   int `yaml:"maxTotalOperators" json:"maxTotalOperators"`     // operators across all fields
	MaxLogicalOperators int `yaml:"maxLogicalOperators" json:"maxLogicalOperators"` // structural keys (AND/OR)
	MaxLogicalDepth     int `yaml:"maxLogicalDepth" json:"maxLogicalDepth"`         // nesting of structural keys
	MaxOrBranches       int `yaml:"maxOrBranches" json:"maxOrBranches"`             // branches in a single OR
}

// ComplexityResult contains the calculated complexity metrics of a filter.
type ComplexityResult struct {
	TotalFields      int // Total number of field conditions
	TotalOperators   int // Total number of operators
	LogicalOperators int // Total number of structural keys
	LogicalDepth     int // Deepest structural nesting
	OrBranches       int // Maximum branches found in any OR
}

// Predefined complexity limits
var (
	// DefaultLimits provides reasonable defaults for most use cases.
	DefaultLimits = &ComplexityLimits{
		MaxTotalFields:      10,
		MaxTotalOperators:   20,
		MaxLogicalOperators: 5,
		MaxLogicalDepth:     2,
		MaxOrBranches:       5,
	}

	// StrictLimits provides tighter limits for public endpoints.
	StrictLimits = &ComplexityLimits{
		MaxTotalFields:      5,
		MaxTotalOperators:   10,
		MaxLogicalOperators: 3,
		MaxLogicalDepth:     1,
		MaxOrBranches:       3,
	}

	// RelaxedLimits provides looser limits for trusted/internal use.
	RelaxedLimits = &ComplexityLimits{
		MaxTotalFields:      20,
		MaxTotalOperators:   50,
		MaxLogicalOperators: 10,
		MaxLogicalDepth:     4,
		MaxOrBranches:       10,
	}
)

// CheckComplexity validates that a filter doesn't exceed the specified limits.
// Returns an error describing which limit was exceeded, or nil if within limits.
// If limits is nil, no validation is performed.
func CheckComplexity(node Node, limits *ComplexityLimits) error {
	if limits == nil {
		return nil
	}

	result := CalculateComplexity(node)
	for _, c := range []struct {
		metric     string
		got, limit int
	}{
		{"field count", result.TotalFields, limits.MaxTotalFields},
		{"operator count", result.TotalOperators, limits.MaxTotalOperators},
		{"logical operator count", result.LogicalOperators, limits.MaxLogicalOperators},
		{"logical nesting depth", result.LogicalDepth, limits.MaxLogicalDepth},
		{"OR branches", result.OrBranches, limits.MaxOrBranches},
	} {
		if c.limit > 0 && c.got > c.limit {
			return errors.Errorf("filter %s %d exceeds limit %d", c.metric, c.got, c.limit)
		}
	}
	return nil
}

// CalculateComplexity analyzes a filter and returns its complexity metrics.
// Values that are not well formed are skipped; the compiler reports them.
func CalculateComplexity(node Node) *ComplexityResult {
	result := &ComplexityResult{}
	calculateComplexityRecursive(node, 0, result)
	return result
}

func calculateComplexityRecursive(node Node, logicalDepth int, result *ComplexityResult) {
	if logicalDepth > result.LogicalDepth {
		result.LogicalDepth = logicalDepth
	}

	for key, value := range node {
		if value == nil {
			continue
		}

		if IsStructural(key) {
			result.LogicalOperators++
			children, err := AsNodes(value)
			if err != nil {
				continue
			}
			if key == KeyOr && len(children) > result.OrBranches {
				result.OrBranches = len(children)
			}
			if logicalDepth+1 > result.LogicalDepth {
				result.LogicalDepth = logicalDepth + 1
			}
			for _, child := range children {
				calculateComplexityRecursive(child, logicalDepth+1, result)
			}
			continue
		}

		ops, ok := AsNode(value)
		if !ok {
			continue
		}
		result.TotalFields++
		result.TotalOperators += len(ops)
	}
}
