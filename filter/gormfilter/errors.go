package gormfilter

import "github.com/pkg/errors"

var (
	// ErrUnsupportedOperation is returned when a predicate form is not available on the active surface.
	ErrUnsupportedOperation = errors.New("unsupported operation")

	// ErrUnknownOperator is returned for unknown operator names when StrictOperators is set.
	ErrUnknownOperator = errors.New("unknown operator")

	// ErrMalformedFilter is returned when a filter node is not shaped like a filter tree.
	ErrMalformedFilter = errors.New("malformed filter")
)
