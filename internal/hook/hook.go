// Package hook composes middleware-style hooks of the form func(next T) T.
package hook

// Chain composes hooks so that the first one is the outermost.
// It returns nil when no non-nil hook is given.
func Chain[T any](hooks ...func(next T) T) func(next T) T {
	var nonNil []func(next T) T
	for _, h := range hooks {
		if h != nil {
			nonNil = append(nonNil, h)
		}
	}
	if len(nonNil) == 0 {
		return nil
	}
	return func(next T) T {
		for i := len(nonNil) - 1; i >= 0; i-- {
			next = nonNil[i](next)
		}
		return next
	}
}
