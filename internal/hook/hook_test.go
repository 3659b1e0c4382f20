package hook

import (
	"testing"

	"github.com/stretchr/testify/require"
)

type fn func(s string) string

func suffix(v string) func(next fn) fn {
	return func(next fn) fn {
		return func(s string) string {
			return next(s + v)
		}
	}
}

func TestChain(t *testing.T) {
	require.Nil(t, Chain[fn]())
	require.Nil(t, Chain[fn](nil, nil))

	h := Chain(suffix("a"), nil, suffix("b"))
	got := h(func(s string) string { return s })("")
	require.Equal(t, "ab", got)
}
