package util

import (
	"errors"
	"testing"

	"github.com/ValentinKolb/dht/lib/store/lstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExecLineSequence(t *testing.T) {
	s := lstore.NewLocalStore()

	steps := []struct {
		line string
		want string
	}{
		{"get foo", "nil"},
		{"set foo bar", "OK"},
		{"get foo", "bar"},
		{"set foo baz", "OK"},
		{"get foo", "baz"},
		{"del foo", "1"},
		{"del foo", "0"},
		{"get foo", "nil"},
		{"  GET   foo  ", "nil"},
		{"", ""},
	}

	for _, step := range steps {
		out, err := ExecLine(s, step.line)
		require.NoError(t, err, step.line)
		assert.Equal(t, step.want, out, step.line)
	}
}

func TestExecLineUsage(t *testing.T) {
	s := lstore.NewLocalStore()

	for _, line := range []string{"get", "get a b", "set a", "set a b c", "del", "hello", "put a b"} {
		_, err := ExecLine(s, line)
		var usage *ErrUsage
		assert.True(t, errors.As(err, &usage), "expected usage error for %q, got %v", line, err)
	}

	// failed lines do not touch the store
	assert.Equal(t, 0, s.Len())
}

func TestWrapString(t *testing.T) {
	wrapped := WrapString("a b c " + "0123456789012345678901234567890123456789012345678")
	assert.Equal(t, "a b c\n0123456789012345678901234567890123456789012345678", wrapped)
	assert.Equal(t, "", WrapString("   "))
}
