package repl

import (
	"bytes"
	"errors"
	"io"
	"testing"

	"github.com/ValentinKolb/dht/lib/store/lstore"
	"github.com/chzyer/readline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// lines returns a readLine func that yields the given lines and then end
func lines(end error, input ...string) func() (string, error) {
	return func() (string, error) {
		if len(input) == 0 {
			return "", end
		}
		line := input[0]
		input = input[1:]
		return line, nil
	}
}

func TestLoop(t *testing.T) {
	var out, errOut bytes.Buffer
	s := lstore.NewLocalStore()

	err := Loop(lines(io.EOF,
		"get foo",
		"set foo bar",
		"get foo",
		"",
		"bogus",
		"del foo",
		"del foo",
		"get foo",
	), s, &out, &errOut)
	require.NoError(t, err)

	assert.Equal(t, "nil\nOK\nbar\n1\n0\nnil\n", out.String())
	assert.Contains(t, errOut.String(), "Error: unknown command \"bogus\"")
}

func TestLoopInterrupt(t *testing.T) {
	var out, errOut bytes.Buffer
	err := Loop(lines(readline.ErrInterrupt, "set a b"), lstore.NewLocalStore(), &out, &errOut)
	require.NoError(t, err)
	assert.Equal(t, "OK\n", out.String())
}

func TestLoopReadError(t *testing.T) {
	readErr := errors.New("terminal gone")
	var out, errOut bytes.Buffer
	err := Loop(lines(readErr), lstore.NewLocalStore(), &out, &errOut)
	assert.ErrorIs(t, err, readErr)
}

func TestHistoryFile(t *testing.T) {
	assert.Equal(t, "", historyFile("-"))
	assert.Equal(t, "/tmp/h", historyFile("/tmp/h"))
	assert.NotEqual(t, "-", historyFile(""))
}
