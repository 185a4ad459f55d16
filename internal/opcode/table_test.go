package opcode_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/opcode"
)

const sampleSpec = `
Architecture spec for the 16-bit VM.

halt: 0
set: 1 a b
push: 2 a
add: 9 a b c

Here's a code for the challenge website: AbC123
`

func TestParseArchSpec(t *testing.T) {
	table, code, err := opcode.ParseArchSpec(strings.NewReader(sampleSpec))
	require.NoError(t, err)
	assert.Equal(t, "AbC123", code)

	e, ok := table.ByID(0)
	require.True(t, ok)
	assert.Equal(t, opcode.Entry{Name: "halt", ID: 0, Arity: 0}, e)

	e, ok = table.ByName("set")
	require.True(t, ok)
	assert.Equal(t, 2, e.Arity)

	e, ok = table.ByID(9)
	require.True(t, ok)
	assert.Equal(t, 3, e.Arity)
	assert.Equal(t, 9, table.MaxID())

	_, ok = table.ByID(99)
	assert.False(t, ok)
}

func TestParseArchSpecNoCode(t *testing.T) {
	_, code, err := opcode.ParseArchSpec(strings.NewReader("halt: 0\n"))
	require.NoError(t, err)
	assert.Empty(t, code)
}
