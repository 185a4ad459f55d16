package scrape_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vm16kit/internal/scrape"
)

const roomOutput = `== Foothills ==
You find yourself standing at the base of a great mountain.

Things of interest here:
- tablet
- can

There are 3 exits:
- east
- south
- north

What do you do?`

func TestParseExits(t *testing.T) {
	exits, err := scrape.ParseExits(roomOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"east", "south", "north"}, exits)
}

func TestParseItems(t *testing.T) {
	items, err := scrape.ParseItems(roomOutput)
	require.NoError(t, err)
	assert.Equal(t, []string{"tablet", "can"}, items)
}

func TestParseExitsMissing(t *testing.T) {
	_, err := scrape.ParseExits("nothing here")
	assert.ErrorIs(t, err, scrape.ErrNoExits)
}

func TestParseItemsMissing(t *testing.T) {
	_, err := scrape.ParseItems("nothing here")
	assert.ErrorIs(t, err, scrape.ErrNoItems)
}

func TestArchSpecCode(t *testing.T) {
	code, ok := scrape.ArchSpecCode("Here's a code for the challenge website: ABCD1234\nmore text")
	require.True(t, ok)
	assert.Equal(t, "ABCD1234", code)
}

func TestStartupCode(t *testing.T) {
	code, ok := scrape.StartupCode("please enter this one into the challenge website: WXYZ0000\n")
	require.True(t, ok)
	assert.Equal(t, "WXYZ0000", code)
}

func TestSelfTestCode(t *testing.T) {
	code, ok := scrape.SelfTestCode("The self-test completion code is: ST-CODE\n")
	require.True(t, ok)
	assert.Equal(t, "ST-CODE", code)
}

func TestTabletCode(t *testing.T) {
	code, ok := scrape.TabletCode(`You find yourself writing "TABLETCODE" on the tablet, which feels strange.`)
	require.True(t, ok)
	assert.Equal(t, "TABLETCODE", code)
}

func TestChiselCode(t *testing.T) {
	text := "Chiseled on the wall is an inscription\n\n    WALLCODE\nsome trailing text"
	code, ok := scrape.ChiselCode(text)
	require.True(t, ok)
	assert.Equal(t, "WALLCODE", code)
}

func TestTeleport1Code(t *testing.T) {
	text := "you think you see a pattern in the stars...\n    STARCODE\n"
	code, ok := scrape.Teleport1Code(text)
	require.True(t, ok)
	assert.Equal(t, "STARCODE", code)
}

func TestTeleport2Code(t *testing.T) {
	text := "Someone seems to have drawn a message in the sand here:\n    SANDCODE\n"
	code, ok := scrape.Teleport2Code(text)
	require.True(t, ok)
	assert.Equal(t, "SANDCODE", code)
}

func TestMirrorCode(t *testing.T) {
	text := `Through the mirror, you see "pbqpqbpqb" scrawled in charcoal on the wall.`
	raw, ok := scrape.MirrorCode(text)
	require.True(t, ok)
	assert.Equal(t, "pbqpqbpqb", raw)
	assert.Equal(t, "dpqdpqpdq", scrape.Reflect(raw))
}

func TestReflectWithMinimalVariant(t *testing.T) {
	// Input has no '2' or '5', so the minimal {d<->b, p<->q} variant agrees
	// with the default extended variant here.
	minimal := map[rune]rune{'d': 'b', 'b': 'd', 'p': 'q', 'q': 'p'}
	got := scrape.ReflectWith("pbqpqbpqb", minimal)
	assert.Equal(t, "dpqdpqpdq", got)
}

func TestReflectWithMinimalVariantLeavesDigitsUnswapped(t *testing.T) {
	minimal := map[rune]rune{'d': 'b', 'b': 'd', 'p': 'q', 'q': 'p'}
	got := scrape.ReflectWith("25", minimal)
	assert.Equal(t, "52", got, "minimal variant has no 2<->5 entry, so digits only reverse")
}
