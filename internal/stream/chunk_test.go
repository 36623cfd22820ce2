package stream

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

var roundTripInputs = []string{
	"Hi there",
	"  leading whitespace",
	"trailing whitespace \n\n",
	"tabs\tand\r\nCRLF lines",
	"multiple   spaces    between",
	"unicode: héllo wörld 你好 世界 🚀 done",
	" non-breaking em space",
	"x",
	" ",
	"invalid \xff\xfe bytes",
	"```go\nfunc main() {\n\tprintln(\"hi\")\n}\n```",
}

func TestSplitRoundTrip(t *testing.T) {
	for _, mode := range []Chunking{ChunkWord, ChunkRune} {
		for _, in := range roundTripInputs {
			units := Split(in, mode)
			assert.Equal(t, in, strings.Join(units, ""), "mode=%s input=%q", mode, in)
			for _, u := range units {
				assert.NotEmpty(t, u, "mode=%s input=%q", mode, in)
			}
		}
	}
}

func TestSplitWord(t *testing.T) {
	assert.Equal(t, []string{"Hi ", "there"}, Split("Hi there", ChunkWord))
	assert.Equal(t, []string{"  ", "lead ", "space"}, Split("  lead space", ChunkWord))
	assert.Equal(t, []string{"a\n\n", "b  "}, Split("a\n\nb  ", ChunkWord))
	assert.Nil(t, Split("", ChunkWord))
}

func TestSplitRune(t *testing.T) {
	assert.Equal(t, []string{"你", "好", "!"}, Split("你好!", ChunkRune))
	assert.Nil(t, Split("", ChunkRune))
}

func TestParseChunking(t *testing.T) {
	c, err := ParseChunking("rune")
	assert.NoError(t, err)
	assert.Equal(t, ChunkRune, c)

	_, err = ParseChunking("sentence")
	assert.Error(t, err)
}

func TestSplitRuneInvalidBytes(t *testing.T) {
	units := Split("a\xffb", ChunkRune)
	assert.Equal(t, []string{"a", "\xff", "b"}, units)

	// the unit survives splitting but not JSON encoding
	line, err := Encode(TextDelta(units[1]))
	assert.NoError(t, err)
	f, err := Decode(line)
	assert.NoError(t, err)
	assert.Equal(t, "�", f.Text)
}
