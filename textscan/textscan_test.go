package textscan_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mogaika/bvh_skinning/textscan"
)

func TestTokenizePositions(t *testing.T) {
	const text = "ROOT Hips\n{\n\tOFFSET 0.00 -1.5e2 3\n}"

	tokens, err := textscan.Tokenize([]byte(text), textscan.Options{})
	require.NoError(t, err)

	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = tok.Text
	}
	assert.Equal(t, []string{"ROOT", "Hips", "{", "OFFSET", "0.00", "-1.5e2", "3", "}"}, words)

	assert.Equal(t, 1, tokens[0].Line)
	assert.Equal(t, 1, tokens[0].Column)
	assert.Equal(t, 3, tokens[3].Line)
	assert.Equal(t, 2, tokens[3].Column)
	assert.Equal(t, 4, tokens[7].Line)
}

func TestScannerLines(t *testing.T) {
	const text = `# header comment
vertex a b   # trailing

0 1 0
1 0.5 0.5
`
	s, err := textscan.NewScanner([]byte(text), textscan.Options{Newlines: true, Comments: true})
	require.NoError(t, err)

	var lines [][]string
	for line, ok := s.Line(); ok; line, ok = s.Line() {
		words := make([]string, len(line))
		for i, tok := range line {
			words[i] = tok.Text
		}
		lines = append(lines, words)
	}

	assert.Equal(t, [][]string{
		{"vertex", "a", "b"},
		{"0", "1", "0"},
		{"1", "0.5", "0.5"},
	}, lines)
	assert.Equal(t, 0, s.Remaining())
}

func TestScannerNextAtEnd(t *testing.T) {
	s, err := textscan.NewScanner([]byte("one two"), textscan.Options{})
	require.NoError(t, err)

	tok, ok := s.Next()
	require.True(t, ok)
	assert.Equal(t, "one", tok.Text)

	peek, ok := s.Peek()
	require.True(t, ok)
	assert.Equal(t, "two", peek.Text)

	s.Next()
	last, ok := s.Next()
	assert.False(t, ok)
	assert.Equal(t, "two", last.Text)
	assert.Equal(t, 5, last.Column)
}
