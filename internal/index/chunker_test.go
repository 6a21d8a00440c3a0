package index

import (
	"fmt"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// wordTokenizer treats each whitespace-separated word as one token, which
// makes window boundaries easy to assert on.
type wordTokenizer struct{}

func (wordTokenizer) Encode(text string) []int {
	words := strings.Fields(text)
	tokens := make([]int, len(words))
	for i, w := range words {
		n, _ := strconv.Atoi(strings.TrimPrefix(w, "w"))
		tokens[i] = n
	}
	return tokens
}

func (wordTokenizer) Decode(tokens []int) string {
	words := make([]string, len(tokens))
	for i, tok := range tokens {
		words[i] = fmt.Sprintf("w%d", tok)
	}
	return strings.Join(words, " ")
}

func wordText(n int) string {
	words := make([]string, n)
	for i := range words {
		words[i] = fmt.Sprintf("w%d", i)
	}
	return strings.Join(words, " ")
}

func TestChunkerSplitCounts(t *testing.T) {
	t.Parallel()

	c := NewChunker(wordTokenizer{}, 800, 200)

	tests := []struct {
		tokens int
		chunks int
	}{
		{0, 0},
		{1, 1},
		{799, 1},
		{800, 1},
		{801, 2},
		{1400, 2},
		{1401, 3},
		{2000, 3},
		{2001, 4},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%d tokens", tt.tokens), func(t *testing.T) {
			got := c.Split(wordText(tt.tokens))
			require.Len(t, got, tt.chunks)
		})
	}
}

func TestChunkerSplitOverlap(t *testing.T) {
	t.Parallel()

	c := NewChunker(wordTokenizer{}, 10, 4)
	chunks := c.Split(wordText(16))

	require.Len(t, chunks, 2)
	require.Equal(t, "w0", strings.Fields(chunks[0])[0])
	require.Len(t, strings.Fields(chunks[0]), 10)

	// Second window starts at stride 6 and runs to the end.
	second := strings.Fields(chunks[1])
	require.Equal(t, "w6", second[0])
	require.Equal(t, "w15", second[len(second)-1])
}

func TestChunkerFinalWindowNotStrictTail(t *testing.T) {
	t.Parallel()

	// With exactly window-sized text there is a single chunk; the loop must
	// not emit a second window covering only the overlap tail.
	c := NewChunker(wordTokenizer{}, 10, 4)
	require.Len(t, c.Split(wordText(10)), 1)
}

func TestChunkerDegenerateOverlap(t *testing.T) {
	t.Parallel()

	c := NewChunker(wordTokenizer{}, 10, 10)
	chunks := c.Split(wordText(25))

	// Overlap saturating the window falls back to disjoint windows.
	require.Len(t, chunks, 3)
	require.Equal(t, "w10", strings.Fields(chunks[1])[0])
}

func TestChunkerEmptyText(t *testing.T) {
	t.Parallel()

	c := NewChunker(wordTokenizer{}, 800, 200)
	require.Nil(t, c.Split(""))
	require.Nil(t, c.Split("   \n\t "))
}
