// Package index turns profile text into embedded, searchable chunks.
package index

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// Tokenizer encodes text to token IDs and back. The production encoder is
// tiktoken's cl100k_base, the vocabulary the embedding models use.
type Tokenizer interface {
	Encode(text string) []int
	Decode(tokens []int) string
}

type tiktokenTokenizer struct {
	enc *tiktoken.Tiktoken
}

// NewTokenizer returns a cl100k_base tokenizer.
func NewTokenizer() (Tokenizer, error) {
	enc, err := tiktoken.GetEncoding("cl100k_base")
	if err != nil {
		return nil, fmt.Errorf("load cl100k_base encoding: %w", err)
	}
	return &tiktokenTokenizer{enc: enc}, nil
}

func (t *tiktokenTokenizer) Encode(text string) []int {
	return t.enc.Encode(text, nil, nil)
}

func (t *tiktokenTokenizer) Decode(tokens []int) string {
	return t.enc.Decode(tokens)
}

// Chunker splits text into overlapping token windows.
type Chunker struct {
	tok       Tokenizer
	maxTokens int
	overlap   int
}

// NewChunker builds a chunker with the given window and overlap sizes.
// An overlap that is not smaller than the window degrades to no overlap.
func NewChunker(tok Tokenizer, maxTokens, overlap int) *Chunker {
	if maxTokens <= 0 {
		maxTokens = 800
	}
	if overlap < 0 || overlap >= maxTokens {
		overlap = 0
	}
	return &Chunker{tok: tok, maxTokens: maxTokens, overlap: overlap}
}

// Split returns the text's token windows in order. Consecutive windows share
// overlap tokens; the final window is emitted as soon as it reaches the end
// of the text, so no chunk is ever a strict tail-subset of the previous one.
// Empty or whitespace-only text yields nil.
func (c *Chunker) Split(text string) []string {
	tokens := c.tok.Encode(text)
	if len(tokens) == 0 {
		return nil
	}

	stride := c.maxTokens - c.overlap
	var chunks []string
	for start := 0; start < len(tokens); start += stride {
		end := start + c.maxTokens
		if end > len(tokens) {
			end = len(tokens)
		}
		chunks = append(chunks, c.tok.Decode(tokens[start:end]))
		if end == len(tokens) {
			break
		}
	}
	return chunks
}
