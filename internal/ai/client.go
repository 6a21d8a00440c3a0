// Package ai wraps the OpenAI embedding and chat models used for indexing
// and for answering questions over retrieved profile context.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.uber.org/zap"
)

const chatSystemPrompt = "You are a staff directory assistant. Answer only using the provided context. " +
	"Return a single JSON object with keys: summary (string), people (array). " +
	"The summary must be short plain text in one brief paragraph. " +
	"Do not use markdown, headings, bullets, numbering, or labels. " +
	"Set people to an empty array in all responses. " +
	"If the answer is not in the context, set summary to " +
	"\"I cannot find that in the staff profiles.\" and people to an empty array. " +
	"Output JSON only."

// NoAnswer is the summary returned when the model cannot ground an answer
// in the supplied context, and the fallback when it returns nothing usable.
const NoAnswer = "I cannot find that in the staff profiles."

// Answer is the structured chat response.
type Answer struct {
	Summary string   `json:"summary"`
	People  []string `json:"people"`
}

// Config carries the OpenAI credentials and model names.
type Config struct {
	APIKey     string
	EmbedModel string
	ChatModel  string
}

// Client talks to the OpenAI embedding and chat endpoints.
type Client struct {
	embedder embeddings.Embedder
	chat     llms.Model
	logger   *zap.Logger
}

// NewClient builds a client for the configured embedding and chat models.
func NewClient(cfg Config, logger *zap.Logger) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("openai api key is not set")
	}

	embedClient, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithEmbeddingModel(cfg.EmbedModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create embedding client: %w", err)
	}
	embedder, err := embeddings.NewEmbedder(embedClient, embeddings.WithStripNewLines(true))
	if err != nil {
		return nil, fmt.Errorf("wrap embedder: %w", err)
	}

	chatClient, err := openai.New(
		openai.WithToken(cfg.APIKey),
		openai.WithModel(cfg.ChatModel),
	)
	if err != nil {
		return nil, fmt.Errorf("create chat client: %w", err)
	}

	return &Client{embedder: embedder, chat: chatClient, logger: logger}, nil
}

// EmbedTexts returns one vector per input text, in input order.
func (c *Client) EmbedTexts(ctx context.Context, texts []string) ([][]float32, error) {
	vectors, err := c.embedder.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embed %d texts: got %d vectors", len(texts), len(vectors))
	}
	return vectors, nil
}

// ChatWithContext asks the chat model the question over the retrieved
// context blocks and returns its structured answer. A response that is not
// valid JSON is folded into the summary rather than surfaced as an error.
func (c *Client) ChatWithContext(ctx context.Context, question string, contextBlocks []string) (Answer, error) {
	user := fmt.Sprintf("Question: %s\n\nContext:\n%s", question, strings.Join(contextBlocks, "\n\n"))

	content := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, chatSystemPrompt),
		llms.TextParts(llms.ChatMessageTypeHuman, user),
	}

	response, err := c.chat.GenerateContent(ctx, content,
		llms.WithTemperature(0.2),
		llms.WithJSONMode(),
	)
	if err != nil {
		return Answer{}, fmt.Errorf("generate answer: %w", err)
	}
	if len(response.Choices) == 0 {
		return Answer{Summary: NoAnswer, People: []string{}}, nil
	}

	return ParseAnswer(response.Choices[0].Content), nil
}

// ParseAnswer decodes the model's JSON output. Malformed output becomes the
// summary verbatim; empty output becomes the no-answer summary. People is
// never nil so the response always serializes as an array.
func ParseAnswer(raw string) Answer {
	raw = strings.TrimSpace(raw)

	var ans Answer
	if err := json.Unmarshal([]byte(raw), &ans); err != nil {
		summary := raw
		if summary == "" {
			summary = NoAnswer
		}
		return Answer{Summary: summary, People: []string{}}
	}
	if ans.People == nil {
		ans.People = []string{}
	}
	if ans.Summary == "" {
		ans.Summary = NoAnswer
	}
	return ans
}
