package core

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultOpenAITimeout = 60 * time.Second

	// Sampling tuned for varied, non-repetitive suggestions.
	suggestionTemperature      = 0.75
	suggestionMaxTokens        = 350
	suggestionFrequencyPenalty = 0.1
	suggestionPresencePenalty  = 0.1
)

// OpenAIGenerator calls an OpenAI-compatible chat completion endpoint.
type OpenAIGenerator struct {
	client  *openai.Client
	model   string
	timeout time.Duration
}

// NewOpenAIGenerator builds a generator for the given model. baseURL may be
// empty for the hosted OpenAI API, or point at any compatible endpoint.
func NewOpenAIGenerator(apiKey, baseURL, model string) *OpenAIGenerator {
	clientConfig := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		clientConfig.BaseURL = baseURL
	}

	return &OpenAIGenerator{
		client:  openai.NewClientWithConfig(clientConfig),
		model:   model,
		timeout: defaultOpenAITimeout,
	}
}

func (g *OpenAIGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	req := openai.ChatCompletionRequest{
		Model:            g.model,
		Messages:         toOpenAIMessages(messages),
		Temperature:      suggestionTemperature,
		MaxTokens:        suggestionMaxTokens,
		TopP:             1,
		FrequencyPenalty: suggestionFrequencyPenalty,
		PresencePenalty:  suggestionPresencePenalty,
	}

	resp, err := g.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("chat completion request failed: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices in completion response")
	}

	content := strings.TrimSpace(resp.Choices[0].Message.Content)
	if content == "" {
		log.Println("Completion response contained an empty message")
		return "", fmt.Errorf("empty content in completion response")
	}
	return content, nil
}

func toOpenAIMessages(messages []Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(messages))
	for _, msg := range messages {
		out = append(out, openai.ChatCompletionMessage{
			Role:    msg.Role,
			Content: msg.Content,
		})
	}
	return out
}
