package core

import "context"

// Message roles understood by the suggestion generators.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is one role-tagged turn of an assembled prompt.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Generator produces free-text suggestions from an ordered prompt. The
// prompt always starts with a system message and ends with a user message.
type Generator interface {
	Generate(ctx context.Context, messages []Message) (string, error)
}
