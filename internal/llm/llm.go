// Package llm wraps the language-model completion API behind a small
// interface so the chat gateway can be tested without network access.
package llm

import (
	"context"
	"errors"
	"time"
)

// Role is the author of a conversation turn.
type Role string

// Conversation roles.
const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one conversation turn.
type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Request is a single completion call. The system prompt is supplied by the
// caller; model, token and temperature settings belong to the client.
type Request struct {
	System    string
	Messages  []Message
	WebSearch bool
}

// Completer produces one assistant reply.
type Completer interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// ErrEmptyResponse is returned when the model replied without any text.
var ErrEmptyResponse = errors.New("llm returned no text")

// Config holds completion client configuration.
type Config struct {
	APIKey      string
	BaseURL     string        // Optional: custom API endpoint
	Model       string        // e.g. "claude-sonnet-4-5"
	MaxTokens   int           // Defaults to 1024
	Temperature float64       // Defaults to 0.7 when zero
	Timeout     time.Duration // Upper bound for one call; defaults to 25s
	WebSearches int           // Max web searches per research call; defaults to 3
}

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "claude-sonnet-4-5"

func (c Config) withDefaults() Config {
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 1024
	}
	if c.Temperature == 0 {
		c.Temperature = 0.7
	}
	if c.Timeout <= 0 {
		c.Timeout = 25 * time.Second
	}
	if c.WebSearches <= 0 {
		c.WebSearches = 3
	}
	return c
}
