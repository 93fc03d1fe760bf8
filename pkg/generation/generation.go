// Package generation wraps the text-generation service behind a small
// interface, with an OpenAI-compatible HTTP client and a deterministic mock.
package generation

import "context"

// Usage reports token consumption for one generation call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Request is one generation call.
type Request struct {
	SystemPrompt string
	UserMessage  string
	Model        string
	Temperature  float64
}

// Result is a successful generation with its priced token usage.
type Result struct {
	Text  string
	Model string
	Usage Usage
	Cost  float64
}

// Generator produces one message per request. Implementations must honor
// context cancellation; callers bound each call with a timeout.
type Generator interface {
	Generate(ctx context.Context, req Request) (*Result, error)
}
