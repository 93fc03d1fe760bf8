package generation

import (
	"context"
	"fmt"
	"strings"
)

// Mock is a deterministic generator for development and tests. It never
// calls out and never fails.
type Mock struct{}

func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Generate(_ context.Context, req Request) (*Result, error) {
	name := firstLine(req.UserMessage)
	text := fmt.Sprintf("Hi%s! Thanks for your interest. We'd love to connect this week. Reply STOP to opt out.", name)

	usage := Usage{
		PromptTokens:     (len(req.SystemPrompt) + len(req.UserMessage)) / 4,
		CompletionTokens: len(text) / 4,
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens

	return &Result{
		Text:  text,
		Model: "mock",
		Usage: usage,
		Cost:  CostFor("mock", usage),
	}, nil
}

// firstLine extracts the lead name from the rendered prompt, best effort.
func firstLine(prompt string) string {
	for _, line := range strings.Split(prompt, "\n") {
		if rest, ok := strings.CutPrefix(line, "Name: "); ok {
			return " " + strings.TrimSpace(rest)
		}
	}

	return ""
}
