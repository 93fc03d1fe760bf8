// Package generate implements the creative message generation node.
package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/getleadpipe/leadpipe/pkg/engine"
	"github.com/getleadpipe/leadpipe/pkg/generation"
	"github.com/getleadpipe/leadpipe/pkg/models"
)

const defaultTimeout = 30 * time.Second

// GenerateNode drafts the outreach message for a lead using the campaign's
// creative agent config. The rendered prompt and the model reply are appended
// to the transcript tagged with the creative role.
type GenerateNode struct {
	generator      generation.Generator
	promptTemplate string
	timeout        time.Duration
	logger         *slog.Logger
}

func NewGenerateNode(generator generation.Generator, config map[string]any) (*GenerateNode, error) {
	if generator == nil {
		return nil, errors.New("generator is required")
	}

	node := &GenerateNode{
		generator:      generator,
		promptTemplate: generation.DefaultPromptTemplate,
		timeout:        defaultTimeout,
		logger:         slog.Default().With("module", "node", "node_type", "generate"),
	}

	if tmpl, ok := config["prompt_template"].(string); ok && tmpl != "" {
		node.promptTemplate = tmpl
	}

	if seconds, ok := config["timeout_seconds"].(float64); ok {
		if seconds <= 0 {
			return nil, fmt.Errorf("invalid timeout_seconds %v", seconds)
		}

		node.timeout = time.Duration(seconds * float64(time.Second))
	}

	return node, nil
}

func (n *GenerateNode) Type() string {
	return "generate"
}

func (n *GenerateNode) Run(ctx context.Context, state *models.ExecutionState) error {
	if state.Validated() && !state.ValidationPassed() {
		state.AppendLog(models.LogLevelInfo, n.Type(), "skipped: lead failed validation", nil)

		return nil
	}

	config := state.Roles.CreativeConfig()
	if config == nil {
		return engine.NewGenerationError("", "", errors.New("campaign has no creative agent config"))
	}

	model := config.Model
	if model == "" {
		model = generation.DefaultModel
	}

	prompt, err := generation.RenderPrompt(n.promptTemplate, state.Lead)
	if err != nil {
		return engine.NewGenerationError(config.Role, model, err)
	}

	state.AppendLog(models.LogLevelInfo, n.Type(), "generation started", map[string]any{"model": model})

	callCtx, cancel := context.WithTimeout(ctx, n.timeout)
	defer cancel()

	result, err := n.generator.Generate(callCtx, generation.Request{
		SystemPrompt: config.SystemPrompt,
		UserMessage:  prompt,
		Model:        model,
		Temperature:  config.Temperature,
	})
	if err != nil {
		return engine.NewGenerationError(config.Role, model, err)
	}

	state.SetMessage(result.Text)
	state.AddCost(result.Cost)

	state.AppendTranscript(models.TranscriptEntry{
		Role:      models.MessageRoleSystem,
		AgentRole: config.Role,
		Content:   config.SystemPrompt,
		Metadata:  map[string]any{"prompt": prompt},
	})
	state.AppendTranscript(models.TranscriptEntry{
		Role:      models.MessageRoleAssistant,
		AgentRole: config.Role,
		Content:   result.Text,
		Metadata: map[string]any{
			"model":        result.Model,
			"total_tokens": result.Usage.TotalTokens,
			"cost":         result.Cost,
		},
	})

	state.AppendLog(models.LogLevelInfo, n.Type(), "generation finished", map[string]any{
		"model":        result.Model,
		"total_tokens": result.Usage.TotalTokens,
		"cost":         result.Cost,
	})
	n.logger.DebugContext(ctx, "message generated",
		"lead_id", state.LeadID, "model", result.Model, "cost", result.Cost)

	return nil
}
