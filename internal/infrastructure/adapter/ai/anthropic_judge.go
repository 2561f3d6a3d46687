package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"

	"command-gatekeeper/internal/domain/entity"
	"command-gatekeeper/internal/domain/port"
)

// systemPrompt pins the response format. The rendered prompt template
// carries the actual command and context.
const systemPrompt = `You judge whether shell commands are safe for an automated agent to run.
Respond with exactly one JSON object: {"safe": true or false, "reason": "one short sentence"}.
No markdown, no prose outside the JSON object.`

// judgeMaxTokens bounds the response; a verdict is one short JSON object.
const judgeMaxTokens = 256

// AnthropicJudge implements port.Judge against the Anthropic API.
type AnthropicJudge struct {
	client anthropic.Client
	model  string
}

// NewAnthropicJudge creates the API judgment strategy. The client reads
// ANTHROPIC_API_KEY from the environment.
func NewAnthropicJudge(model string) *AnthropicJudge {
	return &AnthropicJudge{
		client: anthropic.NewClient(),
		model:  model,
	}
}

var _ port.Judge = (*AnthropicJudge)(nil)

// Method identifies this strategy in decision provenance.
func (j *AnthropicJudge) Method() entity.Method {
	return entity.MethodAPI
}

// Evaluate submits the rendered prompt and parses the strict verdict.
// A deadline overrun becomes a timeout judgment; every other failure
// becomes a parse failure. Neither can resolve to Allow upstream.
func (j *AnthropicJudge) Evaluate(ctx context.Context, prompt string) entity.Judgment {
	response, err := j.client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(j.model),
		MaxTokens: int64(judgeMaxTokens),
		System:    []anthropic.TextBlockParam{{Text: systemPrompt}},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	})
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return entity.NewTimeout(fmt.Errorf("API judgment timed out: %w", err))
		}
		return entity.NewParseFailure(fmt.Errorf("API judgment failed: %w", err))
	}

	var text strings.Builder
	for _, block := range response.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}
	return ParseVerdict(text.String())
}
