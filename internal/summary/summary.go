// Package summary produces a natural-language summary of a street report.
// The report context it feeds the model is byte-deterministic; only the model
// output varies.
package summary

import (
	"context"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/usrn-labs/streetwise/internal/model"
	"github.com/usrn-labs/streetwise/internal/report"
)

const systemPrompt = `You are a street-works intelligence analyst. You are given a
JSON report about one UK street identified by its USRN: regulatory designations,
land use, works history, and derived metrics. Write a concise plain-English
summary for a works planner. State unavailable metrics as unknown; never guess
values for them. Keep it under 200 words.`

// Completer is the single model operation the summariser needs. Satisfied by
// the Anthropic SDK; faked in tests.
type Completer interface {
	Complete(ctx context.Context, system, user string) (string, error)
}

// Summarizer renders a report into prompt context and asks the model for a
// summary.
type Summarizer struct {
	completer Completer
}

// New creates a Summarizer over a Completer.
func New(c Completer) *Summarizer {
	return &Summarizer{completer: c}
}

// Summarize returns a natural-language summary of the report.
func (s *Summarizer) Summarize(ctx context.Context, r *model.ExternalReport) (string, error) {
	ctxJSON, err := report.ContextJSON(r)
	if err != nil {
		return "", err
	}

	text, err := s.completer.Complete(ctx, systemPrompt, string(ctxJSON))
	if err != nil {
		return "", eris.Wrapf(err, "summary: summarise USRN %s", r.USRN)
	}
	return strings.TrimSpace(text), nil
}

// sdkCompleter backs Completer with the Anthropic messages API.
type sdkCompleter struct {
	client    sdk.Client
	model     string
	maxTokens int64
}

// NewCompleter creates the SDK-backed Completer.
func NewCompleter(apiKey, modelID string) Completer {
	if modelID == "" {
		modelID = "claude-sonnet-4-5-20250929"
	}
	return &sdkCompleter{
		client:    sdk.NewClient(option.WithAPIKey(apiKey)),
		model:     modelID,
		maxTokens: 1024,
	}
}

func (c *sdkCompleter) Complete(ctx context.Context, system, user string) (string, error) {
	msg, err := c.client.Messages.New(ctx, sdk.MessageNewParams{
		Model:     sdk.Model(c.model),
		MaxTokens: c.maxTokens,
		System:    []sdk.TextBlockParam{{Text: system}},
		Messages:  []sdk.MessageParam{sdk.NewUserMessage(sdk.NewTextBlock(user))},
	})
	if err != nil {
		return "", eris.Wrap(err, "summary: create message")
	}

	var b strings.Builder
	for _, block := range msg.Content {
		if block.Type == "text" {
			b.WriteString(block.Text)
		}
	}
	zap.L().Debug("summary generated",
		zap.String("model", string(msg.Model)),
		zap.Int64("input_tokens", msg.Usage.InputTokens),
		zap.Int64("output_tokens", msg.Usage.OutputTokens),
	)
	return b.String(), nil
}
