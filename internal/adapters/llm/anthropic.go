package llm

import (
	"context"
	"fmt"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// AnthropicGenerator implements ports.Generator with the Anthropic Messages API.
type AnthropicGenerator struct {
	client       anthropic.Client
	model        string
	systemPrompt string
	maxTokens    int64
	temperature  float64
	caller       caller
}

// NewAnthropicGenerator creates a new Anthropic generator.
// The SDK handles retries; the shared caller only applies the deadline.
func NewAnthropicGenerator(cfg Config, observer Observer) (*AnthropicGenerator, error) {
	cfg = cfg.withDefaults()
	if cfg.AnthropicAPIKey == "" {
		return nil, fmt.Errorf("%w: set ANTHROPIC_API_KEY", ErrMissingAPIKey)
	}
	if cfg.Model == "" {
		cfg.Model = "claude-3-5-haiku-latest"
	}
	if observer == nil {
		observer = NoopObserver{}
	}

	opts := []option.RequestOption{
		option.WithAPIKey(cfg.AnthropicAPIKey),
		option.WithMaxRetries(cfg.MaxRetries),
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithBaseURL(cfg.Endpoint))
	}

	c := newCaller(BackendAnthropic, cfg, observer)
	c.maxRetries = 0

	return &AnthropicGenerator{
		client:       anthropic.NewClient(opts...),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    int64(cfg.MaxTokens),
		temperature:  cfg.Temperature,
		caller:       c,
	}, nil
}

// Name returns "anthropic".
func (g *AnthropicGenerator) Name() string { return BackendAnthropic }

// systemText folds the example hint into the system prompt. A trailing
// assistant turn would be treated as the start of the reply.
func (g *AnthropicGenerator) systemText(hint *entities.Example) string {
	if hint == nil {
		return g.systemPrompt
	}
	return g.systemPrompt + "\n\n" + HintText(hint)
}

// Generate produces a reply for userText, steered by hint when present.
func (g *AnthropicGenerator) Generate(ctx context.Context, userText string, hint *entities.Example) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: g.maxTokens,
		System: []anthropic.TextBlockParam{
			{Text: g.systemText(hint)},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userText)),
		},
		Temperature: anthropic.Float(g.temperature),
	}

	return g.caller.do(ctx, func(ctx context.Context) (string, error) {
		msg, err := g.client.Messages.New(ctx, params)
		if err != nil {
			return "", fmt.Errorf("anthropic api call: %w", err)
		}

		var sb strings.Builder
		for _, block := range msg.Content {
			if block.Type == "text" {
				sb.WriteString(block.Text)
			}
		}
		return sb.String(), nil
	})
}
