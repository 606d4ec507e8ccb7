package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// OpenAIGenerator implements ports.Generator against any OpenAI-compatible
// chat completions endpoint.
type OpenAIGenerator struct {
	baseURL      string
	apiKey       string
	model        string
	systemPrompt string
	maxTokens    int
	temperature  float64
	client       *http.Client
	caller       caller
}

// NewOpenAIGenerator creates a new OpenAI-compatible generator.
func NewOpenAIGenerator(cfg Config, observer Observer) (*OpenAIGenerator, error) {
	cfg = cfg.withDefaults()
	if cfg.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("%w: set OPENAI_API_KEY", ErrMissingAPIKey)
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &OpenAIGenerator{
		baseURL:      strings.TrimRight(cfg.Endpoint, "/"),
		apiKey:       cfg.OpenAIAPIKey,
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		maxTokens:    cfg.MaxTokens,
		temperature:  cfg.Temperature,
		client:       &http.Client{},
		caller:       newCaller(BackendOpenAI, cfg, observer),
	}, nil
}

// Name returns "openai".
func (g *OpenAIGenerator) Name() string { return BackendOpenAI }

type openAIChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature"`
}

type openAIChatResponse struct {
	Choices []struct {
		Message Message `json:"message"`
	} `json:"choices"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error,omitempty"`
}

// Generate produces a reply for userText, steered by hint when present.
func (g *OpenAIGenerator) Generate(ctx context.Context, userText string, hint *entities.Example) (string, error) {
	body := openAIChatRequest{
		Model:       g.model,
		Messages:    BuildMessages(g.systemPrompt, userText, hint),
		MaxTokens:   g.maxTokens,
		Temperature: g.temperature,
	}
	data, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	return g.caller.do(ctx, func(ctx context.Context) (string, error) {
		return g.doRequest(ctx, data)
	})
}

func (g *OpenAIGenerator) doRequest(ctx context.Context, data []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/chat/completions", bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling OpenAI: %w", err)
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return "", newStatusError(BackendOpenAI, resp, payload)
	}

	var out openAIChatResponse
	if err := json.Unmarshal(payload, &out); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	if out.Error != nil {
		return "", errors.New(out.Error.Message)
	}
	if len(out.Choices) == 0 {
		return "", ErrEmptyReply
	}
	return out.Choices[0].Message.Content, nil
}
