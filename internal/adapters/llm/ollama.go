package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
)

// OllamaGenerator implements ports.Generator using the Ollama chat API.
type OllamaGenerator struct {
	baseURL      string
	model        string
	systemPrompt string
	options      ollamaOptions
	client       *http.Client
	caller       caller
}

// NewOllamaGenerator creates a new Ollama generator.
func NewOllamaGenerator(cfg Config, observer Observer) *OllamaGenerator {
	cfg = cfg.withDefaults()
	if cfg.Endpoint == "" {
		cfg.Endpoint = "http://localhost:11434"
	}
	if cfg.Model == "" {
		cfg.Model = "llama3.2"
	}
	if observer == nil {
		observer = NoopObserver{}
	}
	return &OllamaGenerator{
		baseURL:      strings.TrimRight(cfg.Endpoint, "/"),
		model:        cfg.Model,
		systemPrompt: cfg.SystemPrompt,
		options: ollamaOptions{
			Temperature: cfg.Temperature,
			NumPredict:  cfg.MaxTokens,
		},
		client: &http.Client{
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout: 5 * time.Second,
				}).DialContext,
			},
		},
		caller: newCaller(BackendOllama, cfg, observer),
	}
}

// Name returns "ollama".
func (g *OllamaGenerator) Name() string { return BackendOllama }

// ollamaChatRequest is the JSON body sent to POST /api/chat.
type ollamaChatRequest struct {
	Model    string        `json:"model"`
	Messages []Message     `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

// ollamaChatResponse is the JSON body returned by POST /api/chat (non-streaming).
type ollamaChatResponse struct {
	Model   string  `json:"model"`
	Message Message `json:"message"`
	Done    bool    `json:"done"`
}

// Generate produces a reply for userText, steered by hint when present.
func (g *OllamaGenerator) Generate(ctx context.Context, userText string, hint *entities.Example) (string, error) {
	body := ollamaChatRequest{
		Model:    g.model,
		Messages: BuildMessages(g.systemPrompt, userText, hint),
		Stream:   false,
		Options:  g.options,
	}
	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	return g.caller.do(ctx, func(ctx context.Context) (string, error) {
		return g.doRequest(ctx, jsonData)
	})
}

func (g *OllamaGenerator) doRequest(ctx context.Context, jsonData []byte) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("calling Ollama: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return "", newStatusError(BackendOllama, resp, respBody)
	}

	var chatResp ollamaChatResponse
	if err := json.Unmarshal(respBody, &chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}
	return chatResp.Message.Content, nil
}

// Available checks whether the Ollama server is reachable.
func (g *OllamaGenerator) Available(ctx context.Context) bool {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.baseURL+"/api/tags", nil)
	if err != nil {
		return false
	}
	resp, err := g.client.Do(req)
	if err != nil {
		return false
	}
	resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
