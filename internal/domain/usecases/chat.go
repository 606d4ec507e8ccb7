// Package usecases contains application business rules.
// Usecases orchestrate entities and depend only on port interfaces.
package usecases

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/0xcro3dile/exemplar/internal/domain/entities"
	"github.com/0xcro3dile/exemplar/internal/domain/ports"
)

// DefaultReply is sent when neither a generator nor the dataset can answer.
const DefaultReply = "I'm here to help. Tell me more about what's bothering you and I'll try to help."

// ErrEmptyMessage is returned for blank chat messages.
var ErrEmptyMessage = errors.New("empty message")

// ChatUseCase answers a user message from the dataset and an optional generator.
type ChatUseCase struct {
	source       ports.DatasetSource
	generator    ports.Generator
	defaultReply string
	logger       *slog.Logger
}

// NewChatUseCase creates a ChatUseCase. generator may be nil, in which case
// replies come straight from the best matching example.
func NewChatUseCase(
	source ports.DatasetSource,
	generator ports.Generator,
	defaultReply string,
	logger *slog.Logger,
) *ChatUseCase {
	if strings.TrimSpace(defaultReply) == "" {
		defaultReply = DefaultReply
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ChatUseCase{
		source:       source,
		generator:    generator,
		defaultReply: defaultReply,
		logger:       logger,
	}
}

// GeneratorName returns the configured backend name, or "none".
func (uc *ChatUseCase) GeneratorName() string {
	if uc.generator == nil {
		return "none"
	}
	return uc.generator.Name()
}

// Policy returns the dataset load policy in use.
func (uc *ChatUseCase) Policy() string {
	return uc.source.Policy()
}

// Reply produces an answer for req.
// Order: generator (steered by the best example), then the example's own
// response, then the default reply. Generator failures never fail the call.
func (uc *ChatUseCase) Reply(ctx context.Context, req *entities.ChatRequest) (*entities.ChatResponse, error) {
	msg := strings.TrimSpace(req.Message)
	if msg == "" {
		return nil, ErrEmptyMessage
	}

	// 1. Find the closest example
	ds := uc.source.Current(ctx)
	match, found := BestMatch(msg, ds)

	resp := &entities.ChatResponse{}
	var hint *entities.Example
	if found {
		ex := match.Example
		hint = &ex
		resp.Match = hint
		resp.Score = match.Score
	}

	// 2. Ask the generator
	if uc.generator != nil {
		text, err := uc.generator.Generate(ctx, msg, hint)
		if err == nil {
			resp.Response = strings.TrimSpace(text)
			resp.Source = entities.Source(uc.generator.Name())
			return resp, nil
		}
		resp.GeneratorError = err.Error()
		uc.logger.Warn("generator failed, falling back",
			slog.String("generator", uc.generator.Name()),
			slog.String("error", err.Error()),
		)
	}

	// 3. Fall back to local data
	if found {
		resp.Response = match.Example.Response
		resp.Source = entities.SourceDataset
	} else {
		resp.Response = uc.defaultReply
		resp.Source = entities.SourceDefault
	}

	uc.logger.Debug("chat reply",
		slog.String("source", string(resp.Source)),
		slog.Int("score", resp.Score),
		slog.Int("examples", ds.Len()),
	)
	return resp, nil
}
