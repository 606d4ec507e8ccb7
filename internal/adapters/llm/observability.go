package llm

import (
	"log/slog"
)

// CallEvent records metadata about a single generator invocation.
type CallEvent struct {
	Backend   string
	Model     string
	Attempts  int
	LatencyMs int64
	Success   bool
	ErrorCode string
}

// Observer receives events about generator calls for logging and metrics.
type Observer interface {
	OnCallComplete(event CallEvent)
}

// SlogObserver writes call events to a structured logger.
type SlogObserver struct {
	logger *slog.Logger
}

// NewSlogObserver creates an Observer that logs events to logger.
func NewSlogObserver(logger *slog.Logger) *SlogObserver {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogObserver{logger: logger}
}

func (o *SlogObserver) OnCallComplete(event CallEvent) {
	status := "ok"
	if !event.Success {
		status = "err:" + event.ErrorCode
	}
	o.logger.Info("llm call",
		slog.String("backend", event.Backend),
		slog.String("model", event.Model),
		slog.Int("attempts", event.Attempts),
		slog.Int64("latency_ms", event.LatencyMs),
		slog.String("status", status),
	)
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnCallComplete(CallEvent) {}
