package relay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel/trace"

	"ChatRelay/internal/analysis"
)

// Analyzer forwards a message to the AI analysis endpoint
type Analyzer interface {
	Analyze(ctx context.Context, message string) (*analysis.Result, error)
}

// ExchangeWriter persists one chat exchange
type ExchangeWriter interface {
	SaveExchange(ctx context.Context, message string, response json.RawMessage) error
}

// Pipeline is the relay core: forward the message to the analysis endpoint,
// persist the exchange, hand the payload back. It is stateless and safe for
// concurrent use; each call is independent and nothing is retried.
//
// The log write is on the request path: if it fails the whole exchange
// fails, even though the analysis call already succeeded. That mirrors the
// deployed behavior and is kept intentionally (see DESIGN.md).
type Pipeline struct {
	analyzer Analyzer
	store    ExchangeWriter
	logger   *slog.Logger
	tracer   trace.Tracer
}

// NewPipeline creates a relay pipeline
func NewPipeline(analyzer Analyzer, store ExchangeWriter, logger *slog.Logger, tracer trace.Tracer) *Pipeline {
	return &Pipeline{
		analyzer: analyzer,
		store:    store,
		logger:   logger,
		tracer:   tracer,
	}
}

// Process runs one message through analyze-then-persist and returns the
// analysis payload. The message must already be validated as non-empty.
func (p *Pipeline) Process(ctx context.Context, message string) (*analysis.Result, error) {
	ctx, span := p.tracer.Start(ctx, "process_message")
	defer span.End()

	result, err := p.analyzer.Analyze(ctx, message)
	if err != nil {
		return nil, fmt.Errorf("analysis call failed: %w", err)
	}

	if err := p.store.SaveExchange(ctx, message, result.Raw); err != nil {
		return nil, fmt.Errorf("failed to persist exchange: %w", err)
	}

	p.logger.Info("exchange processed", "message_len", len(message), "response_len", len(result.Raw))
	return result, nil
}
