package analysis

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"ChatRelay/internal/transcript"
)

// Request is the payload sent to the analysis endpoint
type Request struct {
	Message string `json:"message"`
}

// payload is the parseable part of an analysis response. The endpoint owns
// the schema; anything beyond these fields is passed through untouched.
type payload struct {
	Text       string                 `json:"text"`
	Response   string                 `json:"response"`
	References []transcript.Reference `json:"references"`
}

// Result holds an analysis response both raw and parsed. Raw is the payload
// exactly as the endpoint returned it; Text and References are the parsed
// view used by chat sessions.
type Result struct {
	Raw        json.RawMessage
	Text       string
	References []transcript.Reference
}

// Parse builds a Result from a raw analysis payload. The reply text lives
// in "text" or, in older payloads, "response".
func Parse(raw []byte) (*Result, error) {
	var p payload
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	text := p.Text
	if text == "" {
		text = p.Response
	}

	return &Result{
		Raw:        json.RawMessage(raw),
		Text:       text,
		References: p.References,
	}, nil
}

// Client calls the external AI analysis endpoint
type Client struct {
	url        string
	httpClient *http.Client
	logger     *slog.Logger
	tracer     trace.Tracer
	meter      metric.Meter
}

// NewClient creates an analysis client with a bounded request timeout.
// There is no retry policy: every failure is terminal for that request.
func NewClient(url string, timeout time.Duration, logger *slog.Logger, tracer trace.Tracer, meter metric.Meter) *Client {
	return &Client{
		url:        url,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		tracer:     tracer,
		meter:      meter,
	}
}

// Analyze forwards message verbatim to the analysis endpoint and returns
// its payload
func (c *Client) Analyze(ctx context.Context, message string) (*Result, error) {
	ctx, span := c.tracer.Start(ctx, "analysis_api_call")
	defer span.End()

	start := time.Now()

	jsonData, err := json.Marshal(Request{Message: message})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("content-type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API error: %s - %s", resp.Status, string(body))
	}

	duration := time.Since(start)
	histogram, err := c.meter.Float64Histogram(
		"http.client.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(ctx, float64(duration.Milliseconds()))
	}

	result, err := Parse(body)
	if err != nil {
		return nil, err
	}

	c.logger.Info("analysis call completed", "duration_ms", duration.Milliseconds(), "bytes", len(body))
	return result, nil
}
