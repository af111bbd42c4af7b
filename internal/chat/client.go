package chat

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"ChatRelay/internal/analysis"
	"ChatRelay/internal/transcript"
)

// Client is one chat session against a running relay. It owns its
// transcript and allows a single in-flight submission at a time; a failed
// call leaves the transcript consistent (the user message stays, no
// assistant entry is added) so the user can resubmit.
type Client struct {
	relayURL   string
	httpClient *http.Client
	logger     *slog.Logger

	mu         sync.Mutex
	transcript *transcript.Transcript
}

// NewClient creates a chat session client. relayURL is the relay base URL,
// e.g. http://localhost:8080.
func NewClient(relayURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		relayURL:   strings.TrimRight(relayURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
		transcript: transcript.New(),
	}
}

// CanSend reports whether text could be submitted right now
func (c *Client) CanSend(text string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.CanSend(text)
}

// Send submits text to the relay and returns the assistant reply. The user
// message is appended to the transcript before the call goes out.
func (c *Client) Send(ctx context.Context, text string) (transcript.Message, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.transcript.Submit(text); err != nil {
		return transcript.Message{}, err
	}

	result, err := c.post(ctx, text)
	if err != nil {
		c.transcript.Fail()
		c.logger.Warn("relay call failed", "error", err)
		return transcript.Message{}, err
	}

	reply, err := c.transcript.Resolve(result.Text, result.References)
	if err != nil {
		return transcript.Message{}, err
	}
	return reply, nil
}

// Messages returns a copy of the session transcript
func (c *Client) Messages() []transcript.Message {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.transcript.Messages()
}

type relayError struct {
	Error string `json:"error"`
}

func (c *Client) post(ctx context.Context, text string) (*analysis.Result, error) {
	jsonData, err := json.Marshal(map[string]string{"message": text})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", c.relayURL+"/api/chat", bytes.NewBuffer(jsonData))
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
		var relayErr relayError
		if err := json.Unmarshal(body, &relayErr); err == nil && relayErr.Error != "" {
			return nil, fmt.Errorf("relay error: %s", relayErr.Error)
		}
		return nil, fmt.Errorf("relay error: %s", resp.Status)
	}

	return analysis.Parse(body)
}
