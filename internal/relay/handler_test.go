package relay

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.opentelemetry.io/otel"

	"ChatRelay/internal/analysis"
)

type fakeAnalyzer struct {
	raw  string
	err  error
	seen []string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, message string) (*analysis.Result, error) {
	f.seen = append(f.seen, message)
	if f.err != nil {
		return nil, f.err
	}
	return analysis.Parse([]byte(f.raw))
}

type fakeWriter struct {
	err     error
	entries []string
}

func (f *fakeWriter) SaveExchange(ctx context.Context, message string, response json.RawMessage) error {
	if f.err != nil {
		return f.err
	}
	f.entries = append(f.entries, message)
	return nil
}

func newTestHandler(analyzer Analyzer, store ExchangeWriter) http.Handler {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	pipeline := NewPipeline(analyzer, store, logger, otel.Tracer("test"))
	h := NewHandler(pipeline, logger, otel.Meter("test"))
	mux := http.NewServeMux()
	h.Register(mux)
	return mux
}

func postChat(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/chat", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func TestChatSuccess(t *testing.T) {
	raw := `{"text":"Hi there","references":[{"title":"Handbook","url":"https://example.com/handbook"}]}`
	analyzer := &fakeAnalyzer{raw: raw}
	store := &fakeWriter{}

	rec := postChat(t, newTestHandler(analyzer, store), `{"message":"Hello"}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	// payload is passed through unmodified
	if rec.Body.String() != raw {
		t.Errorf("body = %s, want %s", rec.Body.String(), raw)
	}
	if len(analyzer.seen) != 1 || analyzer.seen[0] != "Hello" {
		t.Errorf("analyzer saw %v, want exactly [Hello]", analyzer.seen)
	}
	if len(store.entries) != 1 || store.entries[0] != "Hello" {
		t.Errorf("store saw %v, want exactly [Hello]", store.entries)
	}
}

func TestChatMissingMessage(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "empty message", body: `{"message":""}`},
		{name: "whitespace message", body: `{"message":"   "}`},
		{name: "not json", body: `hello`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			analyzer := &fakeAnalyzer{raw: `{}`}
			rec := postChat(t, newTestHandler(analyzer, &fakeWriter{}), tt.body)

			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400", rec.Code)
			}
			var resp map[string]string
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode body: %v", err)
			}
			if resp["error"] != "Message is required" {
				t.Errorf("error = %q, want %q", resp["error"], "Message is required")
			}
			if len(analyzer.seen) != 0 {
				t.Errorf("analyzer was called %d times, want 0", len(analyzer.seen))
			}
		})
	}
}

func TestChatAnalyzerFailure(t *testing.T) {
	analyzer := &fakeAnalyzer{err: errors.New("connection refused")}
	store := &fakeWriter{}

	rec := postChat(t, newTestHandler(analyzer, store), `{"message":"Hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["error"] != "Failed to process request" {
		t.Errorf("error = %q, want %q", resp["error"], "Failed to process request")
	}
	// no detail leaks
	if strings.Contains(rec.Body.String(), "connection refused") {
		t.Error("downstream detail leaked to the caller")
	}
	if len(store.entries) != 0 {
		t.Errorf("store saw %v, want nothing", store.entries)
	}
}

func TestChatStoreFailure(t *testing.T) {
	// the analysis call succeeds but the exchange is not returned: the log
	// write sits on the request path
	analyzer := &fakeAnalyzer{raw: `{"text":"Hi there"}`}
	store := &fakeWriter{err: errors.New("disk full")}

	rec := postChat(t, newTestHandler(analyzer, store), `{"message":"Hello"}`)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode body: %v", err)
	}
	if resp["error"] != "Failed to process request" {
		t.Errorf("error = %q, want %q", resp["error"], "Failed to process request")
	}
	if strings.Contains(rec.Body.String(), "Hi there") {
		t.Error("success payload leaked despite persistence failure")
	}
	if len(analyzer.seen) != 1 {
		t.Errorf("analyzer was called %d times, want 1", len(analyzer.seen))
	}
}

func TestHealthIdempotent(t *testing.T) {
	handler := newTestHandler(&fakeAnalyzer{raw: `{}`}, &fakeWriter{})

	var first string
	for i := 0; i < 3; i++ {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want 200", rec.Code)
		}
		var resp map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("failed to decode body: %v", err)
		}
		if resp["status"] != "healthy" || resp["service"] != "backend" {
			t.Errorf("body = %v, want status=healthy service=backend", resp)
		}
		if i == 0 {
			first = rec.Body.String()
		} else if rec.Body.String() != first {
			t.Errorf("health response changed between calls: %q vs %q", first, rec.Body.String())
		}
	}
}
