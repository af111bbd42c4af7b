package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.opentelemetry.io/otel"
)

func testClient(url string) *Client {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewClient(url, 5*time.Second, logger, otel.Tracer("test"), otel.Meter("test"))
}

func TestAnalyze(t *testing.T) {
	raw := `{"text":"Hi there","references":[{"title":"Handbook","url":"https://example.com/handbook"}],"confidence":0.92}`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req Request
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Message != "Hello" {
			t.Errorf("message = %q, want %q", req.Message, "Hello")
		}
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, raw)
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Analyze(context.Background(), "Hello")
	if err != nil {
		t.Fatalf("Analyze() error = %v", err)
	}
	if result.Text != "Hi there" {
		t.Errorf("text = %q, want %q", result.Text, "Hi there")
	}
	if len(result.References) != 1 || result.References[0].Title != "Handbook" {
		t.Errorf("references = %+v, want the handbook citation", result.References)
	}
	// the payload must pass through byte for byte, extra fields included
	if string(result.Raw) != raw {
		t.Errorf("raw = %s, want %s", result.Raw, raw)
	}
}

func TestAnalyzeNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := testClient(srv.URL).Analyze(context.Background(), "Hello"); err == nil {
		t.Fatal("Analyze() error = nil, want API error")
	}
}

func TestAnalyzeUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	if _, err := testClient(srv.URL).Analyze(context.Background(), "Hello"); err == nil {
		t.Fatal("Analyze() error = nil, want transport error")
	}
}

func TestParse(t *testing.T) {
	tests := []struct {
		name     string
		raw      string
		wantText string
		wantErr  bool
	}{
		{
			name:     "text field",
			raw:      `{"text":"Hi there"}`,
			wantText: "Hi there",
		},
		{
			name:     "legacy response field",
			raw:      `{"response":"Hi there"}`,
			wantText: "Hi there",
		},
		{
			name:     "text wins over response",
			raw:      `{"text":"a","response":"b"}`,
			wantText: "a",
		},
		{
			name:    "not json",
			raw:     `<!doctype html>`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := Parse([]byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("Parse() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			if result.Text != tt.wantText {
				t.Errorf("text = %q, want %q", result.Text, tt.wantText)
			}
		})
	}
}
