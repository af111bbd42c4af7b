package relay

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// Error bodies are fixed strings: downstream detail is logged server-side
// and never leaks to the caller.
const (
	msgMissingMessage = "Message is required"
	msgInternalError  = "Failed to process request"
)

// Handler exposes the relay pipeline over HTTP
type Handler struct {
	pipeline *Pipeline
	logger   *slog.Logger
	meter    metric.Meter
}

// NewHandler creates the HTTP handler for the relay endpoints
func NewHandler(pipeline *Pipeline, logger *slog.Logger, meter metric.Meter) *Handler {
	return &Handler{
		pipeline: pipeline,
		logger:   logger,
		meter:    meter,
	}
}

// Register attaches the relay routes to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/chat", h.handleChat)
	mux.HandleFunc("GET /health", h.handleHealth)
}

type chatRequest struct {
	Message string `json:"message"`
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Message) == "" {
		writeError(w, http.StatusBadRequest, msgMissingMessage)
		return
	}

	result, err := h.pipeline.Process(r.Context(), req.Message)
	if err != nil {
		h.logger.Error("failed to process chat request", "error", err)
		writeError(w, http.StatusInternalServerError, msgInternalError)
		return
	}

	// the analysis payload passes through unmodified
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(result.Raw); err != nil {
		h.logger.Warn("failed to write response", "error", err)
	}

	duration := time.Since(start)
	histogram, err := h.meter.Float64Histogram(
		"http.server.request.duration",
		metric.WithDescription("HTTP request duration in milliseconds"),
	)
	if err == nil {
		histogram.Record(r.Context(), float64(duration.Milliseconds()))
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "backend",
	})
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
