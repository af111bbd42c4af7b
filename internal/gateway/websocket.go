package gateway

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"ChatRelay/internal/analysis"
	"ChatRelay/internal/transcript"
)

// Processor runs one message through the relay pipeline
type Processor interface {
	Process(ctx context.Context, message string) (*analysis.Result, error)
}

// Incoming is a frame sent by the browser
type Incoming struct {
	Text string `json:"text"`
}

// Event frame types pushed to the browser. These names are the stable
// markers UI tests key on.
const (
	EventConnected = "connected"
	EventMessage   = "message"
	EventTyping    = "typing"
	EventError     = "error"
)

// Event is a frame pushed to the browser
type Event struct {
	Type      string              `json:"type"`
	SessionID string              `json:"session_id,omitempty"`
	Message   *transcript.Message `json:"message,omitempty"`
	Active    bool                `json:"active,omitempty"`
	Text      string              `json:"text,omitempty"`
}

// Handler upgrades chat connections and runs one transcript per connection.
// Frames are handled strictly in order, so each session has at most one
// request in flight; the typing event stays active for the whole window
// between submission and resolution.
type Handler struct {
	processor      Processor
	allowedOrigins map[string]bool
	logger         *slog.Logger
}

// NewHandler creates the gateway handler. An empty origin list allows all
// origins; non-browser clients with no Origin header are always allowed.
func NewHandler(processor Processor, allowedOrigins []string, logger *slog.Logger) *Handler {
	origins := make(map[string]bool)
	for _, o := range allowedOrigins {
		origins[o] = true
	}
	return &Handler{
		processor:      processor,
		allowedOrigins: origins,
		logger:         logger,
	}
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if len(h.allowedOrigins) == 0 {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return h.allowedOrigins[origin]
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: h.checkOrigin}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	if err := conn.WriteJSON(Event{Type: EventConnected, SessionID: sessionID}); err != nil {
		h.logger.Warn("failed to send connected event", "error", err)
		return
	}

	h.logger.Info("chat session connected", "session_id", sessionID)

	tr := transcript.New()
	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("websocket closed unexpectedly", "session_id", sessionID, "error", err)
			}
			return
		}

		var incoming Incoming
		if err := json.Unmarshal(raw, &incoming); err != nil {
			conn.WriteJSON(Event{
				Type: EventError,
				Text: "Invalid message format. Send JSON with a 'text' field.",
			})
			continue
		}

		if err := h.exchange(r.Context(), conn, tr, incoming.Text); err != nil {
			h.logger.Warn("failed to push frame", "session_id", sessionID, "error", err)
			return
		}
	}
}

// exchange runs one submission through the transcript and pipeline, pushing
// every resulting frame. The returned error is a write failure; pipeline
// failures are reported to the client and are not fatal to the connection.
func (h *Handler) exchange(ctx context.Context, conn *websocket.Conn, tr *transcript.Transcript, text string) error {
	userMsg, err := tr.Submit(text)
	if err != nil {
		// empty input is dropped, matching a disabled send control
		return nil
	}

	if err := conn.WriteJSON(Event{Type: EventMessage, Message: &userMsg}); err != nil {
		return err
	}
	if err := conn.WriteJSON(Event{Type: EventTyping, Active: true}); err != nil {
		return err
	}

	result, err := h.processor.Process(ctx, text)
	if err != nil {
		tr.Fail()
		h.logger.Error("failed to process message", "error", err)
		if err := conn.WriteJSON(Event{Type: EventTyping}); err != nil {
			return err
		}
		return conn.WriteJSON(Event{
			Type: EventError,
			Text: "Sorry, I'm having trouble processing your message. Please try again.",
		})
	}

	reply, err := tr.Resolve(result.Text, result.References)
	if err != nil {
		return err
	}

	if err := conn.WriteJSON(Event{Type: EventTyping}); err != nil {
		return err
	}
	return conn.WriteJSON(Event{Type: EventMessage, Message: &reply})
}
