package admin

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"ChatRelay/internal/logstore"
)

const defaultConversationLimit = 50

// Handler exposes the dashboard CRUD endpoints. It is thin glue over the
// store; authentication sits in front of it, outside this service.
type Handler struct {
	store  logstore.Store
	logger *slog.Logger
}

// NewHandler creates the admin API handler
func NewHandler(store logstore.Store, logger *slog.Logger) *Handler {
	return &Handler{store: store, logger: logger}
}

// Register attaches the admin routes to mux
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /api/admin/conversations", h.listConversations)
	mux.HandleFunc("GET /api/admin/documents", h.listDocuments)
	mux.HandleFunc("POST /api/admin/documents", h.createDocument)
	mux.HandleFunc("DELETE /api/admin/documents/{id}", h.deleteDocument)
	mux.HandleFunc("GET /api/admin/users", h.listUsers)
	mux.HandleFunc("POST /api/admin/users", h.createUser)
	mux.HandleFunc("DELETE /api/admin/users/{id}", h.deleteUser)
}

func (h *Handler) listConversations(w http.ResponseWriter, r *http.Request) {
	limit := defaultConversationLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.store.ListExchanges(r.Context(), limit)
	if err != nil {
		h.logger.Error("failed to list conversations", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func (h *Handler) listDocuments(w http.ResponseWriter, r *http.Request) {
	docs, err := h.store.ListDocuments(r.Context())
	if err != nil {
		h.logger.Error("failed to list documents", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusOK, docs)
}

type documentRequest struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (h *Handler) createDocument(w http.ResponseWriter, r *http.Request) {
	var req documentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Title) == "" {
		writeError(w, http.StatusBadRequest, "Title is required")
		return
	}

	doc, err := h.store.CreateDocument(r.Context(), req.Title, req.URL, req.Content)
	if err != nil {
		h.logger.Error("failed to create document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusCreated, doc)
}

func (h *Handler) deleteDocument(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid document id")
		return
	}

	if err := h.store.DeleteDocument(r.Context(), id); err != nil {
		if errors.Is(err, logstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "document not found")
			return
		}
		h.logger.Error("failed to delete document", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.ListUsers(r.Context())
	if err != nil {
		h.logger.Error("failed to list users", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusOK, users)
}

type userRequest struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  string `json:"role"`
}

func (h *Handler) createUser(w http.ResponseWriter, r *http.Request) {
	var req userRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || strings.TrimSpace(req.Email) == "" {
		writeError(w, http.StatusBadRequest, "Email is required")
		return
	}

	user, err := h.store.CreateUser(r.Context(), req.Email, req.Name, req.Role)
	if err != nil {
		h.logger.Error("failed to create user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	writeJSON(w, http.StatusCreated, user)
}

func (h *Handler) deleteUser(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid user id")
		return
	}

	if err := h.store.DeleteUser(r.Context(), id); err != nil {
		if errors.Is(err, logstore.ErrNotFound) {
			writeError(w, http.StatusNotFound, "user not found")
			return
		}
		h.logger.Error("failed to delete user", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to process request")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
