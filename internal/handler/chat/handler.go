package chat

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/techinnovate/receptionist/backend/pkg/utils"
)

// Sessions older than this are removed by the cleanup endpoint.
const sessionMaxAge = time.Hour

// Replier produces an assistant reply within a session's context.
type Replier interface {
	Reply(ctx context.Context, sessionID, userText string) (string, error)
}

// Janitor sweeps expired sessions from the store.
type Janitor interface {
	Sweep(maxAge time.Duration) int
}

// Handler serves the text chat and session maintenance endpoints.
type Handler struct {
	replier Replier
	janitor Janitor
}

// New creates the chat handler.
func New(replier Replier, janitor Janitor) *Handler {
	return &Handler{replier: replier, janitor: janitor}
}

// RegisterRoutes mounts the chat endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/chat", h.handleChat)
	r.Post("/cleanup-sessions", h.handleCleanupSessions)
}

func (h *Handler) handleChat(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Message   string `json:"message"`
		SessionID string `json:"session_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Message) == "" {
		utils.RespondError(w, http.StatusBadRequest, "No message provided")
		return
	}

	sessionID := payload.SessionID
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	if h.replier == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Chat error: model not configured")
		return
	}

	reply, err := h.replier.Reply(r.Context(), sessionID, payload.Message)
	if err != nil {
		log.Printf("[chat] reply error for session=%s: %v", sessionID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Chat error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"response":   reply,
		"session_id": sessionID,
	})
}

func (h *Handler) handleCleanupSessions(w http.ResponseWriter, r *http.Request) {
	removed := h.janitor.Sweep(sessionMaxAge)
	log.Printf("[chat] cleanup removed %d sessions", removed)
	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("Cleaned up %d old sessions", removed),
	})
}
