package avatar

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	avatarsvc "github.com/techinnovate/receptionist/backend/internal/service/avatar"
	"github.com/techinnovate/receptionist/backend/pkg/utils"
)

// RenderService is the avatar rendering stage as seen by HTTP handlers.
type RenderService interface {
	Submit(ctx context.Context, audio []byte) (string, error)
	CheckStatus(ctx context.Context, talkID string) (*avatarsvc.Status, error)
	WaitForVideo(ctx context.Context, talkID string) (*avatarsvc.Status, error)
}

// Handler serves avatar video creation and status polling.
type Handler struct {
	renderer RenderService
}

// New creates the avatar handler.
func New(renderer RenderService) *Handler {
	return &Handler{renderer: renderer}
}

// RegisterRoutes mounts the avatar endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create-avatar-video", h.handleCreateVideo)
	r.Get("/check-video-status/{talkID}", h.handleCheckStatus)
}

// handleCreateVideo submits a render job and waits for it within the
// fixed polling budget. Exhausting the budget returns 200 with a
// processing status so the front-end can keep polling on its own.
func (h *Handler) handleCreateVideo(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		AudioBase64 string `json:"audio_base64"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if payload.AudioBase64 == "" {
		utils.RespondError(w, http.StatusBadRequest, "No audio provided")
		return
	}

	audio, err := base64.StdEncoding.DecodeString(payload.AudioBase64)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid base64 audio")
		return
	}

	if h.renderer == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Avatar video creation error: client not configured")
		return
	}

	talkID, err := h.renderer.Submit(r.Context(), audio)
	if err != nil {
		log.Printf("[avatar] submit error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Avatar video creation error: "+err.Error())
		return
	}

	status, err := h.renderer.WaitForVideo(r.Context(), talkID)
	if err != nil {
		log.Printf("[avatar] wait error for talk=%s: %v", talkID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Avatar video error: "+err.Error())
		return
	}

	switch status.State {
	case avatarsvc.StateCompleted:
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":    "completed",
			"video_url": status.VideoURL,
			"talk_id":   talkID,
		})
	case avatarsvc.StateError:
		utils.RespondError(w, http.StatusInternalServerError, "Video generation failed")
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "processing",
			"talk_id": talkID,
			"message": "Video is still being generated",
		})
	}
}

func (h *Handler) handleCheckStatus(w http.ResponseWriter, r *http.Request) {
	talkID := chi.URLParam(r, "talkID")

	if h.renderer == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Status check error: client not configured")
		return
	}

	status, err := h.renderer.CheckStatus(r.Context(), talkID)
	if err != nil {
		log.Printf("[avatar] status check error for talk=%s: %v", talkID, err)
		utils.RespondError(w, http.StatusInternalServerError, "Status check error: "+err.Error())
		return
	}

	switch status.State {
	case avatarsvc.StateCompleted:
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":    "completed",
			"video_url": status.VideoURL,
		})
	case avatarsvc.StateError:
		utils.RespondJSON(w, http.StatusInternalServerError, map[string]string{
			"status": "error",
			"error":  "Video generation failed",
		})
	default:
		utils.RespondJSON(w, http.StatusOK, map[string]string{"status": "processing"})
	}
}
