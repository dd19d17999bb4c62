package flow

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"

	speechhandler "github.com/techinnovate/receptionist/backend/internal/handler/speech"
	flowsvc "github.com/techinnovate/receptionist/backend/internal/service/flow"
	"github.com/techinnovate/receptionist/backend/internal/service/transcribe"
	"github.com/techinnovate/receptionist/backend/pkg/utils"
)

// Pipeline runs the end-to-end voice interaction.
type Pipeline interface {
	Run(ctx context.Context, audio []byte, format, sessionID string) (*flowsvc.Result, error)
}

// Handler serves the single-call pipeline endpoint.
type Handler struct {
	pipeline Pipeline
}

// New creates the flow handler. A nil pipeline means one or more
// upstream services are unconfigured; the endpoint then fails per
// request.
func New(pipeline Pipeline) *Handler {
	return &Handler{pipeline: pipeline}
}

// RegisterRoutes mounts the complete-flow endpoint.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/complete-flow", h.handleCompleteFlow)
}

func (h *Handler) handleCompleteFlow(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	if r.MultipartForm != nil {
		defer r.MultipartForm.RemoveAll()
	}

	file, header, err := r.FormFile("audio")
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "No audio file provided")
		return
	}
	defer file.Close()

	audio, err := io.ReadAll(file)
	if err != nil {
		utils.RespondError(w, http.StatusBadRequest, "failed to read audio upload")
		return
	}

	if h.pipeline == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Complete flow error: pipeline not configured")
		return
	}

	sessionID := r.FormValue("session_id")
	format := speechhandler.InferAudioFormat(header.Filename)

	result, err := h.pipeline.Run(r.Context(), audio, format, sessionID)
	if err != nil {
		if errors.Is(err, transcribe.ErrNoSpeech) {
			utils.RespondError(w, http.StatusBadRequest, "No speech detected")
			return
		}
		log.Printf("[flow] pipeline error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Complete flow error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"session_id":     result.SessionID,
		"user_text":      result.UserText,
		"assistant_text": result.AssistantText,
		"audio_base64":   base64.StdEncoding.EncodeToString(result.Audio),
		"talk_id":        result.TalkID,
		"status":         "processing",
	})
}
