package speech

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/techinnovate/receptionist/backend/internal/service/transcribe"
	"github.com/techinnovate/receptionist/backend/pkg/utils"
)

// Transcriber converts uploaded audio into text.
type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (*transcribe.Result, error)
}

// Synthesizer renders text as MP3 audio.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

// Handler serves the standalone speech endpoints.
type Handler struct {
	transcriber Transcriber
	synthesizer Synthesizer
}

// New creates the speech handler. Either dependency may be nil when its
// upstream is not configured; the matching endpoint then fails per
// request.
func New(transcriber Transcriber, synthesizer Synthesizer) *Handler {
	return &Handler{transcriber: transcriber, synthesizer: synthesizer}
}

// RegisterRoutes mounts the speech endpoints.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/speech-to-text", h.handleSpeechToText)
	r.Post("/text-to-speech", h.handleTextToSpeech)
}

func (h *Handler) handleSpeechToText(w http.ResponseWriter, r *http.Request) {
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

	if h.transcriber == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Speech-to-text error: client not configured")
		return
	}

	result, err := h.transcriber.Transcribe(r.Context(), audio, InferAudioFormat(header.Filename))
	if err != nil {
		if errors.Is(err, transcribe.ErrNoSpeech) {
			utils.RespondError(w, http.StatusBadRequest, "No speech detected")
			return
		}
		log.Printf("[speech] transcription error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Speech-to-text error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) handleTextToSpeech(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		Text         string `json:"text"`
		LanguageCode string `json:"language_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if strings.TrimSpace(payload.Text) == "" {
		utils.RespondError(w, http.StatusBadRequest, "No text provided")
		return
	}

	if h.synthesizer == nil {
		utils.RespondError(w, http.StatusInternalServerError, "Text-to-speech error: client not configured")
		return
	}

	audio, err := h.synthesizer.Synthesize(r.Context(), payload.Text, payload.LanguageCode)
	if err != nil {
		log.Printf("[speech] synthesis error: %v", err)
		utils.RespondError(w, http.StatusInternalServerError, "Text-to-speech error: "+err.Error())
		return
	}

	utils.RespondJSON(w, http.StatusOK, map[string]string{
		"audio":  base64.StdEncoding.EncodeToString(audio),
		"format": "mp3",
	})
}

// InferAudioFormat maps an upload filename to a format hint. Browser
// MediaRecorder uploads usually arrive as .webm.
func InferAudioFormat(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".mp3":
		return "mp3"
	case ".wav":
		return "wav"
	case ".ogg":
		return "ogg"
	case ".flac":
		return "flac"
	default:
		return "webm"
	}
}
