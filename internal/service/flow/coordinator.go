package flow

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/techinnovate/receptionist/backend/internal/service/transcribe"
)

// Stage interfaces keep the coordinator decoupled from concrete upstream
// clients so tests can fake each stage.

type Transcriber interface {
	Transcribe(ctx context.Context, audio []byte, format string) (*transcribe.Result, error)
}

type Replier interface {
	Reply(ctx context.Context, sessionID, userText string) (string, error)
}

type Synthesizer interface {
	Synthesize(ctx context.Context, text, languageCode string) ([]byte, error)
}

type Renderer interface {
	Submit(ctx context.Context, audio []byte) (string, error)
}

// Result aggregates one end-to-end pipeline pass. It is returned
// immediately and never stored; the render job referenced by TalkID is
// still processing when the result is produced.
type Result struct {
	SessionID     string
	UserText      string
	AssistantText string
	Audio         []byte
	TalkID        string
}

// Coordinator runs the voice pipeline stages strictly in order:
// transcribe, reply, synthesize, submit render job.
type Coordinator struct {
	transcriber Transcriber
	replier     Replier
	synthesizer Synthesizer
	renderer    Renderer
}

// NewCoordinator wires the four pipeline stages.
func NewCoordinator(transcriber Transcriber, replier Replier, synthesizer Synthesizer, renderer Renderer) *Coordinator {
	return &Coordinator{
		transcriber: transcriber,
		replier:     replier,
		synthesizer: synthesizer,
		renderer:    renderer,
	}
}

// Run executes the full pipeline for one utterance. The render job is
// submitted fire-and-return: the caller polls its status separately.
// Any stage failure aborts the remaining stages with a stage-qualified
// error and no partial result.
func (c *Coordinator) Run(ctx context.Context, audio []byte, format, sessionID string) (*Result, error) {
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	transcript, err := c.transcriber.Transcribe(ctx, audio, format)
	if err != nil {
		return nil, fmt.Errorf("speech-to-text: %w", err)
	}

	assistantText, err := c.replier.Reply(ctx, sessionID, transcript.Text)
	if err != nil {
		return nil, fmt.Errorf("chat: %w", err)
	}

	replyAudio, err := c.synthesizer.Synthesize(ctx, assistantText, "")
	if err != nil {
		return nil, fmt.Errorf("text-to-speech: %w", err)
	}

	talkID, err := c.renderer.Submit(ctx, replyAudio)
	if err != nil {
		return nil, fmt.Errorf("avatar render: %w", err)
	}

	log.Printf("[flow] completed pipeline for session=%s talk=%s", sessionID, talkID)
	return &Result{
		SessionID:     sessionID,
		UserText:      transcript.Text,
		AssistantText: assistantText,
		Audio:         replyAudio,
		TalkID:        talkID,
	}, nil
}
