package transcribe

import (
	"context"
	"errors"
	"fmt"

	speech "cloud.google.com/go/speech/apiv1"
	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
)

// ErrNoSpeech reports that the recognizer returned zero results. This is
// a normal outcome for silent audio and maps to a client error, not a
// server fault.
var ErrNoSpeech = errors.New("no speech detected")

// Recognizer is the slice of the Google Cloud Speech client the service
// uses. Tests substitute a fake.
type Recognizer interface {
	Recognize(ctx context.Context, req *speechpb.RecognizeRequest, opts ...gax.CallOption) (*speechpb.RecognizeResponse, error)
}

// Config pins the recognition language setup: one primary language with
// alternates eligible for auto-detection.
type Config struct {
	Language           string
	AlternateLanguages []string
	SampleRateHertz    int32
}

// Result carries the transcript of the highest-ranked alternative.
type Result struct {
	Text       string  `json:"transcription"`
	Confidence float32 `json:"confidence"`
}

// Service converts recorded audio into text.
type Service struct {
	recognizer Recognizer
	cfg        Config
}

// NewService creates a Google Cloud Speech backed transcription service.
// Authentication relies on Application Default Credentials.
func NewService(ctx context.Context, cfg Config) (*Service, error) {
	client, err := speech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create speech client: %w", err)
	}
	return NewServiceWithRecognizer(client, cfg), nil
}

// NewServiceWithRecognizer wires an explicit recognizer, used by tests.
func NewServiceWithRecognizer(recognizer Recognizer, cfg Config) *Service {
	return &Service{recognizer: recognizer, cfg: cfg}
}

// Transcribe recognizes speech in the supplied audio buffer. Only the
// first alternative of the first result is used; everything else is
// discarded.
func (s *Service) Transcribe(ctx context.Context, audio []byte, format string) (*Result, error) {
	if len(audio) == 0 {
		return nil, fmt.Errorf("audio payload is empty")
	}

	req := &speechpb.RecognizeRequest{
		Config: &speechpb.RecognitionConfig{
			Encoding:                   encodingFor(format),
			SampleRateHertz:            s.cfg.SampleRateHertz,
			LanguageCode:               s.cfg.Language,
			AlternativeLanguageCodes:   s.cfg.AlternateLanguages,
			EnableAutomaticPunctuation: true,
		},
		Audio: &speechpb.RecognitionAudio{
			AudioSource: &speechpb.RecognitionAudio_Content{Content: audio},
		},
	}

	resp, err := s.recognizer.Recognize(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("recognize request failed: %w", err)
	}
	if len(resp.GetResults()) == 0 || len(resp.GetResults()[0].GetAlternatives()) == 0 {
		return nil, ErrNoSpeech
	}

	alt := resp.GetResults()[0].GetAlternatives()[0]
	return &Result{Text: alt.GetTranscript(), Confidence: alt.GetConfidence()}, nil
}

// Close releases the underlying client connection when one exists.
func (s *Service) Close() error {
	if closer, ok := s.recognizer.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

// encodingFor maps a format hint (usually a file extension) to the
// recognizer's encoding. Browser recordings default to WebM/Opus.
func encodingFor(format string) speechpb.RecognitionConfig_AudioEncoding {
	switch format {
	case "wav":
		return speechpb.RecognitionConfig_LINEAR16
	case "ogg", "opus":
		return speechpb.RecognitionConfig_OGG_OPUS
	case "flac":
		return speechpb.RecognitionConfig_FLAC
	case "mp3":
		return speechpb.RecognitionConfig_MP3
	default:
		return speechpb.RecognitionConfig_WEBM_OPUS
	}
}
