package synthesize

import (
	"context"
	"fmt"
	"strings"

	texttospeech "cloud.google.com/go/texttospeech/apiv1"
	"cloud.google.com/go/texttospeech/apiv1/texttospeechpb"
	"github.com/googleapis/gax-go/v2"
)

// Synthesizer is the slice of the Google Cloud Text-to-Speech client the
// service uses. Tests substitute a fake.
type Synthesizer interface {
	SynthesizeSpeech(ctx context.Context, req *texttospeechpb.SynthesizeSpeechRequest, opts ...gax.CallOption) (*texttospeechpb.SynthesizeSpeechResponse, error)
}

type voiceParams struct {
	languageCode string
	gender       texttospeechpb.SsmlVoiceGender
	name         string
}

const defaultLanguage = "en-US"

// voiceTable maps supported language codes to a fixed voice selection.
// Arabic uses Google's pan-Arabic ar-XA voices.
var voiceTable = map[string]voiceParams{
	"en-US": {"en-US", texttospeechpb.SsmlVoiceGender_FEMALE, "en-US-Neural2-F"},
	"fi-FI": {"fi-FI", texttospeechpb.SsmlVoiceGender_FEMALE, "fi-FI-Standard-A"},
	"ar-SA": {"ar-XA", texttospeechpb.SsmlVoiceGender_FEMALE, "ar-XA-Standard-A"},
}

// Service converts text into MP3 audio with a fixed speaking rate and
// pitch.
type Service struct {
	synthesizer Synthesizer
}

// NewService creates a Google Cloud Text-to-Speech backed service.
// Authentication relies on Application Default Credentials.
func NewService(ctx context.Context) (*Service, error) {
	client, err := texttospeech.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create text-to-speech client: %w", err)
	}
	return NewServiceWithSynthesizer(client), nil
}

// NewServiceWithSynthesizer wires an explicit synthesizer, used by tests.
func NewServiceWithSynthesizer(synthesizer Synthesizer) *Service {
	return &Service{synthesizer: synthesizer}
}

// Synthesize renders text as a single MP3 buffer. Unsupported language
// codes fall back to the default voice deterministically.
func (s *Service) Synthesize(ctx context.Context, text, languageCode string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("synthesis text is empty")
	}

	voice := voiceFor(languageCode)

	req := &texttospeechpb.SynthesizeSpeechRequest{
		Input: &texttospeechpb.SynthesisInput{
			InputSource: &texttospeechpb.SynthesisInput_Text{Text: text},
		},
		Voice: &texttospeechpb.VoiceSelectionParams{
			LanguageCode: voice.languageCode,
			Name:         voice.name,
			SsmlGender:   voice.gender,
		},
		AudioConfig: &texttospeechpb.AudioConfig{
			AudioEncoding: texttospeechpb.AudioEncoding_MP3,
			SpeakingRate:  1.0,
			Pitch:         0.0,
		},
	}

	resp, err := s.synthesizer.SynthesizeSpeech(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("synthesize request failed: %w", err)
	}
	return resp.GetAudioContent(), nil
}

// Close releases the underlying client connection when one exists.
func (s *Service) Close() error {
	if closer, ok := s.synthesizer.(interface{ Close() error }); ok {
		return closer.Close()
	}
	return nil
}

func voiceFor(languageCode string) voiceParams {
	if voice, ok := voiceTable[languageCode]; ok {
		return voice
	}
	return voiceTable[defaultLanguage]
}
