package transcribe

import (
	"context"
	"errors"
	"testing"

	"cloud.google.com/go/speech/apiv1/speechpb"
	"github.com/googleapis/gax-go/v2"
)

type fakeRecognizer struct {
	lastReq *speechpb.RecognizeRequest
	resp    *speechpb.RecognizeResponse
	err     error
}

func (f *fakeRecognizer) Recognize(_ context.Context, req *speechpb.RecognizeRequest, _ ...gax.CallOption) (*speechpb.RecognizeResponse, error) {
	f.lastReq = req
	if f.err != nil {
		return nil, f.err
	}
	return f.resp, nil
}

func testConfig() Config {
	return Config{
		Language:           "en-US",
		AlternateLanguages: []string{"fi-FI", "ar-SA"},
		SampleRateHertz:    48000,
	}
}

func TestTranscribePicksFirstAlternative(t *testing.T) {
	fake := &fakeRecognizer{
		resp: &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{
					Alternatives: []*speechpb.SpeechRecognitionAlternative{
						{Transcript: "Where is reception?", Confidence: 0.94},
						{Transcript: "Where is perception?", Confidence: 0.41},
					},
				},
				{
					Alternatives: []*speechpb.SpeechRecognitionAlternative{
						{Transcript: "discarded trailing result", Confidence: 0.2},
					},
				},
			},
		},
	}
	svc := NewServiceWithRecognizer(fake, testConfig())

	result, err := svc.Transcribe(context.Background(), []byte("opus-bytes"), "webm")
	if err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}
	if result.Text != "Where is reception?" {
		t.Fatalf("unexpected transcript: %q", result.Text)
	}
	if result.Confidence != 0.94 {
		t.Fatalf("unexpected confidence: %f", result.Confidence)
	}
}

func TestTranscribeNoSpeech(t *testing.T) {
	fake := &fakeRecognizer{resp: &speechpb.RecognizeResponse{}}
	svc := NewServiceWithRecognizer(fake, testConfig())

	_, err := svc.Transcribe(context.Background(), []byte("silence"), "webm")
	if !errors.Is(err, ErrNoSpeech) {
		t.Fatalf("expected ErrNoSpeech, got %v", err)
	}
}

func TestTranscribeEmptyAudio(t *testing.T) {
	svc := NewServiceWithRecognizer(&fakeRecognizer{}, testConfig())
	if _, err := svc.Transcribe(context.Background(), nil, "webm"); err == nil {
		t.Fatal("expected error for empty audio")
	}
}

func TestTranscribeUpstreamFailure(t *testing.T) {
	fake := &fakeRecognizer{err: errors.New("deadline exceeded")}
	svc := NewServiceWithRecognizer(fake, testConfig())

	if _, err := svc.Transcribe(context.Background(), []byte("x"), "webm"); err == nil {
		t.Fatal("expected wrapped upstream error")
	}
}

func TestTranscribeRequestConfig(t *testing.T) {
	fake := &fakeRecognizer{
		resp: &speechpb.RecognizeResponse{
			Results: []*speechpb.SpeechRecognitionResult{
				{Alternatives: []*speechpb.SpeechRecognitionAlternative{{Transcript: "ok"}}},
			},
		},
	}
	svc := NewServiceWithRecognizer(fake, testConfig())

	if _, err := svc.Transcribe(context.Background(), []byte("x"), "wav"); err != nil {
		t.Fatalf("Transcribe err: %v", err)
	}

	cfg := fake.lastReq.GetConfig()
	if cfg.GetEncoding() != speechpb.RecognitionConfig_LINEAR16 {
		t.Fatalf("expected LINEAR16 for wav, got %v", cfg.GetEncoding())
	}
	if cfg.GetLanguageCode() != "en-US" {
		t.Fatalf("unexpected language: %s", cfg.GetLanguageCode())
	}
	if len(cfg.GetAlternativeLanguageCodes()) != 2 {
		t.Fatalf("expected two alternate languages, got %v", cfg.GetAlternativeLanguageCodes())
	}
	if !cfg.GetEnableAutomaticPunctuation() {
		t.Fatal("expected automatic punctuation enabled")
	}
}

func TestEncodingForDefaultsToWebm(t *testing.T) {
	if got := encodingFor("m4a"); got != speechpb.RecognitionConfig_WEBM_OPUS {
		t.Fatalf("expected WEBM_OPUS default, got %v", got)
	}
	if got := encodingFor("ogg"); got != speechpb.RecognitionConfig_OGG_OPUS {
		t.Fatalf("expected OGG_OPUS, got %v", got)
	}
}
