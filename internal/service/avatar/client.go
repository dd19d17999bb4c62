package avatar

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"
)

// State describes a render job as reported by the external service.
type State string

const (
	StateProcessing State = "processing"
	StateCompleted  State = "completed"
	StateError      State = "error"
)

// Status is a render job's externally fetched state. VideoURL is only
// set when the state is completed.
type Status struct {
	TalkID   string
	State    State
	VideoURL string
}

// Config controls the D-ID talks client. Zero values fall back to the
// production endpoint and the fixed polling budget.
type Config struct {
	APIKey       string
	BaseURL      string
	PresenterURL string
	PollInterval time.Duration
	PollAttempts int
}

const (
	defaultBaseURL      = "https://api.d-id.com"
	defaultPresenterURL = "https://create-images-results.d-id.com/default-presenter-image.png"
	defaultPollInterval = 2 * time.Second
	defaultPollAttempts = 30
)

// Client submits audio to the D-ID talks API and polls job status.
type Client struct {
	cfg        Config
	httpClient *http.Client
}

// NewClient builds a talks client; missing credentials are not checked
// here and surface on the first request.
func NewClient(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.PresenterURL == "" {
		cfg.PresenterURL = defaultPresenterURL
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.PollAttempts <= 0 {
		cfg.PollAttempts = defaultPollAttempts
	}
	return &Client{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

type talkScript struct {
	Type     string `json:"type"`
	AudioURL string `json:"audio_url"`
}

type talkConfig struct {
	Fluent   bool    `json:"fluent"`
	PadAudio float64 `json:"pad_audio"`
}

type talkRequest struct {
	Script    talkScript `json:"script"`
	Config    talkConfig `json:"config"`
	SourceURL string     `json:"source_url"`
}

type talkResponse struct {
	ID string `json:"id"`
}

type talkStatusResponse struct {
	Status    string `json:"status"`
	ResultURL string `json:"result_url"`
}

// Submit creates a render job from MP3 audio, posted inline as a data
// URL with the fixed presenter image. It returns the job handle without
// waiting for the render.
func (c *Client) Submit(ctx context.Context, audio []byte) (string, error) {
	if len(audio) == 0 {
		return "", fmt.Errorf("audio payload is empty")
	}

	payload := talkRequest{
		Script: talkScript{
			Type:     "audio",
			AudioURL: "data:audio/mp3;base64," + base64.StdEncoding.EncodeToString(audio),
		},
		Config:    talkConfig{Fluent: true, PadAudio: 0.0},
		SourceURL: c.cfg.PresenterURL,
	}

	var created talkResponse
	if err := c.doJSON(ctx, http.MethodPost, "/talks", payload, &created); err != nil {
		return "", fmt.Errorf("create talk: %w", err)
	}
	if created.ID == "" {
		return "", fmt.Errorf("create talk: response carried no id")
	}

	log.Printf("[avatar] submitted talk %s", created.ID)
	return created.ID, nil
}

// CheckStatus fetches the current job state. Nothing is cached; every
// call re-fetches from the external service.
func (c *Client) CheckStatus(ctx context.Context, talkID string) (*Status, error) {
	var resp talkStatusResponse
	if err := c.doJSON(ctx, http.MethodGet, "/talks/"+talkID, nil, &resp); err != nil {
		return nil, fmt.Errorf("check talk status: %w", err)
	}

	status := &Status{TalkID: talkID}
	switch resp.Status {
	case "done":
		status.State = StateCompleted
		status.VideoURL = resp.ResultURL
	case "error", "rejected":
		status.State = StateError
	default:
		status.State = StateProcessing
	}
	return status, nil
}

// WaitForVideo polls at a fixed interval until the job resolves or the
// attempt budget runs out. Exhausting the budget is not an error: the
// returned status is still processing and carries the talk id so the
// caller can keep polling independently.
func (c *Client) WaitForVideo(ctx context.Context, talkID string) (*Status, error) {
	for attempt := 0; attempt < c.cfg.PollAttempts; attempt++ {
		status, err := c.CheckStatus(ctx, talkID)
		if err != nil {
			return nil, err
		}
		if status.State != StateProcessing {
			return status, nil
		}

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(c.cfg.PollInterval):
		}
	}

	log.Printf("[avatar] talk %s still processing after %d attempts", talkID, c.cfg.PollAttempts)
	return &Status{TalkID: talkID, State: StateProcessing}, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-key", c.cfg.APIKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("d-id api returned %s: %s", resp.Status, bytes.TrimSpace(snippet))
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
