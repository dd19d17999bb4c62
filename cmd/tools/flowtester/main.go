// Command flowtester exercises a running API server end to end: it
// uploads an audio file to the complete-flow endpoint and optionally
// polls the avatar video status until the render finishes.
package main

import (
	"bytes"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

type flowResponse struct {
	SessionID     string `json:"session_id"`
	UserText      string `json:"user_text"`
	AssistantText string `json:"assistant_text"`
	AudioBase64   string `json:"audio_base64"`
	TalkID        string `json:"talk_id"`
	Status        string `json:"status"`
}

type statusResponse struct {
	Status   string `json:"status"`
	VideoURL string `json:"video_url"`
	Error    string `json:"error"`
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)

	server := flag.String("server", "http://localhost:8080", "API server base URL")
	audioPath := flag.String("audio", "", "path to the audio file to upload")
	session := flag.String("session", "", "session id to continue, empty starts a new one")
	poll := flag.Bool("poll", false, "poll the video status until it completes")
	timeout := flag.Duration("timeout", 2*time.Minute, "overall request timeout")

	flag.Parse()

	if *audioPath == "" {
		flag.Usage()
		log.Fatal("an audio file is required, pass it with -audio")
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	result, err := runFlow(ctx, *server, *audioPath, *session)
	if err != nil {
		log.Fatalf("complete-flow failed: %v", err)
	}

	log.Printf("session=%s talk=%s", result.SessionID, result.TalkID)
	log.Printf("you said: %q", result.UserText)
	log.Printf("receptionist: %q", result.AssistantText)

	if !*poll {
		return
	}
	if result.TalkID == "" {
		log.Fatal("no talk id in response, nothing to poll")
	}

	videoURL, err := pollStatus(ctx, *server, result.TalkID)
	if err != nil {
		log.Fatalf("status polling failed: %v", err)
	}
	log.Printf("video ready: %s", videoURL)
}

func runFlow(ctx context.Context, server, audioPath, sessionID string) (*flowResponse, error) {
	file, err := os.Open(audioPath)
	if err != nil {
		return nil, fmt.Errorf("open audio file: %w", err)
	}
	defer file.Close()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("audio", filepath.Base(audioPath))
	if err != nil {
		return nil, err
	}
	if _, err := io.Copy(part, file); err != nil {
		return nil, fmt.Errorf("read audio file: %w", err)
	}
	if sessionID != "" {
		if err := writer.WriteField("session_id", sessionID); err != nil {
			return nil, err
		}
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(server, "/")+"/api/complete-flow", body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("server returned %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out flowResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func pollStatus(ctx context.Context, server, talkID string) (string, error) {
	url := strings.TrimRight(server, "/") + "/api/check-video-status/" + talkID

	ticker := time.NewTicker(2 * time.Second)
	defer ticker.Stop()

	for {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
		if err != nil {
			return "", err
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			return "", err
		}
		raw, err := io.ReadAll(resp.Body)
		resp.Body.Close()
		if err != nil {
			return "", err
		}

		var status statusResponse
		if err := json.Unmarshal(raw, &status); err != nil {
			return "", fmt.Errorf("decode status: %w", err)
		}

		switch status.Status {
		case "completed":
			return status.VideoURL, nil
		case "error":
			return "", fmt.Errorf("render failed: %s", status.Error)
		}
		log.Printf("talk=%s still processing", talkID)

		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-ticker.C:
		}
	}
}
