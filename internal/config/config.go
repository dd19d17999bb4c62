package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino/components/model"
)

// Config aggregates every setting the service reads from the environment.
type Config struct {
	Server   ServerConfig
	AI       AIConfig
	Speech   SpeechConfig
	Avatar   AvatarConfig
	Sessions SessionConfig
}

// Load parses configuration from environment variables. Missing upstream
// credentials are not an error here; the affected service fails on first
// use instead.
func Load() (*Config, error) {
	server, err := loadServerConfig()
	if err != nil {
		return nil, err
	}

	ai, err := loadAIConfig()
	if err != nil {
		return nil, err
	}

	speech, err := loadSpeechConfig()
	if err != nil {
		return nil, err
	}

	avatar, err := loadAvatarConfig()
	if err != nil {
		return nil, err
	}

	sessions, err := loadSessionConfig()
	if err != nil {
		return nil, err
	}

	return &Config{Server: server, AI: ai, Speech: speech, Avatar: avatar, Sessions: sessions}, nil
}

// ServerConfig describes the HTTP listener and static assets.
type ServerConfig struct {
	Addr      string
	StaticDir string
}

func loadServerConfig() (ServerConfig, error) {
	port := strings.TrimSpace(os.Getenv("PORT"))
	if port == "" {
		port = "8080"
	}

	staticDir := getEnvOrDefault("STATIC_DIR", "static")

	if strings.Contains(port, ":") {
		// Allow passing ":8080" or "127.0.0.1:8080" directly.
		return ServerConfig{Addr: port, StaticDir: staticDir}, nil
	}

	if strings.Contains(port, " ") {
		return ServerConfig{}, fmt.Errorf("invalid PORT value: %q", port)
	}

	return ServerConfig{Addr: ":" + port, StaticDir: staticDir}, nil
}

// AIConfig describes the conversational model. The default base URL is
// Gemini's OpenAI-compatible endpoint.
type AIConfig struct {
	APIKey      string
	Model       string
	BaseURL     string
	Temperature *float64
	TopP        *float64
	MaxTokens   *int
}

// Enabled reports whether the required credential is present.
func (c AIConfig) Enabled() bool {
	return c.APIKey != ""
}

// NewChatModel creates the chat model instance from this configuration.
func (c AIConfig) NewChatModel(ctx context.Context) (model.BaseChatModel, error) {
	if !c.Enabled() {
		return nil, fmt.Errorf("GEMINI_API_KEY is not configured")
	}

	cfg := &openai.ChatModelConfig{
		APIKey:  c.APIKey,
		BaseURL: c.BaseURL,
		Model:   c.Model,
	}

	if c.Temperature != nil {
		val := float32(*c.Temperature)
		cfg.Temperature = &val
	}
	if c.TopP != nil {
		val := float32(*c.TopP)
		cfg.TopP = &val
	}
	if c.MaxTokens != nil {
		val := *c.MaxTokens
		cfg.MaxTokens = &val
	}

	return openai.NewChatModel(ctx, cfg)
}

func loadAIConfig() (AIConfig, error) {
	temperature, err := parseOptionalFloatEnv("GEMINI_TEMPERATURE")
	if err != nil {
		return AIConfig{}, err
	}
	if temperature == nil {
		val := 0.7
		temperature = &val
	}

	topP, err := parseOptionalFloatEnv("GEMINI_TOP_P")
	if err != nil {
		return AIConfig{}, err
	}
	if topP == nil {
		val := 0.95
		topP = &val
	}

	maxTokens, err := parseOptionalIntEnv("GEMINI_MAX_TOKENS")
	if err != nil {
		return AIConfig{}, err
	}
	if maxTokens == nil {
		val := 1024
		maxTokens = &val
	}

	return AIConfig{
		APIKey:      strings.TrimSpace(os.Getenv("GEMINI_API_KEY")),
		Model:       getEnvOrDefault("GEMINI_MODEL", "gemini-1.5-pro"),
		BaseURL:     getEnvOrDefault("GEMINI_BASE_URL", "https://generativelanguage.googleapis.com/v1beta/openai/"),
		Temperature: temperature,
		TopP:        topP,
		MaxTokens:   maxTokens,
	}, nil
}

// SpeechConfig describes the speech recognition language setup. The
// Google clients authenticate through Application Default Credentials
// (GOOGLE_APPLICATION_CREDENTIALS).
type SpeechConfig struct {
	Language           string
	AlternateLanguages []string
	SampleRateHertz    int32
}

func loadSpeechConfig() (SpeechConfig, error) {
	sampleRate := 48000
	if override, err := parseOptionalIntEnv("SPEECH_SAMPLE_RATE"); err != nil {
		return SpeechConfig{}, err
	} else if override != nil {
		sampleRate = *override
	}

	alternates := []string{"fi-FI", "ar-SA"}
	if raw := strings.TrimSpace(os.Getenv("SPEECH_ALTERNATE_LANGUAGES")); raw != "" {
		alternates = nil
		for _, code := range strings.Split(raw, ",") {
			if code = strings.TrimSpace(code); code != "" {
				alternates = append(alternates, code)
			}
		}
	}

	return SpeechConfig{
		Language:           getEnvOrDefault("SPEECH_LANGUAGE", "en-US"),
		AlternateLanguages: alternates,
		SampleRateHertz:    int32(sampleRate),
	}, nil
}

// AvatarConfig describes the D-ID talks integration.
type AvatarConfig struct {
	APIKey       string
	BaseURL      string
	PresenterURL string
	PollInterval time.Duration
	PollAttempts int
}

func loadAvatarConfig() (AvatarConfig, error) {
	pollSeconds := 2
	if override, err := parseOptionalIntEnv("DID_POLL_INTERVAL_SECONDS"); err != nil {
		return AvatarConfig{}, err
	} else if override != nil {
		pollSeconds = *override
	}

	pollAttempts := 30
	if override, err := parseOptionalIntEnv("DID_POLL_ATTEMPTS"); err != nil {
		return AvatarConfig{}, err
	} else if override != nil {
		pollAttempts = *override
	}

	return AvatarConfig{
		APIKey:       strings.TrimSpace(os.Getenv("DID_API_KEY")),
		BaseURL:      getEnvOrDefault("DID_BASE_URL", "https://api.d-id.com"),
		PresenterURL: getEnvOrDefault("DID_PRESENTER_URL", "https://create-images-results.d-id.com/default-presenter-image.png"),
		PollInterval: time.Duration(pollSeconds) * time.Second,
		PollAttempts: pollAttempts,
	}, nil
}

// SessionConfig bounds in-memory session growth.
type SessionConfig struct {
	MaxSessions  int
	HistoryLimit int
}

func loadSessionConfig() (SessionConfig, error) {
	maxSessions := 1000
	if override, err := parseOptionalIntEnv("SESSION_MAX_COUNT"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		maxSessions = *override
	}

	historyLimit := 40
	if override, err := parseOptionalIntEnv("SESSION_HISTORY_LIMIT"); err != nil {
		return SessionConfig{}, err
	} else if override != nil {
		historyLimit = *override
	}

	return SessionConfig{MaxSessions: maxSessions, HistoryLimit: historyLimit}, nil
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

func parseOptionalFloatEnv(key string) (*float64, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}

func parseOptionalIntEnv(key string) (*int, error) {
	raw, ok := os.LookupEnv(key)
	if !ok {
		return nil, nil
	}

	value := strings.TrimSpace(raw)
	if value == "" {
		return nil, nil
	}

	val, err := strconv.Atoi(value)
	if err != nil {
		return nil, fmt.Errorf("invalid %s value %q: %w", key, value, err)
	}
	return &val, nil
}
