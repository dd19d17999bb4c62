package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/techinnovate/receptionist/backend/internal/config"
	"github.com/techinnovate/receptionist/backend/internal/handler"
	"github.com/techinnovate/receptionist/backend/internal/service/ai"
	"github.com/techinnovate/receptionist/backend/internal/service/avatar"
	"github.com/techinnovate/receptionist/backend/internal/service/conversation"
	"github.com/techinnovate/receptionist/backend/internal/service/flow"
	"github.com/techinnovate/receptionist/backend/internal/service/synthesize"
	"github.com/techinnovate/receptionist/backend/internal/service/transcribe"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: failed to load .env file: %v", err)
		log.Println("continuing with system environment variables only")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load configuration: %v", err)
	}

	store := conversation.NewStore(conversation.StoreConfig{
		Preamble:     ai.ReceptionistPreamble,
		MaxSessions:  cfg.Sessions.MaxSessions,
		HistoryLimit: cfg.Sessions.HistoryLimit,
	})

	svcs := handler.Services{Janitor: store}

	// Conversational model
	if cfg.AI.Enabled() {
		chatModel, err := cfg.AI.NewChatModel(ctx)
		if err != nil {
			log.Printf("warning: failed to initialize chat model: %v", err)
		} else if aiSvc, err := ai.NewService(ctx, chatModel, store); err != nil {
			log.Printf("warning: failed to initialize AI service: %v", err)
		} else {
			svcs.Replier = aiSvc
			log.Println("AI service initialized successfully")
		}
	} else {
		log.Println("GEMINI_API_KEY not configured, chat endpoints will fail until it is set")
	}

	// Speech recognition
	transcribeSvc, err := transcribe.NewService(ctx, transcribe.Config{
		Language:           cfg.Speech.Language,
		AlternateLanguages: cfg.Speech.AlternateLanguages,
		SampleRateHertz:    cfg.Speech.SampleRateHertz,
	})
	if err != nil {
		log.Printf("warning: failed to initialize speech-to-text client: %v", err)
	} else {
		defer transcribeSvc.Close()
		svcs.Transcriber = transcribeSvc
		log.Println("Speech-to-text service initialized successfully")
	}

	// Speech synthesis
	synthesizeSvc, err := synthesize.NewService(ctx)
	if err != nil {
		log.Printf("warning: failed to initialize text-to-speech client: %v", err)
	} else {
		defer synthesizeSvc.Close()
		svcs.Synthesizer = synthesizeSvc
		log.Println("Text-to-speech service initialized successfully")
	}

	// Avatar rendering. Credential presence is checked lazily by the
	// external API, not here.
	svcs.Renderer = avatar.NewClient(avatar.Config{
		APIKey:       cfg.Avatar.APIKey,
		BaseURL:      cfg.Avatar.BaseURL,
		PresenterURL: cfg.Avatar.PresenterURL,
		PollInterval: cfg.Avatar.PollInterval,
		PollAttempts: cfg.Avatar.PollAttempts,
	})

	if svcs.Transcriber != nil && svcs.Replier != nil && svcs.Synthesizer != nil {
		svcs.Pipeline = flow.NewCoordinator(svcs.Transcriber, svcs.Replier, svcs.Synthesizer, svcs.Renderer)
	} else {
		log.Println("complete-flow pipeline disabled: one or more upstream services unavailable")
	}

	router := handler.NewRouter(cfg.Server.StaticDir, svcs)

	startServer(ctx, cfg.Server, router)
}

func startServer(ctx context.Context, serverCfg config.ServerConfig, router http.Handler) {
	srv := &http.Server{
		Addr:              serverCfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	log.Printf("Virtual receptionist backend listening on %s", serverCfg.Addr)
	if err := runServer(ctx, srv); err != nil {
		log.Fatalf("server error: %v", err)
	}
}

func runServer(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
		err := <-errCh
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
