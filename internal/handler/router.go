package handler

import (
	"net/http"
	"path/filepath"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	avatarhandler "github.com/techinnovate/receptionist/backend/internal/handler/avatar"
	chathandler "github.com/techinnovate/receptionist/backend/internal/handler/chat"
	flowhandler "github.com/techinnovate/receptionist/backend/internal/handler/flow"
	speechhandler "github.com/techinnovate/receptionist/backend/internal/handler/speech"
	middlewarePkg "github.com/techinnovate/receptionist/backend/internal/middleware"
	"github.com/techinnovate/receptionist/backend/pkg/utils"
)

// Services carries the wired service layer. Fields left nil cause the
// matching endpoints to fail per request instead of at startup.
type Services struct {
	Transcriber speechhandler.Transcriber
	Synthesizer speechhandler.Synthesizer
	Replier     chathandler.Replier
	Janitor     chathandler.Janitor
	Renderer    avatarhandler.RenderService
	Pipeline    flowhandler.Pipeline
}

// NewRouter wires HTTP routes to core services.
func NewRouter(staticDir string, svcs Services) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewarePkg.CORS)

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		utils.RespondJSON(w, http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": "Virtual Receptionist Avatar API",
		})
	})

	r.Route("/api", func(api chi.Router) {
		speechhandler.New(svcs.Transcriber, svcs.Synthesizer).RegisterRoutes(api)
		chathandler.New(svcs.Replier, svcs.Janitor).RegisterRoutes(api)
		avatarhandler.New(svcs.Renderer).RegisterRoutes(api)
		flowhandler.New(svcs.Pipeline).RegisterRoutes(api)
	})

	// Front-end entry point and assets.
	r.Get("/", func(w http.ResponseWriter, req *http.Request) {
		http.ServeFile(w, req, filepath.Join(staticDir, "index.html"))
	})
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))

	return r
}
