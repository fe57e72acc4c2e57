package router

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/dzeya/mensor-construction-4/internal/handlers"
	"github.com/dzeya/mensor-construction-4/internal/middleware"
	"github.com/dzeya/mensor-construction-4/internal/websocket"
)

// Deps are the handlers and settings the router mounts. ChatLimiter and
// LeadLimiter may be nil to disable rate limiting.
type Deps struct {
	Chat     *handlers.ChatHandler
	Articles *handlers.ArticleHandler
	Leads    *handlers.LeadHandler
	ChatHub  *websocket.Hub

	ChatLimiter *middleware.RateLimiter
	LeadLimiter *middleware.RateLimiter

	FrontendURL string
	StaticDir   string
}

func New(d Deps) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(d.FrontendURL))

	// Health check
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {

		// ──── Chat Routes ────
		// The chat handlers answer non-POST verbs themselves with 405 and
		// an Allow header, so they are mounted for every method.
		r.Group(func(r chi.Router) {
			use(r, d.ChatLimiter)
			r.HandleFunc("/chat", d.Chat.Chat)
			r.HandleFunc("/chat/stream", d.Chat.Stream)
		})
		r.Get("/chat/ws", d.ChatHub.HandleWebSocket)

		// ──── Article Routes ────
		r.Route("/articles", func(r chi.Router) {
			r.Get("/", d.Articles.List)
			r.Get("/{slug}", d.Articles.Get)
		})

		// ──── Lead Routes ────
		r.Group(func(r chi.Router) {
			use(r, d.LeadLimiter)
			r.Post("/leads", d.Leads.Create)
		})
	})

	if d.StaticDir != "" {
		r.NotFound(spaHandler(d.StaticDir))
	}

	return r
}

func use(r chi.Router, rl *middleware.RateLimiter) {
	if rl != nil {
		r.Use(rl.Middleware)
	}
}

// spaHandler serves files from dir and falls back to index.html for
// client-side routes. Unknown /api paths stay 404.
func spaHandler(dir string) http.HandlerFunc {
	fileServer := http.FileServer(http.Dir(dir))
	return func(w http.ResponseWriter, r *http.Request) {
		if strings.HasPrefix(r.URL.Path, "/api/") {
			http.NotFound(w, r)
			return
		}
		path := filepath.Join(dir, filepath.Clean("/"+r.URL.Path))
		if info, err := os.Stat(path); err != nil || info.IsDir() {
			http.ServeFile(w, r, filepath.Join(dir, "index.html"))
			return
		}
		fileServer.ServeHTTP(w, r)
	}
}
