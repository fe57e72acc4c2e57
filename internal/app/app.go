// Package app wires configuration into the services, handlers and router
// shared by the HTTP server and the Lambda entry point.
package app

import (
	"context"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/dzeya/mensor-construction-4/internal/articles"
	"github.com/dzeya/mensor-construction-4/internal/config"
	"github.com/dzeya/mensor-construction-4/internal/database"
	"github.com/dzeya/mensor-construction-4/internal/handlers"
	"github.com/dzeya/mensor-construction-4/internal/middleware"
	"github.com/dzeya/mensor-construction-4/internal/repository"
	"github.com/dzeya/mensor-construction-4/internal/router"
	"github.com/dzeya/mensor-construction-4/internal/services"
	"github.com/dzeya/mensor-construction-4/internal/websocket"
	"github.com/dzeya/mensor-construction-4/internal/worker"
	"github.com/dzeya/mensor-construction-4/migrations"
)

const notificationWorkers = 2

type App struct {
	Handler http.Handler
	Hub     *websocket.Hub
	// Workers is nil unless both Postgres and Redis are configured.
	Workers *worker.Pool

	gemini *services.GeminiService
	pool   *pgxpool.Pool
	redis  *redis.Client
}

// New connects the optional backends named in cfg and builds the router.
// A missing Gemini key is not an error: chat requests then fail with the
// configuration message.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	a := &App{}

	// ──── Gemini ────
	var provider handlers.ChatProvider
	gemini, err := services.NewGeminiService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, cfg.GeminiConcurrentReqs)
	var notConfigured *services.NotConfiguredError
	switch {
	case errors.As(err, &notConfigured):
		log.Warn().Msg("GEMINI_API_KEY is not set, chat is disabled")
	case err != nil:
		return nil, errors.Wrap(err, "gemini client initialization failed")
	default:
		a.gemini = gemini
		provider = gemini
		log.Info().Str("model", cfg.GeminiModel).Msg("Gemini client initialized")
	}

	// ──── PostgreSQL ────
	if cfg.DatabaseURL != "" {
		a.pool, err = database.NewPostgresPool(ctx, cfg.DatabaseURL)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "PostgreSQL connection failed")
		}
		if err := database.RunMigrations(ctx, a.pool, migrations.FS); err != nil {
			a.Close()
			return nil, errors.Wrap(err, "database migration failed")
		}
		log.Info().Msg("PostgreSQL connected")
	}

	// ──── Redis ────
	if cfg.RedisURL != "" {
		a.redis, err = database.NewRedisClient(ctx, cfg.RedisURL)
		if err != nil {
			a.Close()
			return nil, errors.Wrap(err, "Redis connection failed")
		}
		log.Info().Msg("Redis connected")
	}

	// ──── Leads ────
	var leads *services.LeadService
	if a.pool != nil {
		repo := repository.NewLeadRepo(a.pool)

		var queue services.LeadQueue
		if a.redis != nil {
			queue = worker.NewQueue(a.redis)
			email := services.NewEmailService(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass, cfg.SMTPFrom, cfg.LeadsNotifyEmail)
			a.Workers = worker.NewPool(a.redis, repo, email, notificationWorkers)
		}
		leads = services.NewLeadService(repo, queue)
	}

	leadHandler := handlers.NewLeadHandler(nil)
	if leads != nil {
		leadHandler = handlers.NewLeadHandler(leads)
	}

	// ──── Articles ────
	store, err := articles.Default()
	if err != nil {
		a.Close()
		return nil, err
	}

	a.Hub = websocket.NewHub(replierOf(provider), cfg.ChatHistoryLimit, cfg.ChatTimeout, cfg.FrontendURL)
	a.Handler = router.New(router.Deps{
		Chat:        handlers.NewChatHandler(provider, cfg.ChatHistoryLimit, cfg.ChatTimeout),
		Articles:    handlers.NewArticleHandler(store),
		Leads:       leadHandler,
		ChatHub:     a.Hub,
		ChatLimiter: a.limiter("ratelimit:chat:", cfg.ChatRateLimit),
		LeadLimiter: a.limiter("ratelimit:leads:", 5),
		FrontendURL: cfg.FrontendURL,
		StaticDir:   cfg.StaticDir,
	})

	return a, nil
}

func (a *App) limiter(prefix string, perMinute int) *middleware.RateLimiter {
	if perMinute <= 0 {
		return nil
	}
	if a.redis != nil {
		return middleware.NewRedisRateLimiter(a.redis, prefix, perMinute, time.Minute)
	}
	return middleware.NewRateLimiter(perMinute, time.Minute)
}

// replierOf keeps a nil provider a nil interface.
func replierOf(p handlers.ChatProvider) websocket.Replier {
	if p == nil {
		return nil
	}
	return p
}

// Close releases every backend the app opened.
func (a *App) Close() {
	if a.gemini != nil {
		a.gemini.Close()
	}
	if a.redis != nil {
		a.redis.Close()
	}
	if a.pool != nil {
		a.pool.Close()
	}
}
