package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/itchan-dev/anniv/backend/internal/middleware"
	"github.com/itchan-dev/anniv/backend/internal/setup"
	"github.com/itchan-dev/anniv/shared/domain"
	"github.com/itchan-dev/anniv/shared/logger"
	mw "github.com/itchan-dev/anniv/shared/middleware"
	"github.com/itchan-dev/anniv/shared/middleware/metrics"
	rl "github.com/itchan-dev/anniv/shared/middleware/ratelimiter"
)

// CleanupInterval is how often idle limiter entries are dropped.
const CleanupInterval = 10 * time.Minute

// Limiters are exposed so main can run their cleanup loops.
type Limiters struct {
	Submit *rl.UserRateLimiter
	Global *rl.UserRateLimiter
}

func NewLimiters(deps *setup.Dependencies) *Limiters {
	return &Limiters{
		Submit: rl.OncePer(deps.Config.Public.Submission.RateLimitWindow),
		Global: rl.Rps(100),
	}
}

// New creates the chi router with all routes.
// IMPORTANT! a limiter shared by several routes limits them combined.
func New(deps *setup.Dependencies, limiters *Limiters) http.Handler {
	cfg := deps.Config
	h := deps.Handler
	auth := deps.Auth

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	// forwarding headers are client controlled unless a proxy overwrites them
	if cfg.Public.Server.TrustedProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(middleware.AccessLog(logger.Named("http")))
	r.Use(chimw.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Public.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-API-Key"},
		MaxAge:         300,
	}))
	r.Use(mw.SecurityHeaders(!cfg.DevMode()))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", metrics.Handler())

	if deps.LocalAssetRoot != "" {
		prefix := cfg.Public.Assets.BaseURL
		r.Handle(prefix+"/*", http.StripPrefix(prefix, http.FileServer(http.Dir(deps.LocalAssetRoot))))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Route("/messages", func(r chi.Router) {
			r.Get("/", h.ListMessages)

			r.Group(func(r chi.Router) {
				if cfg.Public.Security.ProtectSubmit {
					r.Use(auth.Require(domain.ScopeSubmit))
				}
				r.Use(mw.GlobalRateLimit(limiters.Global))
				// dev mode skips the per-IP window so local testing is not throttled
				if !cfg.DevMode() {
					r.Use(mw.RateLimitAccepted(limiters.Submit, mw.GetIP))
				}
				r.Post("/", h.CreateMessage)
			})
		})

		r.Route("/admin/messages", func(r chi.Router) {
			r.Use(auth.Require(domain.ScopeAdmin))
			r.Get("/", h.AdminListMessages)
			r.Put("/", h.ModerateMessage)
			r.Delete("/", h.DeleteMessage)
		})
	})

	return r
}
