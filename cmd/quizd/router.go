package main

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/mind-engage/lessonquiz/internal/api/http"
	auth "github.com/mind-engage/lessonquiz/internal/auth/middleware"
	"github.com/mind-engage/lessonquiz/internal/config"
	"github.com/mind-engage/lessonquiz/internal/logger"
	"github.com/mind-engage/lessonquiz/internal/rbac"
	"github.com/mind-engage/lessonquiz/internal/session"
)

// platform is the part of the platform API the gateway exposes directly.
type platform interface {
	auth.Accounts
	api.UserLister
}

type deps struct {
	sessions *session.Service
	auth     *auth.AuthService
	platform platform
	log      *logger.Logger
}

func newRouter(cfg config.Config, d deps) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, api.RequestLogger(d.log), middleware.Recoverer)
	// generation waits on the upstream client, which has its own timeout
	r.Use(middleware.Timeout(cfg.UpstreamTimeout + 15*time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	ah := &auth.Handlers{Auth: d.auth, Accounts: d.platform, Log: d.log}
	if cfg.EnableLocalAuth {
		ah.Admin = &auth.LocalAdmin{User: cfg.AdminUser, PassHash: cfg.AdminPassHash}
	}
	r.Post("/auth/login", ah.Login)
	r.Post("/auth/register", ah.Register)

	r.Get("/healthz", api.HealthzHandler)
	r.Get("/readyz", api.ReadyzHandler(d.sessions, d.log))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(d.auth))

		pr.Post("/auth/logout", ah.Logout)
		pr.Get("/auth/me", ah.Me)

		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(d.platform, d.log))
		pr.With(rbac.Require("lesson:extract")).
			Post("/lessons/extract", api.ExtractLessonHandler(cfg.MaxUploadBytes, d.log))
		pr.With(rbac.Require("questions:generate")).
			Post("/questions", api.QuestionsHandler(d.sessions, d.log))

		pr.Route("/quizzes", func(qr chi.Router) {
			api.MountQuizzes(qr, d.sessions, d.log)
		})
	})
	return r
}
