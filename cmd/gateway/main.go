package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/certdrill/certdrill/internal/api/http"
	googleauth "github.com/certdrill/certdrill/internal/auth"
	auth "github.com/certdrill/certdrill/internal/auth/middleware"
	"github.com/certdrill/certdrill/internal/config"
	"github.com/certdrill/certdrill/internal/db"
	"github.com/certdrill/certdrill/internal/question"
	"github.com/certdrill/certdrill/internal/rbac"
	"github.com/certdrill/certdrill/internal/review"
	syncx "github.com/certdrill/certdrill/internal/sync"
	"github.com/certdrill/certdrill/internal/video"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}

	questions := question.NewSQLStore(dbh)
	standings := review.NewSQLStore(dbh)
	events := syncx.NewEventRepo(dbh)
	videos := video.NewStore(dbh)
	svc := review.NewService(questions, standings, review.WithEvents(events))

	authSvc := auth.NewAuthService(cfg.AuthHMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if cfg.EnableLocalAuth {
		r.Post("/auth/login", auth.LoginHandler(authSvc, dbh, auth.LoginOpts{
			AdminUser:     cfg.AdminUser,
			AdminPassHash: cfg.AdminPassHash,
		}))
	}
	if cfg.EnableGoogleAuth {
		r.Get("/auth/google/login", googleauth.GoogleLoginHandler(cfg))
		r.Get("/auth/google/callback", googleauth.GoogleCallbackHandler(authSvc, dbh, cfg))
	}

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))
		pr.Use(auth.AttachRoleFromDB(dbh, cfg.EnableLocalAuth))

		// Question catalog
		pr.With(rbac.Require("question:view")).
			Get("/questions", api.ListQuestionsHandler(questions))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{id}", api.GetQuestionHandler(questions))
		pr.With(rbac.Require("question:create")).
			Post("/questions", api.CreateQuestionHandler(questions))
		pr.With(rbac.Require("question:update")).
			Put("/questions/{id}", api.UpdateQuestionHandler(questions))
		pr.With(rbac.Require("question:delete")).
			Delete("/questions/{id}", api.DeleteQuestionHandler(questions))

		// Answer evaluation + history
		pr.With(rbac.Require("submission:create")).
			Post("/submissions", api.SubmitHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts", api.ListAttemptsHandler(svc))
		pr.With(rbac.RequireAny("attempt:view-own", "attempt:view-all")).
			Get("/attempts/stats", api.AttemptStatsHandler(svc))

		// Review queue
		pr.With(rbac.Require("review:view-own")).
			Get("/review", api.ReviewQueueHandler(svc))

		// Video catalog
		pr.With(rbac.Require("video:view")).
			Get("/videos", api.ListVideosHandler(videos))
		pr.With(rbac.Require("video:manage")).
			Post("/videos", api.PutVideoHandler(videos))
		pr.With(rbac.Require("video:manage")).
			Delete("/videos/{id}", api.DeleteVideoHandler(videos))

		// Users (admin) + self-service password change
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Maintenance (admin)
		pr.With(rbac.Require("review:scrub")).
			Post("/admin/review/scrub", api.ScrubStandingsHandler(svc))
		pr.With(rbac.Require("review:inspect")).
			Get("/admin/review/standings", api.ListStandingSummariesHandler(svc))
		pr.With(rbac.Require("attempt:backfill")).
			Post("/admin/attempts/backfill", api.BackfillAttemptsHandler(svc))
		pr.With(rbac.Require("audit:view")).
			Get("/admin/audit", api.AuditSearchHandler(events))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := dbh.PingContext(r.Context()); err != nil {
			http.Error(w, "db not ready", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(200)
	})

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
