package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	api "github.com/classpoint/lms-backend/internal/api/http"
	auth "github.com/classpoint/lms-backend/internal/auth/middleware"
	"github.com/classpoint/lms-backend/internal/clock"
	"github.com/classpoint/lms-backend/internal/config"
	"github.com/classpoint/lms-backend/internal/db"
	"github.com/classpoint/lms-backend/internal/quiz"
	"github.com/classpoint/lms-backend/internal/rbac"
	"github.com/classpoint/lms-backend/internal/roster"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	if err := auth.EnsureBootstrapAdmin(ctx, dbh, cfg.AdminUser, cfg.AdminPassHash); err != nil {
		log.Fatalf("admin bootstrap: %v", err)
	}

	rst := roster.NewSQLRoster(dbh)
	svc := quiz.NewService(quiz.NewSQLStore(dbh), rst, clock.System())
	authSvc := auth.NewAuthService(cfg.AuthSecret, cfg.TokenTTL)

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

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))

	// Protected API (JWT → subject+role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		// Users
		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		// Courses and membership
		pr.With(rbac.Require("course:list")).
			Get("/courses", api.ListCoursesHandler(rst))
		pr.With(rbac.Require("course:create")).
			Post("/courses", api.CreateCourseHandler(rst))
		pr.With(rbac.Require("course:enroll")).
			Post("/courses/{courseID}/members", api.AddMemberHandler(rst))
		pr.With(rbac.Require("course:enroll")).
			Delete("/courses/{courseID}/members/{userID}", api.RemoveMemberHandler(rst))

		// Quiz catalog
		pr.With(rbac.Require("quiz:view")).
			Get("/courses/{courseID}/quizzes", api.CourseQuizzesHandler(svc))
		pr.With(rbac.Require("quiz:create")).
			Post("/courses/{courseID}/quizzes", api.CreateQuizHandler(svc))
		pr.With(rbac.Require("quiz:view")).
			Get("/quizzes/{quizID}", api.GetQuizHandler(svc))
		pr.With(rbac.Require("quiz:update")).
			Put("/quizzes/{quizID}", api.UpdateQuizHandler(svc))
		pr.With(rbac.Require("quiz:delete")).
			Delete("/quizzes/{quizID}", api.DeleteQuizHandler(svc))
		pr.With(rbac.Require("marks:release")).
			Post("/quizzes/{quizID}/marks-released", api.SetMarksReleasedHandler(svc))

		// Attempts
		pr.With(rbac.Require("submission:start")).
			Post("/quizzes/{quizID}/submissions", api.StartSubmissionHandler(svc))
		pr.With(rbac.Require("submission:save")).
			Put("/quizzes/{quizID}/submissions/answers", api.SubmitAnswersHandler(svc))
		pr.With(rbac.Require("submission:view")).
			Get("/quizzes/{quizID}/submissions/{userID}", api.GetSubmissionHandler(svc))
		pr.With(rbac.Require("marks:view")).
			Get("/quizzes/{quizID}/submissions/{userID}/marks", api.GetMarksHandler(svc))
		pr.With(rbac.Require("marks:apply")).
			Post("/quizzes/{quizID}/submissions/{userID}/marks", api.MarkSubmissionHandler(svc))
	})

	log.Printf("gateway listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		log.Fatal(err)
	}
}
