package router

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/fieldreach/goalsync-lambda/internal/auth"
	"github.com/fieldreach/goalsync-lambda/internal/goal"
	"github.com/fieldreach/goalsync-lambda/internal/middlewares"
	"github.com/fieldreach/goalsync-lambda/internal/report"
)

type RouterConfig struct {
	GoalHandler   *goal.Handler
	ReportHandler *report.Handler
}

func New(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middlewares.CorsMiddleware)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/logout", auth.NewHandler().Logout)
	})

	r.Group(func(r chi.Router) {
		r.Use(auth.AuthMiddleware)

		r.Mount("/activity-reports", report.Routes(cfg.ReportHandler))
		r.Mount("/recipients/{recipientId}/goals", goal.Routes(cfg.GoalHandler))
	})
	return r
}
