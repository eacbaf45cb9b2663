package http

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"ritual-service/internal/transport/http/middleware"
)

// Router sets up HTTP routes
type Router struct {
	ritualHandler  *RitualHandler
	authMiddleware *middleware.AuthMiddleware
	ratePerMinute  int
	mux            *http.ServeMux
}

// NewRouter creates a new router
func NewRouter(ritualHandler *RitualHandler, authMiddleware *middleware.AuthMiddleware, ratePerMinute int) *Router {
	return &Router{
		ritualHandler:  ritualHandler,
		authMiddleware: authMiddleware,
		ratePerMinute:  ratePerMinute,
		mux:            http.NewServeMux(),
	}
}

// Setup configures all routes
func (r *Router) Setup() http.Handler {

	// Ritual routes (all require authentication)
	r.mux.HandleFunc("/api/v1/rituals/today", r.authMiddleware.Auth(r.ritualHandler.TodayAssignment))
	r.mux.HandleFunc("/api/v1/rituals/reroll", r.authMiddleware.Auth(r.ritualHandler.Reroll))
	r.mux.HandleFunc("/api/v1/rituals/complete", r.authMiddleware.Auth(r.ritualHandler.CompleteActivity))
	r.mux.HandleFunc("/api/v1/rituals/journal", r.authMiddleware.Auth(r.ritualHandler.SaveJournal))
	r.mux.HandleFunc("/api/v1/rituals/summary", r.authMiddleware.Auth(r.ritualHandler.ProgressionSummary))
	r.mux.HandleFunc("/api/v1/rituals/history", r.authMiddleware.Auth(r.ritualHandler.History))

	r.mux.Handle("/metrics", promhttp.Handler())
	r.mux.HandleFunc("/swagger/", httpSwagger.WrapHandler)

	r.mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	var handler http.Handler = r.mux

	handler = middleware.Logging(handler)

	handler = middleware.RateLimit(r.ratePerMinute)(handler)

	return handler
}
