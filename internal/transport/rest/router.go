package rest

import (
	"net/http"
	"os"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"pmtctportal/internal/cache"
	"pmtctportal/internal/config"
	"pmtctportal/internal/service"
	"pmtctportal/internal/transport/rest/handler"
	"pmtctportal/internal/transport/rest/middleware"
	"pmtctportal/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	Config             *config.Config
	AuthService        service.AuthService
	ParticipantService service.ParticipantService
	AssessmentService  service.AssessmentService
	ReportService      service.ReportService
	ActivityService    service.ActivityService
	RateLimits         cache.RateLimitCache
	WSHub              *ws.Hub
	Logger             *zap.Logger
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	participantHandler := handler.NewParticipantHandler(c.ParticipantService, c.ReportService)
	assessmentHandler := handler.NewAssessmentHandler(c.AssessmentService, c.ReportService)
	adminHandler := handler.NewAdminHandler(c.AuthService, c.ActivityService, c.AssessmentService)
	wsHandler := ws.NewHandler(c.WSHub, c.AuthService, c.Logger)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	rateMW := middleware.NewRateLimitMiddleware(c.RateLimits, c.Config.LoginRateMax, c.Config.LoginRateWindow.Seconds())

	// CORS middleware (apply first)
	r.Use(corsMiddleware)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.Handle("/auth/login", rateMW.Limit(http.HandlerFunc(authHandler.Login))).Methods("POST", "OPTIONS")

	// WebSocket route (public with token in query param)
	v1.HandleFunc("/ws/dashboard", wsHandler.DashboardWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Authenticated routes
	authed := v1.NewRoute().Subrouter()
	authed.Use(authMW.RequireAuth)

	authed.HandleFunc("/participants", participantHandler.Create).Methods("POST", "OPTIONS")
	authed.HandleFunc("/participants", participantHandler.List).Methods("GET", "OPTIONS")
	authed.HandleFunc("/participants/export", participantHandler.Export).Methods("GET", "OPTIONS")
	authed.HandleFunc("/participants/{id}", participantHandler.Get).Methods("GET", "OPTIONS")

	authed.HandleFunc("/assessments", assessmentHandler.Submit).Methods("POST", "OPTIONS")
	authed.HandleFunc("/assessments", assessmentHandler.List).Methods("GET", "OPTIONS")
	authed.HandleFunc("/assessments/{id}", assessmentHandler.Get).Methods("GET", "OPTIONS")
	authed.HandleFunc("/assessments/{id}/report", assessmentHandler.Report).Methods("GET", "OPTIONS")
	authed.HandleFunc("/assessments/{id}/email", assessmentHandler.Email).Methods("POST", "OPTIONS")

	authed.HandleFunc("/districts", assessmentHandler.Districts).Methods("GET", "OPTIONS")
	authed.HandleFunc("/districts/{district}/summary", assessmentHandler.DistrictSummary).Methods("GET", "OPTIONS")
	authed.HandleFunc("/districts/{district}/ranking", assessmentHandler.Ranking).Methods("GET", "OPTIONS")

	// Superuser routes
	admin := v1.PathPrefix("/admin").Subrouter()
	admin.Use(authMW.RequireSuperuser)

	admin.HandleFunc("/summary", adminHandler.Summary).Methods("GET", "OPTIONS")
	admin.HandleFunc("/users", adminHandler.CreateUser).Methods("POST", "OPTIONS")
	admin.HandleFunc("/users", adminHandler.ListUsers).Methods("GET", "OPTIONS")
	admin.HandleFunc("/users/{id}", adminHandler.DeleteUser).Methods("DELETE", "OPTIONS")
	admin.HandleFunc("/activity", adminHandler.Activity).Methods("GET", "OPTIONS")
	admin.HandleFunc("/assessments/{id}", adminHandler.DeleteAssessment).Methods("DELETE", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization"
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
