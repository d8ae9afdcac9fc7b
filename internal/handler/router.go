package handler

import (
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wiliamdarmawan/2fa-service/internal/config"
	"github.com/wiliamdarmawan/2fa-service/internal/middleware"
	"github.com/wiliamdarmawan/2fa-service/internal/ratelimit"
)

// NewRouter registers all routes with their middleware
func NewRouter(h *Handler, cfg *config.Config, limiter *ratelimit.Limiter, log *logrus.Logger) *mux.Router {
	r := mux.NewRouter()

	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/verify-otp", h.VerifyOTP).Methods("POST")

	// Login is rate-limited per client address
	loginRouter := r.Path("/login").Subrouter()
	loginRouter.Use(middleware.RateLimitMiddleware(limiter, log))
	loginRouter.HandleFunc("", h.Login).Methods("POST")

	// Protected routes
	authRouter := r.PathPrefix("/dashboard").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("", h.Dashboard).Methods("GET")

	return r
}
