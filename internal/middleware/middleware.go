package middleware

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/wiliamdarmawan/2fa-service/internal/apierrors"
	"github.com/wiliamdarmawan/2fa-service/internal/config"
	"github.com/wiliamdarmawan/2fa-service/internal/ratelimit"
)

// EmailContextKey is the request-context key the token subject is stored under
const EmailContextKey = "email"

// AuthMiddleware verifies the bearer token and puts its subject email on
// the request context
func AuthMiddleware(cfg *config.Config) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				apierrors.Write(w, apierrors.Unauthorized("Missing or invalid authorization header"))
				return
			}

			claims := &jwt.RegisteredClaims{}
			token, err := jwt.ParseWithClaims(strings.TrimPrefix(header, "Bearer "), claims, func(t *jwt.Token) (interface{}, error) {
				if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
					return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
				}
				return []byte(cfg.JWTSecret), nil
			})
			if err != nil || !token.Valid || claims.Subject == "" {
				apierrors.Write(w, apierrors.Unauthorized("Invalid or expired token"))
				return
			}

			ctx := context.WithValue(r.Context(), EmailContextKey, claims.Subject)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RateLimitMiddleware counts requests per client address and rejects
// those beyond the window's limit, regardless of credential validity
func RateLimitMiddleware(limiter *ratelimit.Limiter, log *logrus.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			allowed, err := limiter.Allow(r.Context(), clientIP(r))
			if err != nil {
				log.Errorf("Rate limiter failed: %v", err)
				apierrors.Write(w, err)
				return
			}
			if !allowed {
				apierrors.Write(w, apierrors.RateLimited("Rate limit exceeded"))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		return strings.TrimSpace(strings.Split(fwd, ",")[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
