package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/wiliamdarmawan/2fa-service/internal/config"
	"github.com/wiliamdarmawan/2fa-service/internal/handler"
	"github.com/wiliamdarmawan/2fa-service/internal/otp"
	"github.com/wiliamdarmawan/2fa-service/internal/queue"
	"github.com/wiliamdarmawan/2fa-service/internal/ratelimit"
	"github.com/wiliamdarmawan/2fa-service/internal/repository"
	"github.com/wiliamdarmawan/2fa-service/internal/service"

	_ "github.com/lib/pq"
)

const (
	loginRateLimit  = 5
	loginRateWindow = time.Minute
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize redis (OTP cache and rate-limit counters)
	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer rdb.Close()
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		logger.Fatalf("Failed to ping redis: %v", err)
	}

	// Connect to NATS for email delivery tasks
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	// Initialize layers
	repo := repository.NewRepository(db)
	svc := service.NewService(repo, otp.NewStore(rdb), queue.NewPublisher(nc), logger, cfg)
	h := handler.NewHandler(svc)
	limiter := ratelimit.NewLimiter(rdb, loginRateLimit, loginRateWindow)

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      handler.NewRouter(h, cfg, limiter, logger),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
