package main

import (
	"encoding/json"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/nats-io/nats.go"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/wiliamdarmawan/2fa-service/internal/config"
	"github.com/wiliamdarmawan/2fa-service/internal/queue"
	"github.com/wiliamdarmawan/2fa-service/internal/utils/email"
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

	// Connect to NATS
	nc, err := nats.Connect(cfg.NATSURL)
	if err != nil {
		logger.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer nc.Close()

	sender := email.NewSender(cfg, logger)

	var sent, failed atomic.Int64

	// Delivery failures are logged and counted, never re-queued; the API
	// already answered the client optimistically.
	sub, err := nc.QueueSubscribe(queue.SubjectEmailSend, queue.WorkerGroup, func(m *nats.Msg) {
		var task queue.EmailTask
		if err := json.Unmarshal(m.Data, &task); err != nil {
			logger.Errorf("Failed to decode email task: %v", err)
			failed.Add(1)
			return
		}
		if err := sender.Send(task.To, task.Subject, task.Body); err != nil {
			failed.Add(1)
			return
		}
		sent.Add(1)
	})
	if err != nil {
		logger.Fatalf("Failed to subscribe: %v", err)
	}

	// Periodic delivery stats
	c := cron.New()
	c.AddFunc("@every 1m", func() {
		logger.Infof("Delivery stats: sent=%d failed=%d", sent.Load(), failed.Load())
	})
	c.Start()

	logger.Infof("Email worker consuming %s", queue.SubjectEmailSend)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("Shutting down email worker")
	sub.Drain()
	<-c.Stop().Done()
	nc.Close()
}
