// Command worker consumes booking events and delivers admin push
// notifications and customer e-mail.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"voyago/internal/config"
	"voyago/internal/db"
	"voyago/internal/domain/pushtokens"
	"voyago/internal/events"
	"voyago/internal/logger"
	"voyago/internal/mailer"
	"voyago/internal/notifications"
	"voyago/internal/worker"
)

const metricsAddr = ":9102"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading config: %v", err)
	}

	logger := logger.New(cfg.Env)
	defer logger.Sync()

	if len(cfg.Kafka.Brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required for the worker")
	}

	pool, err := db.New(cfg.DB.Addr, cfg.DB.MaxConns, cfg.DB.MaxIdleTime)
	if err != nil {
		logger.Fatal(err)
	}
	defer pool.Close()

	var mail mailer.Client = mailer.LogMailer{Logf: logger.Infof}
	if cfg.Mail.SMTPHost != "" {
		smtp, err := mailer.NewSMTPMailer(cfg.Mail.SMTPHost, cfg.Mail.SMTPPort, cfg.Mail.SMTPUser, cfg.Mail.SMTPPass, cfg.Mail.From)
		if err != nil {
			logger.Fatal(err)
		}
		mail = smtp
	}

	consumer := events.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.ConsumerGroup, cfg.Kafka.BookingTopic)
	defer consumer.Close()
	dlq := events.NewDeadLetterWriter(cfg.Kafka.Brokers, cfg.Kafka.DeadLetterTopic)
	defer dlq.Close()

	handler := worker.NewHandler(
		logger,
		notifications.NewExpoAdapter(cfg.ExpoAccessToken),
		pushtokens.NewRepository(pool),
		mail,
	)
	dispatcher := worker.NewDispatcher(logger, handler, consumer, dlq, cfg.Worker.MaxWorkers)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: metricsAddr, Handler: mux, ReadTimeout: 5 * time.Second}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Errorw("metrics server stopped", "error", err)
		}
	}()

	logger.Infow("worker started",
		"topic", cfg.Kafka.BookingTopic,
		"group", cfg.Kafka.ConsumerGroup,
		"workers", cfg.Worker.MaxWorkers,
	)

	if err := dispatcher.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Errorw("dispatcher stopped", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)

	logger.Info("worker stopped")
}
