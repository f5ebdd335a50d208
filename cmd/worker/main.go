package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/leave-backend-go/internal/config"
	appHTTP "github.com/cmlabs-hris/leave-backend-go/internal/handler/http"
	handlerMQ "github.com/cmlabs-hris/leave-backend-go/internal/handler/mq"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/email"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/mq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Worker exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.App.Env, cfg.SlogLevel()).With(slog.String("component", "worker"))
	slog.SetDefault(logger)

	if cfg.RabbitMQ.URL == "" {
		return errors.New("RABBITMQ_URL is required for the worker")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	mailer, err := email.NewEmailService(cfg.SMTP)
	if err != nil {
		return fmt.Errorf("init email service: %w", err)
	}
	if cfg.SMTP.Host == "" {
		slog.Warn("SMTP_HOST not set, e-mails will be skipped")
	}

	// a nil interface, not a nil *cache.Deduper, keeps dedup off
	var dedup handlerMQ.Deduper
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		dedup = cache.NewDeduper(rdb, cfg.Redis.DedupTTL)
	} else {
		slog.Warn("REDIS_ADDR not set, redelivered events may be mailed twice")
	}

	consumer, err := mq.NewConsumer(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange, cfg.RabbitMQ.Queue, mq.RoutingLeaveAll)
	if err != nil {
		return fmt.Errorf("connect rabbitmq: %w", err)
	}
	defer consumer.Close()

	handler := handlerMQ.NewLeaveEmailHandler(mailer, dedup, cfg.App.FrontendURL)
	consumer.SetHandler(handler.Handle)

	if cfg.App.WorkerMetricsPort > 0 {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		metricsServer := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.App.WorkerMetricsPort),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("Metrics server error", "error", err)
			}
		}()
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = metricsServer.Shutdown(shutdownCtx)
		}()
	}

	slog.Info("Worker started", "queue", cfg.RabbitMQ.Queue, "exchange", cfg.RabbitMQ.Exchange)
	if err := consumer.Run(ctx); err != nil {
		return fmt.Errorf("consume: %w", err)
	}
	slog.Info("Worker stopped")
	return nil
}
