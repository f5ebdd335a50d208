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
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/balance"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/leave"
	"github.com/cmlabs-hris/leave-backend-go/internal/domain/stats"
	appHTTP "github.com/cmlabs-hris/leave-backend-go/internal/handler/http"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/cache"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/cron"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/database"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/metrics"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/mq"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/oauth"
	"github.com/cmlabs-hris/leave-backend-go/internal/pkg/sse"
	"github.com/cmlabs-hris/leave-backend-go/internal/repository/postgresql"
	serviceAuth "github.com/cmlabs-hris/leave-backend-go/internal/service/auth"
	serviceBalance "github.com/cmlabs-hris/leave-backend-go/internal/service/balance"
	serviceLeave "github.com/cmlabs-hris/leave-backend-go/internal/service/leave"
	serviceNotification "github.com/cmlabs-hris/leave-backend-go/internal/service/notification"
	serviceStats "github.com/cmlabs-hris/leave-backend-go/internal/service/stats"
	serviceUser "github.com/cmlabs-hris/leave-backend-go/internal/service/user"
)

func main() {
	if err := run(); err != nil {
		slog.Error("Server exited", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger := appHTTP.NewLogger(os.Stdout, cfg.App.Env, cfg.SlogLevel())
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgreSQLDB(ctx, cfg.DatabaseURL(), database.PoolOptions{
		MaxConns:        int32(cfg.Database.MaxConns),
		MinConns:        int32(cfg.Database.MinConns),
		MaxConnIdleTime: 5 * time.Minute,
		LogQueries:      cfg.SlogLevel() == slog.LevelDebug,
	})
	if err != nil {
		return fmt.Errorf("connect database: %w", err)
	}
	defer db.Close()

	tx := postgresql.NewTransactor(db)
	userRepo := postgresql.NewUserRepository(db)
	balanceRepo := postgresql.NewBalanceRepository(db)
	leaveRepo := postgresql.NewLeaveRepository(db)
	notificationRepo := postgresql.NewNotificationRepository(db)
	statsRepo := postgresql.NewStatsRepository(db)
	JWTRepository := postgresql.NewJWTRepository(db)

	// Redis only backs the stats snapshot here; without it stats are computed per call
	var statsCache stats.Cache
	if cfg.Redis.Addr != "" {
		rdb, err := cache.NewRedisClient(ctx, cfg.Redis)
		if err != nil {
			return err
		}
		defer rdb.Close()
		statsCache = cache.NewStatsCache(rdb, cfg.Redis.StatsCacheTTL)
		slog.Info("Stats cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.StatsCacheTTL)
	} else {
		slog.Warn("REDIS_ADDR not set, stats cache disabled")
	}

	var events leave.EventPublisher
	if cfg.RabbitMQ.URL != "" {
		publisher, err := mq.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Exchange)
		if err != nil {
			return fmt.Errorf("connect rabbitmq: %w", err)
		}
		defer publisher.Close()
		events = publisher
		slog.Info("Leave events enabled", "exchange", cfg.RabbitMQ.Exchange)
	} else {
		slog.Warn("RABBITMQ_URL not set, leave events disabled")
	}

	accessExp, err := time.ParseDuration(cfg.JWT.AccessExpiration)
	if err != nil {
		return fmt.Errorf("parse JWT_ACCESS_EXPIRATION_TIME: %w", err)
	}
	refreshExp, err := time.ParseDuration(cfg.JWT.RefreshExpiration)
	if err != nil {
		return fmt.Errorf("parse JWT_REFRESH_EXPIRATION_TIME: %w", err)
	}
	secureCookies := cfg.App.Env != "development"
	JWTService := jwt.NewJWTService(cfg.JWT.Secret, accessExp, refreshExp, secureCookies)

	var GoogleService oauth.GoogleService
	if cfg.OAuth2Google.Enabled() {
		GoogleService = oauth.NewGoogleService(cfg.OAuth2Google.ClientID, cfg.OAuth2Google.ClientSecret, cfg.OAuth2Google.RedirectURL, cfg.OAuth2Google.Scopes)
	}

	hub := sse.NewHub(sse.WithDropHandler(func(e sse.Event) {
		metrics.IncrementSSEEventDropped(e.Event)
		slog.Warn("SSE stream full, event dropped", "user_id", e.UserID, "event", e.Event)
	}))
	metrics.RegisterSSESubscribers(hub.TotalSubscribers)

	credits := balance.Credits{
		Annual:    cfg.Balance.AnnualCredit,
		Casual:    cfg.Balance.CasualCredit,
		Sick:      cfg.Balance.SickCredit,
		Maternity: cfg.Balance.MaternityCredit,
		Paternity: cfg.Balance.PaternityCredit,
		Study:     cfg.Balance.StudyCredit,
	}

	statsService := serviceStats.NewStatsService(statsRepo, statsCache)
	notificationService := serviceNotification.NewNotificationService(notificationRepo, hub)
	balanceService := serviceBalance.NewBalanceService(tx, balanceRepo, userRepo, notificationService, statsService, credits)
	userService := serviceUser.NewUserService(userRepo, statsService)
	leaveService := serviceLeave.NewLeaveService(tx, leaveRepo, balanceRepo, userRepo, notificationService, statsService, events)
	authService := serviceAuth.NewAuthService(tx, userRepo, JWTService, JWTRepository, balanceService, statsService)

	scheduler := cron.NewScheduler(ctx)
	scheduler.AddJob(cron.YearLedgerJob(balanceService, cfg.Cron.LedgerInterval))
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:      logger,
			CORSOrigins: cfg.App.CORSOrigins,
		},
		JWTService,
		appHTTP.NewAuthHandler(JWTService, authService, GoogleService, cfg.App.FrontendURL, secureCookies),
		appHTTP.NewUserHandler(userService),
		appHTTP.NewBalanceHandler(balanceService),
		appHTTP.NewLeaveHandler(leaveService),
		appHTTP.NewNotificationHandler(notificationService, JWTService),
		appHTTP.NewStatsHandler(statsService),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		slog.Info("Server running", "addr", server.Addr, "env", cfg.App.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		return fmt.Errorf("listen: %w", err)
	case <-ctx.Done():
	}

	slog.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// open SSE streams end with their request context
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
