package app

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

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"teamiq/internal/config"
	"teamiq/internal/database"
	"teamiq/internal/event"
	"teamiq/internal/handler"
	"teamiq/internal/metrics"
	"teamiq/internal/middleware"
	"teamiq/internal/repository"
	"teamiq/internal/router"
	"teamiq/internal/service"
)

// Version is stamped at build time via
// -ldflags "-X teamiq/internal/app.Version=v1.2.3".
var Version = "dev"

type App struct {
	server       *http.Server
	db           *database.DB
	cleanupFuncs []func()
}

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	slog.Info("connecting to PostgreSQL")
	db, err := database.New(context.Background(), cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := db.EnsureSchema(context.Background()); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	pool := db.Pool
	userRepo := repository.NewUserRepository(pool)
	tokenRepo := repository.NewTokenRepository(pool)
	resetRepo := repository.NewResetRepository(pool)
	teamRepo := repository.NewTeamRepository(pool)
	projectRepo := repository.NewProjectRepository(pool)
	taskRepo := repository.NewTaskRepository(pool)
	skillRepo := repository.NewSkillRepository(pool)
	messageRepo := repository.NewMessageRepository(pool)
	retroRepo := repository.NewRetroRepository(pool)
	notificationRepo := repository.NewNotificationRepository(pool)
	slog.Info("database ready")

	authService, err := service.NewAuthService(
		cfg.JWTSecret,
		cfg.JWTAccessTTL,
		cfg.JWTRefreshTTL,
		cfg.PasswordResetTTL,
		cfg.BcryptCost,
		userRepo,
		tokenRepo,
		resetRepo,
	)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize auth service: %w", err)
	}
	authMiddleware := middleware.NewAuthMiddleware(authService)

	bus := event.NewBus()
	notificationService := service.NewNotificationService(notificationRepo, bus)

	userService := service.NewUserService(userRepo, tokenRepo)
	teamService := service.NewTeamService(teamRepo, userRepo)
	projectService := service.NewProjectService(projectRepo, teamRepo, userRepo)
	taskService := service.NewTaskService(taskRepo, projectRepo, userRepo, notificationService)
	skillService := service.NewSkillService(skillRepo, userRepo)
	sentimentService := service.NewSentimentService(messageRepo, userRepo, notificationService, cfg.SentimentWindow, cfg.SentimentCacheTTL)
	allocationService := service.NewAllocationService(taskRepo, projectRepo, userRepo, skillRepo, notificationService, cfg.AllocationCapacity)
	retroService := service.NewRetroService(retroRepo, teamRepo, taskRepo, messageRepo, notificationService)
	dashboardService := service.NewDashboardService(taskRepo, teamRepo, projectRepo, userRepo, notificationService, sentimentService, cfg.DashboardCacheTTL)

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.RegisterCollectors(registry)

	appRouter := router.New(cfg, authMiddleware, router.Handlers{
		Auth:          handler.NewAuthHandler(authService),
		User:          handler.NewUserHandler(userService),
		Team:          handler.NewTeamHandler(teamService),
		Project:       handler.NewProjectHandler(projectService),
		Task:          handler.NewTaskHandler(taskService, allocationService),
		Skill:         handler.NewSkillHandler(skillService),
		Sentiment:     handler.NewSentimentHandler(sentimentService),
		Retro:         handler.NewRetroHandler(retroService),
		Notification:  handler.NewNotificationHandler(notificationService, bus),
		Dashboard:     handler.NewDashboardHandler(dashboardService),
		Health:        handler.NewHealthHandler(db, Version),
		MetricsExport: promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
	})

	cleanupCtx, cleanupCancel := context.WithCancel(context.Background())
	go tokenJanitor(cleanupCtx, tokenRepo, resetRepo)

	server := &http.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           appRouter,
		ReadHeaderTimeout: cfg.ServerReadHeaderTimeout,
		WriteTimeout:      cfg.ServerWriteTimeout,
		IdleTimeout:       cfg.ServerIdleTimeout,
	}

	return &App{
		server: server,
		db:     db,
		cleanupFuncs: []func(){
			func() {
				db.Close()
			},
			func() {
				cleanupCancel()
			},
		},
	}, nil
}

// tokenJanitor deletes expired refresh and reset tokens hourly. Expired rows
// are already unusable; this only keeps the tables from growing unbounded.
func tokenJanitor(ctx context.Context, tokens *repository.TokenRepository, resets *repository.ResetRepository) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n, err := tokens.CleanExpired(ctx); err != nil {
				slog.Warn("refresh token cleanup failed", "error", err)
			} else if n > 0 {
				slog.Info("cleaned expired refresh tokens", "count", n)
			}
			if n, err := resets.CleanExpired(ctx); err != nil {
				slog.Warn("reset token cleanup failed", "error", err)
			} else if n > 0 {
				slog.Info("cleaned expired reset tokens", "count", n)
			}
		}
	}
}

func (a *App) Run() error {
	go func() {
		slog.Info("server starting", "addr", a.server.Addr, "version", Version)
		if serveErr := a.server.ListenAndServe(); serveErr != nil && !errors.Is(serveErr, http.ErrServerClosed) {
			slog.Error("server failed", "error", serveErr)
			os.Exit(1)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}

	// Run cleanup functions once no requests are in flight.
	for _, cleanup := range a.cleanupFuncs {
		cleanup()
	}

	slog.Info("server stopped")
	return nil
}
