//go:build integration

// Integration tests exercise the full HTTP stack against a real PostgreSQL
// instance. Point DATABASE_URL at a scratch database and run:
//
//	DATABASE_URL=postgres://localhost/teamiq_test go test -tags integration ./test/integration/...
//
// Every test truncates all tables, so never aim this at a database you care
// about.
package integration

import (
	"context"
	"fmt"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"teamiq/internal/config"
	"teamiq/internal/database"
	"teamiq/internal/event"
	"teamiq/internal/handler"
	"teamiq/internal/middleware"
	"teamiq/internal/repository"
	"teamiq/internal/router"
	"teamiq/internal/service"
	"teamiq/pkg/teamiq"
)

const testPassword = "p@ss123456"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()

	dsn := os.Getenv("DATABASE_URL")
	if dsn == "" {
		t.Skip("DATABASE_URL not set; skipping integration test")
	}

	ctx := context.Background()
	db, err := database.New(ctx, dsn, 5, 1)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	require.NoError(t, db.EnsureSchema(ctx))
	truncateAll(t, db)

	cfg := &config.Config{
		ServerPort:         "0",
		RequestTimeout:     30 * time.Second,
		JWTSecret:          "integration-test-secret",
		JWTAccessTTL:       15 * time.Minute,
		JWTRefreshTTL:      24 * time.Hour,
		PasswordResetTTL:   30 * time.Minute,
		BcryptCost:         bcrypt.MinCost, // fast hashing keeps the suite quick
		CORSOrigins:        []string{"*"},
		RateLimitRPM:       100000,
		AuthRateLimitRPM:   100000,
		SentimentWindow:    168 * time.Hour,
		SentimentCacheTTL:  time.Millisecond,
		DashboardCacheTTL:  time.Millisecond,
		AllocationCapacity: 5,
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

	authService, err := service.NewAuthService(
		cfg.JWTSecret, cfg.JWTAccessTTL, cfg.JWTRefreshTTL, cfg.PasswordResetTTL,
		cfg.BcryptCost, userRepo, tokenRepo, resetRepo,
	)
	require.NoError(t, err)

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

	appRouter := router.New(cfg, middleware.NewAuthMiddleware(authService), router.Handlers{
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
		Health:        handler.NewHealthHandler(db, "test"),
		MetricsExport: promhttp.HandlerFor(prometheus.NewRegistry(), promhttp.HandlerOpts{}),
	})

	srv := httptest.NewServer(appRouter)
	t.Cleanup(srv.Close)
	return srv
}

func truncateAll(t *testing.T, db *database.DB) {
	t.Helper()
	_, err := db.Pool.Exec(context.Background(), `
		TRUNCATE users, refresh_tokens, password_reset_tokens, teams,
		team_members, projects, project_members, tasks, task_assignments,
		skills, user_skills, messages, retrospectives, notifications CASCADE`)
	require.NoError(t, err)
}

// newSDKSession wires the client SDK against the test server with an
// in-memory token store.
func newSDKSession(t *testing.T, srv *httptest.Server) (*teamiq.Session, *teamiq.Client) {
	t.Helper()
	store := teamiq.NewMemoryTokenStore()
	client := teamiq.NewClient(srv.URL, store)
	return teamiq.NewSession(client, store), client
}

// registerUser creates an account through the public endpoint and returns a
// signed-in SDK session for it.
func registerUser(t *testing.T, srv *httptest.Server, username string, role string) (*teamiq.Session, *teamiq.Client, *teamiq.User) {
	t.Helper()

	session, client := newSDKSession(t, srv)
	user, err := session.Register(context.Background(), teamiq.RegisterRequest{
		Email:    fmt.Sprintf("%s@example.com", username),
		Username: username,
		Password: testPassword,
		FullName: "Test " + username,
		Role:     role,
	})
	require.NoError(t, err)
	require.NotNil(t, user, "registration auto-logs in")
	return session, client, user
}
