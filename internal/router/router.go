package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamiq/internal/config"
	"teamiq/internal/handler"
	"teamiq/internal/middleware"
	"teamiq/internal/model"
)

// Handlers carries every endpoint group the router mounts; the app layer
// builds it once all services are wired.
type Handlers struct {
	Auth          *handler.AuthHandler
	User          *handler.UserHandler
	Team          *handler.TeamHandler
	Project       *handler.ProjectHandler
	Task          *handler.TaskHandler
	Skill         *handler.SkillHandler
	Sentiment     *handler.SentimentHandler
	Retro         *handler.RetroHandler
	Notification  *handler.NotificationHandler
	Dashboard     *handler.DashboardHandler
	Health        *handler.HealthHandler
	MetricsExport http.Handler
}

func New(cfg *config.Config, authMiddleware *middleware.AuthMiddleware, h Handlers) http.Handler {
	r := chi.NewRouter()
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(cfg.RateLimitRPM, cfg.AuthRateLimitRPM)

	r.Use(middleware.Recovery)
	r.Use(middleware.Logging)
	r.Use(middleware.Metrics)
	r.Use(middleware.CORS(cfg.CORSOrigins))
	r.Use(rateLimitMiddleware.Handler)

	r.Get("/health", h.Health.Check)
	r.Method(http.MethodGet, "/metrics", h.MetricsExport)

	r.Route("/api", func(api chi.Router) {
		timed := middleware.Timeout(cfg.RequestTimeout)

		api.Route("/notifications", func(notifications chi.Router) {
			notifications.Use(authMiddleware.RequireAuth)
			notifications.With(timed).Get("/", h.Notification.List)
			notifications.With(timed).Get("/count", h.Notification.Count)
			notifications.With(timed).Post("/{id}/read", h.Notification.MarkRead)
			notifications.With(timed).Post("/read-all", h.Notification.MarkAllRead)
			// The stream stays off the timeout middleware: a buffering
			// timeout handler would hold SSE frames forever.
			notifications.Get("/stream", h.Notification.Stream)
		})

		api.Group(func(api chi.Router) {
			api.Use(timed)

			api.Route("/auth", func(auth chi.Router) {
				auth.Post("/login", h.Auth.Login)
				auth.Post("/register", h.Auth.Register)
				auth.Post("/refresh", h.Auth.Refresh)
				auth.With(authMiddleware.RequireAuth).Post("/logout", h.Auth.Logout)
				auth.With(authMiddleware.RequireAuth).Get("/me", h.Auth.Me)
				auth.Post("/password-reset", h.Auth.PasswordReset)
				auth.Post("/password-reset/confirm", h.Auth.PasswordResetConfirm)
				auth.With(authMiddleware.RequireAuth).Post("/password-change", h.Auth.PasswordChange)
			})

			api.Route("/users", func(users chi.Router) {
				users.Use(authMiddleware.RequireAuth)
				users.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleHR, model.RoleRecruiter, model.RoleAdmin)).Get("/", h.User.List)
				users.Get("/{id}", h.User.Get)
				users.Patch("/{id}", h.User.Update)
				users.With(authMiddleware.RequireRoles(model.RoleAdmin)).Delete("/{id}", h.User.Deactivate)
			})

			api.Route("/teams", func(teams chi.Router) {
				teams.Use(authMiddleware.RequireAuth)
				teams.Get("/", h.Team.List)
				teams.Get("/{id}", h.Team.Get)
				teams.Get("/{id}/members", h.Team.Members)
				teams.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleAdmin)).Post("/", h.Team.Create)
				teams.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleAdmin)).Patch("/{id}", h.Team.Update)
				teams.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleAdmin)).Delete("/{id}", h.Team.Delete)
				teams.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Post("/{id}/members", h.Team.AddMember)
				teams.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Delete("/{id}/members/{userID}", h.Team.RemoveMember)
			})

			api.Route("/projects", func(projects chi.Router) {
				projects.Use(authMiddleware.RequireAuth)
				projects.Get("/", h.Project.List)
				projects.Get("/{id}", h.Project.Get)
				projects.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Post("/", h.Project.Create)
				projects.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Patch("/{id}", h.Project.Update)
				projects.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Delete("/{id}", h.Project.Delete)
				projects.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Post("/{id}/members", h.Project.AddMember)
				projects.With(authMiddleware.RequireRoles(model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Delete("/{id}/members/{userID}", h.Project.RemoveMember)
			})

			api.Route("/tasks", func(tasks chi.Router) {
				tasks.Use(authMiddleware.RequireAuth)
				tasks.Get("/", h.Task.List)
				tasks.Get("/{id}", h.Task.Get)
				tasks.Post("/", h.Task.Create)
				tasks.Patch("/{id}", h.Task.Update)
				tasks.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Delete("/{id}", h.Task.Delete)
				tasks.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Post("/{id}/assign", h.Task.Assign)
				tasks.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Get("/{id}/recommendations", h.Task.Recommend)
				tasks.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Post("/{id}/allocate", h.Task.Allocate)
			})

			api.Route("/skills", func(skills chi.Router) {
				skills.Use(authMiddleware.RequireAuth)
				skills.Get("/", h.Skill.List)
				skills.With(authMiddleware.RequireRoles(model.RoleAdmin)).Post("/", h.Skill.Create)
				skills.With(authMiddleware.RequireRoles(model.RoleAdmin)).Delete("/{id}", h.Skill.Delete)
				skills.Get("/users/{id}", h.Skill.UserSkills)
				skills.Put("/users/{id}", h.Skill.SetUserSkill)
				skills.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Post("/users/{id}/activity", h.Skill.RecordActivity)
				skills.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Post("/users/{id}/recalculate", h.Skill.Recalculate)
			})

			api.With(authMiddleware.RequireAuth).Post("/messages", h.Sentiment.Ingest)

			api.Route("/sentiment", func(sentiment chi.Router) {
				sentiment.Use(authMiddleware.RequireAuth)
				sentiment.Get("/users/{id}", h.Sentiment.UserSummary)
				sentiment.With(authMiddleware.RequireRoles(model.RoleHR, model.RoleManager, model.RoleTeamLead, model.RoleAdmin)).Get("/teams/{id}", h.Sentiment.TeamSummary)
				sentiment.With(authMiddleware.RequireRoles(model.RoleHR, model.RoleManager, model.RoleAdmin)).Get("/alerts", h.Sentiment.Alerts)
			})

			api.Route("/retros", func(retros chi.Router) {
				retros.Use(authMiddleware.RequireAuth)
				retros.With(authMiddleware.RequireRoles(model.RoleTeamLead, model.RoleManager, model.RoleAdmin)).Post("/generate", h.Retro.Generate)
				retros.Get("/recent", h.Retro.Recent)
			})

			api.With(authMiddleware.RequireAuth).Get("/dashboard/stats", h.Dashboard.Stats)
		})
	})

	return r
}
