package service

import (
	"context"
	"time"

	"github.com/jellydator/ttlcache/v3"

	"teamiq/internal/model"
	"teamiq/internal/repository"
)

// DashboardService assembles the role-shaped stats payload. The payload is
// cached per user+role: it backs the landing page, which every client polls.
type DashboardService struct {
	tasks         *repository.TaskRepository
	teams         *repository.TeamRepository
	projects      *repository.ProjectRepository
	users         *repository.UserRepository
	notifications *NotificationService
	sentiment     *SentimentService
	cache         *ttlcache.Cache[string, model.DashboardStats]
}

func NewDashboardService(
	tasks *repository.TaskRepository,
	teams *repository.TeamRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
	sentiment *SentimentService,
	cacheTTL time.Duration,
) *DashboardService {
	if cacheTTL <= 0 {
		cacheTTL = 30 * time.Second
	}

	cache := ttlcache.New(
		ttlcache.WithTTL[string, model.DashboardStats](cacheTTL),
		ttlcache.WithDisableTouchOnHit[string, model.DashboardStats](),
	)
	go cache.Start()

	return &DashboardService{
		tasks:         tasks,
		teams:         teams,
		projects:      projects,
		users:         users,
		notifications: notifications,
		sentiment:     sentiment,
		cache:         cache,
	}
}

// Stats returns the caller's dashboard. Everyone sees their own open tasks
// and unread notifications; leads and managers add their first team's task
// breakdown and sentiment snapshot; admins add platform totals.
func (s *DashboardService) Stats(ctx context.Context, userID string, role string) (model.DashboardStats, error) {
	key := userID + "|" + role
	if item := s.cache.Get(key); item != nil {
		return item.Value(), nil
	}

	var stats model.DashboardStats

	openTasks, err := s.tasks.CountOpenAssignments(ctx, userID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	stats.OpenTasks = openTasks

	unread, err := s.notifications.UnreadCount(ctx, userID)
	if err != nil {
		return model.DashboardStats{}, err
	}
	stats.UnreadNotifications = unread

	if role == model.RoleTeamLead || role == model.RoleManager {
		if err := s.addTeamSection(ctx, userID, &stats); err != nil {
			return model.DashboardStats{}, err
		}
	}

	if role == model.RoleAdmin {
		if err := s.addPlatformSection(ctx, &stats); err != nil {
			return model.DashboardStats{}, err
		}
	}

	s.cache.Set(key, stats, ttlcache.DefaultTTL)
	return stats, nil
}

func (s *DashboardService) addTeamSection(ctx context.Context, userID string, stats *model.DashboardStats) error {
	teams, err := s.teams.TeamsForUser(ctx, userID)
	if err != nil {
		return err
	}
	if len(teams) == 0 {
		return nil
	}
	team := teams[0]

	breakdown, err := s.tasks.StatusBreakdownForTeam(ctx, team.ID)
	if err != nil {
		return err
	}
	stats.TasksByStatus = breakdown

	sentiment, err := s.sentiment.TeamSummary(ctx, team.ID)
	if err != nil {
		return err
	}
	stats.TeamSentiment = &sentiment.Summary
	return nil
}

func (s *DashboardService) addPlatformSection(ctx context.Context, stats *model.DashboardStats) error {
	users, err := s.users.Count(ctx, "")
	if err != nil {
		return err
	}
	teams, err := s.teams.Count(ctx)
	if err != nil {
		return err
	}
	projects, err := s.projects.Count(ctx)
	if err != nil {
		return err
	}

	stats.TotalUsers = users
	stats.TotalTeams = teams
	stats.TotalProjects = projects
	return nil
}
