package model

// DashboardStats is shaped by role: every user gets their own slice, leads
// and managers get team aggregates, admins get platform counts.
type DashboardStats struct {
	OpenTasks           int               `json:"open_tasks"`
	UnreadNotifications int               `json:"unread_notifications"`
	TasksByStatus       map[string]int    `json:"tasks_by_status,omitempty"`
	TeamSentiment       *SentimentSummary `json:"team_sentiment,omitempty"`
	TotalUsers          int               `json:"total_users,omitempty"`
	TotalTeams          int               `json:"total_teams,omitempty"`
	TotalProjects       int               `json:"total_projects,omitempty"`
}
