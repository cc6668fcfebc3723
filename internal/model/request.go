package model

import "time"

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type PasswordResetRequest struct {
	Email string `json:"email"`
}

type PasswordResetConfirmRequest struct {
	Token       string `json:"token"`
	NewPassword string `json:"new_password"`
}

type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password"`
	NewPassword     string `json:"new_password"`
}

type UpdateUserRequest struct {
	Email    *string `json:"email,omitempty"`
	Username *string `json:"username,omitempty"`
	FullName *string `json:"full_name,omitempty"`
	Role     *string `json:"role,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

type CreateTeamRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	LeadID      string `json:"lead_id"`
}

type UpdateTeamRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	LeadID      *string `json:"lead_id,omitempty"`
}

type AddMemberRequest struct {
	UserID string `json:"user_id"`
}

type CreateProjectRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Status      string     `json:"status"`
	TeamID      string     `json:"team_id"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type UpdateProjectRequest struct {
	Name        *string    `json:"name,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	TeamID      *string    `json:"team_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
}

type CreateTaskRequest struct {
	ProjectID         string     `json:"project_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description"`
	Priority          string     `json:"priority"`
	StoryPoints       int        `json:"story_points"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	JiraIssueKey      string     `json:"jira_issue_key"`
	GithubIssueNumber int        `json:"github_issue_number"`
}

type UpdateTaskRequest struct {
	Title       *string    `json:"title,omitempty"`
	Description *string    `json:"description,omitempty"`
	Status      *string    `json:"status,omitempty"`
	Priority    *string    `json:"priority,omitempty"`
	StoryPoints *int       `json:"story_points,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
}

type AssignTaskRequest struct {
	UserID string `json:"user_id"`
}

type CreateSkillRequest struct {
	Name     string `json:"name"`
	Category string `json:"category"`
}

type SetUserSkillRequest struct {
	SkillID     string  `json:"skill_id"`
	Proficiency float64 `json:"proficiency"`
}

type RecordActivityRequest struct {
	SkillID        string `json:"skill_id"`
	Commits        int    `json:"commits"`
	LinesChanged   int    `json:"lines_changed"`
	Reviews        int    `json:"reviews"`
	TasksCompleted int    `json:"tasks_completed"`
	Collaborations int    `json:"collaborations"`
}

type IngestMessageRequest struct {
	Platform string `json:"platform"`
	Channel  string `json:"channel"`
	Content  string `json:"content"`
}

type GenerateRetroRequest struct {
	TeamID     string `json:"team_id"`
	PeriodDays int    `json:"period_days"`
}
