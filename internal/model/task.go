package model

import "time"

const (
	TaskStatusTodo       = "todo"
	TaskStatusInProgress = "in_progress"
	TaskStatusInReview   = "in_review"
	TaskStatusDone       = "done"
	TaskStatusBlocked    = "blocked"
)

const (
	TaskPriorityLow      = "low"
	TaskPriorityMedium   = "medium"
	TaskPriorityHigh     = "high"
	TaskPriorityCritical = "critical"
)

var taskStatuses = map[string]struct{}{
	TaskStatusTodo:       {},
	TaskStatusInProgress: {},
	TaskStatusInReview:   {},
	TaskStatusDone:       {},
	TaskStatusBlocked:    {},
}

var taskPriorities = map[string]struct{}{
	TaskPriorityLow:      {},
	TaskPriorityMedium:   {},
	TaskPriorityHigh:     {},
	TaskPriorityCritical: {},
}

func ValidTaskStatus(status string) bool {
	_, ok := taskStatuses[status]
	return ok
}

func ValidTaskPriority(priority string) bool {
	_, ok := taskPriorities[priority]
	return ok
}

type Task struct {
	ID                string     `json:"id"`
	ProjectID         string     `json:"project_id"`
	Title             string     `json:"title"`
	Description       string     `json:"description,omitempty"`
	Status            string     `json:"status"`
	Priority          string     `json:"priority"`
	StoryPoints       int        `json:"story_points,omitempty"`
	DueDate           *time.Time `json:"due_date,omitempty"`
	JiraIssueKey      string     `json:"jira_issue_key,omitempty"`
	GithubIssueNumber int        `json:"github_issue_number,omitempty"`
	CreatedBy         string     `json:"created_by"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

type TaskDetail struct {
	Task        Task             `json:"task"`
	Assignments []TaskAssignment `json:"assignments"`
}

type TaskAssignment struct {
	ID                  string    `json:"id"`
	TaskID              string    `json:"task_id"`
	UserID              string    `json:"user_id"`
	AssignedBy          string    `json:"assigned_by"`
	RecommendationScore float64   `json:"recommendation_score,omitempty"`
	Reason              string    `json:"reason,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
}

// AllocationCandidate is one scored row from the recommendation engine,
// ordered best first.
type AllocationCandidate struct {
	User          AuthUser `json:"user"`
	Score         float64  `json:"score"`
	SkillMatch    float64  `json:"skill_match"`
	Workload      float64  `json:"workload"`
	Growth        float64  `json:"growth"`
	Collaboration float64  `json:"collaboration"`
	Availability  float64  `json:"availability"`
	OpenTasks     int      `json:"open_tasks"`
	Reason        string   `json:"reason"`
}

type AllocationResult struct {
	Task       Task                  `json:"task"`
	Assigned   *TaskAssignment       `json:"assigned,omitempty"`
	Candidates []AllocationCandidate `json:"candidates"`
}
