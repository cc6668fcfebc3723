package model

import "time"

const (
	ProjectStatusPlanning  = "planning"
	ProjectStatusActive    = "active"
	ProjectStatusOnHold    = "on_hold"
	ProjectStatusCompleted = "completed"
	ProjectStatusArchived  = "archived"
)

var projectStatuses = map[string]struct{}{
	ProjectStatusPlanning:  {},
	ProjectStatusActive:    {},
	ProjectStatusOnHold:    {},
	ProjectStatusCompleted: {},
	ProjectStatusArchived:  {},
}

func ValidProjectStatus(status string) bool {
	_, ok := projectStatuses[status]
	return ok
}

type Project struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	TeamID      string     `json:"team_id,omitempty"`
	StartDate   *time.Time `json:"start_date,omitempty"`
	EndDate     *time.Time `json:"end_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

type ProjectDetail struct {
	Project
	Members []AuthUser `json:"members"`
}
