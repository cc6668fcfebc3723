package model

import "time"

type Skill struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Category  string    `json:"category,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

type UserSkill struct {
	UserID           string     `json:"user_id"`
	SkillID          string     `json:"skill_id"`
	SkillName        string     `json:"skill_name"`
	Proficiency      float64    `json:"proficiency"`
	CommitCount      int        `json:"commit_count"`
	LinesChanged     int        `json:"lines_changed"`
	ReviewCount      int        `json:"review_count"`
	TasksCompleted   int        `json:"tasks_completed"`
	Collaborations   int        `json:"collaborations"`
	LastRecalculated *time.Time `json:"last_recalculated,omitempty"`
	UpdatedAt        time.Time  `json:"updated_at"`
}

// ActivityStats carries the evidence counters the proficiency model blends.
type ActivityStats struct {
	Commits        int
	LinesChanged   int
	Reviews        int
	TasksCompleted int
	Collaborations int
}
