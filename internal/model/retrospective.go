package model

import "time"

type Retrospective struct {
	ID           string    `json:"id"`
	TeamID       string    `json:"team_id"`
	PeriodStart  time.Time `json:"period_start"`
	PeriodEnd    time.Time `json:"period_end"`
	Highlights   []string  `json:"highlights"`
	Lowlights    []string  `json:"lowlights"`
	ActionItems  []string  `json:"action_items"`
	TasksDone    int       `json:"tasks_done"`
	TasksBlocked int       `json:"tasks_blocked"`
	AvgSentiment float64   `json:"avg_sentiment"`
	GeneratedBy  string    `json:"generated_by"`
	CreatedAt    time.Time `json:"created_at"`
}
