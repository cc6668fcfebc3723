package model

import "time"

const (
	NotificationTaskAssigned   = "task_assigned"
	NotificationTaskUpdated    = "task_updated"
	NotificationSentimentAlert = "sentiment_alert"
	NotificationRetroReady     = "retro_ready"
	NotificationSystem         = "system"
)

type Notification struct {
	ID         string     `json:"id"`
	UserID     string     `json:"user_id"`
	Type       string     `json:"type"`
	Title      string     `json:"title"`
	Body       string     `json:"body,omitempty"`
	RelatedID  string     `json:"related_id,omitempty"`
	IsRead     bool       `json:"is_read"`
	ReadAt     *time.Time `json:"read_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
}
