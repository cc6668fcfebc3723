package event

import "time"

type Type string

// One event type per notification type, plus system for everything the
// platform emits on its own behalf.
const (
	TypeTaskAssigned   Type = "task.assigned"
	TypeTaskUpdated    Type = "task.updated"
	TypeSentimentAlert Type = "sentiment.alert"
	TypeRetroReady     Type = "retro.ready"
	TypeSystem         Type = "system"
)

// ForNotification maps a stored notification type onto its stream event
// type; unknown values degrade to system rather than dropping the event.
func ForNotification(notificationType string) Type {
	switch notificationType {
	case "task_assigned":
		return TypeTaskAssigned
	case "task_updated":
		return TypeTaskUpdated
	case "sentiment_alert":
		return TypeSentimentAlert
	case "retro_ready":
		return TypeRetroReady
	default:
		return TypeSystem
	}
}

// Event is one fan-out unit on the in-process bus. UserID is the recipient;
// subscribers filter on it before looking at the payload.
type Event struct {
	ID        string    `json:"id"`
	Type      Type      `json:"type"`
	UserID    string    `json:"user_id"`
	Payload   any       `json:"payload"`
	Timestamp time.Time `json:"timestamp"`
}

type Bus interface {
	Publish(e Event)
	Subscribe() (<-chan Event, func())
}
