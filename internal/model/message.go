package model

import "time"

const (
	PlatformSlack  = "slack"
	PlatformTeams  = "teams"
	PlatformGithub = "github"
)

var messagePlatforms = map[string]struct{}{
	PlatformSlack:  {},
	PlatformTeams:  {},
	PlatformGithub: {},
}

func ValidPlatform(platform string) bool {
	_, ok := messagePlatforms[platform]
	return ok
}

type Message struct {
	ID             string    `json:"id"`
	UserID         string    `json:"user_id"`
	Platform       string    `json:"platform"`
	Channel        string    `json:"channel,omitempty"`
	Content        string    `json:"content"`
	SentimentScore float64   `json:"sentiment_score"`
	Tone           string    `json:"tone"`
	Urgency        string    `json:"urgency"`
	BlockerHits    int       `json:"blocker_hits"`
	CreatedAt      time.Time `json:"created_at"`
}

// SentimentResult is the analyzer output for a single piece of text.
type SentimentResult struct {
	Score       float64  `json:"score"`
	Tone        string   `json:"tone"`
	Urgency     string   `json:"urgency"`
	BlockerHits int      `json:"blocker_hits"`
	Keywords    []string `json:"keywords,omitempty"`
}

type SentimentSummary struct {
	UserID       string    `json:"user_id,omitempty"`
	TeamID       string    `json:"team_id,omitempty"`
	AverageScore float64   `json:"average_score"`
	Tone         string    `json:"tone"`
	MessageCount int       `json:"message_count"`
	BlockerHits  int       `json:"blocker_hits"`
	WindowStart  time.Time `json:"window_start"`
	WindowEnd    time.Time `json:"window_end"`
}

// TrendBucket is one day of a sentiment trend series.
type TrendBucket struct {
	Day          time.Time `json:"day"`
	AverageScore float64   `json:"average_score"`
	MessageCount int       `json:"message_count"`
}

// TeamSentiment bundles a team's window aggregate with its daily trend.
type TeamSentiment struct {
	Summary SentimentSummary `json:"summary"`
	Trend   []TrendBucket    `json:"trend"`
}

type SentimentAlert struct {
	User         AuthUser `json:"user"`
	AverageScore float64  `json:"average_score"`
	BlockerHits  int      `json:"blocker_hits"`
	MessageCount int      `json:"message_count"`
	Reason       string   `json:"reason"`
}
