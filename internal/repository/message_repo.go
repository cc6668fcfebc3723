package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

type MessageRepository struct {
	pool *pgxpool.Pool
}

func NewMessageRepository(pool *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{pool: pool}
}

func (r *MessageRepository) Create(ctx context.Context, m model.Message) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO messages (id, user_id, platform, channel, content,
		                       sentiment_score, tone, urgency, blocker_hits, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		m.ID, m.UserID, m.Platform, m.Channel, m.Content,
		m.SentimentScore, m.Tone, m.Urgency, m.BlockerHits, m.CreatedAt)
	if err != nil {
		return fmt.Errorf("create message: %w", err)
	}
	return nil
}

// UserWindow aggregates one user's messages since the cutoff.
func (r *MessageRepository) UserWindow(ctx context.Context, userID string, since time.Time) (avg float64, count int, blockers int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(sentiment_score), 0.5), COUNT(*), COALESCE(SUM(blocker_hits), 0)
		 FROM messages
		 WHERE user_id = $1 AND created_at >= $2`, userID, since).
		Scan(&avg, &count, &blockers)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate user sentiment: %w", err)
	}
	return avg, count, blockers, nil
}

// TeamWindow aggregates messages from every member of a team since the
// cutoff.
func (r *MessageRepository) TeamWindow(ctx context.Context, teamID string, since time.Time) (avg float64, count int, blockers int, err error) {
	err = r.pool.QueryRow(ctx,
		`SELECT COALESCE(AVG(m.sentiment_score), 0.5), COUNT(*), COALESCE(SUM(m.blocker_hits), 0)
		 FROM messages m
		 JOIN team_members tm ON tm.user_id = m.user_id
		 WHERE tm.team_id = $1 AND m.created_at >= $2`, teamID, since).
		Scan(&avg, &count, &blockers)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("aggregate team sentiment: %w", err)
	}
	return avg, count, blockers, nil
}

// TeamTrend buckets a team's sentiment by day, oldest bucket first.
func (r *MessageRepository) TeamTrend(ctx context.Context, teamID string, since time.Time) ([]model.TrendBucket, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT date_trunc('day', m.created_at) AS day,
		        AVG(m.sentiment_score), COUNT(*)
		 FROM messages m
		 JOIN team_members tm ON tm.user_id = m.user_id
		 WHERE tm.team_id = $1 AND m.created_at >= $2
		 GROUP BY day
		 ORDER BY day`, teamID, since)
	if err != nil {
		return nil, fmt.Errorf("team sentiment trend: %w", err)
	}
	defer rows.Close()

	buckets := make([]model.TrendBucket, 0)
	for rows.Next() {
		var b model.TrendBucket
		if err := rows.Scan(&b.Day, &b.AverageScore, &b.MessageCount); err != nil {
			return nil, fmt.Errorf("scan trend bucket: %w", err)
		}
		buckets = append(buckets, b)
	}
	return buckets, rows.Err()
}

// AlertCandidates returns per-user aggregates over the window for users with
// at least one message, so the service can apply alert thresholds.
func (r *MessageRepository) AlertCandidates(ctx context.Context, since time.Time) ([]model.SentimentSummary, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id, AVG(sentiment_score), COUNT(*), COALESCE(SUM(blocker_hits), 0)
		 FROM messages
		 WHERE created_at >= $1
		 GROUP BY user_id`, since)
	if err != nil {
		return nil, fmt.Errorf("list alert candidates: %w", err)
	}
	defer rows.Close()

	summaries := make([]model.SentimentSummary, 0)
	for rows.Next() {
		var s model.SentimentSummary
		if err := rows.Scan(&s.UserID, &s.AverageScore, &s.MessageCount, &s.BlockerHits); err != nil {
			return nil, fmt.Errorf("scan alert candidate: %w", err)
		}
		summaries = append(summaries, s)
	}
	return summaries, rows.Err()
}

// BlockerContents returns raw contents of a team's messages that carried
// blocker hits in the window; keyword extraction happens in the service.
func (r *MessageRepository) BlockerContents(ctx context.Context, teamID string, start time.Time, end time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT m.content
		 FROM messages m
		 JOIN team_members tm ON tm.user_id = m.user_id
		 WHERE tm.team_id = $1 AND m.blocker_hits > 0
		   AND m.created_at >= $2 AND m.created_at < $3
		 ORDER BY m.created_at DESC
		 LIMIT $4`, teamID, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("list blocker contents: %w", err)
	}
	defer rows.Close()

	contents := make([]string, 0)
	for rows.Next() {
		var content string
		if err := rows.Scan(&content); err != nil {
			return nil, fmt.Errorf("scan blocker content: %w", err)
		}
		contents = append(contents, content)
	}
	return contents, rows.Err()
}
