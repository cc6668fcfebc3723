package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

type RetroRepository struct {
	pool *pgxpool.Pool
}

func NewRetroRepository(pool *pgxpool.Pool) *RetroRepository {
	return &RetroRepository{pool: pool}
}

func (r *RetroRepository) Create(ctx context.Context, retro model.Retrospective) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO retrospectives (id, team_id, period_start, period_end,
		                             highlights, lowlights, action_items,
		                             tasks_done, tasks_blocked, avg_sentiment,
		                             generated_by, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		retro.ID, retro.TeamID, retro.PeriodStart, retro.PeriodEnd,
		retro.Highlights, retro.Lowlights, retro.ActionItems,
		retro.TasksDone, retro.TasksBlocked, retro.AvgSentiment,
		retro.GeneratedBy, retro.CreatedAt)
	if err != nil {
		return fmt.Errorf("create retrospective: %w", err)
	}
	return nil
}

func (r *RetroRepository) ListRecent(ctx context.Context, teamID string, limit int) ([]model.Retrospective, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, team_id, period_start, period_end,
		        highlights, lowlights, action_items,
		        tasks_done, tasks_blocked, avg_sentiment, generated_by, created_at
		 FROM retrospectives
		 WHERE team_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2`, teamID, limit)
	if err != nil {
		return nil, fmt.Errorf("list retrospectives: %w", err)
	}
	defer rows.Close()

	retros := make([]model.Retrospective, 0)
	for rows.Next() {
		var retro model.Retrospective
		if err := rows.Scan(&retro.ID, &retro.TeamID, &retro.PeriodStart, &retro.PeriodEnd,
			&retro.Highlights, &retro.Lowlights, &retro.ActionItems,
			&retro.TasksDone, &retro.TasksBlocked, &retro.AvgSentiment,
			&retro.GeneratedBy, &retro.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan retrospective: %w", err)
		}
		retros = append(retros, retro)
	}
	return retros, rows.Err()
}
