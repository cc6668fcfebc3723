package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

type TeamRepository struct {
	pool *pgxpool.Pool
}

func NewTeamRepository(pool *pgxpool.Pool) *TeamRepository {
	return &TeamRepository{pool: pool}
}

func (r *TeamRepository) Create(ctx context.Context, t model.Team) error {
	var leadID any
	if t.LeadID != "" {
		leadID = t.LeadID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO teams (id, name, description, lead_id, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6)`,
		t.ID, t.Name, t.Description, leadID, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create team: %w", err)
	}
	return nil
}

func (r *TeamRepository) FindByID(ctx context.Context, id string) (model.Team, error) {
	var t model.Team
	var leadID *string
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, description, lead_id, created_at, updated_at
		 FROM teams WHERE id = $1`, id).
		Scan(&t.ID, &t.Name, &t.Description, &leadID, &t.CreatedAt, &t.UpdatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Team{}, model.ErrTeamNotFound
	}
	if err != nil {
		return model.Team{}, fmt.Errorf("find team by id: %w", err)
	}
	if leadID != nil {
		t.LeadID = *leadID
	}
	return t, nil
}

func (r *TeamRepository) Update(ctx context.Context, t model.Team) error {
	var leadID any
	if t.LeadID != "" {
		leadID = t.LeadID
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE teams SET name = $2, description = $3, lead_id = $4, updated_at = $5
		 WHERE id = $1`,
		t.ID, t.Name, t.Description, leadID, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM teams WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete team: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTeamNotFound
	}
	return nil
}

func (r *TeamRepository) List(ctx context.Context, limit int, offset int) ([]model.Team, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, lead_id, created_at, updated_at
		 FROM teams ORDER BY name LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0)
	for rows.Next() {
		var t model.Team
		var leadID *string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &leadID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if leadID != nil {
			t.LeadID = *leadID
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

// TeamsForUser lists the teams a user belongs to, earliest joined first.
func (r *TeamRepository) TeamsForUser(ctx context.Context, userID string) ([]model.Team, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.id, t.name, t.description, t.lead_id, t.created_at, t.updated_at
		 FROM team_members tm
		 JOIN teams t ON t.id = tm.team_id
		 WHERE tm.user_id = $1
		 ORDER BY tm.joined_at`, userID)
	if err != nil {
		return nil, fmt.Errorf("list teams for user: %w", err)
	}
	defer rows.Close()

	teams := make([]model.Team, 0)
	for rows.Next() {
		var t model.Team
		var leadID *string
		if err := rows.Scan(&t.ID, &t.Name, &t.Description, &leadID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan team: %w", err)
		}
		if leadID != nil {
			t.LeadID = *leadID
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (r *TeamRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM teams`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count teams: %w", err)
	}
	return count, nil
}

func (r *TeamRepository) AddMember(ctx context.Context, teamID string, userID string) error {
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO team_members (team_id, user_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`, teamID, userID)
	if err != nil {
		return fmt.Errorf("add team member: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAlreadyTeamMember
	}
	return nil
}

func (r *TeamRepository) RemoveMember(ctx context.Context, teamID string, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM team_members WHERE team_id = $1 AND user_id = $2`, teamID, userID)
	if err != nil {
		return fmt.Errorf("remove team member: %w", err)
	}
	return nil
}

func (r *TeamRepository) ListMembers(ctx context.Context, teamID string) ([]model.AuthUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.username, u.full_name, u.role, u.is_active
		 FROM team_members tm
		 JOIN users u ON u.id = tm.user_id
		 WHERE tm.team_id = $1
		 ORDER BY u.username`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team members: %w", err)
	}
	defer rows.Close()

	members := make([]model.AuthUser, 0)
	for rows.Next() {
		var u model.AuthUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.Role, &u.IsActive); err != nil {
			return nil, fmt.Errorf("scan team member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

// MemberIDs returns just the user ids on a team, cheapest shape for
// aggregation queries.
func (r *TeamRepository) MemberIDs(ctx context.Context, teamID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM team_members WHERE team_id = $1`, teamID)
	if err != nil {
		return nil, fmt.Errorf("list team member ids: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan member id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
