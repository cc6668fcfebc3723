package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

type ProjectRepository struct {
	pool *pgxpool.Pool
}

func NewProjectRepository(pool *pgxpool.Pool) *ProjectRepository {
	return &ProjectRepository{pool: pool}
}

func scanProject(row pgx.Row) (model.Project, error) {
	var p model.Project
	var teamID *string
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Status, &teamID,
		&p.StartDate, &p.EndDate, &p.CreatedAt, &p.UpdatedAt)
	if teamID != nil {
		p.TeamID = *teamID
	}
	return p, err
}

func (r *ProjectRepository) Create(ctx context.Context, p model.Project) error {
	var teamID any
	if p.TeamID != "" {
		teamID = p.TeamID
	}
	_, err := r.pool.Exec(ctx,
		`INSERT INTO projects (id, name, description, status, team_id, start_date, end_date, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		p.ID, p.Name, p.Description, p.Status, teamID, p.StartDate, p.EndDate, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (r *ProjectRepository) FindByID(ctx context.Context, id string) (model.Project, error) {
	p, err := scanProject(r.pool.QueryRow(ctx,
		`SELECT id, name, description, status, team_id, start_date, end_date, created_at, updated_at
		 FROM projects WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Project{}, model.ErrProjectNotFound
	}
	if err != nil {
		return model.Project{}, fmt.Errorf("find project by id: %w", err)
	}
	return p, nil
}

func (r *ProjectRepository) Update(ctx context.Context, p model.Project) error {
	var teamID any
	if p.TeamID != "" {
		teamID = p.TeamID
	}
	tag, err := r.pool.Exec(ctx,
		`UPDATE projects
		 SET name = $2, description = $3, status = $4, team_id = $5,
		     start_date = $6, end_date = $7, updated_at = $8
		 WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Status, teamID, p.StartDate, p.EndDate, p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM projects WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete project: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrProjectNotFound
	}
	return nil
}

func (r *ProjectRepository) List(ctx context.Context, status string, teamID string, limit int, offset int) ([]model.Project, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, description, status, team_id, start_date, end_date, created_at, updated_at
		 FROM projects
		 WHERE ($1 = '' OR status = $1) AND ($2 = '' OR team_id = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`, status, teamID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]model.Project, 0)
	for rows.Next() {
		p, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func (r *ProjectRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM projects`).Scan(&count); err != nil {
		return 0, fmt.Errorf("count projects: %w", err)
	}
	return count, nil
}

func (r *ProjectRepository) AddMember(ctx context.Context, projectID string, userID string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO project_members (project_id, user_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`, projectID, userID)
	if err != nil {
		return fmt.Errorf("add project member: %w", err)
	}
	return nil
}

func (r *ProjectRepository) RemoveMember(ctx context.Context, projectID string, userID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM project_members WHERE project_id = $1 AND user_id = $2`, projectID, userID)
	if err != nil {
		return fmt.Errorf("remove project member: %w", err)
	}
	return nil
}

func (r *ProjectRepository) ListMembers(ctx context.Context, projectID string) ([]model.AuthUser, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT u.id, u.email, u.username, u.full_name, u.role, u.is_active
		 FROM project_members pm
		 JOIN users u ON u.id = pm.user_id
		 WHERE pm.project_id = $1
		 ORDER BY u.username`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project members: %w", err)
	}
	defer rows.Close()

	members := make([]model.AuthUser, 0)
	for rows.Next() {
		var u model.AuthUser
		if err := rows.Scan(&u.ID, &u.Email, &u.Username, &u.FullName, &u.Role, &u.IsActive); err != nil {
			return nil, fmt.Errorf("scan project member: %w", err)
		}
		members = append(members, u)
	}
	return members, rows.Err()
}

func (r *ProjectRepository) MemberIDs(ctx context.Context, projectID string) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM project_members WHERE project_id = $1`, projectID)
	if err != nil {
		return nil, fmt.Errorf("list project member ids: %w", err)
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
