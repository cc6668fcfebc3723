package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

type SkillRepository struct {
	pool *pgxpool.Pool
}

func NewSkillRepository(pool *pgxpool.Pool) *SkillRepository {
	return &SkillRepository{pool: pool}
}

func (r *SkillRepository) Create(ctx context.Context, s model.Skill) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO skills (id, name, category, created_at)
		 VALUES ($1, $2, $3, $4)`,
		s.ID, s.Name, s.Category, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("create skill: %w", err)
	}
	return nil
}

func (r *SkillRepository) FindByID(ctx context.Context, id string) (model.Skill, error) {
	var s model.Skill
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, category, created_at FROM skills WHERE id = $1`, id).
		Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt)

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Skill{}, model.ErrSkillNotFound
	}
	if err != nil {
		return model.Skill{}, fmt.Errorf("find skill by id: %w", err)
	}
	return s, nil
}

func (r *SkillRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(SELECT 1 FROM skills WHERE lower(name) = lower($1))`,
		strings.TrimSpace(name)).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check skill exists: %w", err)
	}
	return exists, nil
}

func (r *SkillRepository) List(ctx context.Context) ([]model.Skill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, category, created_at FROM skills ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("list skills: %w", err)
	}
	defer rows.Close()

	skills := make([]model.Skill, 0)
	for rows.Next() {
		var s model.Skill
		if err := rows.Scan(&s.ID, &s.Name, &s.Category, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan skill: %w", err)
		}
		skills = append(skills, s)
	}
	return skills, rows.Err()
}

func (r *SkillRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM skills WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete skill: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSkillNotFound
	}
	return nil
}

// SetUserSkill upserts a user's proficiency for one skill, leaving the
// activity evidence counters untouched.
func (r *SkillRepository) SetUserSkill(ctx context.Context, userID string, skillID string, proficiency float64) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_skills (user_id, skill_id, proficiency, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, skill_id) DO UPDATE
		 SET proficiency = EXCLUDED.proficiency, updated_at = EXCLUDED.updated_at`,
		userID, skillID, proficiency, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("set user skill: %w", err)
	}
	return nil
}

func (r *SkillRepository) RecordActivity(ctx context.Context, userID string, skillID string, stats model.ActivityStats) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO user_skills (user_id, skill_id, commit_count, lines_changed, review_count,
		                          tasks_completed, collaborations, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, skill_id) DO UPDATE
		 SET commit_count = user_skills.commit_count + EXCLUDED.commit_count,
		     lines_changed = user_skills.lines_changed + EXCLUDED.lines_changed,
		     review_count = user_skills.review_count + EXCLUDED.review_count,
		     tasks_completed = user_skills.tasks_completed + EXCLUDED.tasks_completed,
		     collaborations = user_skills.collaborations + EXCLUDED.collaborations,
		     updated_at = EXCLUDED.updated_at`,
		userID, skillID, stats.Commits, stats.LinesChanged, stats.Reviews,
		stats.TasksCompleted, stats.Collaborations, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("record skill activity: %w", err)
	}
	return nil
}

func (r *SkillRepository) UpdateProficiency(ctx context.Context, userID string, skillID string, proficiency float64) error {
	now := time.Now().UTC()
	tag, err := r.pool.Exec(ctx,
		`UPDATE user_skills
		 SET proficiency = $3, last_recalculated = $4, updated_at = $4
		 WHERE user_id = $1 AND skill_id = $2`,
		userID, skillID, proficiency, now)
	if err != nil {
		return fmt.Errorf("update proficiency: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrSkillNotFound
	}
	return nil
}

func (r *SkillRepository) ListByUser(ctx context.Context, userID string) ([]model.UserSkill, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT us.user_id, us.skill_id, s.name, us.proficiency,
		        us.commit_count, us.lines_changed, us.review_count,
		        us.tasks_completed, us.collaborations, us.last_recalculated, us.updated_at
		 FROM user_skills us
		 JOIN skills s ON s.id = us.skill_id
		 WHERE us.user_id = $1
		 ORDER BY s.name`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user skills: %w", err)
	}
	defer rows.Close()

	skills := make([]model.UserSkill, 0)
	for rows.Next() {
		var us model.UserSkill
		if err := rows.Scan(&us.UserID, &us.SkillID, &us.SkillName, &us.Proficiency,
			&us.CommitCount, &us.LinesChanged, &us.ReviewCount,
			&us.TasksCompleted, &us.Collaborations, &us.LastRecalculated, &us.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan user skill: %w", err)
		}
		skills = append(skills, us)
	}
	return skills, rows.Err()
}

// ProficienciesByNames maps lowercase skill name to proficiency for one
// user, the lookup shape the allocation engine wants.
func (r *SkillRepository) ProficienciesByNames(ctx context.Context, userID string, names []string) (map[string]float64, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT lower(s.name), us.proficiency
		 FROM user_skills us
		 JOIN skills s ON s.id = us.skill_id
		 WHERE us.user_id = $1 AND lower(s.name) = ANY($2)`, userID, names)
	if err != nil {
		return nil, fmt.Errorf("load proficiencies: %w", err)
	}
	defer rows.Close()

	out := make(map[string]float64, len(names))
	for rows.Next() {
		var name string
		var proficiency float64
		if err := rows.Scan(&name, &proficiency); err != nil {
			return nil, fmt.Errorf("scan proficiency: %w", err)
		}
		out[name] = proficiency
	}
	return out, rows.Err()
}
