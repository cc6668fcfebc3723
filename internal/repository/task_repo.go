package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"teamiq/internal/model"
)

const taskColumns = `id, project_id, title, description, status, priority, story_points,
	due_date, jira_issue_key, github_issue_number, created_by, created_at, updated_at`

type TaskRepository struct {
	pool *pgxpool.Pool
}

func NewTaskRepository(pool *pgxpool.Pool) *TaskRepository {
	return &TaskRepository{pool: pool}
}

func scanTask(row pgx.Row) (model.Task, error) {
	var t model.Task
	err := row.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Description, &t.Status, &t.Priority,
		&t.StoryPoints, &t.DueDate, &t.JiraIssueKey, &t.GithubIssueNumber,
		&t.CreatedBy, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

func (r *TaskRepository) Create(ctx context.Context, t model.Task) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, priority, story_points,
		                    due_date, jira_issue_key, github_issue_number, created_by, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		t.ID, t.ProjectID, t.Title, t.Description, t.Status, t.Priority, t.StoryPoints,
		t.DueDate, t.JiraIssueKey, t.GithubIssueNumber, t.CreatedBy, t.CreatedAt, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id string) (model.Task, error) {
	t, err := scanTask(r.pool.QueryRow(ctx,
		`SELECT `+taskColumns+` FROM tasks WHERE id = $1`, id))

	if errors.Is(err, pgx.ErrNoRows) {
		return model.Task{}, model.ErrTaskNotFound
	}
	if err != nil {
		return model.Task{}, fmt.Errorf("find task by id: %w", err)
	}
	return t, nil
}

func (r *TaskRepository) Update(ctx context.Context, t model.Task) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE tasks
		 SET title = $2, description = $3, status = $4, priority = $5,
		     story_points = $6, due_date = $7, updated_at = $8
		 WHERE id = $1`,
		t.ID, t.Title, t.Description, t.Status, t.Priority, t.StoryPoints, t.DueDate, t.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM tasks WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete task: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTaskNotFound
	}
	return nil
}

func (r *TaskRepository) List(ctx context.Context, projectID string, status string, limit int, offset int) ([]model.Task, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+taskColumns+` FROM tasks
		 WHERE ($1 = '' OR project_id = $1) AND ($2 = '' OR status = $2)
		 ORDER BY created_at DESC
		 LIMIT $3 OFFSET $4`, projectID, status, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]model.Task, 0)
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

func (r *TaskRepository) Count(ctx context.Context, projectID string, status string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM tasks
		 WHERE ($1 = '' OR project_id = $1) AND ($2 = '' OR status = $2)`,
		projectID, status).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks: %w", err)
	}
	return count, nil
}

func (r *TaskRepository) CreateAssignment(ctx context.Context, a model.TaskAssignment) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO task_assignments (id, task_id, user_id, assigned_by, recommendation_score, reason, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)
		 ON CONFLICT (task_id, user_id) DO UPDATE
		 SET assigned_by = EXCLUDED.assigned_by,
		     recommendation_score = EXCLUDED.recommendation_score,
		     reason = EXCLUDED.reason`,
		a.ID, a.TaskID, a.UserID, a.AssignedBy, a.RecommendationScore, a.Reason, a.CreatedAt)
	if err != nil {
		return fmt.Errorf("create task assignment: %w", err)
	}
	return nil
}

func (r *TaskRepository) ListAssignments(ctx context.Context, taskID string) ([]model.TaskAssignment, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, task_id, user_id, assigned_by, recommendation_score, reason, created_at
		 FROM task_assignments WHERE task_id = $1 ORDER BY created_at`, taskID)
	if err != nil {
		return nil, fmt.Errorf("list task assignments: %w", err)
	}
	defer rows.Close()

	assignments := make([]model.TaskAssignment, 0)
	for rows.Next() {
		var a model.TaskAssignment
		if err := rows.Scan(&a.ID, &a.TaskID, &a.UserID, &a.AssignedBy,
			&a.RecommendationScore, &a.Reason, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan task assignment: %w", err)
		}
		assignments = append(assignments, a)
	}
	return assignments, rows.Err()
}

// CountOpenAssignments counts a user's assignments on tasks that are not
// done, the workload input for allocation.
func (r *TaskRepository) CountOpenAssignments(ctx context.Context, userID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM task_assignments ta
		 JOIN tasks t ON t.id = ta.task_id
		 WHERE ta.user_id = $1 AND t.status <> 'done'`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count open assignments: %w", err)
	}
	return count, nil
}

// HasUrgentOpenTask reports whether the user currently holds a blocked or
// critical task that is not done.
func (r *TaskRepository) HasUrgentOpenTask(ctx context.Context, userID string) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1
			FROM task_assignments ta
			JOIN tasks t ON t.id = ta.task_id
			WHERE ta.user_id = $1 AND t.status <> 'done'
			  AND (t.status = 'blocked' OR t.priority = 'critical')
		)`, userID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check urgent open task: %w", err)
	}
	return exists, nil
}

// RecentCollaborators returns the distinct users who shared a task
// assignment with the given user since the cutoff.
func (r *TaskRepository) RecentCollaborators(ctx context.Context, userID string, since time.Time) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT DISTINCT other.user_id
		 FROM task_assignments own
		 JOIN task_assignments other
		   ON other.task_id = own.task_id AND other.user_id <> own.user_id
		 WHERE own.user_id = $1 AND other.created_at >= $2`, userID, since)
	if err != nil {
		return nil, fmt.Errorf("list recent collaborators: %w", err)
	}
	defer rows.Close()

	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan collaborator id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *TaskRepository) StatusBreakdownForTeam(ctx context.Context, teamID string) (map[string]int, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.status, COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.team_id = $1
		 GROUP BY t.status`, teamID)
	if err != nil {
		return nil, fmt.Errorf("task status breakdown: %w", err)
	}
	defer rows.Close()

	breakdown := make(map[string]int)
	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status breakdown: %w", err)
		}
		breakdown[status] = count
	}
	return breakdown, rows.Err()
}

// TitlesByTeamPeriod lists task titles for a team that reached the given
// status inside the retro window.
func (r *TaskRepository) TitlesByTeamPeriod(ctx context.Context, teamID string, status string, start time.Time, end time.Time, limit int) ([]string, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT t.title
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.team_id = $1 AND t.status = $2
		   AND t.updated_at >= $3 AND t.updated_at < $4
		 ORDER BY t.updated_at DESC
		 LIMIT $5`, teamID, status, start, end, limit)
	if err != nil {
		return nil, fmt.Errorf("list task titles for team period: %w", err)
	}
	defer rows.Close()

	titles := make([]string, 0)
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, fmt.Errorf("scan task title: %w", err)
		}
		titles = append(titles, title)
	}
	return titles, rows.Err()
}

func (r *TaskRepository) CountByTeamPeriod(ctx context.Context, teamID string, status string, start time.Time, end time.Time) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)
		 FROM tasks t
		 JOIN projects p ON p.id = t.project_id
		 WHERE p.team_id = $1 AND t.status = $2
		   AND t.updated_at >= $3 AND t.updated_at < $4`,
		teamID, status, start, end).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count tasks for team period: %w", err)
	}
	return count, nil
}
