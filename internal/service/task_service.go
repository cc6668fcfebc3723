package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamiq/internal/model"
	"teamiq/internal/repository"
	"teamiq/pkg/apierror"
)

type TaskService struct {
	tasks         *repository.TaskRepository
	projects      *repository.ProjectRepository
	users         *repository.UserRepository
	notifications *NotificationService
}

func NewTaskService(
	tasks *repository.TaskRepository,
	projects *repository.ProjectRepository,
	users *repository.UserRepository,
	notifications *NotificationService,
) *TaskService {
	return &TaskService{
		tasks:         tasks,
		projects:      projects,
		users:         users,
		notifications: notifications,
	}
}

func (s *TaskService) Create(ctx context.Context, createdBy string, req model.CreateTaskRequest) (model.Task, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return model.Task{}, apierror.New("VALIDATION_ERROR", "title is required", "", http.StatusBadRequest)
	}

	priority := req.Priority
	if priority == "" {
		priority = model.TaskPriorityMedium
	}
	if !model.ValidTaskPriority(priority) {
		return model.Task{}, apierror.New("VALIDATION_ERROR", "invalid priority", priority, http.StatusBadRequest)
	}
	if req.StoryPoints < 0 {
		return model.Task{}, apierror.New("VALIDATION_ERROR", "story points must not be negative", "", http.StatusBadRequest)
	}

	if _, err := s.projects.FindByID(ctx, req.ProjectID); err != nil {
		return model.Task{}, err
	}

	now := time.Now().UTC()
	task := model.Task{
		ID:                uuid.NewString(),
		ProjectID:         req.ProjectID,
		Title:             title,
		Description:       strings.TrimSpace(req.Description),
		Status:            model.TaskStatusTodo,
		Priority:          priority,
		StoryPoints:       req.StoryPoints,
		DueDate:           req.DueDate,
		JiraIssueKey:      strings.TrimSpace(req.JiraIssueKey),
		GithubIssueNumber: req.GithubIssueNumber,
		CreatedBy:         createdBy,
		CreatedAt:         now,
		UpdatedAt:         now,
	}

	if err := s.tasks.Create(ctx, task); err != nil {
		return model.Task{}, err
	}
	return task, nil
}

func (s *TaskService) Get(ctx context.Context, id string) (model.Task, []model.TaskAssignment, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return model.Task{}, nil, err
	}

	assignments, err := s.tasks.ListAssignments(ctx, id)
	if err != nil {
		return model.Task{}, nil, err
	}
	return task, assignments, nil
}

func (s *TaskService) List(ctx context.Context, projectID string, status string, page int, limit int) ([]model.Task, model.Meta, error) {
	if status != "" && !model.ValidTaskStatus(status) {
		return nil, model.Meta{}, model.ErrInvalidTaskStatus
	}
	page, limit = clampPage(page, limit)

	total, err := s.tasks.Count(ctx, projectID, status)
	if err != nil {
		return nil, model.Meta{}, err
	}

	tasks, err := s.tasks.List(ctx, projectID, status, limit, (page-1)*limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return tasks, newMeta(page, limit, total), nil
}

// Update patches the set fields. Assignees hear about status changes so a
// task flipped to blocked or done does not go unnoticed.
func (s *TaskService) Update(ctx context.Context, id string, req model.UpdateTaskRequest) (model.Task, error) {
	task, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		return model.Task{}, err
	}

	previousStatus := task.Status
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return model.Task{}, apierror.New("VALIDATION_ERROR", "title must not be empty", "", http.StatusBadRequest)
		}
		task.Title = title
	}
	if req.Description != nil {
		task.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		if !model.ValidTaskStatus(*req.Status) {
			return model.Task{}, model.ErrInvalidTaskStatus
		}
		task.Status = *req.Status
	}
	if req.Priority != nil {
		if !model.ValidTaskPriority(*req.Priority) {
			return model.Task{}, apierror.New("VALIDATION_ERROR", "invalid priority", *req.Priority, http.StatusBadRequest)
		}
		task.Priority = *req.Priority
	}
	if req.StoryPoints != nil {
		if *req.StoryPoints < 0 {
			return model.Task{}, apierror.New("VALIDATION_ERROR", "story points must not be negative", "", http.StatusBadRequest)
		}
		task.StoryPoints = *req.StoryPoints
	}
	if req.DueDate != nil {
		task.DueDate = req.DueDate
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.tasks.Update(ctx, task); err != nil {
		return model.Task{}, err
	}

	if task.Status != previousStatus {
		s.notifyAssignees(ctx, task, previousStatus)
	}
	return task, nil
}

func (s *TaskService) notifyAssignees(ctx context.Context, task model.Task, previousStatus string) {
	assignments, err := s.tasks.ListAssignments(ctx, task.ID)
	if err != nil {
		return
	}
	body := "Status moved from " + previousStatus + " to " + task.Status + "."
	for _, a := range assignments {
		s.notifications.Push(ctx, a.UserID, model.NotificationTaskUpdated, "Task updated: "+task.Title, body, task.ID)
	}
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	return s.tasks.Delete(ctx, id)
}

// Assign records a manual assignment, bypassing the recommendation engine.
func (s *TaskService) Assign(ctx context.Context, taskID string, userID string, assignedBy string) (model.TaskAssignment, error) {
	task, err := s.tasks.FindByID(ctx, taskID)
	if err != nil {
		return model.TaskAssignment{}, err
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return model.TaskAssignment{}, err
	}
	if !user.IsActive {
		return model.TaskAssignment{}, apierror.New("VALIDATION_ERROR", "cannot assign a deactivated user", userID, http.StatusBadRequest)
	}

	assignment := model.TaskAssignment{
		ID:         uuid.NewString(),
		TaskID:     task.ID,
		UserID:     user.ID,
		AssignedBy: assignedBy,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.tasks.CreateAssignment(ctx, assignment); err != nil {
		return model.TaskAssignment{}, err
	}

	s.notifications.Push(ctx, user.ID, model.NotificationTaskAssigned,
		"You were assigned: "+task.Title, "", task.ID)
	return assignment, nil
}
