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

type ProjectService struct {
	projects *repository.ProjectRepository
	teams    *repository.TeamRepository
	users    *repository.UserRepository
}

func NewProjectService(
	projects *repository.ProjectRepository,
	teams *repository.TeamRepository,
	users *repository.UserRepository,
) *ProjectService {
	return &ProjectService{projects: projects, teams: teams, users: users}
}

func (s *ProjectService) Create(ctx context.Context, req model.CreateProjectRequest) (model.Project, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Project{}, apierror.New("VALIDATION_ERROR", "name is required", "", http.StatusBadRequest)
	}

	status := req.Status
	if status == "" {
		status = model.ProjectStatusPlanning
	}
	if !model.ValidProjectStatus(status) {
		return model.Project{}, model.ErrInvalidProjectStatus
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return model.Project{}, apierror.New("VALIDATION_ERROR", "end date must not precede start date", "", http.StatusBadRequest)
	}
	if req.TeamID != "" {
		if _, err := s.teams.FindByID(ctx, req.TeamID); err != nil {
			return model.Project{}, err
		}
	}

	now := time.Now().UTC()
	project := model.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		Status:      status,
		TeamID:      req.TeamID,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) Get(ctx context.Context, id string) (model.ProjectDetail, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return model.ProjectDetail{}, err
	}

	members, err := s.projects.ListMembers(ctx, id)
	if err != nil {
		return model.ProjectDetail{}, err
	}
	return model.ProjectDetail{Project: project, Members: members}, nil
}

func (s *ProjectService) List(ctx context.Context, status string, teamID string, page int, limit int) ([]model.Project, model.Meta, error) {
	if status != "" && !model.ValidProjectStatus(status) {
		return nil, model.Meta{}, model.ErrInvalidProjectStatus
	}
	page, limit = clampPage(page, limit)

	total, err := s.projects.Count(ctx)
	if err != nil {
		return nil, model.Meta{}, err
	}

	projects, err := s.projects.List(ctx, status, teamID, limit, (page-1)*limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return projects, newMeta(page, limit, total), nil
}

func (s *ProjectService) Update(ctx context.Context, id string, req model.UpdateProjectRequest) (model.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return model.Project{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.Project{}, apierror.New("VALIDATION_ERROR", "name must not be empty", "", http.StatusBadRequest)
		}
		project.Name = name
	}
	if req.Description != nil {
		project.Description = strings.TrimSpace(*req.Description)
	}
	if req.Status != nil {
		if !model.ValidProjectStatus(*req.Status) {
			return model.Project{}, model.ErrInvalidProjectStatus
		}
		project.Status = *req.Status
	}
	if req.TeamID != nil {
		if *req.TeamID != "" {
			if _, err := s.teams.FindByID(ctx, *req.TeamID); err != nil {
				return model.Project{}, err
			}
		}
		project.TeamID = *req.TeamID
	}
	if req.StartDate != nil {
		project.StartDate = req.StartDate
	}
	if req.EndDate != nil {
		project.EndDate = req.EndDate
	}
	if project.StartDate != nil && project.EndDate != nil && project.EndDate.Before(*project.StartDate) {
		return model.Project{}, apierror.New("VALIDATION_ERROR", "end date must not precede start date", "", http.StatusBadRequest)
	}
	project.UpdatedAt = time.Now().UTC()

	if err := s.projects.Update(ctx, project); err != nil {
		return model.Project{}, err
	}
	return project, nil
}

func (s *ProjectService) Delete(ctx context.Context, id string) error {
	return s.projects.Delete(ctx, id)
}

// AddMember is idempotent: adding an existing member is not an error.
func (s *ProjectService) AddMember(ctx context.Context, projectID string, userID string) error {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.projects.AddMember(ctx, projectID, userID)
}

func (s *ProjectService) RemoveMember(ctx context.Context, projectID string, userID string) error {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return err
	}
	return s.projects.RemoveMember(ctx, projectID, userID)
}
