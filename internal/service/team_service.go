package service

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamiq/internal/model"
	"teamiq/internal/repository"
	"teamiq/pkg/apierror"
)

type TeamService struct {
	teams *repository.TeamRepository
	users *repository.UserRepository
}

func NewTeamService(teams *repository.TeamRepository, users *repository.UserRepository) *TeamService {
	return &TeamService{teams: teams, users: users}
}

func (s *TeamService) Create(ctx context.Context, req model.CreateTeamRequest) (model.Team, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Team{}, apierror.New("VALIDATION_ERROR", "name is required", "", http.StatusBadRequest)
	}
	if req.LeadID != "" {
		if _, err := s.users.FindByID(ctx, req.LeadID); err != nil {
			return model.Team{}, err
		}
	}

	now := time.Now().UTC()
	team := model.Team{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(req.Description),
		LeadID:      req.LeadID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.teams.Create(ctx, team); err != nil {
		return model.Team{}, err
	}

	// The lead belongs on their own roster.
	if team.LeadID != "" {
		if err := s.teams.AddMember(ctx, team.ID, team.LeadID); err != nil {
			return model.Team{}, err
		}
	}
	return team, nil
}

func (s *TeamService) Get(ctx context.Context, id string) (model.TeamDetail, error) {
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return model.TeamDetail{}, err
	}

	members, err := s.teams.ListMembers(ctx, id)
	if err != nil {
		return model.TeamDetail{}, err
	}
	return model.TeamDetail{Team: team, Members: members}, nil
}

func (s *TeamService) List(ctx context.Context, page int, limit int) ([]model.Team, model.Meta, error) {
	page, limit = clampPage(page, limit)

	total, err := s.teams.Count(ctx)
	if err != nil {
		return nil, model.Meta{}, err
	}

	teams, err := s.teams.List(ctx, limit, (page-1)*limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return teams, newMeta(page, limit, total), nil
}

func (s *TeamService) Update(ctx context.Context, id string, req model.UpdateTeamRequest) (model.Team, error) {
	team, err := s.teams.FindByID(ctx, id)
	if err != nil {
		return model.Team{}, err
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return model.Team{}, apierror.New("VALIDATION_ERROR", "name must not be empty", "", http.StatusBadRequest)
		}
		team.Name = name
	}
	if req.Description != nil {
		team.Description = strings.TrimSpace(*req.Description)
	}
	if req.LeadID != nil {
		if *req.LeadID != "" {
			if _, err := s.users.FindByID(ctx, *req.LeadID); err != nil {
				return model.Team{}, err
			}
		}
		team.LeadID = *req.LeadID
	}
	team.UpdatedAt = time.Now().UTC()

	if err := s.teams.Update(ctx, team); err != nil {
		return model.Team{}, err
	}

	if req.LeadID != nil && team.LeadID != "" {
		err := s.teams.AddMember(ctx, team.ID, team.LeadID)
		if err != nil && !errors.Is(err, model.ErrAlreadyTeamMember) {
			return model.Team{}, err
		}
	}
	return team, nil
}

func (s *TeamService) Delete(ctx context.Context, id string) error {
	return s.teams.Delete(ctx, id)
}

func (s *TeamService) AddMember(ctx context.Context, teamID string, userID string) error {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return err
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	return s.teams.AddMember(ctx, teamID, userID)
}

func (s *TeamService) RemoveMember(ctx context.Context, teamID string, userID string) error {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return err
	}
	return s.teams.RemoveMember(ctx, teamID, userID)
}

func (s *TeamService) Members(ctx context.Context, teamID string) ([]model.AuthUser, error) {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	return s.teams.ListMembers(ctx, teamID)
}
