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

// blendProficiency rolls activity evidence into a 0..10 proficiency. Each
// component saturates so one prolific dimension cannot dominate: ~20 commits,
// ~1000 changed lines, ~20 reviews, ~20 finished tasks and ~10 shared
// assignments each max out their share.
func blendProficiency(stats model.ActivityStats) float64 {
	commit := min(2, float64(stats.Commits)/10) / 2
	volume := min(1, float64(stats.LinesChanged)/1000)
	reviews := min(1, float64(stats.Reviews)/20)
	completion := min(1, float64(stats.TasksCompleted)/20)
	collaboration := min(1, float64(stats.Collaborations)/10)

	return 10 * (0.30*commit + 0.20*reviews + 0.20*volume + 0.20*completion + 0.10*collaboration)
}

type SkillService struct {
	skills *repository.SkillRepository
	users  *repository.UserRepository
}

func NewSkillService(skills *repository.SkillRepository, users *repository.UserRepository) *SkillService {
	return &SkillService{skills: skills, users: users}
}

func (s *SkillService) CreateSkill(ctx context.Context, req model.CreateSkillRequest) (model.Skill, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return model.Skill{}, apierror.New("VALIDATION_ERROR", "name is required", "", http.StatusBadRequest)
	}

	exists, err := s.skills.ExistsByName(ctx, name)
	if err != nil {
		return model.Skill{}, err
	}
	if exists {
		return model.Skill{}, model.ErrSkillAlreadyExists
	}

	skill := model.Skill{
		ID:        uuid.NewString(),
		Name:      name,
		Category:  strings.TrimSpace(req.Category),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.skills.Create(ctx, skill); err != nil {
		return model.Skill{}, err
	}
	return skill, nil
}

func (s *SkillService) ListSkills(ctx context.Context) ([]model.Skill, error) {
	return s.skills.List(ctx)
}

func (s *SkillService) DeleteSkill(ctx context.Context, id string) error {
	return s.skills.Delete(ctx, id)
}

func (s *SkillService) UserSkills(ctx context.Context, userID string) ([]model.UserSkill, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.skills.ListByUser(ctx, userID)
}

func (s *SkillService) SetUserSkill(ctx context.Context, userID string, req model.SetUserSkillRequest) error {
	if req.Proficiency < 0 || req.Proficiency > 10 {
		return model.ErrInvalidProficiency
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.skills.FindByID(ctx, req.SkillID); err != nil {
		return err
	}
	return s.skills.SetUserSkill(ctx, userID, req.SkillID, req.Proficiency)
}

// RecordActivity adds evidence counters for one user/skill pair. Counters
// only ever grow; sync jobs post deltas, not totals.
func (s *SkillService) RecordActivity(ctx context.Context, userID string, req model.RecordActivityRequest) error {
	if req.Commits < 0 || req.LinesChanged < 0 || req.Reviews < 0 ||
		req.TasksCompleted < 0 || req.Collaborations < 0 {
		return apierror.New("VALIDATION_ERROR", "activity counters must not be negative", "", http.StatusBadRequest)
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return err
	}
	if _, err := s.skills.FindByID(ctx, req.SkillID); err != nil {
		return err
	}

	stats := model.ActivityStats{
		Commits:        req.Commits,
		LinesChanged:   req.LinesChanged,
		Reviews:        req.Reviews,
		TasksCompleted: req.TasksCompleted,
		Collaborations: req.Collaborations,
	}
	return s.skills.RecordActivity(ctx, userID, req.SkillID, stats)
}

// Recalculate rebuilds every proficiency for one user from the accumulated
// evidence and returns the refreshed rows.
func (s *SkillService) Recalculate(ctx context.Context, userID string) ([]model.UserSkill, error) {
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	current, err := s.skills.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	for _, us := range current {
		stats := model.ActivityStats{
			Commits:        us.CommitCount,
			LinesChanged:   us.LinesChanged,
			Reviews:        us.ReviewCount,
			TasksCompleted: us.TasksCompleted,
			Collaborations: us.Collaborations,
		}
		if err := s.skills.UpdateProficiency(ctx, userID, us.SkillID, blendProficiency(stats)); err != nil {
			return nil, err
		}
	}

	return s.skills.ListByUser(ctx, userID)
}
