package service

import (
	"context"
	"net/http"
	"strings"
	"time"

	"teamiq/internal/model"
	"teamiq/internal/repository"
	"teamiq/pkg/apierror"
)

type UserService struct {
	users  *repository.UserRepository
	tokens *repository.TokenRepository
}

func NewUserService(users *repository.UserRepository, tokens *repository.TokenRepository) *UserService {
	return &UserService{users: users, tokens: tokens}
}

func (s *UserService) Get(ctx context.Context, id string) (model.User, error) {
	return s.users.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context, role string, page int, limit int) ([]model.AuthUser, model.Meta, error) {
	if role != "" && !model.ValidRole(role) {
		return nil, model.Meta{}, model.ErrInvalidRole
	}
	page, limit = clampPage(page, limit)

	total, err := s.users.Count(ctx, role)
	if err != nil {
		return nil, model.Meta{}, err
	}

	users, err := s.users.List(ctx, role, limit, (page-1)*limit)
	if err != nil {
		return nil, model.Meta{}, err
	}
	return users, newMeta(page, limit, total), nil
}

// Update patches a profile. Role and activation changes are admin-only, so
// the caller's role decides how much of the request is honored.
func (s *UserService) Update(ctx context.Context, actor *model.AuthClaims, id string, req model.UpdateUserRequest) (model.User, error) {
	isSelf := actor.UserID == id
	isAdmin := actor.Role == model.RoleAdmin
	if !isSelf && !isAdmin {
		return model.User{}, model.ErrForbidden
	}
	if (req.Role != nil || req.IsActive != nil) && !isAdmin {
		return model.User{}, model.ErrForbidden
	}

	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return model.User{}, err
	}

	if req.Email != nil {
		email := strings.TrimSpace(*req.Email)
		if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
			return model.User{}, apierror.New("VALIDATION_ERROR", "invalid email address", email, http.StatusBadRequest)
		}
		user.Email = email
	}
	if req.Username != nil {
		username := strings.TrimSpace(*req.Username)
		if username == "" {
			return model.User{}, apierror.New("VALIDATION_ERROR", "username must not be empty", "", http.StatusBadRequest)
		}
		user.Username = username
	}
	if req.FullName != nil {
		user.FullName = strings.TrimSpace(*req.FullName)
	}
	if req.Role != nil {
		if !model.ValidRole(*req.Role) {
			return model.User{}, model.ErrInvalidRole
		}
		user.Role = *req.Role
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}
	user.UpdatedAt = time.Now().UTC()

	if err := s.users.Update(ctx, user); err != nil {
		return model.User{}, err
	}

	// Pulling activation or changing role invalidates existing sessions.
	if (req.IsActive != nil && !*req.IsActive) || req.Role != nil {
		if err := s.tokens.RevokeAllForUser(ctx, user.ID); err != nil {
			return model.User{}, err
		}
	}
	return user, nil
}

// Deactivate soft-deletes: the row survives for history, the account cannot
// log in, and every live refresh token dies with it.
func (s *UserService) Deactivate(ctx context.Context, id string) error {
	if err := s.users.Deactivate(ctx, id); err != nil {
		return err
	}
	return s.tokens.RevokeAllForUser(ctx, id)
}
