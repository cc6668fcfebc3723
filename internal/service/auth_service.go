package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"teamiq/internal/metrics"
	"teamiq/internal/model"
	"teamiq/pkg/apierror"
)

type userStore interface {
	FindByID(ctx context.Context, id string) (model.User, error)
	FindByLogin(ctx context.Context, login string) (model.User, error)
	FindByEmail(ctx context.Context, email string) (model.User, error)
	ExistsByLogin(ctx context.Context, email string, username string) (bool, error)
	Create(ctx context.Context, u model.User) error
	UpdatePassword(ctx context.Context, userID string, passwordHash string) error
}

type refreshTokenStore interface {
	Store(ctx context.Context, token string, userID string, expiresAt time.Time) error
	Validate(ctx context.Context, token string) (string, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID string) error
}

type resetTokenStore interface {
	Store(ctx context.Context, tokenHash string, userID string, expiresAt time.Time) error
	Consume(ctx context.Context, tokenHash string) (string, error)
	DeleteForUser(ctx context.Context, userID string) error
}

type AuthService struct {
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	resetTTL   time.Duration
	bcryptCost int
	users      userStore
	tokens     refreshTokenStore
	resets     resetTokenStore
}

func NewAuthService(
	jwtSecret string,
	accessTTL time.Duration,
	refreshTTL time.Duration,
	resetTTL time.Duration,
	bcryptCost int,
	users userStore,
	tokens refreshTokenStore,
	resets resetTokenStore,
) (*AuthService, error) {
	if strings.TrimSpace(jwtSecret) == "" {
		return nil, errors.New("jwt secret is required")
	}

	return &AuthService{
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		resetTTL:   resetTTL,
		bcryptCost: bcryptCost,
		users:      users,
		tokens:     tokens,
		resets:     resets,
	}, nil
}

// Login accepts a username or email address as the identifier. Unknown
// identifier and wrong password collapse into the same error so responses
// do not leak which accounts exist.
func (s *AuthService) Login(ctx context.Context, login string, password string) (model.TokenPair, error) {
	user, err := s.users.FindByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			metrics.LoginFailure()
			return model.TokenPair{}, model.ErrInvalidCredentials
		}
		return model.TokenPair{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		metrics.LoginFailure()
		return model.TokenPair{}, model.ErrInvalidCredentials
	}

	if !user.IsActive {
		metrics.LoginFailure()
		return model.TokenPair{}, model.ErrAccountDisabled
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	metrics.LoginSuccess()
	return pair, nil
}

// Register creates an account and logs it in, returning a token pair.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.TokenPair, error) {
	email := strings.TrimSpace(req.Email)
	username := strings.TrimSpace(req.Username)
	password := strings.TrimSpace(req.Password)
	fullName := strings.TrimSpace(req.FullName)
	role := model.NormalizeRole(req.Role)

	if email == "" || username == "" || password == "" {
		return model.TokenPair{}, apierror.New("VALIDATION_ERROR", "email, username and password are required", "", http.StatusBadRequest)
	}
	if !strings.Contains(email, "@") || strings.ContainsAny(email, " \t") {
		return model.TokenPair{}, apierror.New("VALIDATION_ERROR", "invalid email address", email, http.StatusBadRequest)
	}
	if len(password) < 8 {
		return model.TokenPair{}, apierror.New("VALIDATION_ERROR", "password must be at least 8 characters", "", http.StatusBadRequest)
	}
	if !model.ValidRole(role) {
		return model.TokenPair{}, apierror.New("VALIDATION_ERROR", "invalid role", role, http.StatusBadRequest)
	}

	exists, err := s.users.ExistsByLogin(ctx, email, username)
	if err != nil {
		return model.TokenPair{}, err
	}
	if exists {
		return model.TokenPair{}, model.ErrUserAlreadyExists
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return model.TokenPair{}, fmt.Errorf("hash password: %w", err)
	}

	now := time.Now().UTC()
	user := model.User{
		ID:           uuid.NewString(),
		Email:        email,
		Username:     username,
		FullName:     fullName,
		Role:         role,
		IsActive:     true,
		PasswordHash: string(hash),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.users.Create(ctx, user); err != nil {
		return model.TokenPair{}, err
	}

	return s.issueTokenPair(ctx, user)
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued, so a replayed token fails validation.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (model.TokenPair, error) {
	claims, err := s.ValidateToken(refreshToken, "refresh")
	if err != nil {
		return model.TokenPair{}, err
	}

	ownerID, err := s.tokens.Validate(ctx, refreshToken)
	if err != nil {
		return model.TokenPair{}, err
	}
	if ownerID != claims.UserID {
		return model.TokenPair{}, model.ErrTokenNotFound
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return model.TokenPair{}, err
	}

	user, err := s.users.FindByID(ctx, claims.UserID)
	if err != nil {
		return model.TokenPair{}, err
	}
	if !user.IsActive {
		return model.TokenPair{}, model.ErrAccountDisabled
	}

	pair, err := s.issueTokenPair(ctx, user)
	if err != nil {
		return model.TokenPair{}, err
	}

	metrics.TokenRefresh()
	return pair, nil
}

// Logout revokes the presented refresh token. Revocation failures are logged
// and swallowed; logout never fails from the caller's point of view.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) {
	if strings.TrimSpace(refreshToken) == "" {
		return
	}
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		slog.Warn("refresh token revocation failed", "error", err)
	}
	metrics.Logout()
}

func (s *AuthService) ValidateToken(tokenString string, expectedType string) (*model.AuthClaims, error) {
	parsed, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, model.ErrTokenNotFound
		}
		return s.jwtSecret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, model.ErrTokenNotFound
	}

	claimsMap, ok := parsed.Claims.(jwt.MapClaims)
	if !ok {
		return nil, model.ErrTokenNotFound
	}

	typ, _ := claimsMap["typ"].(string)
	if expectedType != "" && typ != expectedType {
		return nil, model.ErrTokenNotFound
	}

	claims := &model.AuthClaims{Type: typ}
	claims.UserID, _ = claimsMap["sub"].(string)
	claims.Email, _ = claimsMap["email"].(string)
	claims.Username, _ = claimsMap["username"].(string)
	claims.Role, _ = claimsMap["role"].(string)
	claims.TokenID, _ = claimsMap["jti"].(string)

	if claims.UserID == "" {
		return nil, model.ErrTokenNotFound
	}

	return claims, nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID string) (model.User, error) {
	return s.users.FindByID(ctx, userID)
}

// RequestPasswordReset stores a hashed one-time token and returns the raw
// token for the delivery channel. An unknown address returns an empty token
// and no error, so the endpoint cannot be used to enumerate accounts.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) (string, error) {
	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, model.ErrUserNotFound) {
			return "", nil
		}
		return "", err
	}

	token := uuid.NewString()
	if err := s.resets.Store(ctx, hashResetToken(token), user.ID, time.Now().UTC().Add(s.resetTTL)); err != nil {
		return "", err
	}

	// Mail delivery is out of scope; the token is surfaced in the log for
	// operators and local development.
	slog.Info("password reset token issued", "user_id", user.ID, "token", token)
	return token, nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token string, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < 8 {
		return apierror.New("VALIDATION_ERROR", "password must be at least 8 characters", "", http.StatusBadRequest)
	}

	userID, err := s.resets.Consume(ctx, hashResetToken(strings.TrimSpace(token)))
	if err != nil {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	// Every live session is cut once the password changes.
	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, currentPassword string, newPassword string) error {
	if len(strings.TrimSpace(newPassword)) < 8 {
		return apierror.New("VALIDATION_ERROR", "password must be at least 8 characters", "", http.StatusBadRequest)
	}

	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(currentPassword)); err != nil {
		return model.ErrInvalidCredentials
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(strings.TrimSpace(newPassword)), s.bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	if err := s.users.UpdatePassword(ctx, userID, string(hash)); err != nil {
		return err
	}

	return s.tokens.RevokeAllForUser(ctx, userID)
}

func (s *AuthService) issueTokenPair(ctx context.Context, user model.User) (model.TokenPair, error) {
	now := time.Now().UTC()

	accessToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "access",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.accessTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	refreshToken, err := s.signToken(jwt.MapClaims{
		"sub":      user.ID,
		"email":    user.Email,
		"username": user.Username,
		"role":     user.Role,
		"typ":      "refresh",
		"jti":      uuid.NewString(),
		"iat":      now.Unix(),
		"exp":      now.Add(s.refreshTTL).Unix(),
	})
	if err != nil {
		return model.TokenPair{}, err
	}

	if err := s.tokens.Store(ctx, refreshToken, user.ID, now.Add(s.refreshTTL)); err != nil {
		return model.TokenPair{}, err
	}

	return model.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.accessTTL.Seconds()),
		User:         user.AuthUser(),
	}, nil
}

func (s *AuthService) signToken(claims jwt.MapClaims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func hashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
