package teamiq

import (
	"context"
	"net/http"
	"sync"
	"time"
)

// User is the profile shape the server returns for an account.
type User struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	IsActive bool   `json:"is_active"`
}

// TokenPair mirrors the server's login, register and refresh responses.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
	User         User   `json:"user"`
}

// RegisterRequest is the payload for account creation. Role may be empty;
// the server defaults it to intern.
type RegisterRequest struct {
	Email    string `json:"email"`
	Username string `json:"username"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

// Session is the sole owner of session state: the current identity, writes
// to the token store and the login-redirect signal. UI code reads identity
// through CurrentUser and never touches the token store directly.
//
// NewSession wires the session into the client as its Refresher and as the
// target of the terminal-401 signal, so the pipeline depends only on those
// two narrow hooks.
type Session struct {
	client *Client
	store  TokenStore

	mu           sync.Mutex
	user         *User
	refreshToken string
	// generation increments on every login, logout and forced expiry so a
	// profile fetch that raced one of those is detectably stale.
	generation uint64

	onAuthExpired func()
}

func NewSession(client *Client, store TokenStore) *Session {
	s := &Session{client: client, store: store}
	client.SetRefresher(s)
	client.OnAuthExpired(func() {
		s.clearLocal()
		s.signalAuthExpired()
	})
	return s
}

// OnAuthExpired registers fn to run whenever the session is forced out:
// terminal 401, failed refresh cascade, or logout.
func (s *Session) OnAuthExpired(fn func()) {
	s.mu.Lock()
	s.onAuthExpired = fn
	s.mu.Unlock()
}

// CurrentUser returns the identity of the signed-in account, or nil when
// signed out.
func (s *Session) CurrentUser() *User {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.user == nil {
		return nil
	}
	u := *s.user
	return &u
}

// Login authenticates with a username or email address. On success the
// access token lands in the store and the identity in the session; on
// failure nothing changes.
func (s *Session) Login(ctx context.Context, login string, password string) (*User, error) {
	body := map[string]string{"username": login, "password": password}
	var pair TokenPair
	if err := s.client.do(ctx, http.MethodPost, "/api/auth/login", body, &pair, false); err != nil {
		return nil, err
	}
	s.adopt(pair)
	return s.CurrentUser(), nil
}

// Register creates an account. The server auto-logs new accounts in, so a
// returned token pair is adopted exactly like a login; without one the
// session stays as it was.
func (s *Session) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	var pair TokenPair
	if err := s.client.do(ctx, http.MethodPost, "/api/auth/register", req, &pair, false); err != nil {
		return nil, err
	}
	if pair.AccessToken == "" {
		return nil, nil
	}
	s.adopt(pair)
	return s.CurrentUser(), nil
}

// Refresh exchanges the held refresh token for a rotated pair. This is the
// Refresher capability the pipeline invokes on a 401; a failed exchange
// clears local session state and is never retried from here.
func (s *Session) Refresh(ctx context.Context) (string, error) {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	if refreshToken == "" {
		s.clearLocal()
		return "", ErrSessionExpired
	}

	body := map[string]string{"refresh_token": refreshToken}
	var pair TokenPair
	if err := s.client.do(ctx, http.MethodPost, "/api/auth/refresh", body, &pair, false); err != nil {
		s.clearLocal()
		return "", err
	}

	s.adopt(pair)
	return pair.AccessToken, nil
}

// Logout tells the server best-effort and always clears local state: the
// user can leave an authenticated state even when the server is
// unreachable. The server error is returned for observability only.
func (s *Session) Logout(ctx context.Context) error {
	s.mu.Lock()
	refreshToken := s.refreshToken
	s.mu.Unlock()

	body := map[string]string{"refresh_token": refreshToken}
	err := s.client.do(ctx, http.MethodPost, "/api/auth/logout", body, nil, false)

	s.clearLocal()
	s.signalAuthExpired()
	return err
}

// Me fetches the authoritative profile through the pipeline.
func (s *Session) Me(ctx context.Context) (*User, error) {
	var u User
	if err := s.client.Get(ctx, "/api/auth/me", &u); err != nil {
		return nil, err
	}
	return &u, nil
}

// Init restores a session at startup. A stored token that decodes and is
// unexpired populates the identity from its claims immediately, with no
// network round-trip; the authoritative profile is then fetched and applied
// only if no login or logout raced the fetch. A profile fetch failure means
// the session is broken and is cleared.
func (s *Session) Init(ctx context.Context) error {
	token := s.store.Get()
	if token == "" {
		return nil
	}

	claims, err := DecodeClaims(token)
	if err != nil || !claims.Valid(time.Now()) {
		s.clearLocal()
		return nil
	}

	s.mu.Lock()
	s.user = &User{
		ID:       claims.Subject,
		Email:    claims.Email,
		Username: claims.Username,
		Role:     claims.Role,
		IsActive: true,
	}
	generation := s.generation
	s.mu.Unlock()

	profile, err := s.Me(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation != generation {
		// A login or logout raced the fetch; the later action wins and the
		// stale response is dropped.
		return nil
	}
	if err != nil {
		s.user = nil
		s.refreshToken = ""
		s.store.Clear()
		s.generation++
		return err
	}
	s.user = profile
	return nil
}

func (s *Session) adopt(pair TokenPair) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Set(pair.AccessToken)
	u := pair.User
	s.user = &u
	s.refreshToken = pair.RefreshToken
	s.generation++
}

func (s *Session) clearLocal() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.store.Clear()
	s.user = nil
	s.refreshToken = ""
	s.generation++
}

func (s *Session) signalAuthExpired() {
	s.mu.Lock()
	fn := s.onAuthExpired
	s.mu.Unlock()
	if fn != nil {
		fn()
	}
}
